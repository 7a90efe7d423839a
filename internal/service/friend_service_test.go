package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"app/internal/model"

	"github.com/rs/zerolog"
)

type fakeFriendRepo struct {
	requests map[string]*model.FriendRequest
	friends  map[string]bool // "a|b" both directions
	nextID   int
	accepted []string
	declined []string
}

func newFakeFriendRepo() *fakeFriendRepo {
	return &fakeFriendRepo{
		requests: map[string]*model.FriendRequest{},
		friends:  map[string]bool{},
	}
}

func (f *fakeFriendRepo) befriend(a, b string) {
	f.friends[a+"|"+b] = true
	f.friends[b+"|"+a] = true
}

func (f *fakeFriendRepo) CreateRequest(ctx context.Context, fromUserID, toUserID string) (*model.FriendRequest, error) {
	f.nextID++
	req := &model.FriendRequest{
		ID:         fmt.Sprintf("req-%d", f.nextID),
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Status:     model.RequestPending,
	}
	f.requests[req.ID] = req
	return req, nil
}
func (f *fakeFriendRepo) GetRequest(ctx context.Context, requestID string) (*model.FriendRequest, error) {
	return f.requests[requestID], nil
}
func (f *fakeFriendRepo) ListIncomingRequests(ctx context.Context, userID string) ([]model.FriendRequest, error) {
	return nil, nil
}
func (f *fakeFriendRepo) ListOutgoingRequests(ctx context.Context, userID string) ([]model.FriendRequest, error) {
	return nil, nil
}
func (f *fakeFriendRepo) AcceptRequest(ctx context.Context, requestID string) (*model.FriendRequest, error) {
	req := f.requests[requestID]
	req.Status = model.RequestAccepted
	f.befriend(req.FromUserID, req.ToUserID)
	f.accepted = append(f.accepted, requestID)
	return req, nil
}
func (f *fakeFriendRepo) DeclineRequest(ctx context.Context, requestID string) error {
	f.requests[requestID].Status = model.RequestDeclined
	f.declined = append(f.declined, requestID)
	return nil
}
func (f *fakeFriendRepo) AreFriends(ctx context.Context, userID, otherID string) (bool, error) {
	return f.friends[userID+"|"+otherID], nil
}
func (f *fakeFriendRepo) ListFriendIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	prefix := userID + "|"
	for key, ok := range f.friends {
		if ok && strings.HasPrefix(key, prefix) {
			ids = append(ids, strings.TrimPrefix(key, prefix))
		}
	}
	return ids, nil
}
func (f *fakeFriendRepo) RemoveFriend(ctx context.Context, userID, friendID string) error {
	delete(f.friends, userID+"|"+friendID)
	delete(f.friends, friendID+"|"+userID)
	return nil
}

type fakeInvitationRepo struct {
	invitations map[string]*model.CourseInvitation
	nextID      int
}

func newFakeInvitationRepo() *fakeInvitationRepo {
	return &fakeInvitationRepo{invitations: map[string]*model.CourseInvitation{}}
}

func (f *fakeInvitationRepo) Create(ctx context.Context, inv *model.CourseInvitation) error {
	f.nextID++
	inv.ID = fmt.Sprintf("inv-%d", f.nextID)
	f.invitations[inv.ID] = inv
	return nil
}
func (f *fakeInvitationRepo) GetByID(ctx context.Context, invitationID string) (*model.CourseInvitation, error) {
	return f.invitations[invitationID], nil
}
func (f *fakeInvitationRepo) ListByRecipient(ctx context.Context, userID string) ([]model.CourseInvitation, error) {
	return nil, nil
}
func (f *fakeInvitationRepo) Accept(ctx context.Context, invitationID, recipientID string) (string, error) {
	inv := f.invitations[invitationID]
	inv.Status = model.RequestAccepted
	return "course-copy-1", nil
}
func (f *fakeInvitationRepo) Decline(ctx context.Context, invitationID, recipientID string) error {
	f.invitations[invitationID].Status = model.RequestDeclined
	return nil
}

type fakeCourseRepo struct {
	courses map[string]*model.Course
	created []*model.Course
}

func newFakeCourseRepo() *fakeCourseRepo {
	return &fakeCourseRepo{courses: map[string]*model.Course{}}
}

func (f *fakeCourseRepo) CreateCourse(ctx context.Context, c *model.Course) error {
	f.created = append(f.created, c)
	if c.CourseID == "" {
		c.CourseID = fmt.Sprintf("course-%d", len(f.created))
	}
	f.courses[c.CourseID] = c
	return nil
}
func (f *fakeCourseRepo) GetCourseByID(ctx context.Context, courseID string) (*model.Course, error) {
	return f.courses[courseID], nil
}
func (f *fakeCourseRepo) GetCoursesByUserID(ctx context.Context, userID string) ([]model.Course, error) {
	var out []model.Course
	for _, c := range f.courses {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}
func (f *fakeCourseRepo) UpdateCourse(ctx context.Context, c *model.Course) error {
	f.courses[c.CourseID] = c
	return nil
}
func (f *fakeCourseRepo) DeleteCourse(ctx context.Context, courseID string) error {
	delete(f.courses, courseID)
	return nil
}

type fakeNotificationService struct {
	sent []*model.Notification
}

func (f *fakeNotificationService) Notify(ctx context.Context, n *model.Notification) error {
	f.sent = append(f.sent, n)
	return nil
}
func (f *fakeNotificationService) List(ctx context.Context, userID string, limit, offset int) ([]model.Notification, error) {
	return nil, nil
}
func (f *fakeNotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	return nil
}
func (f *fakeNotificationService) MarkAllRead(ctx context.Context, userID string) error { return nil }
func (f *fakeNotificationService) Delete(ctx context.Context, userID, notificationID string) error {
	return nil
}

type friendFixture struct {
	svc           FriendService
	friendRepo    *fakeFriendRepo
	invitations   *fakeInvitationRepo
	users         *fakeUserRepo
	courses       *fakeCourseRepo
	notifications *fakeNotificationService
}

func newFriendFixture() *friendFixture {
	f := &friendFixture{
		friendRepo:  newFakeFriendRepo(),
		invitations: newFakeInvitationRepo(),
		users: &fakeUserRepo{users: map[string]*model.User{
			"u1": {UserID: "u1", Name: "Alice", Email: "alice@example.com"},
			"u2": {UserID: "u2", Name: "Bob", Email: "bob@example.com"},
		}},
		courses:       newFakeCourseRepo(),
		notifications: &fakeNotificationService{},
	}
	f.svc = NewFriendService(f.friendRepo, f.invitations, f.users, f.courses, f.notifications, zerolog.Nop())
	return f
}

func TestSendRequestToSelf(t *testing.T) {
	f := newFriendFixture()
	_, err := f.svc.SendRequest(context.Background(), "u1", "alice@example.com")
	if !errors.Is(err, ErrSelfFriendRequest) {
		t.Fatalf("expected ErrSelfFriendRequest, got %v", err)
	}
}

func TestSendRequestUnknownEmail(t *testing.T) {
	f := newFriendFixture()
	_, err := f.svc.SendRequest(context.Background(), "u1", "nobody@example.com")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSendRequestNotifiesRecipient(t *testing.T) {
	f := newFriendFixture()
	req, err := f.svc.SendRequest(context.Background(), "u1", "bob@example.com")
	if err != nil {
		t.Fatalf("SendRequest returned error: %v", err)
	}
	if req.FromUserID != "u1" || req.ToUserID != "u2" {
		t.Fatalf("unexpected request endpoints: %+v", req)
	}
	if len(f.notifications.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(f.notifications.sent))
	}
	n := f.notifications.sent[0]
	if n.UserID != "u2" || n.Type != model.NotificationFriendRequest {
		t.Fatalf("unexpected notification: %+v", n)
	}
}

func TestAcceptRequestOnlyByRecipient(t *testing.T) {
	f := newFriendFixture()
	req, err := f.svc.SendRequest(context.Background(), "u1", "bob@example.com")
	if err != nil {
		t.Fatalf("SendRequest returned error: %v", err)
	}

	if err := f.svc.AcceptRequest(context.Background(), "u1", req.ID); !errors.Is(err, ErrNotRequestTarget) {
		t.Fatalf("expected ErrNotRequestTarget for sender accept, got %v", err)
	}
	if err := f.svc.AcceptRequest(context.Background(), "u2", req.ID); err != nil {
		t.Fatalf("AcceptRequest by recipient returned error: %v", err)
	}
	friends, err := f.friendRepo.AreFriends(context.Background(), "u1", "u2")
	if err != nil || !friends {
		t.Fatalf("expected u1 and u2 to be friends after accept")
	}
	// Resolved requests cannot be accepted again.
	if err := f.svc.AcceptRequest(context.Background(), "u2", req.ID); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound on re-accept, got %v", err)
	}
}

func TestShareCourseRequiresFriendship(t *testing.T) {
	f := newFriendFixture()
	f.courses.courses["c1"] = &model.Course{CourseID: "c1", UserID: "u1", Title: "Learning Go"}

	_, err := f.svc.ShareCourse(context.Background(), "u1", "c1", "u2")
	if !errors.Is(err, ErrNotFriends) {
		t.Fatalf("expected ErrNotFriends, got %v", err)
	}

	f.friendRepo.befriend("u1", "u2")
	inv, err := f.svc.ShareCourse(context.Background(), "u1", "c1", "u2")
	if err != nil {
		t.Fatalf("ShareCourse returned error: %v", err)
	}
	if inv.ToUserID != "u2" || inv.Status != model.RequestPending {
		t.Fatalf("unexpected invitation: %+v", inv)
	}
	last := f.notifications.sent[len(f.notifications.sent)-1]
	if last.Type != model.NotificationCourseShared || last.UserID != "u2" {
		t.Fatalf("unexpected notification: %+v", last)
	}
}

func TestShareCourseRequiresOwnership(t *testing.T) {
	f := newFriendFixture()
	f.courses.courses["c1"] = &model.Course{CourseID: "c1", UserID: "u2", Title: "Learning Go"}
	f.friendRepo.befriend("u1", "u2")

	_, err := f.svc.ShareCourse(context.Background(), "u1", "c1", "u2")
	if !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound for non-owner share, got %v", err)
	}
}

func TestAcceptInvitationOnlyByRecipient(t *testing.T) {
	f := newFriendFixture()
	f.courses.courses["c1"] = &model.Course{CourseID: "c1", UserID: "u1", Title: "Learning Go"}
	f.friendRepo.befriend("u1", "u2")
	inv, err := f.svc.ShareCourse(context.Background(), "u1", "c1", "u2")
	if err != nil {
		t.Fatalf("ShareCourse returned error: %v", err)
	}

	if _, err := f.svc.AcceptInvitation(context.Background(), "u1", inv.ID); !errors.Is(err, ErrInvitationNotFound) {
		t.Fatalf("expected ErrInvitationNotFound for non-recipient, got %v", err)
	}
	newCourseID, err := f.svc.AcceptInvitation(context.Background(), "u2", inv.ID)
	if err != nil {
		t.Fatalf("AcceptInvitation returned error: %v", err)
	}
	if newCourseID == "" {
		t.Fatal("expected a new course ID from accepted invitation")
	}
}
