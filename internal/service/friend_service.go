package service

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

var (
	ErrSelfFriendRequest  = errors.New("cannot send a friend request to yourself")
	ErrRequestNotFound    = errors.New("friend request not found")
	ErrNotRequestTarget   = errors.New("only the recipient can resolve a request")
	ErrNotFriends         = errors.New("users are not friends")
	ErrInvitationNotFound = errors.New("course invitation not found")
)

// FriendService manages the friend graph and course sharing between friends.
// Side-effect notifications are best-effort; the graph mutation is what counts.
type FriendService interface {
	SendRequest(ctx context.Context, fromUserID, toEmail string) (*model.FriendRequest, error)
	AcceptRequest(ctx context.Context, userID, requestID string) error
	DeclineRequest(ctx context.Context, userID, requestID string) error
	ListIncoming(ctx context.Context, userID string) ([]model.FriendRequest, error)
	ListOutgoing(ctx context.Context, userID string) ([]model.FriendRequest, error)
	ListFriends(ctx context.Context, userID string) ([]model.User, error)
	RemoveFriend(ctx context.Context, userID, friendID string) error

	ShareCourse(ctx context.Context, ownerID, courseID, friendID string) (*model.CourseInvitation, error)
	AcceptInvitation(ctx context.Context, userID, invitationID string) (string, error)
	DeclineInvitation(ctx context.Context, userID, invitationID string) error
	ListInvitations(ctx context.Context, userID string) ([]model.CourseInvitation, error)
}

type friendService struct {
	friendRepo      repository.FriendRepository
	invitationRepo  repository.InvitationRepository
	userRepo        repository.UserRepository
	courseRepo      repository.CourseRepository
	notificationSvc NotificationService
	logger          zerolog.Logger
}

func NewFriendService(
	friendRepo repository.FriendRepository,
	invitationRepo repository.InvitationRepository,
	userRepo repository.UserRepository,
	courseRepo repository.CourseRepository,
	notificationSvc NotificationService,
	logger zerolog.Logger,
) FriendService {
	lg := logger.With().Str("service", "FriendService").Logger()
	return &friendService{
		friendRepo:      friendRepo,
		invitationRepo:  invitationRepo,
		userRepo:        userRepo,
		courseRepo:      courseRepo,
		notificationSvc: notificationSvc,
		logger:          lg,
	}
}

func (s *friendService) notify(ctx context.Context, n *model.Notification) {
	if err := s.notificationSvc.Notify(ctx, n); err != nil {
		s.logger.Error().Err(err).Str("type", n.Type).Str("user_id", n.UserID).Msg("Failed to deliver notification")
	}
}

func (s *friendService) SendRequest(ctx context.Context, fromUserID, toEmail string) (*model.FriendRequest, error) {
	target, err := s.userRepo.GetUserByEmail(ctx, toEmail)
	if err != nil {
		return nil, fmt.Errorf("lookup target user: %w", err)
	}
	if target == nil {
		return nil, ErrUserNotFound
	}
	if target.UserID == fromUserID {
		return nil, ErrSelfFriendRequest
	}
	req, err := s.friendRepo.CreateRequest(ctx, fromUserID, target.UserID)
	if err != nil {
		return nil, err
	}
	sender, err := s.userRepo.GetUserByID(ctx, fromUserID)
	if err != nil || sender == nil {
		s.logger.Error().Err(err).Str("user_id", fromUserID).Msg("Failed to load sender for notification")
		return req, nil
	}
	s.notify(ctx, &model.Notification{
		UserID:     target.UserID,
		Type:       model.NotificationFriendRequest,
		ActorID:    fromUserID,
		ResourceID: &req.ID,
		Message:    fmt.Sprintf("%s sent you a friend request", sender.Name),
	})
	return req, nil
}

func (s *friendService) AcceptRequest(ctx context.Context, userID, requestID string) error {
	req, err := s.friendRepo.GetRequest(ctx, requestID)
	if err != nil {
		return fmt.Errorf("fetch friend request: %w", err)
	}
	if req == nil || req.Status != model.RequestPending {
		return ErrRequestNotFound
	}
	if req.ToUserID != userID {
		return ErrNotRequestTarget
	}
	if _, err := s.friendRepo.AcceptRequest(ctx, requestID); err != nil {
		return fmt.Errorf("accept friend request: %w", err)
	}
	accepter, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil || accepter == nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to load accepter for notification")
		return nil
	}
	s.notify(ctx, &model.Notification{
		UserID:  req.FromUserID,
		Type:    model.NotificationFriendAccepted,
		ActorID: userID,
		Message: fmt.Sprintf("%s accepted your friend request", accepter.Name),
	})
	return nil
}

func (s *friendService) DeclineRequest(ctx context.Context, userID, requestID string) error {
	req, err := s.friendRepo.GetRequest(ctx, requestID)
	if err != nil {
		return fmt.Errorf("fetch friend request: %w", err)
	}
	if req == nil || req.Status != model.RequestPending {
		return ErrRequestNotFound
	}
	if req.ToUserID != userID {
		return ErrNotRequestTarget
	}
	return s.friendRepo.DeclineRequest(ctx, requestID)
}

func (s *friendService) ListIncoming(ctx context.Context, userID string) ([]model.FriendRequest, error) {
	return s.friendRepo.ListIncomingRequests(ctx, userID)
}

func (s *friendService) ListOutgoing(ctx context.Context, userID string) ([]model.FriendRequest, error) {
	return s.friendRepo.ListOutgoingRequests(ctx, userID)
}

func (s *friendService) ListFriends(ctx context.Context, userID string) ([]model.User, error) {
	ids, err := s.friendRepo.ListFriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list friend ids: %w", err)
	}
	friends := make([]model.User, 0, len(ids))
	for _, id := range ids {
		u, err := s.userRepo.GetUserByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load friend %s: %w", id, err)
		}
		if u != nil {
			friends = append(friends, *u)
		}
	}
	return friends, nil
}

func (s *friendService) RemoveFriend(ctx context.Context, userID, friendID string) error {
	return s.friendRepo.RemoveFriend(ctx, userID, friendID)
}

// ShareCourse offers a copy of a course to a friend. Only owners can share,
// and only with existing friends.
func (s *friendService) ShareCourse(ctx context.Context, ownerID, courseID, friendID string) (*model.CourseInvitation, error) {
	course, err := s.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("fetch course: %w", err)
	}
	if course == nil || course.UserID != ownerID {
		return nil, ErrCourseNotFound
	}
	friends, err := s.friendRepo.AreFriends(ctx, ownerID, friendID)
	if err != nil {
		return nil, fmt.Errorf("check friendship: %w", err)
	}
	if !friends {
		return nil, ErrNotFriends
	}
	inv := &model.CourseInvitation{
		CourseID:   courseID,
		FromUserID: ownerID,
		ToUserID:   friendID,
		Status:     model.RequestPending,
	}
	if err := s.invitationRepo.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invitation: %w", err)
	}
	owner, err := s.userRepo.GetUserByID(ctx, ownerID)
	if err != nil || owner == nil {
		s.logger.Error().Err(err).Str("user_id", ownerID).Msg("Failed to load owner for notification")
		return inv, nil
	}
	s.notify(ctx, &model.Notification{
		UserID:     friendID,
		Type:       model.NotificationCourseShared,
		ActorID:    ownerID,
		ResourceID: &inv.ID,
		Message:    fmt.Sprintf("%s shared the course %q with you", owner.Name, course.Title),
	})
	return inv, nil
}

// AcceptInvitation copies the shared course into the recipient's library with
// progress reset, and returns the new course ID.
func (s *friendService) AcceptInvitation(ctx context.Context, userID, invitationID string) (string, error) {
	inv, err := s.invitationRepo.GetByID(ctx, invitationID)
	if err != nil {
		return "", fmt.Errorf("fetch invitation: %w", err)
	}
	if inv == nil || inv.Status != model.RequestPending || inv.ToUserID != userID {
		return "", ErrInvitationNotFound
	}
	newCourseID, err := s.invitationRepo.Accept(ctx, invitationID, userID)
	if err != nil {
		return "", fmt.Errorf("accept invitation: %w", err)
	}
	if newCourseID == "" {
		return "", ErrInvitationNotFound
	}
	accepter, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil || accepter == nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to load accepter for notification")
		return newCourseID, nil
	}
	s.notify(ctx, &model.Notification{
		UserID:     inv.FromUserID,
		Type:       model.NotificationCourseAccepted,
		ActorID:    userID,
		ResourceID: &inv.CourseID,
		Message:    fmt.Sprintf("%s accepted your shared course", accepter.Name),
	})
	return newCourseID, nil
}

func (s *friendService) DeclineInvitation(ctx context.Context, userID, invitationID string) error {
	inv, err := s.invitationRepo.GetByID(ctx, invitationID)
	if err != nil {
		return fmt.Errorf("fetch invitation: %w", err)
	}
	if inv == nil || inv.Status != model.RequestPending || inv.ToUserID != userID {
		return ErrInvitationNotFound
	}
	return s.invitationRepo.Decline(ctx, invitationID, userID)
}

func (s *friendService) ListInvitations(ctx context.Context, userID string) ([]model.CourseInvitation, error) {
	return s.invitationRepo.ListByRecipient(ctx, userID)
}
