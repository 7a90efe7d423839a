package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

type fakeWhiteboardRepo struct {
	boards map[string]*model.Whiteboard // by room ID
	nextID int
}

func newFakeWhiteboardRepo() *fakeWhiteboardRepo {
	return &fakeWhiteboardRepo{boards: map[string]*model.Whiteboard{}}
}

func (f *fakeWhiteboardRepo) Create(ctx context.Context, wb *model.Whiteboard) error {
	f.nextID++
	wb.ID = fmt.Sprintf("wb-%d", f.nextID)
	f.boards[wb.RoomID] = wb
	return nil
}
func (f *fakeWhiteboardRepo) GetByRoomID(ctx context.Context, roomID string) (*model.Whiteboard, error) {
	return f.boards[roomID], nil
}
func (f *fakeWhiteboardRepo) ListByUser(ctx context.Context, userID string) ([]model.Whiteboard, error) {
	var out []model.Whiteboard
	for _, wb := range f.boards {
		if wb.UserID == userID {
			out = append(out, *wb)
		}
	}
	return out, nil
}
func (f *fakeWhiteboardRepo) Delete(ctx context.Context, id, userID string) error {
	for room, wb := range f.boards {
		if wb.ID == id && wb.UserID == userID {
			delete(f.boards, room)
		}
	}
	return nil
}

type fakeLiveblocksService struct {
	identified []string // room IDs
}

func (f *fakeLiveblocksService) IdentifyUser(ctx context.Context, user *model.User, roomID string) (string, error) {
	f.identified = append(f.identified, roomID)
	return "lb-token-" + user.UserID, nil
}

func TestCreateWhiteboardAtLifetimeCap(t *testing.T) {
	repo := newFakeWhiteboardRepo()
	limits := &fakeLimitService{whiteboardErr: repository.ErrWhiteboardLimitExceeded}
	svc := NewWhiteboardService(repo, newFakeFriendRepo(), limits, &fakeLiveblocksService{}, zerolog.Nop())

	_, err := svc.Create(context.Background(), "u1", "Sketches")
	if !errors.Is(err, repository.ErrWhiteboardLimitExceeded) {
		t.Fatalf("expected ErrWhiteboardLimitExceeded, got %v", err)
	}
	if len(repo.boards) != 0 {
		t.Fatal("board must not be persisted past the lifetime cap")
	}
}

func TestCreateWhiteboardAssignsRoomID(t *testing.T) {
	repo := newFakeWhiteboardRepo()
	svc := NewWhiteboardService(repo, newFakeFriendRepo(), &fakeLimitService{}, &fakeLiveblocksService{}, zerolog.Nop())

	wb, err := svc.Create(context.Background(), "u1", "Sketches")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if wb.RoomID == "" {
		t.Fatal("expected a room ID assigned on create")
	}
}

func TestGetRoomTokenAccess(t *testing.T) {
	repo := newFakeWhiteboardRepo()
	friends := newFakeFriendRepo()
	lb := &fakeLiveblocksService{}
	svc := NewWhiteboardService(repo, friends, &fakeLimitService{}, lb, zerolog.Nop())

	owner := &model.User{UserID: "u1", Name: "Alice"}
	friend := &model.User{UserID: "u2", Name: "Bob"}
	stranger := &model.User{UserID: "u3", Name: "Mallory"}

	wb, err := svc.Create(context.Background(), "u1", "Sketches")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	friends.befriend("u1", "u2")

	if _, err := svc.GetRoomToken(context.Background(), owner, wb.RoomID); err != nil {
		t.Fatalf("owner must get a token, got %v", err)
	}
	if _, err := svc.GetRoomToken(context.Background(), friend, wb.RoomID); err != nil {
		t.Fatalf("friend of the owner must get a token, got %v", err)
	}
	if _, err := svc.GetRoomToken(context.Background(), stranger, wb.RoomID); !errors.Is(err, ErrWhiteboardNotFound) {
		t.Fatalf("expected ErrWhiteboardNotFound for stranger, got %v", err)
	}
	if _, err := svc.GetRoomToken(context.Background(), owner, "no-such-room"); !errors.Is(err, ErrWhiteboardNotFound) {
		t.Fatalf("expected ErrWhiteboardNotFound for unknown room, got %v", err)
	}
}
