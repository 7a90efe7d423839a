package service

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"
	"app/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrWhiteboardNotFound = errors.New("whiteboard not found")

// WhiteboardService manages whiteboard records and room access tokens.
// Creation counts against a lifetime cap per plan tier.
type WhiteboardService interface {
	Create(ctx context.Context, userID, name string) (*model.Whiteboard, error)
	List(ctx context.Context, userID string) ([]model.Whiteboard, error)
	GetRoomToken(ctx context.Context, user *model.User, roomID string) (string, error)
	Delete(ctx context.Context, userID, whiteboardID string) error
}

type whiteboardService struct {
	whiteboardRepo repository.WhiteboardRepository
	friendRepo     repository.FriendRepository
	limitSvc       LimitService
	liveblocksSvc  LiveblocksService
	logger         zerolog.Logger
}

func NewWhiteboardService(whiteboardRepo repository.WhiteboardRepository, friendRepo repository.FriendRepository, limitSvc LimitService, liveblocksSvc LiveblocksService, logger zerolog.Logger) WhiteboardService {
	lg := logger.With().Str("service", "WhiteboardService").Logger()
	return &whiteboardService{
		whiteboardRepo: whiteboardRepo,
		friendRepo:     friendRepo,
		limitSvc:       limitSvc,
		liveblocksSvc:  liveblocksSvc,
		logger:         lg,
	}
}

func (s *whiteboardService) Create(ctx context.Context, userID, name string) (*model.Whiteboard, error) {
	if err := s.limitSvc.RecordWhiteboardCreation(ctx, userID); err != nil {
		return nil, err
	}
	wb := &model.Whiteboard{
		UserID: userID,
		RoomID: uuid.NewString(),
		Name:   name,
	}
	if err := s.whiteboardRepo.Create(ctx, wb); err != nil {
		return nil, fmt.Errorf("create whiteboard: %w", err)
	}
	s.logger.Info().Str("user_id", userID).Str("room_id", wb.RoomID).Msg("Whiteboard created")
	return wb, nil
}

func (s *whiteboardService) List(ctx context.Context, userID string) ([]model.Whiteboard, error) {
	return s.whiteboardRepo.ListByUser(ctx, userID)
}

// GetRoomToken mints a Liveblocks token for the room. The owner always gets
// in; friends of the owner may join for collaborative sessions.
func (s *whiteboardService) GetRoomToken(ctx context.Context, user *model.User, roomID string) (string, error) {
	wb, err := s.whiteboardRepo.GetByRoomID(ctx, roomID)
	if err != nil {
		return "", fmt.Errorf("fetch whiteboard: %w", err)
	}
	if wb == nil {
		return "", ErrWhiteboardNotFound
	}
	if wb.UserID != user.UserID {
		friends, err := s.friendRepo.AreFriends(ctx, wb.UserID, user.UserID)
		if err != nil {
			return "", fmt.Errorf("check room access: %w", err)
		}
		if !friends {
			return "", ErrWhiteboardNotFound
		}
	}
	return s.liveblocksSvc.IdentifyUser(ctx, user, roomID)
}

func (s *whiteboardService) Delete(ctx context.Context, userID, whiteboardID string) error {
	if err := s.whiteboardRepo.Delete(ctx, whiteboardID, userID); err != nil {
		return fmt.Errorf("delete whiteboard: %w", err)
	}
	return nil
}
