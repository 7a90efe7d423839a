package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"app/internal/model"
	"app/internal/pubsub"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationService persists in-app notifications and fans them out on
// Pub/Sub for real-time delivery. Publish failures are logged, never fatal;
// the stored row is the source of truth.
type NotificationService interface {
	Notify(ctx context.Context, n *model.Notification) error
	List(ctx context.Context, userID string, limit, offset int) ([]model.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID, notificationID string) error
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
	publisher        pubsub.Publisher
	topic            string
	logger           zerolog.Logger
}

func NewNotificationService(notificationRepo repository.NotificationRepository, publisher pubsub.Publisher, topic string, logger zerolog.Logger) NotificationService {
	lg := logger.With().Str("service", "NotificationService").Logger()
	return &notificationService{
		notificationRepo: notificationRepo,
		publisher:        publisher,
		topic:            topic,
		logger:           lg,
	}
}

type notificationEvent struct {
	NotificationID string `json:"notification_id"`
	UserID         string `json:"user_id"`
	Type           string `json:"type"`
	ActorID        string `json:"actor_id"`
	Message        string `json:"message"`
}

func (s *notificationService) Notify(ctx context.Context, n *model.Notification) error {
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	if s.publisher == nil {
		return nil
	}
	payload, err := json.Marshal(notificationEvent{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Type:           n.Type,
		ActorID:        n.ActorID,
		Message:        n.Message,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to marshal notification event")
		return nil
	}
	if _, err := s.publisher.Publish(ctx, s.topic, payload); err != nil {
		s.logger.Error().Err(err).Str("notification_id", n.ID).Msg("Failed to publish notification event")
	}
	return nil
}

func (s *notificationService) List(ctx context.Context, userID string, limit, offset int) ([]model.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.notificationRepo.ListByUser(ctx, userID, limit, offset)
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	if err := s.notificationRepo.MarkRead(ctx, notificationID, userID); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.notificationRepo.MarkAllRead(ctx, userID); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

func (s *notificationService) Delete(ctx context.Context, userID, notificationID string) error {
	if err := s.notificationRepo.Delete(ctx, notificationID, userID); err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}
