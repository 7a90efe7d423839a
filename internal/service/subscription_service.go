package service

import (
	"context"
	"time"

	"app/internal/limit"
	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// SubscriptionService defines business logic methods for subscriptions.
type SubscriptionService interface {
	GetSubscription(ctx context.Context, userID string) (*model.UserSubscription, error)
	// GetPlanTier resolves the user's effective tier. A missing or lapsed
	// subscription is the free tier.
	GetPlanTier(ctx context.Context, userID string) (limit.Plan, error)
	UpsertStripeSubscription(ctx context.Context, userID, plan string, startsAt, endsAt time.Time, status, stripeSubscriptionID string) error
	SetStatus(ctx context.Context, userID, status string) error
	DowngradeUserToFreePlan(ctx context.Context, userID string) error
}

type subscriptionService struct {
	repo   repository.SubscriptionRepository
	logger zerolog.Logger
}

// NewSubscriptionService creates a new SubscriptionService with a scoped logger.
func NewSubscriptionService(repo repository.SubscriptionRepository, logger zerolog.Logger) SubscriptionService {
	return &subscriptionService{
		repo:   repo,
		logger: logger.With().Str("service", "SubscriptionService").Logger(),
	}
}

func (s *subscriptionService) GetSubscription(ctx context.Context, userID string) (*model.UserSubscription, error) {
	sub, err := s.repo.GetSubscription(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch subscription")
		return nil, err
	}
	return sub, nil
}

func (s *subscriptionService) GetPlanTier(ctx context.Context, userID string) (limit.Plan, error) {
	sub, err := s.repo.GetSubscription(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to resolve plan tier")
		return "", err
	}
	if sub == nil || sub.Plan != "premium" {
		return limit.PlanFree, nil
	}
	// Cancelled subscribers keep premium until the paid period lapses.
	if sub.Status == "past_due" || time.Now().After(sub.CurrentPeriodEnd) {
		return limit.PlanFree, nil
	}
	return limit.PlanPremium, nil
}

func (s *subscriptionService) UpsertStripeSubscription(ctx context.Context, userID, plan string, startsAt, endsAt time.Time, status, stripeSubscriptionID string) error {
	if err := s.repo.UpsertStripeSubscription(ctx, userID, plan, startsAt, endsAt, status, stripeSubscriptionID); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("plan", plan).Str("status", status).Msg("Failed to upsert stripe subscription")
		return err
	}
	return nil
}

func (s *subscriptionService) SetStatus(ctx context.Context, userID, status string) error {
	if err := s.repo.SetStatus(ctx, userID, status); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("status", status).Msg("Failed to set subscription status")
		return err
	}
	return nil
}

// DowngradeUserToFreePlan downgrades a user to the free plan when their subscription is deleted
func (s *subscriptionService) DowngradeUserToFreePlan(ctx context.Context, userID string) error {
	if err := s.repo.DowngradeUserToFreePlan(ctx, userID); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to downgrade user to free plan")
		return err
	}
	return nil
}
