package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubscriptionRepository defines methods for accessing subscription data.
type SubscriptionRepository interface {
	// GetSubscription returns the user's subscription row, or nil if none exists.
	GetSubscription(ctx context.Context, userID string) (*model.UserSubscription, error)
	// UpsertStripeSubscription writes the Stripe-authoritative state for a user.
	UpsertStripeSubscription(ctx context.Context, userID, plan string, startsAt, endsAt time.Time, status, stripeSubscriptionID string) error
	// SetStatus refreshes only the status field (invoice success/failure events).
	SetStatus(ctx context.Context, userID, status string) error
	// DowngradeUserToFreePlan resets a user to the free plan when their subscription is deleted.
	DowngradeUserToFreePlan(ctx context.Context, userID string) error
}

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepo creates a new SubscriptionRepository.
func NewSubscriptionRepo(pool *pgxpool.Pool) SubscriptionRepository {
	return &subscriptionRepo{pool: pool}
}

func (r *subscriptionRepo) GetSubscription(ctx context.Context, userID string) (*model.UserSubscription, error) {
	const q = `
        SELECT user_id, plan, stripe_subscription_id, status, current_period_start, current_period_end, created_at, updated_at
        FROM user_subscriptions
        WHERE user_id = $1
    `
	var us model.UserSubscription
	err := r.pool.QueryRow(ctx, q, userID).Scan(
		&us.UserID,
		&us.Plan,
		&us.StripeSubscriptionID,
		&us.Status,
		&us.CurrentPeriodStart,
		&us.CurrentPeriodEnd,
		&us.CreatedAt,
		&us.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch subscription for user %s: %w", userID, err)
	}
	return &us, nil
}

func (r *subscriptionRepo) UpsertStripeSubscription(ctx context.Context, userID, plan string, startsAt, endsAt time.Time, status, stripeSubscriptionID string) error {
	var subID *string
	if stripeSubscriptionID != "" {
		subID = &stripeSubscriptionID
	}
	const q = `
		INSERT INTO user_subscriptions (user_id, plan, stripe_subscription_id, status, current_period_start, current_period_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET plan = EXCLUDED.plan,
			stripe_subscription_id = EXCLUDED.stripe_subscription_id,
			status = EXCLUDED.status,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end = EXCLUDED.current_period_end,
			updated_at = NOW();
	`
	if _, err := r.pool.Exec(ctx, q, userID, plan, subID, status, startsAt, endsAt); err != nil {
		return fmt.Errorf("upsert stripe subscription for user %s: %w", userID, err)
	}
	return nil
}

func (r *subscriptionRepo) SetStatus(ctx context.Context, userID, status string) error {
	const q = `
		UPDATE user_subscriptions
		SET status = $2, updated_at = NOW()
		WHERE user_id = $1
	`
	if _, err := r.pool.Exec(ctx, q, userID, status); err != nil {
		return fmt.Errorf("set subscription status for user %s: %w", userID, err)
	}
	return nil
}

func (r *subscriptionRepo) DowngradeUserToFreePlan(ctx context.Context, userID string) error {
	const q = `
		INSERT INTO user_subscriptions (user_id, plan, stripe_subscription_id, status, current_period_start, current_period_end, created_at, updated_at)
		VALUES ($1, 'free', NULL, 'active', NOW(), NOW() + INTERVAL '31 days', NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET plan = 'free',
			stripe_subscription_id = NULL,
			status = 'active',
			current_period_start = NOW(),
			current_period_end = NOW() + INTERVAL '31 days',
			updated_at = NOW();
	`
	if _, err := r.pool.Exec(ctx, q, userID); err != nil {
		return fmt.Errorf("downgrading user %s to free plan: %w", userID, err)
	}
	return nil
}
