package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Usage event types
const (
	EventCourseCreate     = "course_create"
	EventWhiteboardCreate = "whiteboard_create"
)

// ErrCourseLimitExceeded is returned when a user has reached their course creation limit.
var ErrCourseLimitExceeded = errors.New("course_limit_exceeded")

// ErrWhiteboardLimitExceeded is returned when a user has reached their whiteboard creation limit.
var ErrWhiteboardLimitExceeded = errors.New("whiteboard_limit_exceeded")

// UsageRepository tracks user actions for usage-based limits.
type UsageRepository interface {
	// CheckAndRecordCourseCreation atomically counts the user's course creations
	// inside the rolling window and records a new one. Returns
	// ErrCourseLimitExceeded if the limit is reached.
	CheckAndRecordCourseCreation(ctx context.Context, userID string, windowStart time.Time, max int) error
	// CheckAndRecordWhiteboardCreation atomically checks the lifetime whiteboard
	// count and records a new creation. Returns ErrWhiteboardLimitExceeded if the
	// cap is reached.
	CheckAndRecordWhiteboardCreation(ctx context.Context, userID string, max int) error
	// ListCourseCreationTimes returns course creation timestamps since the given time.
	ListCourseCreationTimes(ctx context.Context, userID string, since time.Time) ([]time.Time, error)
	// CountWhiteboardCreations returns the lifetime whiteboard creation count.
	CountWhiteboardCreations(ctx context.Context, userID string) (int, error)
}

type usageRepo struct {
	pool *pgxpool.Pool
}

// NewUsageRepo creates a new UsageRepository.
func NewUsageRepo(pool *pgxpool.Pool) UsageRepository {
	return &usageRepo{pool: pool}
}

func (r *usageRepo) CheckAndRecordCourseCreation(ctx context.Context, userID string, windowStart time.Time, max int) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("starting transaction for course creation check: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	var count int
	const countQ = `
		SELECT COUNT(*)
		FROM usage_events
		WHERE user_id = $1
		  AND event_type = $2
		  AND created_at >= $3
	`
	if err := tx.QueryRow(ctx, countQ, userID, EventCourseCreate, windowStart).Scan(&count); err != nil {
		return fmt.Errorf("counting course creations for user %s: %w", userID, err)
	}
	if max > 0 && count >= max {
		return ErrCourseLimitExceeded
	}
	const insertQ = `INSERT INTO usage_events (user_id, event_type) VALUES ($1, $2)`
	if _, err := tx.Exec(ctx, insertQ, userID, EventCourseCreate); err != nil {
		return fmt.Errorf("recording course creation for user %s: %w", userID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing course creation for user %s: %w", userID, err)
	}
	return nil
}

func (r *usageRepo) CheckAndRecordWhiteboardCreation(ctx context.Context, userID string, max int) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("starting transaction for whiteboard creation check: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	var count int
	const countQ = `
		SELECT COUNT(*)
		FROM usage_events
		WHERE user_id = $1
		  AND event_type = $2
	`
	if err := tx.QueryRow(ctx, countQ, userID, EventWhiteboardCreate).Scan(&count); err != nil {
		return fmt.Errorf("counting whiteboard creations for user %s: %w", userID, err)
	}
	if max > 0 && count >= max {
		return ErrWhiteboardLimitExceeded
	}
	const insertQ = `INSERT INTO usage_events (user_id, event_type) VALUES ($1, $2)`
	if _, err := tx.Exec(ctx, insertQ, userID, EventWhiteboardCreate); err != nil {
		return fmt.Errorf("recording whiteboard creation for user %s: %w", userID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing whiteboard creation for user %s: %w", userID, err)
	}
	return nil
}

func (r *usageRepo) ListCourseCreationTimes(ctx context.Context, userID string, since time.Time) ([]time.Time, error) {
	const q = `
		SELECT created_at
		FROM usage_events
		WHERE user_id = $1
		  AND event_type = $2
		  AND created_at >= $3
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, q, userID, EventCourseCreate, since)
	if err != nil {
		return nil, fmt.Errorf("listing course creations for user %s: %w", userID, err)
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scanning course creation time: %w", err)
		}
		times = append(times, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return times, nil
}

func (r *usageRepo) CountWhiteboardCreations(ctx context.Context, userID string) (int, error) {
	const q = `
		SELECT COUNT(*)
		FROM usage_events
		WHERE user_id = $1
		  AND event_type = $2
	`
	var count int
	if err := r.pool.QueryRow(ctx, q, userID, EventWhiteboardCreate).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting whiteboard creations for user %s: %w", userID, err)
	}
	return count, nil
}
