package repository

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NotificationRepository manages per-user notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	GetByID(ctx context.Context, notificationID string) (*model.Notification, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Notification, error)
	MarkRead(ctx context.Context, notificationID, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, notificationID, userID string) error
}

type notificationRepo struct {
	pool *pgxpool.Pool
}

// NewNotificationRepo creates a new NotificationRepository.
func NewNotificationRepo(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepo{pool: pool}
}

func (r *notificationRepo) Create(ctx context.Context, n *model.Notification) error {
	const q = `
		INSERT INTO notifications (user_id, type, actor_id, resource_id, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, read, created_at
	`
	err := r.pool.QueryRow(ctx, q, n.UserID, n.Type, n.ActorID, n.ResourceID, n.Message).
		Scan(&n.ID, &n.Read, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating notification for user %s: %w", n.UserID, err)
	}
	return nil
}

func (r *notificationRepo) GetByID(ctx context.Context, notificationID string) (*model.Notification, error) {
	const q = `
		SELECT id, user_id, type, actor_id, resource_id, message, read, created_at
		FROM notifications
		WHERE id = $1
	`
	var n model.Notification
	err := r.pool.QueryRow(ctx, q, notificationID).
		Scan(&n.ID, &n.UserID, &n.Type, &n.ActorID, &n.ResourceID, &n.Message, &n.Read, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching notification %s: %w", notificationID, err)
	}
	return &n, nil
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Notification, error) {
	const q = `
		SELECT id, user_id, type, actor_id, resource_id, message, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing notifications for user %s: %w", userID, err)
	}
	defer rows.Close()

	ns := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.ActorID, &n.ResourceID, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		ns = append(ns, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ns, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, notificationID, userID string) error {
	const q = `UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`
	if _, err := r.pool.Exec(ctx, q, notificationID, userID); err != nil {
		return fmt.Errorf("marking notification %s read: %w", notificationID, err)
	}
	return nil
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, userID string) error {
	const q = `UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE`
	if _, err := r.pool.Exec(ctx, q, userID); err != nil {
		return fmt.Errorf("marking all notifications read for user %s: %w", userID, err)
	}
	return nil
}

func (r *notificationRepo) Delete(ctx context.Context, notificationID, userID string) error {
	const q = `DELETE FROM notifications WHERE id = $1 AND user_id = $2`
	if _, err := r.pool.Exec(ctx, q, notificationID, userID); err != nil {
		return fmt.Errorf("deleting notification %s: %w", notificationID, err)
	}
	return nil
}
