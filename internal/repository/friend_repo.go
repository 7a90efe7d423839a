package repository

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrAlreadyFriends is returned when a request targets an existing friendship.
var ErrAlreadyFriends = errors.New("already_friends")

// ErrDuplicateRequest is returned when a pending request already exists between two users.
var ErrDuplicateRequest = errors.New("duplicate_friend_request")

// FriendRepository manages friend requests and the friendship graph.
type FriendRepository interface {
	CreateRequest(ctx context.Context, fromUserID, toUserID string) (*model.FriendRequest, error)
	GetRequest(ctx context.Context, requestID string) (*model.FriendRequest, error)
	ListIncomingRequests(ctx context.Context, userID string) ([]model.FriendRequest, error)
	ListOutgoingRequests(ctx context.Context, userID string) ([]model.FriendRequest, error)
	// AcceptRequest marks the request accepted and inserts both friendship rows
	// in a single transaction.
	AcceptRequest(ctx context.Context, requestID string) (*model.FriendRequest, error)
	DeclineRequest(ctx context.Context, requestID string) error
	AreFriends(ctx context.Context, userID, otherID string) (bool, error)
	ListFriendIDs(ctx context.Context, userID string) ([]string, error)
	// RemoveFriend deletes both direction rows in a single transaction.
	RemoveFriend(ctx context.Context, userID, friendID string) error
}

type friendRepo struct {
	pool *pgxpool.Pool
}

// NewFriendRepo creates a new FriendRepository.
func NewFriendRepo(pool *pgxpool.Pool) FriendRepository {
	return &friendRepo{pool: pool}
}

func (r *friendRepo) CreateRequest(ctx context.Context, fromUserID, toUserID string) (*model.FriendRequest, error) {
	friends, err := r.AreFriends(ctx, fromUserID, toUserID)
	if err != nil {
		return nil, err
	}
	if friends {
		return nil, ErrAlreadyFriends
	}

	var exists bool
	const dupQ = `
		SELECT EXISTS (
			SELECT 1 FROM friend_requests
			WHERE status = 'pending'
			  AND ((from_user_id = $1 AND to_user_id = $2) OR (from_user_id = $2 AND to_user_id = $1))
		)
	`
	if err := r.pool.QueryRow(ctx, dupQ, fromUserID, toUserID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("checking pending request between %s and %s: %w", fromUserID, toUserID, err)
	}
	if exists {
		return nil, ErrDuplicateRequest
	}

	const q = `
		INSERT INTO friend_requests (from_user_id, to_user_id, status)
		VALUES ($1, $2, 'pending')
		RETURNING id, from_user_id, to_user_id, status, created_at, updated_at
	`
	var fr model.FriendRequest
	err = r.pool.QueryRow(ctx, q, fromUserID, toUserID).
		Scan(&fr.ID, &fr.FromUserID, &fr.ToUserID, &fr.Status, &fr.CreatedAt, &fr.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating friend request from %s to %s: %w", fromUserID, toUserID, err)
	}
	return &fr, nil
}

func (r *friendRepo) GetRequest(ctx context.Context, requestID string) (*model.FriendRequest, error) {
	const q = `
		SELECT id, from_user_id, to_user_id, status, created_at, updated_at
		FROM friend_requests
		WHERE id = $1
	`
	var fr model.FriendRequest
	err := r.pool.QueryRow(ctx, q, requestID).
		Scan(&fr.ID, &fr.FromUserID, &fr.ToUserID, &fr.Status, &fr.CreatedAt, &fr.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching friend request %s: %w", requestID, err)
	}
	return &fr, nil
}

func (r *friendRepo) ListIncomingRequests(ctx context.Context, userID string) ([]model.FriendRequest, error) {
	return r.listRequests(ctx, `to_user_id`, userID)
}

func (r *friendRepo) ListOutgoingRequests(ctx context.Context, userID string) ([]model.FriendRequest, error) {
	return r.listRequests(ctx, `from_user_id`, userID)
}

func (r *friendRepo) listRequests(ctx context.Context, column, userID string) ([]model.FriendRequest, error) {
	q := fmt.Sprintf(`
		SELECT id, from_user_id, to_user_id, status, created_at, updated_at
		FROM friend_requests
		WHERE %s = $1 AND status = 'pending'
		ORDER BY created_at DESC
	`, column)
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("listing friend requests for user %s: %w", userID, err)
	}
	defer rows.Close()

	reqs := []model.FriendRequest{}
	for rows.Next() {
		var fr model.FriendRequest
		if err := rows.Scan(&fr.ID, &fr.FromUserID, &fr.ToUserID, &fr.Status, &fr.CreatedAt, &fr.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning friend request: %w", err)
		}
		reqs = append(reqs, fr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *friendRepo) AcceptRequest(ctx context.Context, requestID string) (*model.FriendRequest, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("starting transaction for friend accept: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const updateQ = `
		UPDATE friend_requests
		SET status = 'accepted', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING id, from_user_id, to_user_id, status, created_at, updated_at
	`
	var fr model.FriendRequest
	err = tx.QueryRow(ctx, updateQ, requestID).
		Scan(&fr.ID, &fr.FromUserID, &fr.ToUserID, &fr.Status, &fr.CreatedAt, &fr.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("accepting friend request %s: %w", requestID, err)
	}

	const insertQ = `
		INSERT INTO friendships (user_id, friend_id)
		VALUES ($1, $2), ($2, $1)
		ON CONFLICT DO NOTHING
	`
	if _, err := tx.Exec(ctx, insertQ, fr.FromUserID, fr.ToUserID); err != nil {
		return nil, fmt.Errorf("inserting friendship rows for request %s: %w", requestID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing friend accept %s: %w", requestID, err)
	}
	return &fr, nil
}

func (r *friendRepo) DeclineRequest(ctx context.Context, requestID string) error {
	const q = `
		UPDATE friend_requests
		SET status = 'declined', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`
	if _, err := r.pool.Exec(ctx, q, requestID); err != nil {
		return fmt.Errorf("declining friend request %s: %w", requestID, err)
	}
	return nil
}

func (r *friendRepo) AreFriends(ctx context.Context, userID, otherID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM friendships WHERE user_id = $1 AND friend_id = $2)`
	var exists bool
	if err := r.pool.QueryRow(ctx, q, userID, otherID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking friendship between %s and %s: %w", userID, otherID, err)
	}
	return exists, nil
}

func (r *friendRepo) ListFriendIDs(ctx context.Context, userID string) ([]string, error) {
	const q = `SELECT friend_id FROM friendships WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("listing friends for user %s: %w", userID, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning friend id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *friendRepo) RemoveFriend(ctx context.Context, userID, friendID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("starting transaction for friend removal: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const q = `
		DELETE FROM friendships
		WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)
	`
	if _, err := tx.Exec(ctx, q, userID, friendID); err != nil {
		return fmt.Errorf("removing friendship between %s and %s: %w", userID, friendID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing friend removal: %w", err)
	}
	return nil
}
