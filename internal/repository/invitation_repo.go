package repository

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InvitationRepository manages course share invitations.
type InvitationRepository interface {
	Create(ctx context.Context, inv *model.CourseInvitation) error
	GetByID(ctx context.Context, invitationID string) (*model.CourseInvitation, error)
	ListByRecipient(ctx context.Context, userID string) ([]model.CourseInvitation, error)
	// Accept copies the course document to the recipient and marks the
	// invitation accepted in a single transaction. Returns the new course id.
	Accept(ctx context.Context, invitationID, recipientID string) (string, error)
	Decline(ctx context.Context, invitationID, recipientID string) error
}

type invitationRepo struct {
	pool *pgxpool.Pool
}

// NewInvitationRepo creates a new InvitationRepository.
func NewInvitationRepo(pool *pgxpool.Pool) InvitationRepository {
	return &invitationRepo{pool: pool}
}

func (r *invitationRepo) Create(ctx context.Context, inv *model.CourseInvitation) error {
	const q = `
		INSERT INTO course_invitations (course_id, from_user_id, to_user_id, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING id, status, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, q, inv.CourseID, inv.FromUserID, inv.ToUserID).
		Scan(&inv.ID, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating course invitation for course %s: %w", inv.CourseID, err)
	}
	return nil
}

func (r *invitationRepo) GetByID(ctx context.Context, invitationID string) (*model.CourseInvitation, error) {
	const q = `
		SELECT id, course_id, from_user_id, to_user_id, status, created_at, updated_at
		FROM course_invitations
		WHERE id = $1
	`
	var inv model.CourseInvitation
	err := r.pool.QueryRow(ctx, q, invitationID).
		Scan(&inv.ID, &inv.CourseID, &inv.FromUserID, &inv.ToUserID, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching course invitation %s: %w", invitationID, err)
	}
	return &inv, nil
}

func (r *invitationRepo) ListByRecipient(ctx context.Context, userID string) ([]model.CourseInvitation, error) {
	const q = `
		SELECT id, course_id, from_user_id, to_user_id, status, created_at, updated_at
		FROM course_invitations
		WHERE to_user_id = $1 AND status = 'pending'
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("listing course invitations for user %s: %w", userID, err)
	}
	defer rows.Close()

	invs := []model.CourseInvitation{}
	for rows.Next() {
		var inv model.CourseInvitation
		if err := rows.Scan(&inv.ID, &inv.CourseID, &inv.FromUserID, &inv.ToUserID, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning course invitation: %w", err)
		}
		invs = append(invs, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return invs, nil
}

func (r *invitationRepo) Accept(ctx context.Context, invitationID, recipientID string) (string, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", fmt.Errorf("starting transaction for invitation accept: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const updateQ = `
		UPDATE course_invitations
		SET status = 'accepted', updated_at = NOW()
		WHERE id = $1 AND to_user_id = $2 AND status = 'pending'
		RETURNING course_id
	`
	var courseID string
	if err := tx.QueryRow(ctx, updateQ, invitationID, recipientID).Scan(&courseID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("accepting invitation %s: %w", invitationID, err)
	}

	// Copy the course document to the recipient. Completion state and notes do
	// not carry over; the copy starts fresh and private.
	const copyQ = `
		INSERT INTO courses (user_id, topic, title, knowledge_level, depth, mode, is_public, notes, steps)
		SELECT $1, topic, title, knowledge_level, depth, 'solo', FALSE, '',
		       (SELECT jsonb_agg(s || '{"completed": false}'::jsonb) FROM jsonb_array_elements(steps) s)
		FROM courses
		WHERE id = $2
		RETURNING id
	`
	var newCourseID string
	if err := tx.QueryRow(ctx, copyQ, recipientID, courseID).Scan(&newCourseID); err != nil {
		return "", fmt.Errorf("copying course %s for invitation %s: %w", courseID, invitationID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("committing invitation accept %s: %w", invitationID, err)
	}
	return newCourseID, nil
}

func (r *invitationRepo) Decline(ctx context.Context, invitationID, recipientID string) error {
	const q = `
		UPDATE course_invitations
		SET status = 'declined', updated_at = NOW()
		WHERE id = $1 AND to_user_id = $2 AND status = 'pending'
	`
	if _, err := r.pool.Exec(ctx, q, invitationID, recipientID); err != nil {
		return fmt.Errorf("declining invitation %s: %w", invitationID, err)
	}
	return nil
}
