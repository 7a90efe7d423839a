package repository

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WhiteboardRepository manages whiteboard ownership rows.
type WhiteboardRepository interface {
	Create(ctx context.Context, wb *model.Whiteboard) error
	GetByRoomID(ctx context.Context, roomID string) (*model.Whiteboard, error)
	ListByUser(ctx context.Context, userID string) ([]model.Whiteboard, error)
	Delete(ctx context.Context, id, userID string) error
}

type whiteboardRepo struct {
	pool *pgxpool.Pool
}

// NewWhiteboardRepo creates a new WhiteboardRepository.
func NewWhiteboardRepo(pool *pgxpool.Pool) WhiteboardRepository {
	return &whiteboardRepo{pool: pool}
}

func (r *whiteboardRepo) Create(ctx context.Context, wb *model.Whiteboard) error {
	const q = `
		INSERT INTO whiteboards (user_id, room_id, name)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, q, wb.UserID, wb.RoomID, wb.Name).Scan(&wb.ID, &wb.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating whiteboard for user %s: %w", wb.UserID, err)
	}
	return nil
}

func (r *whiteboardRepo) GetByRoomID(ctx context.Context, roomID string) (*model.Whiteboard, error) {
	const q = `SELECT id, user_id, room_id, name, created_at FROM whiteboards WHERE room_id = $1`
	var wb model.Whiteboard
	err := r.pool.QueryRow(ctx, q, roomID).Scan(&wb.ID, &wb.UserID, &wb.RoomID, &wb.Name, &wb.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching whiteboard for room %s: %w", roomID, err)
	}
	return &wb, nil
}

func (r *whiteboardRepo) ListByUser(ctx context.Context, userID string) ([]model.Whiteboard, error) {
	const q = `SELECT id, user_id, room_id, name, created_at FROM whiteboards WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("listing whiteboards for user %s: %w", userID, err)
	}
	defer rows.Close()

	boards := []model.Whiteboard{}
	for rows.Next() {
		var wb model.Whiteboard
		if err := rows.Scan(&wb.ID, &wb.UserID, &wb.RoomID, &wb.Name, &wb.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning whiteboard: %w", err)
		}
		boards = append(boards, wb)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return boards, nil
}

func (r *whiteboardRepo) Delete(ctx context.Context, id, userID string) error {
	const q = `DELETE FROM whiteboards WHERE id = $1 AND user_id = $2`
	if _, err := r.pool.Exec(ctx, q, id, userID); err != nil {
		return fmt.Errorf("deleting whiteboard %s: %w", id, err)
	}
	return nil
}
