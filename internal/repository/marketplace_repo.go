package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrAlreadyPublished is returned when a course already has a marketplace listing.
var ErrAlreadyPublished = errors.New("course_already_published")

// MarketplaceRepository manages published course projections and likes.
type MarketplaceRepository interface {
	Publish(ctx context.Context, mc *model.MarketplaceCourse) error
	GetByID(ctx context.Context, id, viewerID string) (*model.MarketplaceCourse, error)
	ListByCategory(ctx context.Context, category, viewerID string, limit, offset int) ([]model.MarketplaceCourse, error)
	Unpublish(ctx context.Context, id, ownerID string) error
	// ToggleLike flips the viewer's like and adjusts like_count in one
	// transaction. Returns the resulting liked state and count.
	ToggleLike(ctx context.Context, id, userID string) (liked bool, likeCount int, err error)
}

type marketplaceRepo struct {
	pool *pgxpool.Pool
}

// NewMarketplaceRepo creates a new MarketplaceRepository.
func NewMarketplaceRepo(pool *pgxpool.Pool) MarketplaceRepository {
	return &marketplaceRepo{pool: pool}
}

func (r *marketplaceRepo) Publish(ctx context.Context, mc *model.MarketplaceCourse) error {
	stepsJSON, err := json.Marshal(mc.Steps)
	if err != nil {
		return fmt.Errorf("marshaling steps for marketplace course: %w", err)
	}

	var exists bool
	const dupQ = `SELECT EXISTS (SELECT 1 FROM marketplace_courses WHERE course_id = $1)`
	if err := r.pool.QueryRow(ctx, dupQ, mc.CourseID).Scan(&exists); err != nil {
		return fmt.Errorf("checking existing listing for course %s: %w", mc.CourseID, err)
	}
	if exists {
		return ErrAlreadyPublished
	}

	const q = `
		INSERT INTO marketplace_courses (course_id, owner_id, title, topic, category, steps)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, like_count, created_at
	`
	err = r.pool.QueryRow(ctx, q, mc.CourseID, mc.OwnerID, mc.Title, mc.Topic, mc.Category, stepsJSON).
		Scan(&mc.ID, &mc.LikeCount, &mc.CreatedAt)
	if err != nil {
		return fmt.Errorf("publishing course %s: %w", mc.CourseID, err)
	}
	return nil
}

func (r *marketplaceRepo) GetByID(ctx context.Context, id, viewerID string) (*model.MarketplaceCourse, error) {
	const q = `
		SELECT mc.id, mc.course_id, mc.owner_id, mc.title, mc.topic, mc.category, mc.like_count, mc.steps, mc.created_at,
		       EXISTS (SELECT 1 FROM marketplace_likes ml WHERE ml.marketplace_course_id = mc.id AND ml.user_id = $2)
		FROM marketplace_courses mc
		WHERE mc.id = $1
	`
	var mc model.MarketplaceCourse
	var stepsJSON []byte
	err := r.pool.QueryRow(ctx, q, id, viewerID).Scan(
		&mc.ID, &mc.CourseID, &mc.OwnerID, &mc.Title, &mc.Topic, &mc.Category,
		&mc.LikeCount, &stepsJSON, &mc.CreatedAt, &mc.LikedByMe,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching marketplace course %s: %w", id, err)
	}
	if err := json.Unmarshal(stepsJSON, &mc.Steps); err != nil {
		return nil, fmt.Errorf("unmarshaling steps for marketplace course %s: %w", id, err)
	}
	return &mc, nil
}

func (r *marketplaceRepo) ListByCategory(ctx context.Context, category, viewerID string, limit, offset int) ([]model.MarketplaceCourse, error) {
	// Listings omit the step payload; it is loaded on the detail view.
	const q = `
		SELECT mc.id, mc.course_id, mc.owner_id, mc.title, mc.topic, mc.category, mc.like_count, mc.created_at,
		       EXISTS (SELECT 1 FROM marketplace_likes ml WHERE ml.marketplace_course_id = mc.id AND ml.user_id = $2)
		FROM marketplace_courses mc
		WHERE ($1 = '' OR mc.category = $1)
		ORDER BY mc.like_count DESC, mc.created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, q, category, viewerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing marketplace courses: %w", err)
	}
	defer rows.Close()

	courses := []model.MarketplaceCourse{}
	for rows.Next() {
		var mc model.MarketplaceCourse
		if err := rows.Scan(
			&mc.ID, &mc.CourseID, &mc.OwnerID, &mc.Title, &mc.Topic, &mc.Category,
			&mc.LikeCount, &mc.CreatedAt, &mc.LikedByMe,
		); err != nil {
			return nil, fmt.Errorf("scanning marketplace course: %w", err)
		}
		courses = append(courses, mc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *marketplaceRepo) Unpublish(ctx context.Context, id, ownerID string) error {
	const q = `DELETE FROM marketplace_courses WHERE id = $1 AND owner_id = $2`
	if _, err := r.pool.Exec(ctx, q, id, ownerID); err != nil {
		return fmt.Errorf("unpublishing marketplace course %s: %w", id, err)
	}
	return nil
}

func (r *marketplaceRepo) ToggleLike(ctx context.Context, id, userID string) (bool, int, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, 0, fmt.Errorf("starting transaction for like toggle: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var liked bool
	const existsQ = `SELECT EXISTS (SELECT 1 FROM marketplace_likes WHERE marketplace_course_id = $1 AND user_id = $2)`
	if err := tx.QueryRow(ctx, existsQ, id, userID).Scan(&liked); err != nil {
		return false, 0, fmt.Errorf("checking like for marketplace course %s: %w", id, err)
	}

	var likeCount int
	if liked {
		if _, err := tx.Exec(ctx, `DELETE FROM marketplace_likes WHERE marketplace_course_id = $1 AND user_id = $2`, id, userID); err != nil {
			return false, 0, fmt.Errorf("removing like for marketplace course %s: %w", id, err)
		}
		const decQ = `UPDATE marketplace_courses SET like_count = like_count - 1 WHERE id = $1 RETURNING like_count`
		if err := tx.QueryRow(ctx, decQ, id).Scan(&likeCount); err != nil {
			return false, 0, fmt.Errorf("decrementing like count for %s: %w", id, err)
		}
	} else {
		if _, err := tx.Exec(ctx, `INSERT INTO marketplace_likes (marketplace_course_id, user_id) VALUES ($1, $2)`, id, userID); err != nil {
			return false, 0, fmt.Errorf("adding like for marketplace course %s: %w", id, err)
		}
		const incQ = `UPDATE marketplace_courses SET like_count = like_count + 1 WHERE id = $1 RETURNING like_count`
		if err := tx.QueryRow(ctx, incQ, id).Scan(&likeCount); err != nil {
			return false, 0, fmt.Errorf("incrementing like count for %s: %w", id, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, 0, fmt.Errorf("committing like toggle for %s: %w", id, err)
	}
	return !liked, likeCount, nil
}
