package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// CourseRepository defines the interface for interacting with course data
type CourseRepository interface {
	CreateCourse(ctx context.Context, c *model.Course) error
	GetCourseByID(ctx context.Context, courseID string) (*model.Course, error)
	GetCoursesByUserID(ctx context.Context, userID string) ([]model.Course, error)
	UpdateCourse(ctx context.Context, c *model.Course) error
	DeleteCourse(ctx context.Context, courseID string) error
}

type courseRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCourseRepo creates a new CourseRepository
func NewCourseRepo(pool *pgxpool.Pool, logger zerolog.Logger) CourseRepository {
	return &courseRepo{pool: pool, logger: logger.With().Str("repository", "CourseRepository").Logger()}
}

// CreateCourse inserts a new course with its step document
func (r *courseRepo) CreateCourse(ctx context.Context, c *model.Course) error {
	stepsJSON, err := json.Marshal(c.Steps)
	if err != nil {
		return fmt.Errorf("marshaling steps for course: %w", err)
	}
	query := `
		INSERT INTO courses (user_id, topic, title, knowledge_level, depth, mode, is_public, notes, steps)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	err = r.pool.QueryRow(ctx, query,
		c.UserID, c.Topic, c.Title, c.KnowledgeLevel, c.Depth, c.Mode, c.IsPublic, c.Notes, stepsJSON,
	).Scan(&c.CourseID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating course for user %s: %w", c.UserID, err)
	}
	return nil
}

// GetCourseByID retrieves a course by its ID
func (r *courseRepo) GetCourseByID(ctx context.Context, courseID string) (*model.Course, error) {
	query := `
		SELECT id, user_id, topic, title, knowledge_level, depth, mode, is_public, notes, steps, created_at, updated_at
		FROM courses
		WHERE id = $1
	`
	var c model.Course
	var stepsJSON []byte
	err := r.pool.QueryRow(ctx, query, courseID).Scan(
		&c.CourseID, &c.UserID, &c.Topic, &c.Title, &c.KnowledgeLevel, &c.Depth,
		&c.Mode, &c.IsPublic, &c.Notes, &stepsJSON, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching course %s: %w", courseID, err)
	}
	if err := json.Unmarshal(stepsJSON, &c.Steps); err != nil {
		return nil, fmt.Errorf("unmarshaling steps for course %s: %w", courseID, err)
	}
	return &c, nil
}

// GetCoursesByUserID retrieves all courses owned by a user, newest first
func (r *courseRepo) GetCoursesByUserID(ctx context.Context, userID string) ([]model.Course, error) {
	query := `
		SELECT id, user_id, topic, title, knowledge_level, depth, mode, is_public, notes, steps, created_at, updated_at
		FROM courses
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing courses for user %s: %w", userID, err)
	}
	defer rows.Close()

	courses := []model.Course{}
	for rows.Next() {
		var c model.Course
		var stepsJSON []byte
		if err := rows.Scan(
			&c.CourseID, &c.UserID, &c.Topic, &c.Title, &c.KnowledgeLevel, &c.Depth,
			&c.Mode, &c.IsPublic, &c.Notes, &stepsJSON, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning course row: %w", err)
		}
		if err := json.Unmarshal(stepsJSON, &c.Steps); err != nil {
			return nil, fmt.Errorf("unmarshaling steps for course %s: %w", c.CourseID, err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return courses, nil
}

// UpdateCourse updates an existing course record and returns updated timestamps
func (r *courseRepo) UpdateCourse(ctx context.Context, c *model.Course) error {
	stepsJSON, err := json.Marshal(c.Steps)
	if err != nil {
		return fmt.Errorf("marshaling steps for course %s: %w", c.CourseID, err)
	}
	query := `
		UPDATE courses
		SET title = $1, notes = $2, is_public = $3, mode = $4, steps = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING created_at, updated_at
	`
	err = r.pool.QueryRow(ctx, query, c.Title, c.Notes, c.IsPublic, c.Mode, stepsJSON, c.CourseID).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating course %s: %w", c.CourseID, err)
	}
	return nil
}

// DeleteCourse deletes a course by its ID
func (r *courseRepo) DeleteCourse(ctx context.Context, courseID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, courseID); err != nil {
		return fmt.Errorf("deleting course %s: %w", courseID, err)
	}
	return nil
}
