package repository

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GenerationRepository tracks server-orchestrated generation jobs.
type GenerationRepository interface {
	CreateJob(ctx context.Context, job *model.GenerationJob) error
	GetJob(ctx context.Context, jobID string) (*model.GenerationJob, error)
	MarkRunning(ctx context.Context, jobID string) error
	MarkDone(ctx context.Context, jobID, courseID string) error
	MarkFailed(ctx context.Context, jobID, errorMessage string) error
	IncrementAttempts(ctx context.Context, jobID string) (int, error)
}

type generationRepo struct {
	pool *pgxpool.Pool
}

// NewGenerationRepo creates a new GenerationRepository.
func NewGenerationRepo(pool *pgxpool.Pool) GenerationRepository {
	return &generationRepo{pool: pool}
}

func (r *generationRepo) CreateJob(ctx context.Context, job *model.GenerationJob) error {
	const q = `
		INSERT INTO generation_jobs (user_id, topic, knowledge_level, depth, status)
		VALUES ($1, $2, $3, $4, 'queued')
		RETURNING id, status, attempts, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, q, job.UserID, job.Topic, job.KnowledgeLevel, job.Depth).
		Scan(&job.ID, &job.Status, &job.Attempts, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating generation job for user %s: %w", job.UserID, err)
	}
	return nil
}

func (r *generationRepo) GetJob(ctx context.Context, jobID string) (*model.GenerationJob, error) {
	const q = `
		SELECT id, user_id, topic, knowledge_level, depth, status, course_id, error_message, attempts, created_at, updated_at
		FROM generation_jobs
		WHERE id = $1
	`
	var job model.GenerationJob
	err := r.pool.QueryRow(ctx, q, jobID).Scan(
		&job.ID, &job.UserID, &job.Topic, &job.KnowledgeLevel, &job.Depth,
		&job.Status, &job.CourseID, &job.ErrorMessage, &job.Attempts, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching generation job %s: %w", jobID, err)
	}
	return &job, nil
}

func (r *generationRepo) MarkRunning(ctx context.Context, jobID string) error {
	return r.setStatus(ctx, jobID, `UPDATE generation_jobs SET status = 'running', updated_at = NOW() WHERE id = $1`)
}

func (r *generationRepo) MarkDone(ctx context.Context, jobID, courseID string) error {
	const q = `UPDATE generation_jobs SET status = 'done', course_id = $2, error_message = NULL, updated_at = NOW() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, jobID, courseID); err != nil {
		return fmt.Errorf("marking generation job %s done: %w", jobID, err)
	}
	return nil
}

func (r *generationRepo) MarkFailed(ctx context.Context, jobID, errorMessage string) error {
	const q = `UPDATE generation_jobs SET status = 'failed', error_message = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, jobID, errorMessage); err != nil {
		return fmt.Errorf("marking generation job %s failed: %w", jobID, err)
	}
	return nil
}

func (r *generationRepo) IncrementAttempts(ctx context.Context, jobID string) (int, error) {
	const q = `UPDATE generation_jobs SET attempts = attempts + 1, updated_at = NOW() WHERE id = $1 RETURNING attempts`
	var attempts int
	if err := r.pool.QueryRow(ctx, q, jobID).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("incrementing attempts for generation job %s: %w", jobID, err)
	}
	return attempts, nil
}

func (r *generationRepo) setStatus(ctx context.Context, jobID, query string) error {
	if _, err := r.pool.Exec(ctx, query, jobID); err != nil {
		return fmt.Errorf("updating generation job %s: %w", jobID, err)
	}
	return nil
}
