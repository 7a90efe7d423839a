package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"app/internal/model"
	"app/internal/pgmq"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

var ErrJobNotFound = errors.New("generation job not found")

// GenerationJobPayload is the queue message for a background generation run.
type GenerationJobPayload struct {
	JobID string `json:"job_id"`
}

// GenerationJobService enqueues background course generation. Enqueueing
// consumes one course creation from the caller's quota; the worker that later
// picks the job up does not check quotas again.
type GenerationJobService interface {
	Enqueue(ctx context.Context, userID string, req GenerationRequest) (*model.GenerationJob, error)
	Get(ctx context.Context, userID, jobID string) (*model.GenerationJob, error)
}

type generationJobService struct {
	generationRepo repository.GenerationRepository
	limitSvc       LimitService
	queue          *pgmq.Client
	queueName      string
	logger         zerolog.Logger
}

func NewGenerationJobService(generationRepo repository.GenerationRepository, limitSvc LimitService, queue *pgmq.Client, queueName string, logger zerolog.Logger) GenerationJobService {
	lg := logger.With().Str("service", "GenerationJobService").Logger()
	return &generationJobService{
		generationRepo: generationRepo,
		limitSvc:       limitSvc,
		queue:          queue,
		queueName:      queueName,
		logger:         lg,
	}
}

func (s *generationJobService) Enqueue(ctx context.Context, userID string, req GenerationRequest) (*model.GenerationJob, error) {
	if err := s.limitSvc.RecordCourseCreation(ctx, userID); err != nil {
		return nil, err
	}
	job := &model.GenerationJob{
		UserID:         userID,
		Topic:          req.Topic,
		KnowledgeLevel: req.KnowledgeLevel,
		Depth:          req.Depth,
		Status:         model.JobQueued,
	}
	if err := s.generationRepo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create generation job: %w", err)
	}
	payload, err := json.Marshal(GenerationJobPayload{JobID: job.ID})
	if err != nil {
		return nil, fmt.Errorf("marshal job payload: %w", err)
	}
	if err := s.queue.Send(ctx, s.queueName, payload); err != nil {
		// The job row stays queued; a failed enqueue surfaces to the
		// caller so they can retry without burning another quota slot.
		markErr := s.generationRepo.MarkFailed(ctx, job.ID, "enqueue failed")
		if markErr != nil {
			s.logger.Error().Err(markErr).Str("job_id", job.ID).Msg("Failed to mark job failed after enqueue error")
		}
		return nil, fmt.Errorf("enqueue generation job: %w", err)
	}
	s.logger.Info().Str("job_id", job.ID).Str("user_id", userID).Msg("Generation job enqueued")
	return job, nil
}

func (s *generationJobService) Get(ctx context.Context, userID, jobID string) (*model.GenerationJob, error) {
	job, err := s.generationRepo.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("fetch generation job: %w", err)
	}
	if job == nil || job.UserID != userID {
		return nil, ErrJobNotFound
	}
	return job, nil
}
