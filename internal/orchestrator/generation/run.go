package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"app/internal/config"
	"app/internal/model"
	"app/internal/pgmq"
	"app/internal/repository"
	"app/internal/service"

	"github.com/rs/zerolog"
)

// Worker runs the background generation pipeline: poll the queue, run the
// stages, persist the course, mark the job. Failed runs are retried with
// backoff; exhausted jobs land in the dead letter table.
type Worker struct {
	cfg            *config.Config
	client         *pgmq.Client
	generationRepo repository.GenerationRepository
	courseRepo     repository.CourseRepository
	generationSvc  service.GenerationService
	dlqSvc         service.DLQService
	logger         zerolog.Logger
}

func NewWorker(
	cfg *config.Config,
	client *pgmq.Client,
	generationRepo repository.GenerationRepository,
	courseRepo repository.CourseRepository,
	generationSvc service.GenerationService,
	dlqSvc service.DLQService,
	logger zerolog.Logger,
) *Worker {
	return &Worker{
		cfg:            cfg,
		client:         client,
		generationRepo: generationRepo,
		courseRepo:     courseRepo,
		generationSvc:  generationSvc,
		dlqSvc:         dlqSvc,
		logger:         logger,
	}
}

// Run starts the generation orchestrator.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Str("queue", w.cfg.GenerationQueueName).Msg("Starting generation orchestrator")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Shutting down generation orchestrator")
			return nil
		default:
		}

		msgs, err := w.client.ReadWithPoll(ctx, w.cfg.GenerationQueueName, w.cfg.GenerationPollTimeoutSec, w.cfg.GenerationPollMaxMsg)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.logger.Error().Err(err).Msg("Error reading generation queue")
			time.Sleep(time.Second)
			continue
		}
		for _, msg := range msgs {
			w.handle(ctx, msg)
		}
	}
}

func (w *Worker) handle(ctx context.Context, msg *pgmq.Message) {
	// The message is consumed either way; retries go back as a fresh
	// delayed message so visibility timeouts never race the pipeline.
	defer func() {
		if err := w.client.Delete(ctx, w.cfg.GenerationQueueName, []int64{msg.ID}); err != nil {
			w.logger.Error().Err(err).Int64("msg_id", msg.ID).Msg("Error deleting generation message")
		}
	}()

	var payload service.GenerationJobPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		w.logger.Error().Err(err).Int64("msg_id", msg.ID).Msg("Malformed generation message")
		w.archive(ctx, strconv.FormatInt(msg.ID, 10), string(msg.Data))
		return
	}

	job, err := w.generationRepo.GetJob(ctx, payload.JobID)
	if err != nil {
		w.logger.Error().Err(err).Str("job_id", payload.JobID).Msg("Failed to load generation job")
		return
	}
	if job == nil {
		w.logger.Warn().Str("job_id", payload.JobID).Msg("Generation message references unknown job")
		return
	}
	if job.Status == model.JobDone || job.Status == model.JobFailed {
		return
	}

	if err := w.generationRepo.MarkRunning(ctx, job.ID); err != nil {
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to mark job running")
		return
	}
	w.logger.Info().Str("job_id", job.ID).Str("topic", job.Topic).Msg("Running generation job")

	course, err := w.generationSvc.GenerateCourse(ctx, job.UserID, service.GenerationRequest{
		Topic:          job.Topic,
		KnowledgeLevel: job.KnowledgeLevel,
		Depth:          job.Depth,
	})
	if err != nil {
		w.fail(ctx, job, msg, err)
		return
	}

	if err := w.courseRepo.CreateCourse(ctx, course); err != nil {
		w.fail(ctx, job, msg, fmt.Errorf("persist course: %w", err))
		return
	}
	if err := w.generationRepo.MarkDone(ctx, job.ID, course.CourseID); err != nil {
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to mark job done")
		return
	}
	w.logger.Info().Str("job_id", job.ID).Str("course_id", course.CourseID).Msg("Generation job completed")
}

// fail records the error and either requeues with backoff or gives up.
// Topic rejection is final: retrying moderation wastes the user's quota slot
// and would return the same verdict.
func (w *Worker) fail(ctx context.Context, job *model.GenerationJob, msg *pgmq.Message, genErr error) {
	w.logger.Error().Err(genErr).Str("job_id", job.ID).Msg("Generation job failed")

	if errors.Is(genErr, service.ErrTopicRejected) {
		if err := w.generationRepo.MarkFailed(ctx, job.ID, genErr.Error()); err != nil {
			w.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to mark job failed")
		}
		return
	}

	attempts, err := w.generationRepo.IncrementAttempts(ctx, job.ID)
	if err != nil {
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to increment job attempts")
		attempts = job.Attempts + 1
	}

	if attempts >= w.cfg.GenerationMaxRetries {
		w.archive(ctx, strconv.FormatInt(msg.ID, 10), string(msg.Data))
		if err := w.generationRepo.MarkFailed(ctx, job.ID, genErr.Error()); err != nil {
			w.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to mark job failed")
		}
		return
	}

	delay := w.backoff(attempts)
	if err := w.client.SendDelayed(ctx, w.cfg.GenerationQueueName, msg.Data, delay); err != nil {
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to requeue generation job")
		w.archive(ctx, strconv.FormatInt(msg.ID, 10), string(msg.Data))
		if err := w.generationRepo.MarkFailed(ctx, job.ID, genErr.Error()); err != nil {
			w.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to mark job failed")
		}
		return
	}
	w.logger.Info().Str("job_id", job.ID).Int("attempts", attempts).Int("delay_sec", delay).Msg("Generation job requeued with backoff")
}

// backoff doubles the initial delay per prior attempt, capped at the max.
func (w *Worker) backoff(attempts int) int {
	delay := w.cfg.GenerationBackoffInitialSec
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= w.cfg.GenerationBackoffMaxSec {
			return w.cfg.GenerationBackoffMaxSec
		}
	}
	return delay
}

func (w *Worker) archive(ctx context.Context, messageID, payload string) {
	if err := w.dlqSvc.RecordFailure(ctx, w.cfg.GenerationQueueName, messageID, payload); err != nil {
		w.logger.Error().Err(err).Str("message_id", messageID).Msg("Failed to archive generation message")
	}
}
