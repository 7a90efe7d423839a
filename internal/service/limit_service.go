package service

import (
	"context"
	"time"

	"app/internal/limit"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// LimitService applies plan quotas to metered actions. Read paths return
// snapshot decisions; the Record variants check and record atomically so
// concurrent requests cannot overshoot the cap.
type LimitService interface {
	// CheckCourseLimit reports the user's current course creation quota.
	CheckCourseLimit(ctx context.Context, userID string) (*limit.Result, error)
	// CheckWhiteboardLimit reports the user's current whiteboard quota.
	CheckWhiteboardLimit(ctx context.Context, userID string) (*limit.Result, error)
	// RecordCourseCreation atomically consumes one course creation. Returns
	// repository.ErrCourseLimitExceeded when the window is full.
	RecordCourseCreation(ctx context.Context, userID string) error
	// RecordWhiteboardCreation atomically consumes one whiteboard creation.
	// Returns repository.ErrWhiteboardLimitExceeded at the lifetime cap.
	RecordWhiteboardCreation(ctx context.Context, userID string) error
}

type limitService struct {
	usageRepo repository.UsageRepository
	subSvc    SubscriptionService
	logger    zerolog.Logger
}

// NewLimitService creates a LimitService with a scoped logger.
func NewLimitService(usageRepo repository.UsageRepository, subSvc SubscriptionService, logger zerolog.Logger) LimitService {
	return &limitService{
		usageRepo: usageRepo,
		subSvc:    subSvc,
		logger:    logger.With().Str("service", "LimitService").Logger(),
	}
}

// planAndWindow resolves the user's tier and the matching course window.
func (s *limitService) planAndWindow(ctx context.Context, userID string) (limit.Plan, time.Duration, int, error) {
	plan, err := s.subSvc.GetPlanTier(ctx, userID)
	if err != nil {
		return "", 0, 0, err
	}
	if plan == limit.PlanPremium {
		return plan, limit.PremiumCourseWindow, limit.PremiumCourseLimit, nil
	}
	return plan, limit.FreeCourseWindow, limit.FreeCourseLimit, nil
}

func (s *limitService) CheckCourseLimit(ctx context.Context, userID string) (*limit.Result, error) {
	plan, window, _, err := s.planAndWindow(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	times, err := s.usageRepo.ListCourseCreationTimes(ctx, userID, now.Add(-window))
	if err != nil {
		return nil, err
	}
	res := limit.CheckCourseLimit(plan, times, now)
	return &res, nil
}

func (s *limitService) CheckWhiteboardLimit(ctx context.Context, userID string) (*limit.Result, error) {
	plan, err := s.subSvc.GetPlanTier(ctx, userID)
	if err != nil {
		return nil, err
	}
	total, err := s.usageRepo.CountWhiteboardCreations(ctx, userID)
	if err != nil {
		return nil, err
	}
	res := limit.CheckWhiteboardLimit(plan, total)
	return &res, nil
}

func (s *limitService) RecordCourseCreation(ctx context.Context, userID string) error {
	_, window, max, err := s.planAndWindow(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.usageRepo.CheckAndRecordCourseCreation(ctx, userID, time.Now().Add(-window), max); err != nil {
		return err
	}
	return nil
}

func (s *limitService) RecordWhiteboardCreation(ctx context.Context, userID string) error {
	plan, err := s.subSvc.GetPlanTier(ctx, userID)
	if err != nil {
		return err
	}
	max := limit.FreeWhiteboardLimit
	if plan == limit.PlanPremium {
		max = limit.PremiumWhiteboardLimit
	}
	return s.usageRepo.CheckAndRecordWhiteboardCreation(ctx, userID, max)
}
