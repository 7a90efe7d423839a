package service

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

var (
	ErrListingNotFound = errors.New("marketplace listing not found")
	ErrInvalidCategory = errors.New("invalid category")
)

// Marketplace categories. Courses are filed under exactly one.
var marketplaceCategories = map[string]bool{
	"technology": true,
	"science":    true,
	"language":   true,
	"business":   true,
	"arts":       true,
	"health":     true,
	"other":      true,
}

// MarketplaceService manages public course listings, likes and imports.
// Importing a listing copies it into the caller's library and is not
// metered against the course creation quota.
type MarketplaceService interface {
	Publish(ctx context.Context, userID, courseID, category string) (*model.MarketplaceCourse, error)
	Unpublish(ctx context.Context, userID, listingID string) error
	Get(ctx context.Context, viewerID, listingID string) (*model.MarketplaceCourse, error)
	List(ctx context.Context, viewerID, category string, limit, offset int) ([]model.MarketplaceCourse, error)
	ToggleLike(ctx context.Context, userID, listingID string) (liked bool, likeCount int, err error)
	Import(ctx context.Context, userID, listingID string) (*model.Course, error)
}

type marketplaceService struct {
	marketplaceRepo repository.MarketplaceRepository
	courseRepo      repository.CourseRepository
	logger          zerolog.Logger
}

func NewMarketplaceService(marketplaceRepo repository.MarketplaceRepository, courseRepo repository.CourseRepository, logger zerolog.Logger) MarketplaceService {
	lg := logger.With().Str("service", "MarketplaceService").Logger()
	return &marketplaceService{marketplaceRepo: marketplaceRepo, courseRepo: courseRepo, logger: lg}
}

func (s *marketplaceService) Publish(ctx context.Context, userID, courseID, category string) (*model.MarketplaceCourse, error) {
	if !marketplaceCategories[category] {
		return nil, ErrInvalidCategory
	}
	course, err := s.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("fetch course: %w", err)
	}
	if course == nil || course.UserID != userID {
		return nil, ErrCourseNotFound
	}
	// Freeze the step tree with progress stripped.
	steps := resetProgress(course.Steps)
	mc := &model.MarketplaceCourse{
		CourseID: courseID,
		OwnerID:  userID,
		Title:    course.Title,
		Topic:    course.Topic,
		Category: category,
		Steps:    steps,
	}
	if err := s.marketplaceRepo.Publish(ctx, mc); err != nil {
		return nil, err
	}
	s.logger.Info().Str("course_id", courseID).Str("category", category).Msg("Course published to marketplace")
	return mc, nil
}

func (s *marketplaceService) Unpublish(ctx context.Context, userID, listingID string) error {
	if err := s.marketplaceRepo.Unpublish(ctx, listingID, userID); err != nil {
		return fmt.Errorf("unpublish listing: %w", err)
	}
	return nil
}

func (s *marketplaceService) Get(ctx context.Context, viewerID, listingID string) (*model.MarketplaceCourse, error) {
	mc, err := s.marketplaceRepo.GetByID(ctx, listingID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}
	if mc == nil {
		return nil, ErrListingNotFound
	}
	return mc, nil
}

func (s *marketplaceService) List(ctx context.Context, viewerID, category string, limit, offset int) ([]model.MarketplaceCourse, error) {
	if category != "" && !marketplaceCategories[category] {
		return nil, ErrInvalidCategory
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.marketplaceRepo.ListByCategory(ctx, category, viewerID, limit, offset)
}

func (s *marketplaceService) ToggleLike(ctx context.Context, userID, listingID string) (bool, int, error) {
	liked, count, err := s.marketplaceRepo.ToggleLike(ctx, listingID, userID)
	if err != nil {
		return false, 0, fmt.Errorf("toggle like: %w", err)
	}
	return liked, count, nil
}

// Import copies a listing into the caller's library as a fresh solo course.
func (s *marketplaceService) Import(ctx context.Context, userID, listingID string) (*model.Course, error) {
	mc, err := s.marketplaceRepo.GetByID(ctx, listingID, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}
	if mc == nil {
		return nil, ErrListingNotFound
	}
	course := &model.Course{
		UserID:   userID,
		Topic:    mc.Topic,
		Title:    mc.Title,
		Depth:    "normal",
		Mode:     "solo",
		IsPublic: false,
		Steps:    resetProgress(mc.Steps),
	}
	if err := s.courseRepo.CreateCourse(ctx, course); err != nil {
		return nil, fmt.Errorf("copy course into library: %w", err)
	}
	s.logger.Info().Str("listing_id", listingID).Str("user_id", userID).Msg("Marketplace course imported")
	return course, nil
}

// resetProgress deep-copies steps with completion and quiz answers cleared.
func resetProgress(steps []model.Step) []model.Step {
	out := make([]model.Step, len(steps))
	copy(out, steps)
	for i := range out {
		out[i].Completed = false
		quiz := make([]model.QuizQuestion, len(out[i].Quiz))
		copy(quiz, out[i].Quiz)
		for j := range quiz {
			quiz[j].UserAnswer = nil
			quiz[j].IsCorrect = nil
		}
		out[i].Quiz = quiz
	}
	return out
}
