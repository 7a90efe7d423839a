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
	// ErrCourseNotFound is returned when a course does not exist or the
	// caller is not allowed to see it.
	ErrCourseNotFound = errors.New("course not found")

	// ErrNotCourseOwner is returned on mutations by non-owners.
	ErrNotCourseOwner = errors.New("not the course owner")
)

// CourseService manages course documents and learner progress. Creation is
// metered against the plan quota; clients on the self-sequenced generation
// path persist their assembled course through CreateCourse.
type CourseService interface {
	CreateCourse(ctx context.Context, course *model.Course) error
	GetCourse(ctx context.Context, userID, courseID string) (*model.Course, error)
	ListCourses(ctx context.Context, userID string) ([]model.Course, error)
	UpdateNotes(ctx context.Context, userID, courseID, notes string) error
	SetVisibility(ctx context.Context, userID, courseID string, isPublic bool) error
	ToggleStepCompleted(ctx context.Context, userID, courseID string, stepNumber int) (*model.Course, error)
	SubmitQuizAnswer(ctx context.Context, userID, courseID string, stepNumber, questionIndex, answer int) (*model.Course, error)
	DeleteCourse(ctx context.Context, userID, courseID string) error
}

type courseService struct {
	courseRepo repository.CourseRepository
	limitSvc   LimitService
	logger     zerolog.Logger
}

func NewCourseService(courseRepo repository.CourseRepository, limitSvc LimitService, logger zerolog.Logger) CourseService {
	lg := logger.With().Str("service", "CourseService").Logger()
	return &courseService{courseRepo: courseRepo, limitSvc: limitSvc, logger: lg}
}

func (s *courseService) CreateCourse(ctx context.Context, course *model.Course) error {
	if err := s.limitSvc.RecordCourseCreation(ctx, course.UserID); err != nil {
		return err
	}
	if err := s.courseRepo.CreateCourse(ctx, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	s.logger.Info().Str("course_id", course.CourseID).Str("user_id", course.UserID).Msg("Course created")
	return nil
}

// ownedCourse fetches a course and checks the caller owns it. Public courses
// are readable by anyone through GetCourse, but mutations go through here.
func (s *courseService) ownedCourse(ctx context.Context, userID, courseID string) (*model.Course, error) {
	course, err := s.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("fetch course: %w", err)
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}
	if course.UserID != userID {
		return nil, ErrNotCourseOwner
	}
	return course, nil
}

func (s *courseService) GetCourse(ctx context.Context, userID, courseID string) (*model.Course, error) {
	course, err := s.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("fetch course: %w", err)
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}
	if course.UserID != userID && !course.IsPublic {
		return nil, ErrCourseNotFound
	}
	return course, nil
}

func (s *courseService) ListCourses(ctx context.Context, userID string) ([]model.Course, error) {
	courses, err := s.courseRepo.GetCoursesByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

func (s *courseService) UpdateNotes(ctx context.Context, userID, courseID, notes string) error {
	course, err := s.ownedCourse(ctx, userID, courseID)
	if err != nil {
		return err
	}
	course.Notes = notes
	if err := s.courseRepo.UpdateCourse(ctx, course); err != nil {
		return fmt.Errorf("update notes: %w", err)
	}
	return nil
}

func (s *courseService) SetVisibility(ctx context.Context, userID, courseID string, isPublic bool) error {
	course, err := s.ownedCourse(ctx, userID, courseID)
	if err != nil {
		return err
	}
	course.IsPublic = isPublic
	if err := s.courseRepo.UpdateCourse(ctx, course); err != nil {
		return fmt.Errorf("update visibility: %w", err)
	}
	return nil
}

func (s *courseService) ToggleStepCompleted(ctx context.Context, userID, courseID string, stepNumber int) (*model.Course, error) {
	course, err := s.ownedCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	found := false
	for i := range course.Steps {
		if course.Steps[i].Number == stepNumber {
			course.Steps[i].Completed = !course.Steps[i].Completed
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("step %d not found in course %s", stepNumber, courseID)
	}
	if err := s.courseRepo.UpdateCourse(ctx, course); err != nil {
		return nil, fmt.Errorf("update step progress: %w", err)
	}
	return course, nil
}

func (s *courseService) SubmitQuizAnswer(ctx context.Context, userID, courseID string, stepNumber, questionIndex, answer int) (*model.Course, error) {
	course, err := s.ownedCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	var step *model.Step
	for i := range course.Steps {
		if course.Steps[i].Number == stepNumber {
			step = &course.Steps[i]
			break
		}
	}
	if step == nil {
		return nil, fmt.Errorf("step %d not found in course %s", stepNumber, courseID)
	}
	if questionIndex < 0 || questionIndex >= len(step.Quiz) {
		return nil, fmt.Errorf("quiz question %d out of range for step %d", questionIndex, stepNumber)
	}
	q := &step.Quiz[questionIndex]
	if answer < 0 || answer >= len(q.Options) {
		return nil, fmt.Errorf("answer %d out of range", answer)
	}
	correct := answer == q.CorrectIndex
	q.UserAnswer = &answer
	q.IsCorrect = &correct

	if err := s.courseRepo.UpdateCourse(ctx, course); err != nil {
		return nil, fmt.Errorf("record quiz answer: %w", err)
	}
	return course, nil
}

func (s *courseService) DeleteCourse(ctx context.Context, userID, courseID string) error {
	if _, err := s.ownedCourse(ctx, userID, courseID); err != nil {
		return err
	}
	if err := s.courseRepo.DeleteCourse(ctx, courseID); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	s.logger.Info().Str("course_id", courseID).Str("user_id", userID).Msg("Course deleted")
	return nil
}
