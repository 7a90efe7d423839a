package service

import (
	"context"
	"errors"
	"testing"

	"app/internal/limit"
	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

type fakeLimitService struct {
	courseErr      error
	whiteboardErr  error
	courseRecords  int
	whiteboardHits int
}

func (f *fakeLimitService) CheckCourseLimit(ctx context.Context, userID string) (*limit.Result, error) {
	return &limit.Result{Allowed: true}, nil
}
func (f *fakeLimitService) CheckWhiteboardLimit(ctx context.Context, userID string) (*limit.Result, error) {
	return &limit.Result{Allowed: true}, nil
}
func (f *fakeLimitService) RecordCourseCreation(ctx context.Context, userID string) error {
	if f.courseErr != nil {
		return f.courseErr
	}
	f.courseRecords++
	return nil
}
func (f *fakeLimitService) RecordWhiteboardCreation(ctx context.Context, userID string) error {
	if f.whiteboardErr != nil {
		return f.whiteboardErr
	}
	f.whiteboardHits++
	return nil
}

func quizCourse(owner string) *model.Course {
	return &model.Course{
		CourseID: "c1",
		UserID:   owner,
		Title:    "Learning Go",
		Steps: []model.Step{
			{
				Number: 1,
				Title:  "Basics",
				Quiz: []model.QuizQuestion{
					{
						Question:     "What keyword declares a function?",
						Options:      []string{"def", "func", "fn"},
						CorrectIndex: 1,
					},
				},
			},
			{Number: 2, Title: "Types"},
		},
	}
}

func TestCreateCourseConsumesQuota(t *testing.T) {
	repo := newFakeCourseRepo()
	limits := &fakeLimitService{}
	svc := NewCourseService(repo, limits, zerolog.Nop())

	course := &model.Course{UserID: "u1", Topic: "go", Title: "Learning Go"}
	if err := svc.CreateCourse(context.Background(), course); err != nil {
		t.Fatalf("CreateCourse returned error: %v", err)
	}
	if limits.courseRecords != 1 {
		t.Fatalf("expected 1 quota consumption, got %d", limits.courseRecords)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected course persisted, got %d", len(repo.created))
	}
}

func TestCreateCourseAtQuotaLimit(t *testing.T) {
	repo := newFakeCourseRepo()
	limits := &fakeLimitService{courseErr: repository.ErrCourseLimitExceeded}
	svc := NewCourseService(repo, limits, zerolog.Nop())

	err := svc.CreateCourse(context.Background(), &model.Course{UserID: "u1"})
	if !errors.Is(err, repository.ErrCourseLimitExceeded) {
		t.Fatalf("expected ErrCourseLimitExceeded, got %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatal("course must not be persisted when the quota is exhausted")
	}
}

func TestGetCourseVisibility(t *testing.T) {
	repo := newFakeCourseRepo()
	svc := NewCourseService(repo, &fakeLimitService{}, zerolog.Nop())
	repo.courses["c1"] = &model.Course{CourseID: "c1", UserID: "u1"}

	if _, err := svc.GetCourse(context.Background(), "u2", "c1"); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected private course hidden from non-owner, got %v", err)
	}

	repo.courses["c1"].IsPublic = true
	if _, err := svc.GetCourse(context.Background(), "u2", "c1"); err != nil {
		t.Fatalf("expected public course readable by anyone, got %v", err)
	}
}

func TestToggleStepCompleted(t *testing.T) {
	repo := newFakeCourseRepo()
	svc := NewCourseService(repo, &fakeLimitService{}, zerolog.Nop())
	repo.courses["c1"] = quizCourse("u1")

	course, err := svc.ToggleStepCompleted(context.Background(), "u1", "c1", 2)
	if err != nil {
		t.Fatalf("ToggleStepCompleted returned error: %v", err)
	}
	if !course.Steps[1].Completed {
		t.Fatal("expected step 2 marked completed")
	}

	course, err = svc.ToggleStepCompleted(context.Background(), "u1", "c1", 2)
	if err != nil {
		t.Fatalf("second toggle returned error: %v", err)
	}
	if course.Steps[1].Completed {
		t.Fatal("expected step 2 toggled back to incomplete")
	}

	if _, err := svc.ToggleStepCompleted(context.Background(), "u2", "c1", 2); !errors.Is(err, ErrNotCourseOwner) {
		t.Fatalf("expected ErrNotCourseOwner for non-owner, got %v", err)
	}
}

func TestSubmitQuizAnswerGradesServerSide(t *testing.T) {
	repo := newFakeCourseRepo()
	svc := NewCourseService(repo, &fakeLimitService{}, zerolog.Nop())
	repo.courses["c1"] = quizCourse("u1")

	course, err := svc.SubmitQuizAnswer(context.Background(), "u1", "c1", 1, 0, 1)
	if err != nil {
		t.Fatalf("SubmitQuizAnswer returned error: %v", err)
	}
	q := course.Steps[0].Quiz[0]
	if q.UserAnswer == nil || *q.UserAnswer != 1 {
		t.Fatalf("expected recorded answer 1, got %v", q.UserAnswer)
	}
	if q.IsCorrect == nil || !*q.IsCorrect {
		t.Fatal("expected answer graded correct")
	}

	course, err = svc.SubmitQuizAnswer(context.Background(), "u1", "c1", 1, 0, 0)
	if err != nil {
		t.Fatalf("SubmitQuizAnswer returned error: %v", err)
	}
	q = course.Steps[0].Quiz[0]
	if q.IsCorrect == nil || *q.IsCorrect {
		t.Fatal("expected answer graded incorrect")
	}

	if _, err := svc.SubmitQuizAnswer(context.Background(), "u1", "c1", 1, 0, 5); err == nil {
		t.Fatal("expected out-of-range answer to be rejected")
	}
	if _, err := svc.SubmitQuizAnswer(context.Background(), "u1", "c1", 1, 3, 0); err == nil {
		t.Fatal("expected out-of-range question index to be rejected")
	}
}
