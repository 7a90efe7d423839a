package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

type fakeMarketplaceRepo struct {
	listings map[string]*model.MarketplaceCourse
	likes    map[string]bool // listingID|userID
	nextID   int
}

func newFakeMarketplaceRepo() *fakeMarketplaceRepo {
	return &fakeMarketplaceRepo{
		listings: map[string]*model.MarketplaceCourse{},
		likes:    map[string]bool{},
	}
}

func (f *fakeMarketplaceRepo) Publish(ctx context.Context, mc *model.MarketplaceCourse) error {
	for _, existing := range f.listings {
		if existing.CourseID == mc.CourseID {
			return repository.ErrAlreadyPublished
		}
	}
	f.nextID++
	mc.ID = fmt.Sprintf("mc-%d", f.nextID)
	f.listings[mc.ID] = mc
	return nil
}
func (f *fakeMarketplaceRepo) GetByID(ctx context.Context, id, viewerID string) (*model.MarketplaceCourse, error) {
	return f.listings[id], nil
}
func (f *fakeMarketplaceRepo) ListByCategory(ctx context.Context, category, viewerID string, limit, offset int) ([]model.MarketplaceCourse, error) {
	var out []model.MarketplaceCourse
	for _, mc := range f.listings {
		if category == "" || mc.Category == category {
			out = append(out, *mc)
		}
	}
	return out, nil
}
func (f *fakeMarketplaceRepo) Unpublish(ctx context.Context, id, ownerID string) error {
	delete(f.listings, id)
	return nil
}
func (f *fakeMarketplaceRepo) ToggleLike(ctx context.Context, id, userID string) (bool, int, error) {
	mc := f.listings[id]
	if mc == nil {
		return false, 0, errors.New("listing not found")
	}
	key := id + "|" + userID
	if f.likes[key] {
		delete(f.likes, key)
		mc.LikeCount--
		return false, mc.LikeCount, nil
	}
	f.likes[key] = true
	mc.LikeCount++
	return true, mc.LikeCount, nil
}

func completedQuizCourse(owner string) *model.Course {
	answer, correct := 1, true
	return &model.Course{
		CourseID: "c1",
		UserID:   owner,
		Topic:    "go",
		Title:    "Learning Go",
		Steps: []model.Step{
			{
				Number:    1,
				Title:     "Basics",
				Completed: true,
				Quiz: []model.QuizQuestion{
					{
						Question:     "What keyword declares a function?",
						Options:      []string{"def", "func", "fn"},
						CorrectIndex: 1,
						UserAnswer:   &answer,
						IsCorrect:    &correct,
					},
				},
			},
		},
	}
}

func TestPublishStripsProgress(t *testing.T) {
	courses := newFakeCourseRepo()
	market := newFakeMarketplaceRepo()
	svc := NewMarketplaceService(market, courses, zerolog.Nop())
	courses.courses["c1"] = completedQuizCourse("u1")

	mc, err := svc.Publish(context.Background(), "u1", "c1", "technology")
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if mc.Steps[0].Completed {
		t.Fatal("published steps must have completion cleared")
	}
	if q := mc.Steps[0].Quiz[0]; q.UserAnswer != nil || q.IsCorrect != nil {
		t.Fatal("published quiz must have answers cleared")
	}
	// The owner's own course keeps its progress.
	if !courses.courses["c1"].Steps[0].Completed {
		t.Fatal("publishing must not mutate the source course")
	}
}

func TestPublishRejectsUnknownCategory(t *testing.T) {
	courses := newFakeCourseRepo()
	svc := NewMarketplaceService(newFakeMarketplaceRepo(), courses, zerolog.Nop())
	courses.courses["c1"] = completedQuizCourse("u1")

	if _, err := svc.Publish(context.Background(), "u1", "c1", "cooking"); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestPublishRequiresOwnership(t *testing.T) {
	courses := newFakeCourseRepo()
	svc := NewMarketplaceService(newFakeMarketplaceRepo(), courses, zerolog.Nop())
	courses.courses["c1"] = completedQuizCourse("u1")

	if _, err := svc.Publish(context.Background(), "u2", "c1", "technology"); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound for non-owner, got %v", err)
	}
}

func TestImportCopiesListingWithoutMetering(t *testing.T) {
	courses := newFakeCourseRepo()
	market := newFakeMarketplaceRepo()
	svc := NewMarketplaceService(market, courses, zerolog.Nop())
	courses.courses["c1"] = completedQuizCourse("u1")

	mc, err := svc.Publish(context.Background(), "u1", "c1", "technology")
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	course, err := svc.Import(context.Background(), "u2", mc.ID)
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if course.UserID != "u2" {
		t.Fatalf("imported course must belong to the importer, got %q", course.UserID)
	}
	if course.Mode != "solo" || course.IsPublic {
		t.Fatalf("imported course must be a private solo copy, got mode=%q public=%v", course.Mode, course.IsPublic)
	}
	if course.CourseID == "c1" {
		t.Fatal("import must create a new course, not reuse the source")
	}
	if len(courses.created) != 1 {
		t.Fatalf("expected one course persisted, got %d", len(courses.created))
	}
}

func TestToggleLike(t *testing.T) {
	courses := newFakeCourseRepo()
	market := newFakeMarketplaceRepo()
	svc := NewMarketplaceService(market, courses, zerolog.Nop())
	courses.courses["c1"] = completedQuizCourse("u1")
	mc, err := svc.Publish(context.Background(), "u1", "c1", "technology")
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	liked, count, err := svc.ToggleLike(context.Background(), "u2", mc.ID)
	if err != nil || !liked || count != 1 {
		t.Fatalf("expected liked=true count=1, got liked=%v count=%d err=%v", liked, count, err)
	}
	liked, count, err = svc.ToggleLike(context.Background(), "u2", mc.ID)
	if err != nil || liked || count != 0 {
		t.Fatalf("expected liked=false count=0, got liked=%v count=%d err=%v", liked, count, err)
	}
}

func TestListRejectsUnknownCategory(t *testing.T) {
	svc := NewMarketplaceService(newFakeMarketplaceRepo(), newFakeCourseRepo(), zerolog.Nop())
	if _, err := svc.List(context.Background(), "u1", "cooking", 0, 0); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
}
