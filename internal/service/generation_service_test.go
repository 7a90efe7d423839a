package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"app/internal/model"

	"github.com/rs/zerolog"
)

type fakeCall struct {
	apiKey string
	system string
	user   string
}

// fakeModelClient replays canned JSON responses in call order.
type fakeModelClient struct {
	responses []string
	calls     []fakeCall
}

func (f *fakeModelClient) CompleteJSON(ctx context.Context, apiKey, system, user string, out interface{}) error {
	f.calls = append(f.calls, fakeCall{apiKey: apiKey, system: system, user: user})
	if len(f.calls) > len(f.responses) {
		return fmt.Errorf("unexpected call %d", len(f.calls))
	}
	return json.Unmarshal([]byte(f.responses[len(f.calls)-1]), out)
}

type fakeUserRepo struct {
	users map[string]*model.User
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, u *model.User) error { return nil }
func (f *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return f.users[id], nil
}
func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}
func (f *fakeUserRepo) GetUserByStripeCustomerID(ctx context.Context, customerID string) (*model.User, error) {
	return nil, nil
}
func (f *fakeUserRepo) UpdateStripeCustomerID(ctx context.Context, userID, customerID string) error {
	return nil
}
func (f *fakeUserRepo) UpdateAvatarURL(ctx context.Context, userID, avatarURL string) error {
	return nil
}
func (f *fakeUserRepo) SetHasModelKey(ctx context.Context, userID string, hasKey bool) error {
	return nil
}

type fakeSecretService struct {
	keys map[string]string
	err  error
}

func (f *fakeSecretService) StoreUserModelKey(ctx context.Context, userID, apiKey string) error {
	return nil
}
func (f *fakeSecretService) GetUserModelKey(ctx context.Context, userID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.keys[userID], nil
}
func (f *fakeSecretService) DeleteUserModelKey(ctx context.Context, userID string) error {
	return nil
}

func newTestGenerationService(client ModelClient, users *fakeUserRepo, secrets SecretService) GenerationService {
	if users == nil {
		users = &fakeUserRepo{users: map[string]*model.User{}}
	}
	return NewGenerationService(client, users, secrets, zerolog.Nop())
}

const stepWithContent = `{"sub_steps":[{"title":"Intro","content":"<p>Hello</p>","summary":"hello"}],"quiz":[],"fun_fact":"","links":[]}`
const stepWithoutContent = `{"sub_steps":[],"quiz":[],"fun_fact":"","links":[]}`

func TestGenerateCourseRejectedTopicShortCircuits(t *testing.T) {
	client := &fakeModelClient{responses: []string{
		`{"is_appropriate": false, "reason": "promotes violence"}`,
	}}
	svc := newTestGenerationService(client, nil, nil)

	_, err := svc.GenerateCourse(context.Background(), "u1", GenerationRequest{
		Topic: "how to build weapons", KnowledgeLevel: "beginner", Depth: "overview",
	})
	if !errors.Is(err, ErrTopicRejected) {
		t.Fatalf("expected ErrTopicRejected, got %v", err)
	}
	if !strings.Contains(err.Error(), "promotes violence") {
		t.Fatalf("expected rejection reason in error, got %q", err.Error())
	}
	if len(client.calls) != 1 {
		t.Fatalf("expected generation to stop after moderation, got %d model calls", len(client.calls))
	}
}

func TestGenerateCourseAllStepsEmpty(t *testing.T) {
	client := &fakeModelClient{responses: []string{
		`{"is_appropriate": true, "reason": ""}`,
		`{"title": "Learning Go"}`,
		`{"steps":[{"number":1,"title":"Basics","short_title":"Basics","description":"d"},{"number":2,"title":"Types","short_title":"Types","description":"d"}]}`,
		stepWithoutContent,
		stepWithoutContent,
	}}
	svc := newTestGenerationService(client, nil, nil)

	_, err := svc.GenerateCourse(context.Background(), "u1", GenerationRequest{
		Topic: "go", KnowledgeLevel: "beginner", Depth: "overview",
	})
	if !errors.Is(err, ErrNoStepsGenerated) {
		t.Fatalf("expected ErrNoStepsGenerated, got %v", err)
	}
}

func TestGenerateCourseDropsEmptyStepsAndRenumbers(t *testing.T) {
	client := &fakeModelClient{responses: []string{
		`{"is_appropriate": true, "reason": ""}`,
		`{"title": "Learning Go"}`,
		`{"steps":[{"number":1,"title":"Basics","short_title":"Basics","description":"d"},{"number":2,"title":"Types","short_title":"Types","description":"d"},{"number":3,"title":"Funcs","short_title":"Funcs","description":"d"}]}`,
		stepWithContent,
		stepWithoutContent,
		stepWithContent,
	}}
	svc := newTestGenerationService(client, nil, nil)

	course, err := svc.GenerateCourse(context.Background(), "u1", GenerationRequest{
		Topic: "go", KnowledgeLevel: "intermediate", Depth: "overview",
	})
	if err != nil {
		t.Fatalf("GenerateCourse returned error: %v", err)
	}
	if course.Title != "Learning Go" {
		t.Fatalf("expected generated title, got %q", course.Title)
	}
	if len(course.Steps) != 2 {
		t.Fatalf("expected 2 surviving steps, got %d", len(course.Steps))
	}
	if course.Steps[0].Title != "Basics" || course.Steps[1].Title != "Funcs" {
		t.Fatalf("unexpected surviving steps: %q, %q", course.Steps[0].Title, course.Steps[1].Title)
	}
	for i, step := range course.Steps {
		if step.Number != i+1 {
			t.Fatalf("expected step %d to be renumbered to %d, got %d", i, i+1, step.Number)
		}
	}
	if course.Mode != "solo" {
		t.Fatalf("expected generated course mode solo, got %q", course.Mode)
	}
}

func TestGenerateCourseStageErrorAborts(t *testing.T) {
	client := &fakeModelClient{responses: []string{
		`{"is_appropriate": true, "reason": ""}`,
		`{"title": ""}`,
	}}
	svc := newTestGenerationService(client, nil, nil)

	_, err := svc.GenerateCourse(context.Background(), "u1", GenerationRequest{
		Topic: "go", KnowledgeLevel: "beginner", Depth: "overview",
	})
	if err == nil || !strings.Contains(err.Error(), "empty title") {
		t.Fatalf("expected empty-title error, got %v", err)
	}
	if len(client.calls) != 2 {
		t.Fatalf("expected run to abort at title stage, got %d model calls", len(client.calls))
	}
}

func TestUserModelKeyPreferred(t *testing.T) {
	users := &fakeUserRepo{users: map[string]*model.User{
		"u1": {UserID: "u1", HasModelKey: true},
	}}
	secrets := &fakeSecretService{keys: map[string]string{"u1": "sk-user-key"}}
	client := &fakeModelClient{responses: []string{`{"is_appropriate": true, "reason": ""}`}}
	svc := newTestGenerationService(client, users, secrets)

	if _, err := svc.ValidateTopic(context.Background(), "u1", "go"); err != nil {
		t.Fatalf("ValidateTopic returned error: %v", err)
	}
	if client.calls[0].apiKey != "sk-user-key" {
		t.Fatalf("expected user key to be used, got %q", client.calls[0].apiKey)
	}
}

func TestUserModelKeyLookupFailureFallsBack(t *testing.T) {
	users := &fakeUserRepo{users: map[string]*model.User{
		"u1": {UserID: "u1", HasModelKey: true},
	}}
	secrets := &fakeSecretService{err: errors.New("secret manager unavailable")}
	client := &fakeModelClient{responses: []string{`{"is_appropriate": true, "reason": ""}`}}
	svc := newTestGenerationService(client, users, secrets)

	if _, err := svc.ValidateTopic(context.Background(), "u1", "go"); err != nil {
		t.Fatalf("ValidateTopic returned error: %v", err)
	}
	if client.calls[0].apiKey != "" {
		t.Fatalf("expected fallback to app key, got %q", client.calls[0].apiKey)
	}
}
