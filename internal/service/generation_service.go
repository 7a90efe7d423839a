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
	// ErrTopicRejected prefixes the moderation reason, so callers can match on it.
	ErrTopicRejected = errors.New("topic rejected")
	// ErrNoStepsGenerated is returned when every outline step failed content generation.
	ErrNoStepsGenerated = errors.New("failed to generate content for any step")
)

// TopicValidation is the moderation stage verdict.
type TopicValidation struct {
	IsAppropriate bool   `json:"is_appropriate"`
	Reason        string `json:"reason"`
}

// OutlineStep is one entry of the generated course outline.
type OutlineStep struct {
	Number      int    `json:"number"`
	Title       string `json:"title"`
	ShortTitle  string `json:"short_title"`
	Description string `json:"description"`
}

// StepContent is the generated body for a single outline step.
type StepContent struct {
	SubSteps []model.SubStep      `json:"sub_steps"`
	Quiz     []model.QuizQuestion `json:"quiz"`
	FunFact  string               `json:"fun_fact"`
	Links    []model.ExternalLink `json:"links"`
}

// GenerationRequest carries the user inputs for a course generation run.
type GenerationRequest struct {
	Topic          string
	KnowledgeLevel string // beginner | intermediate | advanced
	Depth          string // overview | normal
}

// GenerationService runs the course generation pipeline. The stage methods are
// exposed individually for the client-sequenced flow; GenerateCourse composes
// them for the server-orchestrated one.
type GenerationService interface {
	ValidateTopic(ctx context.Context, userID, topic string) (*TopicValidation, error)
	GenerateTitle(ctx context.Context, userID, topic string) (string, error)
	GenerateOutline(ctx context.Context, userID, title, knowledgeLevel, depth string) ([]OutlineStep, error)
	GenerateStepContent(ctx context.Context, userID, title string, step OutlineStep) (*StepContent, error)
	// GenerateCourse runs all stages and returns the assembled course, not yet
	// persisted. Steps whose content yields no sub-steps are dropped; if none
	// survive the run fails with ErrNoStepsGenerated.
	GenerateCourse(ctx context.Context, userID string, req GenerationRequest) (*model.Course, error)
}

type generationService struct {
	client    ModelClient
	userRepo  repository.UserRepository
	secretSvc SecretService
	logger    zerolog.Logger
}

// NewGenerationService creates a GenerationService with a scoped logger.
func NewGenerationService(client ModelClient, userRepo repository.UserRepository, secretSvc SecretService, logger zerolog.Logger) GenerationService {
	return &generationService{
		client:    client,
		userRepo:  userRepo,
		secretSvc: secretSvc,
		logger:    logger.With().Str("service", "GenerationService").Logger(),
	}
}

// userAPIKey resolves the user's stored model key, if any. A lookup failure is
// logged and treated as "no key": generation falls back to the app key rather
// than failing the run.
func (s *generationService) userAPIKey(ctx context.Context, userID string) string {
	if userID == "" || s.secretSvc == nil {
		return ""
	}
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil || user == nil || !user.HasModelKey {
		return ""
	}
	key, err := s.secretSvc.GetUserModelKey(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to fetch user model key, using app key")
		return ""
	}
	return key
}

func (s *generationService) ValidateTopic(ctx context.Context, userID, topic string) (*TopicValidation, error) {
	var verdict TopicValidation
	apiKey := s.userAPIKey(ctx, userID)
	if err := s.client.CompleteJSON(ctx, apiKey, topicValidationSystem, topic, &verdict); err != nil {
		return nil, fmt.Errorf("validating topic: %w", err)
	}
	if !verdict.IsAppropriate && verdict.Reason == "" {
		verdict.Reason = "this topic is not suitable for a course"
	}
	return &verdict, nil
}

func (s *generationService) GenerateTitle(ctx context.Context, userID, topic string) (string, error) {
	var out struct {
		Title string `json:"title"`
	}
	apiKey := s.userAPIKey(ctx, userID)
	if err := s.client.CompleteJSON(ctx, apiKey, titleSystem, topic, &out); err != nil {
		return "", fmt.Errorf("generating title: %w", err)
	}
	if out.Title == "" {
		return "", fmt.Errorf("generating title: model returned an empty title")
	}
	return out.Title, nil
}

func (s *generationService) GenerateOutline(ctx context.Context, userID, title, knowledgeLevel, depth string) ([]OutlineStep, error) {
	var out struct {
		Steps []OutlineStep `json:"steps"`
	}
	prompt := fmt.Sprintf("Course title: %s\nKnowledge level: %s\nDepth: %s", title, knowledgeLevel, depth)
	apiKey := s.userAPIKey(ctx, userID)
	if err := s.client.CompleteJSON(ctx, apiKey, outlineSystem, prompt, &out); err != nil {
		return nil, fmt.Errorf("generating outline: %w", err)
	}
	if len(out.Steps) == 0 {
		return nil, fmt.Errorf("generating outline: model returned no steps")
	}
	// Step count bounds are a prompt instruction, not a hard contract.
	if n := len(out.Steps); (depth == "overview" && (n < 5 || n > 7)) || (depth == "normal" && (n < 12 || n > 15)) {
		s.logger.Warn().Int("steps", n).Str("depth", depth).Msg("Outline step count outside requested range")
	}
	return out.Steps, nil
}

func (s *generationService) GenerateStepContent(ctx context.Context, userID, title string, step OutlineStep) (*StepContent, error) {
	var content StepContent
	prompt := fmt.Sprintf("Course: %s\nStep %d: %s\nStep description: %s", title, step.Number, step.Title, step.Description)
	apiKey := s.userAPIKey(ctx, userID)
	if err := s.client.CompleteJSON(ctx, apiKey, stepContentSystem, prompt, &content); err != nil {
		return nil, fmt.Errorf("generating content for step %d: %w", step.Number, err)
	}
	return &content, nil
}

func (s *generationService) GenerateCourse(ctx context.Context, userID string, req GenerationRequest) (*model.Course, error) {
	verdict, err := s.ValidateTopic(ctx, userID, req.Topic)
	if err != nil {
		return nil, err
	}
	if !verdict.IsAppropriate {
		return nil, fmt.Errorf("%w: %s", ErrTopicRejected, verdict.Reason)
	}

	title, err := s.GenerateTitle(ctx, userID, req.Topic)
	if err != nil {
		return nil, err
	}

	outline, err := s.GenerateOutline(ctx, userID, title, req.KnowledgeLevel, req.Depth)
	if err != nil {
		return nil, err
	}

	// Steps are generated sequentially; the model client's token bucket paces
	// the calls.
	steps := make([]model.Step, 0, len(outline))
	for _, entry := range outline {
		content, err := s.GenerateStepContent(ctx, userID, title, entry)
		if err != nil {
			return nil, err
		}
		if len(content.SubSteps) == 0 {
			s.logger.Warn().Int("step", entry.Number).Str("title", entry.Title).Msg("Dropping step with no generated sub-steps")
			continue
		}
		steps = append(steps, model.Step{
			Number:      len(steps) + 1,
			Title:       entry.Title,
			ShortTitle:  entry.ShortTitle,
			Description: entry.Description,
			SubSteps:    content.SubSteps,
			Quiz:        content.Quiz,
			FunFact:     content.FunFact,
			Links:       content.Links,
		})
	}
	if len(steps) == 0 {
		return nil, ErrNoStepsGenerated
	}

	return &model.Course{
		UserID:         userID,
		Topic:          req.Topic,
		Title:          title,
		KnowledgeLevel: req.KnowledgeLevel,
		Depth:          req.Depth,
		Mode:           "solo",
		Steps:          steps,
	}, nil
}
