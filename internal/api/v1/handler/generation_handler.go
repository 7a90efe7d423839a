package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/repository"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// GenerationHandler exposes both generation paths: background jobs and the
// per-stage endpoints clients sequence themselves.
type GenerationHandler struct {
	jobService        service.GenerationJobService
	generationService service.GenerationService
	validate          *validator.Validate
	logger            zerolog.Logger
}

// NewGenerationHandler creates a new GenerationHandler
func NewGenerationHandler(jobService service.GenerationJobService, generationService service.GenerationService, validate *validator.Validate, logger zerolog.Logger) *GenerationHandler {
	return &GenerationHandler{jobService: jobService, generationService: generationService, validate: validate, logger: logger}
}

// RegisterRoutes mounts generation routes
func (h *GenerationHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/generations", authMw(http.HandlerFunc(h.createJob)))
	mux.Handle("/generations/validate-topic", authMw(http.HandlerFunc(h.validateTopic)))
	mux.Handle("/generations/title", authMw(http.HandlerFunc(h.generateTitle)))
	mux.Handle("/generations/outline", authMw(http.HandlerFunc(h.generateOutline)))
	mux.Handle("/generations/step-content", authMw(http.HandlerFunc(h.generateStepContent)))
	mux.Handle("/generations/", authMw(http.HandlerFunc(h.getJob)))
}

func jobResponse(job *model.GenerationJob) dto.GenerationJobResponseDTO {
	return dto.GenerationJobResponseDTO{
		JobID:        job.ID,
		Status:       job.Status,
		CourseID:     job.CourseID,
		ErrorMessage: job.ErrorMessage,
		Attempts:     job.Attempts,
	}
}

// createJob godoc
// @Summary Start a background course generation
// @Description Enqueues a generation job. Counts against the plan's course creation quota.
// @Tags generations
// @Accept json
// @Produce json
// @Param request body dto.GenerationRequestDTO true "Generation request"
// @Success 202 {object} dto.GenerationJobResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 429 {string} string "Course creation limit reached"
// @Router /generations [post]
func (h *GenerationHandler) createJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	var req dto.GenerationRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	job, err := h.jobService.Enqueue(r.Context(), userID, service.GenerationRequest{
		Topic:          req.Topic,
		KnowledgeLevel: req.KnowledgeLevel,
		Depth:          req.Depth,
	})
	if err != nil {
		if errors.Is(err, repository.ErrCourseLimitExceeded) {
			http.Error(w, "Course creation limit reached", http.StatusTooManyRequests)
			return
		}
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to enqueue generation job")
		http.Error(w, "Failed to start generation", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(jobResponse(job))
}

// getJob godoc
// @Summary Get the status of a generation job
// @Tags generations
// @Produce json
// @Param jobId path string true "Job ID"
// @Success 200 {object} dto.GenerationJobResponseDTO
// @Failure 404 {string} string "Generation job not found"
// @Router /generations/{jobId} [get]
func (h *GenerationHandler) getJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	jobID := strings.TrimPrefix(r.URL.Path, "/generations/")
	if jobID == "" || strings.Contains(jobID, "/") {
		http.NotFound(w, r)
		return
	}
	job, err := h.jobService.Get(r.Context(), userID, jobID)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			http.Error(w, "Generation job not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to retrieve job: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(jobResponse(job))
}

// validateTopic godoc
// @Summary Check a topic against content moderation
// @Tags generations
// @Accept json
// @Produce json
// @Param request body dto.TopicValidationRequestDTO true "Topic to validate"
// @Success 200 {object} dto.TopicValidationResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Router /generations/validate-topic [post]
func (h *GenerationHandler) validateTopic(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requirePost(w, r)
	if !ok {
		return
	}
	var req dto.TopicValidationRequestDTO
	if !h.decode(w, r, &req) {
		return
	}
	verdict, err := h.generationService.ValidateTopic(r.Context(), userID, req.Topic)
	if err != nil {
		h.logger.Error().Err(err).Msg("topic validation failed")
		http.Error(w, "Topic validation failed", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.TopicValidationResponseDTO{
		IsAppropriate: verdict.IsAppropriate,
		Reason:        verdict.Reason,
	})
}

// generateTitle godoc
// @Summary Generate a course title for a topic
// @Tags generations
// @Accept json
// @Produce json
// @Param request body dto.TitleRequestDTO true "Topic"
// @Success 200 {object} dto.TitleResponseDTO
// @Router /generations/title [post]
func (h *GenerationHandler) generateTitle(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requirePost(w, r)
	if !ok {
		return
	}
	var req dto.TitleRequestDTO
	if !h.decode(w, r, &req) {
		return
	}
	title, err := h.generationService.GenerateTitle(r.Context(), userID, req.Topic)
	if err != nil {
		h.logger.Error().Err(err).Msg("title generation failed")
		http.Error(w, "Title generation failed", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.TitleResponseDTO{Title: title})
}

// generateOutline godoc
// @Summary Generate a step outline for a titled course
// @Tags generations
// @Accept json
// @Produce json
// @Param request body dto.OutlineRequestDTO true "Outline request"
// @Success 200 {array} dto.OutlineStepDTO
// @Router /generations/outline [post]
func (h *GenerationHandler) generateOutline(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requirePost(w, r)
	if !ok {
		return
	}
	var req dto.OutlineRequestDTO
	if !h.decode(w, r, &req) {
		return
	}
	steps, err := h.generationService.GenerateOutline(r.Context(), userID, req.Title, req.KnowledgeLevel, req.Depth)
	if err != nil {
		h.logger.Error().Err(err).Msg("outline generation failed")
		http.Error(w, "Outline generation failed", http.StatusBadGateway)
		return
	}
	out := make([]dto.OutlineStepDTO, len(steps))
	for i, s := range steps {
		out[i] = dto.OutlineStepDTO{Number: s.Number, Title: s.Title, ShortTitle: s.ShortTitle, Description: s.Description}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// generateStepContent godoc
// @Summary Generate the content of one outline step
// @Tags generations
// @Accept json
// @Produce json
// @Param request body dto.StepContentRequestDTO true "Step content request"
// @Success 200 {object} service.StepContent
// @Router /generations/step-content [post]
func (h *GenerationHandler) generateStepContent(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requirePost(w, r)
	if !ok {
		return
	}
	var req dto.StepContentRequestDTO
	if !h.decode(w, r, &req) {
		return
	}
	content, err := h.generationService.GenerateStepContent(r.Context(), userID, req.Title, service.OutlineStep{
		Number:      req.Step.Number,
		Title:       req.Step.Title,
		ShortTitle:  req.Step.ShortTitle,
		Description: req.Step.Description,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("step content generation failed")
		http.Error(w, "Step content generation failed", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(content)
}

func (h *GenerationHandler) requirePost(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return "", false
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

func (h *GenerationHandler) decode(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}
