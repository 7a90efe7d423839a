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
)

// CourseHandler handles course-related endpoints
type CourseHandler struct {
	courseService service.CourseService
	validate      *validator.Validate
}

// NewCourseHandler creates a new CourseHandler
func NewCourseHandler(courseService service.CourseService, validate *validator.Validate) *CourseHandler {
	return &CourseHandler{courseService: courseService, validate: validate}
}

// RegisterRoutes mounts course routes
func (h *CourseHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/courses", authMw(http.HandlerFunc(h.handleCourses)))
	mux.Handle("/courses/", authMw(http.HandlerFunc(h.handleCourse)))
}

func (h *CourseHandler) handleCourses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listCourses(w, r)
	case http.MethodPost:
		h.createCourse(w, r)
	default:
		http.NotFound(w, r)
	}
}

// createCourse godoc
// @Summary Save an assembled course
// @Description Persists a course built through the per-stage generation endpoints. Counts against the plan's course creation quota.
// @Tags courses
// @Accept json
// @Produce json
// @Param course body dto.CourseCreateDTO true "Course creation request"
// @Success 201 {object} model.Course
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 429 {string} string "Course creation limit reached"
// @Router /courses [post]
func (h *CourseHandler) createCourse(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	var req dto.CourseCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	course := &model.Course{
		UserID:         userID,
		Topic:          req.Topic,
		Title:          req.Title,
		KnowledgeLevel: req.KnowledgeLevel,
		Depth:          req.Depth,
		Mode:           req.Mode,
		Steps:          req.Steps,
	}
	if err := h.courseService.CreateCourse(r.Context(), course); err != nil {
		if errors.Is(err, repository.ErrCourseLimitExceeded) {
			http.Error(w, "Course creation limit reached", http.StatusTooManyRequests)
			return
		}
		http.Error(w, "Failed to create course: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(course)
}

func courseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrCourseNotFound), errors.Is(err, service.ErrNotCourseOwner):
		http.Error(w, "Course not found", http.StatusNotFound)
	default:
		http.Error(w, "Failed to process course: "+err.Error(), http.StatusInternalServerError)
	}
}

// listCourses godoc
// @Summary List the user's courses
// @Tags courses
// @Produce json
// @Success 200 {array} model.Course
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Router /courses [get]
func (h *CourseHandler) listCourses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	courses, err := h.courseService.ListCourses(r.Context(), userID)
	if err != nil {
		http.Error(w, "Failed to list courses: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(courses)
}

func (h *CourseHandler) handleCourse(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/courses/")
	courseID, action, _ := strings.Cut(rest, "/")
	if courseID == "" {
		http.NotFound(w, r)
		return
	}
	switch {
	case action == "" && r.Method == http.MethodGet:
		h.getCourse(w, r, userID, courseID)
	case action == "" && r.Method == http.MethodDelete:
		h.deleteCourse(w, r, userID, courseID)
	case action == "notes" && r.Method == http.MethodPut:
		h.updateNotes(w, r, userID, courseID)
	case action == "visibility" && r.Method == http.MethodPut:
		h.updateVisibility(w, r, userID, courseID)
	case action == "progress" && r.Method == http.MethodPost:
		h.toggleStep(w, r, userID, courseID)
	case action == "quiz" && r.Method == http.MethodPost:
		h.submitQuizAnswer(w, r, userID, courseID)
	default:
		http.NotFound(w, r)
	}
}

// getCourse godoc
// @Summary Get a course
// @Description Retrieves a course. Public courses are readable by anyone.
// @Tags courses
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} model.Course
// @Failure 404 {string} string "Course not found"
// @Router /courses/{courseId} [get]
func (h *CourseHandler) getCourse(w http.ResponseWriter, r *http.Request, userID, courseID string) {
	course, err := h.courseService.GetCourse(r.Context(), userID, courseID)
	if err != nil {
		courseError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(course)
}

// deleteCourse godoc
// @Summary Delete a course
// @Tags courses
// @Param courseId path string true "Course ID"
// @Success 204 {string} string "No content"
// @Failure 404 {string} string "Course not found"
// @Router /courses/{courseId} [delete]
func (h *CourseHandler) deleteCourse(w http.ResponseWriter, r *http.Request, userID, courseID string) {
	if err := h.courseService.DeleteCourse(r.Context(), userID, courseID); err != nil {
		courseError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// updateNotes godoc
// @Summary Update course notes
// @Tags courses
// @Accept json
// @Param courseId path string true "Course ID"
// @Param notes body dto.CourseNotesDTO true "Notes update"
// @Success 204 {string} string "No content"
// @Failure 404 {string} string "Course not found"
// @Router /courses/{courseId}/notes [put]
func (h *CourseHandler) updateNotes(w http.ResponseWriter, r *http.Request, userID, courseID string) {
	var req dto.CourseNotesDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.courseService.UpdateNotes(r.Context(), userID, courseID, req.Notes); err != nil {
		courseError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// updateVisibility godoc
// @Summary Toggle course visibility
// @Tags courses
// @Accept json
// @Param courseId path string true "Course ID"
// @Param visibility body dto.CourseVisibilityDTO true "Visibility update"
// @Success 204 {string} string "No content"
// @Failure 404 {string} string "Course not found"
// @Router /courses/{courseId}/visibility [put]
func (h *CourseHandler) updateVisibility(w http.ResponseWriter, r *http.Request, userID, courseID string) {
	var req dto.CourseVisibilityDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.courseService.SetVisibility(r.Context(), userID, courseID, req.IsPublic); err != nil {
		courseError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// toggleStep godoc
// @Summary Toggle completion of a course step
// @Tags courses
// @Accept json
// @Produce json
// @Param courseId path string true "Course ID"
// @Param progress body dto.StepProgressDTO true "Step to toggle"
// @Success 200 {object} model.Course
// @Failure 404 {string} string "Course not found"
// @Router /courses/{courseId}/progress [post]
func (h *CourseHandler) toggleStep(w http.ResponseWriter, r *http.Request, userID, courseID string) {
	var req dto.StepProgressDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	course, err := h.courseService.ToggleStepCompleted(r.Context(), userID, courseID, req.StepNumber)
	if err != nil {
		courseError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(course)
}

// submitQuizAnswer godoc
// @Summary Record a quiz answer
// @Tags courses
// @Accept json
// @Produce json
// @Param courseId path string true "Course ID"
// @Param answer body dto.QuizAnswerDTO true "Quiz answer"
// @Success 200 {object} model.Course
// @Failure 400 {string} string "Answer out of range"
// @Failure 404 {string} string "Course not found"
// @Router /courses/{courseId}/quiz [post]
func (h *CourseHandler) submitQuizAnswer(w http.ResponseWriter, r *http.Request, userID, courseID string) {
	var req dto.QuizAnswerDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	course, err := h.courseService.SubmitQuizAnswer(r.Context(), userID, courseID, req.StepNumber, req.QuestionIndex, req.Answer)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) || errors.Is(err, service.ErrNotCourseOwner) {
			http.Error(w, "Course not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to record answer: "+err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(course)
}
