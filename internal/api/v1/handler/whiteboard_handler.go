package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"app/internal/api/v1/dto"
	"app/internal/repository"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// WhiteboardHandler handles whiteboard room endpoints
type WhiteboardHandler struct {
	whiteboardService service.WhiteboardService
	userService       service.UserService
	validate          *validator.Validate
	logger            zerolog.Logger
}

// NewWhiteboardHandler creates a new WhiteboardHandler
func NewWhiteboardHandler(whiteboardService service.WhiteboardService, userService service.UserService, validate *validator.Validate, logger zerolog.Logger) *WhiteboardHandler {
	return &WhiteboardHandler{whiteboardService: whiteboardService, userService: userService, validate: validate, logger: logger}
}

// RegisterRoutes mounts whiteboard routes
func (h *WhiteboardHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/whiteboards", authMw(http.HandlerFunc(h.handleWhiteboards)))
	mux.Handle("/whiteboards/auth", authMw(http.HandlerFunc(h.auth)))
	mux.Handle("/whiteboards/", authMw(http.HandlerFunc(h.deleteWhiteboard)))
}

func (h *WhiteboardHandler) handleWhiteboards(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		http.NotFound(w, r)
	}
}

// create godoc
// @Summary Create a whiteboard
// @Description Creates a whiteboard room. Counts against the plan's lifetime whiteboard cap.
// @Tags whiteboards
// @Accept json
// @Produce json
// @Param whiteboard body dto.WhiteboardCreateDTO true "Whiteboard creation request"
// @Success 201 {object} model.Whiteboard
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 429 {string} string "Whiteboard limit reached"
// @Router /whiteboards [post]
func (h *WhiteboardHandler) create(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	var req dto.WhiteboardCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	wb, err := h.whiteboardService.Create(r.Context(), userID, req.Name)
	if err != nil {
		if errors.Is(err, repository.ErrWhiteboardLimitExceeded) {
			http.Error(w, "Whiteboard limit reached", http.StatusTooManyRequests)
			return
		}
		http.Error(w, "Failed to create whiteboard: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(wb)
}

// list godoc
// @Summary List the user's whiteboards
// @Tags whiteboards
// @Produce json
// @Success 200 {array} model.Whiteboard
// @Router /whiteboards [get]
func (h *WhiteboardHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	boards, err := h.whiteboardService.List(r.Context(), userID)
	if err != nil {
		http.Error(w, "Failed to list whiteboards: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(boards)
}

// auth godoc
// @Summary Issue a Liveblocks token for a whiteboard room
// @Tags whiteboards
// @Accept json
// @Produce json
// @Param request body map[string]string true "Room request with room_id"
// @Success 200 {object} dto.WhiteboardTokenResponseDTO
// @Failure 404 {string} string "Whiteboard not found"
// @Router /whiteboards/auth [post]
func (h *WhiteboardHandler) auth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	var req struct {
		RoomID string `json:"room_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RoomID == "" {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	user, err := h.userService.Get(r.Context(), userID)
	if err != nil {
		http.Error(w, "Failed to retrieve user: "+err.Error(), http.StatusInternalServerError)
		return
	}
	token, err := h.whiteboardService.GetRoomToken(r.Context(), user, req.RoomID)
	if err != nil {
		if errors.Is(err, service.ErrWhiteboardNotFound) {
			http.Error(w, "Whiteboard not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("room_id", req.RoomID).Msg("failed to issue room token")
		http.Error(w, "Failed to issue room token", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.WhiteboardTokenResponseDTO{Token: token})
}

// deleteWhiteboard godoc
// @Summary Delete a whiteboard
// @Tags whiteboards
// @Param whiteboardId path string true "Whiteboard ID"
// @Success 204 {string} string "No content"
// @Router /whiteboards/{whiteboardId} [delete]
func (h *WhiteboardHandler) deleteWhiteboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.NotFound(w, r)
		return
	}
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	whiteboardID := strings.TrimPrefix(r.URL.Path, "/whiteboards/")
	if whiteboardID == "" || strings.Contains(whiteboardID, "/") {
		http.NotFound(w, r)
		return
	}
	if err := h.whiteboardService.Delete(r.Context(), userID, whiteboardID); err != nil {
		http.Error(w, "Failed to delete whiteboard: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
