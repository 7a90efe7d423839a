package handler

import (
	"encoding/json"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/service"

	"github.com/rs/zerolog"
)

// DLQHandler receives dead-lettered Pub/Sub messages via push delivery
type DLQHandler struct {
	dlqService service.DLQService
	logger     zerolog.Logger
}

// NewDLQHandler creates a new DLQHandler
func NewDLQHandler(dlqService service.DLQService, logger zerolog.Logger) *DLQHandler {
	return &DLQHandler{dlqService: dlqService, logger: logger}
}

// RegisterRoutes mounts the DLQ intake endpoint behind the Pub/Sub push
// auth middleware instead of user auth.
func (h *DLQHandler) RegisterRoutes(mux *http.ServeMux, pushAuthMw func(http.Handler) http.Handler) {
	mux.Handle("/dlq", pushAuthMw(http.HandlerFunc(h.receive)))
}

// receive godoc
// @Summary Archive a dead-lettered Pub/Sub message
// @Tags dlq
// @Accept json
// @Param message body dto.PubSubPushRequest true "Pub/Sub push envelope"
// @Success 204 {string} string "No content"
// @Failure 400 {string} string "Invalid push payload"
// @Router /dlq [post]
func (h *DLQHandler) receive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req dto.PubSubPushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid push payload", http.StatusBadRequest)
		return
	}
	if err := h.dlqService.ProcessAndSave(r.Context(), &req); err != nil {
		h.logger.Error().Err(err).Str("message_id", req.Message.MessageID).Msg("failed to archive dead-lettered message")
		// Non-2xx makes Pub/Sub redeliver; archival failures should retry.
		http.Error(w, "Failed to archive message", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
