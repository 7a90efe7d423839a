package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"app/internal/service"

	"github.com/rs/zerolog"
)

// NotificationHandler handles the notification inbox endpoints
type NotificationHandler struct {
	notificationService service.NotificationService
	logger              zerolog.Logger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notificationService service.NotificationService, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, logger: logger}
}

// RegisterRoutes mounts notification routes
func (h *NotificationHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/notifications", authMw(http.HandlerFunc(h.list)))
	mux.Handle("/notifications/read-all", authMw(http.HandlerFunc(h.markAllRead)))
	mux.Handle("/notifications/", authMw(http.HandlerFunc(h.handleNotification)))
}

// list godoc
// @Summary List notifications
// @Tags notifications
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} model.Notification
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Router /notifications [get]
func (h *NotificationHandler) list(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	notifications, err := h.notificationService.List(r.Context(), userID, limit, offset)
	if err != nil {
		http.Error(w, "Failed to list notifications: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(notifications)
}

// markAllRead godoc
// @Summary Mark all notifications as read
// @Tags notifications
// @Success 204 {string} string "No content"
// @Router /notifications/read-all [post]
func (h *NotificationHandler) markAllRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	if err := h.notificationService.MarkAllRead(r.Context(), userID); err != nil {
		http.Error(w, "Failed to mark notifications read: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleNotification marks one notification read or deletes it
//
// @Summary Mark one notification as read or delete it
// @Tags notifications
// @Param notificationId path string true "Notification ID"
// @Success 204 {string} string "No content"
// @Router /notifications/{notificationId}/read [post]
func (h *NotificationHandler) handleNotification(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/notifications/")
	notificationID, action, _ := strings.Cut(rest, "/")
	if notificationID == "" {
		http.NotFound(w, r)
		return
	}
	var err error
	switch {
	case r.Method == http.MethodPost && action == "read":
		err = h.notificationService.MarkRead(r.Context(), userID, notificationID)
	case r.Method == http.MethodDelete && action == "":
		err = h.notificationService.Delete(r.Context(), userID, notificationID)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "Failed to update notification: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
