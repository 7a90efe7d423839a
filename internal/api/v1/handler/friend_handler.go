package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/repository"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// FriendHandler handles the friend graph and course sharing endpoints
type FriendHandler struct {
	friendService service.FriendService
	validate      *validator.Validate
	logger        zerolog.Logger
}

// NewFriendHandler creates a new FriendHandler
func NewFriendHandler(friendService service.FriendService, validate *validator.Validate, logger zerolog.Logger) *FriendHandler {
	return &FriendHandler{friendService: friendService, validate: validate, logger: logger}
}

// RegisterRoutes mounts friend and sharing routes
func (h *FriendHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/friends", authMw(http.HandlerFunc(h.listFriends)))
	mux.Handle("/friends/", authMw(http.HandlerFunc(h.removeFriend)))
	mux.Handle("/friends/requests", authMw(http.HandlerFunc(h.handleRequests)))
	mux.Handle("/friends/requests/", authMw(http.HandlerFunc(h.resolveRequest)))
	mux.Handle("/friends/share", authMw(http.HandlerFunc(h.shareCourse)))
	mux.Handle("/friends/invitations", authMw(http.HandlerFunc(h.listInvitations)))
	mux.Handle("/friends/invitations/", authMw(http.HandlerFunc(h.resolveInvitation)))
}

func authedUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

// listFriends godoc
// @Summary List the user's friends
// @Tags friends
// @Produce json
// @Success 200 {array} model.User
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Router /friends [get]
func (h *FriendHandler) listFriends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	friends, err := h.friendService.ListFriends(r.Context(), userID)
	if err != nil {
		http.Error(w, "Failed to list friends: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(friends)
}

// removeFriend godoc
// @Summary Remove a friend
// @Tags friends
// @Param friendId path string true "Friend user ID"
// @Success 204 {string} string "No content"
// @Router /friends/{friendId} [delete]
func (h *FriendHandler) removeFriend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.NotFound(w, r)
		return
	}
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	friendID := strings.TrimPrefix(r.URL.Path, "/friends/")
	if friendID == "" || strings.Contains(friendID, "/") {
		http.NotFound(w, r)
		return
	}
	if err := h.friendService.RemoveFriend(r.Context(), userID, friendID); err != nil {
		http.Error(w, "Failed to remove friend: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRequests sends a request or lists pending ones
//
// @Summary Send a friend request or list pending requests
// @Description POST sends a request by email. GET lists requests; ?direction=outgoing for sent ones.
// @Tags friends
// @Accept json
// @Produce json
// @Param request body dto.FriendRequestCreateDTO true "Friend request"
// @Success 201 {object} model.FriendRequest
// @Failure 404 {string} string "User not found"
// @Failure 409 {string} string "Already friends or request already pending"
// @Router /friends/requests [post]
func (h *FriendHandler) handleRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodPost:
		var req dto.FriendRequestCreateDTO
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := h.validate.Struct(&req); err != nil {
			http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
			return
		}
		created, err := h.friendService.SendRequest(r.Context(), userID, req.Email)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrUserNotFound):
				http.Error(w, "User not found", http.StatusNotFound)
			case errors.Is(err, service.ErrSelfFriendRequest):
				http.Error(w, "Cannot send a friend request to yourself", http.StatusBadRequest)
			case errors.Is(err, repository.ErrAlreadyFriends), errors.Is(err, repository.ErrDuplicateRequest):
				http.Error(w, "Already friends or request already pending", http.StatusConflict)
			default:
				http.Error(w, "Failed to send friend request: "+err.Error(), http.StatusInternalServerError)
			}
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(created)
	case http.MethodGet:
		var list interface{}
		var err error
		if r.URL.Query().Get("direction") == "outgoing" {
			list, err = h.friendService.ListOutgoing(r.Context(), userID)
		} else {
			list, err = h.friendService.ListIncoming(r.Context(), userID)
		}
		if err != nil {
			http.Error(w, "Failed to list friend requests: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(list)
	default:
		http.NotFound(w, r)
	}
}

// resolveRequest godoc
// @Summary Accept or decline a friend request
// @Tags friends
// @Param requestId path string true "Request ID"
// @Success 204 {string} string "No content"
// @Failure 403 {string} string "Only the recipient can resolve a request"
// @Failure 404 {string} string "Friend request not found"
// @Router /friends/requests/{requestId}/accept [post]
func (h *FriendHandler) resolveRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/friends/requests/")
	requestID, action, _ := strings.Cut(rest, "/")
	var err error
	switch action {
	case "accept":
		err = h.friendService.AcceptRequest(r.Context(), userID, requestID)
	case "decline":
		err = h.friendService.DeclineRequest(r.Context(), userID, requestID)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRequestNotFound):
			http.Error(w, "Friend request not found", http.StatusNotFound)
		case errors.Is(err, service.ErrNotRequestTarget):
			http.Error(w, "Only the recipient can resolve a request", http.StatusForbidden)
		default:
			http.Error(w, "Failed to resolve friend request: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// shareCourse godoc
// @Summary Share a course with a friend
// @Tags friends
// @Accept json
// @Produce json
// @Param share body dto.ShareCourseDTO true "Share request"
// @Success 201 {object} model.CourseInvitation
// @Failure 403 {string} string "Users are not friends"
// @Failure 404 {string} string "Course not found"
// @Router /friends/share [post]
func (h *FriendHandler) shareCourse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	var req dto.ShareCourseDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	inv, err := h.friendService.ShareCourse(r.Context(), userID, req.CourseID, req.FriendID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCourseNotFound):
			http.Error(w, "Course not found", http.StatusNotFound)
		case errors.Is(err, service.ErrNotFriends):
			http.Error(w, "Users are not friends", http.StatusForbidden)
		default:
			http.Error(w, "Failed to share course: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(inv)
}

// listInvitations godoc
// @Summary List pending course invitations
// @Tags friends
// @Produce json
// @Success 200 {array} model.CourseInvitation
// @Router /friends/invitations [get]
func (h *FriendHandler) listInvitations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	invitations, err := h.friendService.ListInvitations(r.Context(), userID)
	if err != nil {
		http.Error(w, "Failed to list invitations: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(invitations)
}

// resolveInvitation godoc
// @Summary Accept or decline a course invitation
// @Description Accepting copies the course into the recipient's library with progress reset.
// @Tags friends
// @Produce json
// @Param invitationId path string true "Invitation ID"
// @Success 200 {object} dto.AcceptInvitationResponseDTO
// @Failure 404 {string} string "Course invitation not found"
// @Router /friends/invitations/{invitationId}/accept [post]
func (h *FriendHandler) resolveInvitation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/friends/invitations/")
	invitationID, action, _ := strings.Cut(rest, "/")
	switch action {
	case "accept":
		courseID, err := h.friendService.AcceptInvitation(r.Context(), userID, invitationID)
		if err != nil {
			if errors.Is(err, service.ErrInvitationNotFound) {
				http.Error(w, "Course invitation not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to accept invitation: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(dto.AcceptInvitationResponseDTO{CourseID: courseID})
	case "decline":
		if err := h.friendService.DeclineInvitation(r.Context(), userID, invitationID); err != nil {
			if errors.Is(err, service.ErrInvitationNotFound) {
				http.Error(w, "Course invitation not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to decline invitation: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}
