package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// UserHandler handles user profile endpoints
type UserHandler struct {
	userService   service.UserService
	avatarService service.AvatarService
	subSvc        service.SubscriptionService
	limitSvc      service.LimitService
	validate      *validator.Validate
	logger        zerolog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService, avatarService service.AvatarService, subSvc service.SubscriptionService, limitSvc service.LimitService, validate *validator.Validate, logger zerolog.Logger) *UserHandler {
	return &UserHandler{userService: userService, avatarService: avatarService, subSvc: subSvc, limitSvc: limitSvc, validate: validate, logger: logger}
}

// RegisterRoutes mounts user routes
func (h *UserHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/users", authMw(http.HandlerFunc(h.createUser)))
	mux.Handle("/users/me", authMw(http.HandlerFunc(h.getMe)))
	mux.Handle("/users/me/model-key", authMw(http.HandlerFunc(h.handleModelKey)))
	mux.Handle("/users/me/avatar", authMw(http.HandlerFunc(h.handleAvatar)))
	mux.Handle("/users/me/avatar/confirm", authMw(http.HandlerFunc(h.confirmAvatar)))
}

func userResponse(u *model.User) dto.UserResponseDTO {
	return dto.UserResponseDTO{
		UserID:      u.UserID,
		Name:        u.Name,
		Email:       u.Email,
		AvatarURL:   u.AvatarURL,
		HasModelKey: u.HasModelKey,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// createUser godoc
// @Summary Register a user profile
// @Description Creates a profile for the authenticated identity and provisions billing.
// @Tags users
// @Accept json
// @Produce json
// @Param user body dto.UserCreateDTO true "User creation request"
// @Success 201 {object} dto.UserResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 409 {string} string "Email already registered"
// @Failure 500 {string} string "Failed to create user"
// @Router /users [post]
func (h *UserHandler) createUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req dto.UserCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	user := &model.User{UserID: req.UserID, Name: req.Name, Email: req.Email}
	created, err := h.userService.Create(r.Context(), user)
	if err != nil {
		if errors.Is(err, service.ErrEmailAlreadyRegistered) {
			http.Error(w, "Email already registered", http.StatusConflict)
			return
		}
		http.Error(w, "Failed to create user: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(userResponse(created))
}

// getMe godoc
// @Summary Get the authenticated user's profile
// @Description Returns the profile with the effective plan and remaining creation quotas.
// @Tags users
// @Produce json
// @Success 200 {object} dto.UserResponseDTO
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 404 {string} string "User not found"
// @Router /users/me [get]
func (h *UserHandler) getMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	user, err := h.userService.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to retrieve user: "+err.Error(), http.StatusInternalServerError)
		return
	}
	resp := userResponse(user)
	if plan, err := h.subSvc.GetPlanTier(r.Context(), userID); err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to resolve plan tier")
	} else {
		resp.Plan = string(plan)
	}
	if quota, err := h.limitSvc.CheckCourseLimit(r.Context(), userID); err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to read course quota")
	} else {
		resp.CourseQuota = &dto.LimitResponseDTO{Allowed: quota.Allowed, Remaining: quota.Remaining, Limit: quota.Limit, NextReset: quota.NextReset}
	}
	if quota, err := h.limitSvc.CheckWhiteboardLimit(r.Context(), userID); err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to read whiteboard quota")
	} else {
		resp.WhiteboardQuota = &dto.LimitResponseDTO{Allowed: quota.Allowed, Remaining: quota.Remaining, Limit: quota.Limit, NextReset: quota.NextReset}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleModelKey stores or deletes the user's own model API key
//
// @Summary Manage the user's model API key
// @Tags users
// @Accept json
// @Param key body dto.ModelKeyDTO true "Model API key"
// @Success 204 {string} string "No content"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Router /users/me/model-key [put]
func (h *UserHandler) handleModelKey(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	switch r.Method {
	case http.MethodPut:
		var req dto.ModelKeyDTO
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := h.validate.Struct(&req); err != nil {
			http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := h.userService.StoreModelKey(r.Context(), userID, req.APIKey); err != nil {
			h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to store model key")
			http.Error(w, "Failed to store model key", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		if err := h.userService.DeleteModelKey(r.Context(), userID); err != nil {
			h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to delete model key")
			http.Error(w, "Failed to delete model key", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

// handleAvatar issues presigned URLs for the user's avatar
//
// @Summary Request an avatar upload URL or fetch the current avatar URL
// @Tags users
// @Accept json
// @Produce json
// @Success 200 {object} dto.AvatarUploadResponseDTO
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Router /users/me/avatar [post]
func (h *UserHandler) handleAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	switch r.Method {
	case http.MethodPost:
		var req dto.AvatarUploadRequestDTO
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := h.validate.Struct(&req); err != nil {
			http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
			return
		}
		uploadURL, objectKey, err := h.avatarService.CreateUploadURL(r.Context(), userID, req.ContentType)
		if err != nil {
			http.Error(w, "Failed to create upload URL: "+err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(dto.AvatarUploadResponseDTO{UploadURL: uploadURL, ObjectKey: objectKey})
	case http.MethodGet:
		user, err := h.userService.Get(r.Context(), userID)
		if err != nil {
			http.Error(w, "Failed to retrieve user: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if user.AvatarURL == "" {
			http.Error(w, "No avatar set", http.StatusNotFound)
			return
		}
		url, err := h.avatarService.GetAvatarURL(r.Context(), user.AvatarURL)
		if err != nil {
			http.Error(w, "Failed to presign avatar URL", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"url": url})
	default:
		http.NotFound(w, r)
	}
}

// confirmAvatar godoc
// @Summary Confirm a completed avatar upload
// @Tags users
// @Accept json
// @Param confirm body dto.AvatarConfirmDTO true "Uploaded object key"
// @Success 204 {string} string "No content"
// @Failure 400 {string} string "Avatar object not found"
// @Router /users/me/avatar/confirm [post]
func (h *UserHandler) confirmAvatar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	var req dto.AvatarConfirmDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.avatarService.ConfirmUpload(r.Context(), userID, req.ObjectKey); err != nil {
		http.Error(w, "Failed to confirm avatar upload: "+err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
