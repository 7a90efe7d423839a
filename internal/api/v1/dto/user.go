package dto

import "time"

// UserCreateDTO is used for incoming signup requests
type UserCreateDTO struct {
	UserID string `json:"user_id" validate:"required"`
	Name   string `json:"name" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
}

// UserResponseDTO is returned in API responses for users. Plan and quota
// fields are filled on the profile read, not on creation.
type UserResponseDTO struct {
	UserID          string            `json:"user_id"`
	Name            string            `json:"name"`
	Email           string            `json:"email"`
	AvatarURL       string            `json:"avatar_url,omitempty"`
	HasModelKey     bool              `json:"has_model_key"`
	Plan            string            `json:"plan,omitempty"`
	CourseQuota     *LimitResponseDTO `json:"course_quota,omitempty"`
	WhiteboardQuota *LimitResponseDTO `json:"whiteboard_quota,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// ModelKeyDTO carries a user-supplied model API key
type ModelKeyDTO struct {
	APIKey string `json:"api_key" validate:"required,min=8"`
}

// AvatarUploadRequestDTO is used to request a presigned avatar upload
type AvatarUploadRequestDTO struct {
	ContentType string `json:"content_type" validate:"required"`
}

// AvatarUploadResponseDTO returns the presigned upload URL and object key
type AvatarUploadResponseDTO struct {
	UploadURL string `json:"upload_url"`
	ObjectKey string `json:"object_key"`
}

// AvatarConfirmDTO confirms a completed avatar upload
type AvatarConfirmDTO struct {
	ObjectKey string `json:"object_key" validate:"required"`
}
