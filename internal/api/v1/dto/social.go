package dto

// FriendRequestCreateDTO sends a friend request by email
type FriendRequestCreateDTO struct {
	Email string `json:"email" validate:"required,email"`
}

// ShareCourseDTO offers a course copy to a friend
type ShareCourseDTO struct {
	CourseID string `json:"course_id" validate:"required"`
	FriendID string `json:"friend_id" validate:"required"`
}

// AcceptInvitationResponseDTO returns the ID of the copied course
type AcceptInvitationResponseDTO struct {
	CourseID string `json:"course_id"`
}
