package dto

// MarketplacePublishDTO publishes a course under a category
type MarketplacePublishDTO struct {
	CourseID string `json:"course_id" validate:"required"`
	Category string `json:"category" validate:"required"`
}

// MarketplaceLikeResponseDTO returns the like state after a toggle
type MarketplaceLikeResponseDTO struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}
