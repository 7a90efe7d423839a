package dto

// GenerationRequestDTO starts a background course generation
type GenerationRequestDTO struct {
	Topic          string `json:"topic" validate:"required,min=2,max=200"`
	KnowledgeLevel string `json:"knowledge_level" validate:"required,oneof=beginner intermediate advanced"`
	Depth          string `json:"depth" validate:"required,oneof=overview normal"`
}

// GenerationJobResponseDTO mirrors a generation job's state
type GenerationJobResponseDTO struct {
	JobID        string  `json:"job_id"`
	Status       string  `json:"status"`
	CourseID     *string `json:"course_id,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`
	Attempts     int     `json:"attempts"`
}

// TopicValidationRequestDTO checks a topic before generation
type TopicValidationRequestDTO struct {
	Topic string `json:"topic" validate:"required,min=2,max=200"`
}

// TopicValidationResponseDTO is the moderation verdict for a topic
type TopicValidationResponseDTO struct {
	IsAppropriate bool   `json:"is_appropriate"`
	Reason        string `json:"reason,omitempty"`
}

// TitleRequestDTO requests a generated course title
type TitleRequestDTO struct {
	Topic string `json:"topic" validate:"required,min=2,max=200"`
}

// TitleResponseDTO carries a generated course title
type TitleResponseDTO struct {
	Title string `json:"title"`
}

// OutlineRequestDTO requests a step outline for a titled course
type OutlineRequestDTO struct {
	Title          string `json:"title" validate:"required"`
	KnowledgeLevel string `json:"knowledge_level" validate:"required,oneof=beginner intermediate advanced"`
	Depth          string `json:"depth" validate:"required,oneof=overview normal"`
}

// OutlineStepDTO is one entry of a generated outline
type OutlineStepDTO struct {
	Number      int    `json:"number"`
	Title       string `json:"title"`
	ShortTitle  string `json:"short_title"`
	Description string `json:"description"`
}

// StepContentRequestDTO requests full content for one outline step
type StepContentRequestDTO struct {
	Title string         `json:"title" validate:"required"`
	Step  OutlineStepDTO `json:"step" validate:"required"`
}
