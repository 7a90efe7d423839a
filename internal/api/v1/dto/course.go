package dto

import "app/internal/model"

// CourseCreateDTO persists a fully assembled course. Used by clients that
// drive the generation stages themselves.
type CourseCreateDTO struct {
	Topic          string       `json:"topic" validate:"required,min=2,max=200"`
	Title          string       `json:"title" validate:"required"`
	KnowledgeLevel string       `json:"knowledge_level" validate:"required,oneof=beginner intermediate advanced"`
	Depth          string       `json:"depth" validate:"required,oneof=overview normal"`
	Mode           string       `json:"mode" validate:"required,oneof=solo collaborative"`
	Steps          []model.Step `json:"steps" validate:"required,min=1"`
}

// CourseNotesDTO is used for incoming notes updates
type CourseNotesDTO struct {
	Notes string `json:"notes"`
}

// CourseVisibilityDTO toggles whether a course is publicly readable
type CourseVisibilityDTO struct {
	IsPublic bool `json:"is_public"`
}

// StepProgressDTO toggles completion of a single step
type StepProgressDTO struct {
	StepNumber int `json:"step_number" validate:"required,min=1"`
}

// QuizAnswerDTO records an answer to a quiz question
type QuizAnswerDTO struct {
	StepNumber    int `json:"step_number" validate:"required,min=1"`
	QuestionIndex int `json:"question_index" validate:"min=0"`
	Answer        int `json:"answer" validate:"min=0"`
}
