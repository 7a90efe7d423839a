package model

import "time"

// Course is a generated learning course. The step tree is stored as a
// single JSONB document alongside the scalar columns.
type Course struct {
	CourseID       string    `db:"id" json:"course_id"`
	UserID         string    `db:"user_id" json:"user_id"`
	Topic          string    `db:"topic" json:"topic"`
	Title          string    `db:"title" json:"title"`
	KnowledgeLevel string    `db:"knowledge_level" json:"knowledge_level"` // beginner | intermediate | advanced
	Depth          string    `db:"depth" json:"depth"`                     // overview | normal
	Mode           string    `db:"mode" json:"mode"`                       // solo | collaborative
	IsPublic       bool      `db:"is_public" json:"is_public"`
	Notes          string    `db:"notes" json:"notes"`
	Steps          []Step    `db:"steps" json:"steps"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Step is one unit of a course.
type Step struct {
	Number      int            `json:"number"`
	Title       string         `json:"title"`
	ShortTitle  string         `json:"short_title"`
	Description string         `json:"description"`
	SubSteps    []SubStep      `json:"sub_steps"`
	Quiz        []QuizQuestion `json:"quiz,omitempty"`
	FunFact     string         `json:"fun_fact,omitempty"`
	Links       []ExternalLink `json:"links,omitempty"`
	Completed   bool           `json:"completed"`
}

// SubStep carries the actual teaching content. Content is HTML.
type SubStep struct {
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	Summary  string    `json:"summary"`
	Exercise *Exercise `json:"exercise,omitempty"`
}

// Exercise is the two-part practice attached to a sub-step.
type Exercise struct {
	Prompt   string `json:"prompt"`
	Solution string `json:"solution"`
}

// QuizQuestion is a multiple-choice question within a step.
type QuizQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation"`
	UserAnswer   *int     `json:"user_answer,omitempty"`
	IsCorrect    *bool    `json:"is_correct,omitempty"`
}

// ExternalLink is a further-reading reference for a step.
type ExternalLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}
