package model

import "time"

// GenerationJob statuses
const (
	JobQueued  = "queued"
	JobRunning = "running"
	JobDone    = "done"
	JobFailed  = "failed"
)

// GenerationJob tracks a server-orchestrated course generation run.
type GenerationJob struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"user_id"`
	Topic          string    `db:"topic" json:"topic"`
	KnowledgeLevel string    `db:"knowledge_level" json:"knowledge_level"`
	Depth          string    `db:"depth" json:"depth"`
	Status         string    `db:"status" json:"status"`
	CourseID       *string   `db:"course_id" json:"course_id,omitempty"`
	ErrorMessage   *string   `db:"error_message" json:"error_message,omitempty"`
	Attempts       int       `db:"attempts" json:"attempts"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
