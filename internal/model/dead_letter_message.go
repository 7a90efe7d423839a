package model

import "time"

// DeadLetterMessage represents an undeliverable message persisted in the database,
// either a generation job that exhausted its retries or a Pub/Sub dead letter.
type DeadLetterMessage struct {
	ID         string    `db:"id"`
	SourceName string    `db:"source_name"` // queue or subscription name
	MessageID  string    `db:"message_id"`
	Payload    string    `db:"payload"`    // Should be a JSON string
	Attributes *string   `db:"attributes"` // Can be null, should be a JSON string
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}
