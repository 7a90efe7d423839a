package model

import "time"

// MarketplaceCourse is a published projection of a Course. The step tree is
// frozen at publish time so later edits to the source course do not leak.
type MarketplaceCourse struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	OwnerID   string    `db:"owner_id" json:"owner_id"`
	Title     string    `db:"title" json:"title"`
	Topic     string    `db:"topic" json:"topic"`
	Category  string    `db:"category" json:"category"`
	LikeCount int       `db:"like_count" json:"like_count"`
	Steps     []Step    `db:"steps" json:"steps,omitempty"`
	LikedByMe bool      `db:"-" json:"liked_by_me"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Whiteboard is a collaborative board. Board content lives in Liveblocks;
// only ownership and the room handle are stored here.
type Whiteboard struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	RoomID    string    `db:"room_id" json:"room_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
