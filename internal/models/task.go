package models

import "time"

// Task is a unit of work owned by a user.
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"` // null when not provided
	IsCompleted bool      `json:"is_completed"`
	UserID      int64     `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}
