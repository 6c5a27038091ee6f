package models

import "time"

// Status is the lifecycle state of a task. Any status may move to any other.
type Status string

// Task status constants
const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Task is the wire representation of a user-owned to-do item.
type Task struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"userId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	CreationDate time.Time `json:"creationDate"`
	DueDate      Date      `json:"dueDate"`
	Status       Status    `json:"status"`
}

// User is the minimal identity returned by authentication.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Valid reports whether u carries a usable identity.
func (u *User) Valid() bool {
	return u != nil && u.ID > 0 && u.Username != ""
}
