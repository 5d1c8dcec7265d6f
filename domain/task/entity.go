package task

import (
	"strings"
	"time"
)

// Status represents the workflow column of a task.
type Status string

const (
	StatusNotStarted Status = "Not Started"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Statuses lists the board columns in display order.
var Statuses = []Status{StatusNotStarted, StatusInProgress, StatusCompleted}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Slug returns the URL form of s, e.g. "in-progress".
func (s Status) Slug() string {
	return strings.ReplaceAll(strings.ToLower(string(s)), " ", "-")
}

// ParseStatus accepts either the display form ("Not Started") or the
// slug form ("not-started"), case-insensitively.
func ParseStatus(raw string) (Status, bool) {
	norm := strings.ToLower(strings.TrimSpace(raw))
	norm = strings.NewReplacer("-", " ", "_", " ").Replace(norm)
	for _, s := range Statuses {
		if strings.ToLower(string(s)) == norm {
			return s, true
		}
	}
	return "", false
}

// Priority ranks a task.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Subtask is one checklist entry of a task.
type Subtask struct {
	Text string `bson:"text" json:"text"`
	Done bool   `bson:"done" json:"done"`
}

// Task is a unit of work owned by its creator and optionally assigned
// to another user. Assignee holds a user id.
type Task struct {
	ID             string     `gorm:"primaryKey;type:text" bson:"_id" json:"id"`
	Title          string     `gorm:"not null;type:text" bson:"title" json:"title"`
	Description    string     `gorm:"not null;type:text" bson:"description" json:"description"`
	DueDate        time.Time  `gorm:"not null" bson:"due_date" json:"dueDate"`
	Priority       Priority   `gorm:"not null;type:text" bson:"priority" json:"priority"`
	Status         Status     `gorm:"not null;index;type:text" bson:"status" json:"status"`
	CompletionDate *time.Time `bson:"completion_date,omitempty" json:"completionDate,omitempty"`
	Notes          string     `gorm:"type:text" bson:"notes" json:"notes"`
	Assignee       string     `gorm:"index;type:text" bson:"assignee" json:"assignee"`
	CreatorID      string     `gorm:"not null;index;type:text" bson:"creator_id" json:"userId"`
	Subtasks       []Subtask  `gorm:"serializer:json;type:text" bson:"subtasks" json:"subtasks"`
	Revision       int64      `gorm:"not null;default:1" bson:"revision" json:"revision"`
	CreatedAt      time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `bson:"updated_at" json:"updatedAt"`
}

// TableName returns the table name for the Task entity.
func (Task) TableName() string {
	return "tasks"
}

// ApplyCompletion keeps CompletionDate consistent with Status: a completed
// task without a date gets now, any other status clears it.
func (t *Task) ApplyCompletion(now time.Time) {
	if t.Status != StatusCompleted {
		t.CompletionDate = nil
		return
	}
	if t.CompletionDate == nil || t.CompletionDate.IsZero() {
		done := now
		t.CompletionDate = &done
	}
}

// Involves reports whether userID is the creator or the assignee.
func (t *Task) Involves(userID string) bool {
	if userID == "" {
		return false
	}
	return t.CreatorID == userID || t.Assignee == userID
}
