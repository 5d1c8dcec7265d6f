package api

import (
	"time"

	domain "github.com/example/taskboard/domain/task"
)

// RegisterRequest represents a registration request.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token.
type LoginResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresIn int64     `json:"expiresIn"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// RegisterResponse acknowledges a registration.
type RegisterResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// AvatarRequest represents an avatar update.
type AvatarRequest struct {
	Avatar string `json:"avatar"`
}

// AvatarResponse acknowledges an avatar update.
type AvatarResponse struct {
	Message string `json:"message"`
	Avatar  string `json:"avatar"`
}

// TaskBody is the task document accepted by create and update. Dates may
// be RFC 3339 timestamps or plain YYYY-MM-DD.
type TaskBody struct {
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	DueDate        string           `json:"dueDate"`
	Priority       string           `json:"priority"`
	Status         string           `json:"status"`
	CompletionDate string           `json:"completionDate"`
	Notes          string           `json:"notes"`
	Assignee       string           `json:"assignee"`
	Subtasks       []domain.Subtask `json:"subtasks"`
	Revision       int64            `json:"revision"`
}

// AssigneeRequest represents a reassignment.
type AssigneeRequest struct {
	Assignee string `json:"assignee"`
	Revision int64  `json:"revision"`
}

// TaskMessageResponse wraps a task with an acknowledgement.
type TaskMessageResponse struct {
	Message string      `json:"message"`
	Task    domain.Task `json:"task"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ModuleHealth is one module's entry in the health report.
type ModuleHealth struct {
	Healthy bool           `json:"healthy"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
