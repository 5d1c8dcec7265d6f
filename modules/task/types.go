package task

import (
	"time"

	domain "github.com/example/taskboard/domain/task"
)

// TaskPayload is the replaceable state of a task on the wire.
type TaskPayload struct {
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	DueDate        time.Time        `json:"dueDate"`
	Priority       string           `json:"priority,omitempty"`
	Status         string           `json:"status,omitempty"`
	CompletionDate *time.Time       `json:"completionDate,omitempty"`
	Notes          string           `json:"notes,omitempty"`
	Assignee       string           `json:"assignee,omitempty"`
	Subtasks       []domain.Subtask `json:"subtasks,omitempty"`
	Revision       int64            `json:"revision,omitempty"`
}

// Input converts the payload into service input.
func (p TaskPayload) Input() TaskInput {
	return TaskInput{
		Title:          p.Title,
		Description:    p.Description,
		DueDate:        p.DueDate,
		Priority:       domain.Priority(p.Priority),
		Status:         domain.Status(p.Status),
		CompletionDate: p.CompletionDate,
		Notes:          p.Notes,
		Assignee:       p.Assignee,
		Subtasks:       p.Subtasks,
		Revision:       p.Revision,
	}
}

// CreateTaskRequest represents a create-task request.
type CreateTaskRequest struct {
	Identity Identity    `json:"identity"`
	Task     TaskPayload `json:"task"`
}

// GetTaskRequest represents a get-task request.
type GetTaskRequest struct {
	Identity Identity `json:"identity"`
	TaskID   string   `json:"task_id"`
}

// UpdateTaskRequest represents an update-task request.
type UpdateTaskRequest struct {
	Identity Identity    `json:"identity"`
	TaskID   string      `json:"task_id"`
	Task     TaskPayload `json:"task"`
}

// ReassignTaskRequest represents a reassign-task request.
type ReassignTaskRequest struct {
	Identity Identity `json:"identity"`
	TaskID   string   `json:"task_id"`
	Assignee string   `json:"assignee"`
	Revision int64    `json:"revision,omitempty"`
}

// DeleteTaskRequest represents a delete-task request.
type DeleteTaskRequest struct {
	Identity Identity `json:"identity"`
	TaskID   string   `json:"task_id"`
}

// ListTasksRequest represents a list-tasks request. Status is optional.
type ListTasksRequest struct {
	Identity Identity `json:"identity"`
	Status   string   `json:"status,omitempty"`
}

// ToggleSubtaskRequest represents a toggle-subtask request.
type ToggleSubtaskRequest struct {
	Identity Identity `json:"identity"`
	TaskID   string   `json:"task_id"`
	Index    int      `json:"index"`
	Revision int64    `json:"revision,omitempty"`
}

// TaskResponse wraps a single task.
type TaskResponse struct {
	Task domain.Task `json:"task"`
}

// ListTasksResponse represents a list-tasks response.
type ListTasksResponse struct {
	Tasks []domain.Task `json:"tasks"`
	Total int           `json:"total"`
}

// DeleteTaskResponse represents a delete-task response.
type DeleteTaskResponse struct {
	Deleted bool `json:"deleted"`
}
