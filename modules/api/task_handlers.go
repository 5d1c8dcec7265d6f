package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	domain "github.com/example/taskboard/domain/task"
	"github.com/example/taskboard/modules/task"
	"github.com/gofiber/fiber/v2"
)

// dateLayouts are the accepted date formats, most specific first.
var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

// identity converts the gate's claims into a task identity.
func identity(c *fiber.Ctx) (task.Identity, bool) {
	cl, ok := claims(c)
	if !ok {
		return task.Identity{}, false
	}
	return task.Identity{UserID: cl.UserID, Username: cl.Username}, true
}

// toPayload validates the shape of a task body. Semantic checks happen in
// the task module.
func (b TaskBody) toPayload() (task.TaskPayload, error) {
	p := task.TaskPayload{
		Title:       b.Title,
		Description: b.Description,
		Priority:    b.Priority,
		Status:      b.Status,
		Notes:       b.Notes,
		Assignee:    b.Assignee,
		Subtasks:    b.Subtasks,
		Revision:    b.Revision,
	}

	if b.DueDate != "" {
		due, err := parseDate(b.DueDate)
		if err != nil {
			return p, fmt.Errorf("dueDate: %w", err)
		}
		p.DueDate = due
	}
	if b.CompletionDate != "" {
		done, err := parseDate(b.CompletionDate)
		if err != nil {
			return p, fmt.Errorf("completionDate: %w", err)
		}
		p.CompletionDate = &done
	}
	if b.Status != "" {
		if status, ok := domain.ParseStatus(b.Status); ok {
			p.Status = string(status)
		}
	}
	return p, nil
}

func taskList(resp *task.ListTasksResponse) []domain.Task {
	if resp == nil || resp.Tasks == nil {
		return []domain.Task{}
	}
	return resp.Tasks
}

// ListTasks returns every task the caller created or is assigned.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	id, ok := identity(c)
	if !ok {
		return unauthenticated(c)
	}

	resp, err := h.tasks.List(c.UserContext(), task.ListTasksRequest{Identity: id})
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(taskList(resp))
}

// ListTasksByStatus narrows ListTasks to one status. The path segment may
// be the display form or the slug.
func (h *Handlers) ListTasksByStatus(c *fiber.Ctx) error {
	id, ok := identity(c)
	if !ok {
		return unauthenticated(c)
	}

	raw, err := url.PathUnescape(c.Params("status"))
	if err != nil {
		return badRequest(c, "Invalid status")
	}
	status, ok := domain.ParseStatus(raw)
	if !ok {
		return badRequest(c, fmt.Sprintf("Unknown status %q", raw))
	}

	resp, err := h.tasks.List(c.UserContext(), task.ListTasksRequest{Identity: id, Status: string(status)})
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(taskList(resp))
}

// CreateTask stores a new task owned by the caller.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	id, ok := identity(c)
	if !ok {
		return unauthenticated(c)
	}

	var body TaskBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}
	payload, err := body.toPayload()
	if err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.tasks.Create(c.UserContext(), task.CreateTaskRequest{Identity: id, Task: payload})
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// GetTask returns one task by path id or, for the legacy route, ?id=.
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	id, ok := identity(c)
	if !ok {
		return unauthenticated(c)
	}

	taskID := c.Params("id")
	if taskID == "" {
		taskID = c.Query("id")
	}
	if taskID == "" {
		return badRequest(c, "Task id is required")
	}

	found, err := h.tasks.Get(c.UserContext(), task.GetTaskRequest{Identity: id, TaskID: taskID})
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(found)
}

// UpdateTask replaces the mutable fields of a task.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	id, ok := identity(c)
	if !ok {
		return unauthenticated(c)
	}

	var body TaskBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}
	payload, err := body.toPayload()
	if err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.tasks.Update(c.UserContext(), task.UpdateTaskRequest{
		Identity: id,
		TaskID:   c.Params("id"),
		Task:     payload,
	})
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(updated)
}

// ReassignTask changes only the assignee of a task.
func (h *Handlers) ReassignTask(c *fiber.Ctx) error {
	id, ok := identity(c)
	if !ok {
		return unauthenticated(c)
	}

	var req AssigneeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	updated, err := h.tasks.Reassign(c.UserContext(), task.ReassignTaskRequest{
		Identity: id,
		TaskID:   c.Params("id"),
		Assignee: req.Assignee,
		Revision: req.Revision,
	})
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(updated)
}

// DeleteTask removes a task. Only its creator may do so.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	id, ok := identity(c)
	if !ok {
		return unauthenticated(c)
	}

	if err := h.tasks.Delete(c.UserContext(), task.DeleteTaskRequest{Identity: id, TaskID: c.Params("id")}); err != nil {
		return handleError(c, err)
	}
	return c.JSON(MessageResponse{Message: "Task deleted"})
}

// ToggleSubtask flips one subtask. An optional ?revision= makes the write
// conditional.
func (h *Handlers) ToggleSubtask(c *fiber.Ctx) error {
	id, ok := identity(c)
	if !ok {
		return unauthenticated(c)
	}

	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return badRequest(c, "Subtask index must be an integer")
	}
	var revision int64
	if raw := c.Query("revision"); raw != "" {
		revision, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return badRequest(c, "revision must be an integer")
		}
	}

	updated, err := h.tasks.ToggleSubtask(c.UserContext(), task.ToggleSubtaskRequest{
		Identity: id,
		TaskID:   c.Params("taskId"),
		Index:    index,
		Revision: revision,
	})
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(TaskMessageResponse{Message: "Subtask updated", Task: *updated})
}
