package task

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/taskboard/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// TaskPort defines the task operations available to other modules.
type TaskPort interface {
	Create(ctx context.Context, req CreateTaskRequest) (*domain.Task, error)
	Get(ctx context.Context, req GetTaskRequest) (*domain.Task, error)
	Update(ctx context.Context, req UpdateTaskRequest) (*domain.Task, error)
	Reassign(ctx context.Context, req ReassignTaskRequest) (*domain.Task, error)
	ToggleSubtask(ctx context.Context, req ToggleSubtaskRequest) (*domain.Task, error)
	Delete(ctx context.Context, req DeleteTaskRequest) error
	List(ctx context.Context, req ListTasksRequest) (*ListTasksResponse, error)
}

// TaskAdapter implements TaskPort using the service container.
type TaskAdapter struct {
	container mono.ServiceContainer
}

var _ TaskPort = (*TaskAdapter)(nil)

// NewTaskAdapter creates a new TaskAdapter.
func NewTaskAdapter(container mono.ServiceContainer) *TaskAdapter {
	return &TaskAdapter{container: container}
}

func (a *TaskAdapter) Create(ctx context.Context, req CreateTaskRequest) (*domain.Task, error) {
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"create-task",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("create-task request failed: %w", err)
	}
	return &resp.Task, nil
}

func (a *TaskAdapter) Get(ctx context.Context, req GetTaskRequest) (*domain.Task, error) {
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"get-task",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("get-task request failed: %w", err)
	}
	return &resp.Task, nil
}

func (a *TaskAdapter) Update(ctx context.Context, req UpdateTaskRequest) (*domain.Task, error) {
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"update-task",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("update-task request failed: %w", err)
	}
	return &resp.Task, nil
}

func (a *TaskAdapter) Reassign(ctx context.Context, req ReassignTaskRequest) (*domain.Task, error) {
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"reassign-task",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("reassign-task request failed: %w", err)
	}
	return &resp.Task, nil
}

func (a *TaskAdapter) ToggleSubtask(ctx context.Context, req ToggleSubtaskRequest) (*domain.Task, error) {
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"toggle-subtask",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("toggle-subtask request failed: %w", err)
	}
	return &resp.Task, nil
}

func (a *TaskAdapter) Delete(ctx context.Context, req DeleteTaskRequest) error {
	var resp DeleteTaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"delete-task",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return fmt.Errorf("delete-task request failed: %w", err)
	}
	if !resp.Deleted {
		return ErrTaskNotFound
	}
	return nil
}

func (a *TaskAdapter) List(ctx context.Context, req ListTasksRequest) (*ListTasksResponse, error) {
	var resp ListTasksResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"list-tasks",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("list-tasks request failed: %w", err)
	}
	return &resp, nil
}
