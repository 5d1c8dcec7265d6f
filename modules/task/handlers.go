package task

import (
	"context"
	"log"
	"time"

	domain "github.com/example/taskboard/domain/task"
	"github.com/example/taskboard/events"
	"github.com/go-monolith/mono"
)

// createTask handles the create-task service request.
func (m *TaskModule) createTask(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	task, err := m.service.Create(ctx, req.Identity, req.Task.Input())
	if err != nil {
		return TaskResponse{}, err
	}

	if m.eventBus != nil {
		event := events.TaskCreatedEvent{
			TaskID:    task.ID,
			Title:     task.Title,
			Status:    string(task.Status),
			CreatorID: task.CreatorID,
			Assignee:  task.Assignee,
			CreatedAt: task.CreatedAt,
		}
		if err := events.TaskCreatedV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[task] Warning: failed to publish TaskCreated event for task %s: %v", task.ID, err)
		}
	}

	return TaskResponse{Task: *task}, nil
}

// getTask handles the get-task service request.
func (m *TaskModule) getTask(ctx context.Context, req GetTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	task, err := m.service.Get(ctx, req.Identity, req.TaskID)
	if err != nil {
		return TaskResponse{}, err
	}
	return TaskResponse{Task: *task}, nil
}

// updateTask handles the update-task service request.
func (m *TaskModule) updateTask(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	task, change, err := m.service.Update(ctx, req.Identity, req.TaskID, req.Task.Input())
	if err != nil {
		return TaskResponse{}, err
	}
	m.publishWrite(req.Identity, task, change)
	return TaskResponse{Task: *task}, nil
}

// reassignTask handles the reassign-task service request.
func (m *TaskModule) reassignTask(ctx context.Context, req ReassignTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	task, change, err := m.service.Reassign(ctx, req.Identity, req.TaskID, req.Assignee, req.Revision)
	if err != nil {
		return TaskResponse{}, err
	}
	m.publishWrite(req.Identity, task, change)
	return TaskResponse{Task: *task}, nil
}

// toggleSubtask handles the toggle-subtask service request.
func (m *TaskModule) toggleSubtask(ctx context.Context, req ToggleSubtaskRequest, _ *mono.Msg) (TaskResponse, error) {
	task, change, err := m.service.ToggleSubtask(ctx, req.Identity, req.TaskID, req.Index, req.Revision)
	if err != nil {
		return TaskResponse{}, err
	}
	m.publishWrite(req.Identity, task, change)
	return TaskResponse{Task: *task}, nil
}

// deleteTask handles the delete-task service request.
func (m *TaskModule) deleteTask(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	task, err := m.service.Delete(ctx, req.Identity, req.TaskID)
	if err != nil {
		return DeleteTaskResponse{Deleted: false}, err
	}

	if m.eventBus != nil {
		event := events.TaskDeletedEvent{
			TaskID:    task.ID,
			Title:     task.Title,
			CreatorID: task.CreatorID,
			Assignee:  task.Assignee,
			DeletedAt: time.Now(),
		}
		if err := events.TaskDeletedV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[task] Warning: failed to publish TaskDeleted event for task %s: %v", task.ID, err)
		}
	}

	return DeleteTaskResponse{Deleted: true}, nil
}

// listTasks handles the list-tasks service request.
func (m *TaskModule) listTasks(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	var status domain.Status
	if req.Status != "" {
		parsed, ok := domain.ParseStatus(req.Status)
		if !ok {
			// Let the service report the unknown status.
			parsed = domain.Status(req.Status)
		}
		status = parsed
	}

	tasks, err := m.service.List(ctx, req.Identity, status)
	if err != nil {
		return ListTasksResponse{}, err
	}

	response := ListTasksResponse{
		Tasks: make([]domain.Task, 0, len(tasks)),
		Total: len(tasks),
	}
	for _, task := range tasks {
		response.Tasks = append(response.Tasks, *task)
	}
	return response, nil
}

// publishWrite emits TaskUpdated and, when they apply, TaskAssigned and
// TaskCompleted. Publishing is best effort.
func (m *TaskModule) publishWrite(id Identity, task *domain.Task, change Change) {
	if m.eventBus == nil {
		return
	}

	updated := events.TaskUpdatedEvent{
		TaskID:    task.ID,
		Title:     task.Title,
		Status:    string(task.Status),
		CreatorID: task.CreatorID,
		Assignee:  task.Assignee,
		UpdatedBy: id.UserID,
		Revision:  task.Revision,
		UpdatedAt: task.UpdatedAt,
	}
	if err := events.TaskUpdatedV1.Publish(m.eventBus, updated, nil); err != nil {
		log.Printf("[task] Warning: failed to publish TaskUpdated event for task %s: %v", task.ID, err)
	}

	if change.AssigneeChanged(task) {
		assigned := events.TaskAssignedEvent{
			TaskID:           task.ID,
			Title:            task.Title,
			CreatorID:        task.CreatorID,
			PreviousAssignee: change.PreviousAssignee,
			Assignee:         task.Assignee,
			AssignedBy:       id.UserID,
			AssignedAt:       task.UpdatedAt,
		}
		if err := events.TaskAssignedV1.Publish(m.eventBus, assigned, nil); err != nil {
			log.Printf("[task] Warning: failed to publish TaskAssigned event for task %s: %v", task.ID, err)
		}
	}

	if change.Completed(task) {
		completed := events.TaskCompletedEvent{
			TaskID:      task.ID,
			Title:       task.Title,
			CreatorID:   task.CreatorID,
			Assignee:    task.Assignee,
			CompletedBy: id.UserID,
			CompletedAt: *task.CompletionDate,
		}
		if err := events.TaskCompletedV1.Publish(m.eventBus, completed, nil); err != nil {
			log.Printf("[task] Warning: failed to publish TaskCompleted event for task %s: %v", task.ID, err)
		}
	}
}
