package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/taskboard/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// maxLimit caps a single list-activity response.
const maxLimit = 200

// ActivityModule records task and account events as a driven adapter.
type ActivityModule struct {
	log *Log
}

var _ mono.Module = (*ActivityModule)(nil)
var _ mono.EventConsumerModule = (*ActivityModule)(nil)
var _ mono.ServiceProviderModule = (*ActivityModule)(nil)
var _ mono.HealthCheckableModule = (*ActivityModule)(nil)

func NewModule(capacity int) *ActivityModule {
	return &ActivityModule{log: NewLog(capacity)}
}

func (m *ActivityModule) Name() string {
	return "activity"
}

func (m *ActivityModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskUpdatedV1, m.handleTaskUpdated, m); err != nil {
		return fmt.Errorf("failed to register TaskUpdated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskAssignedV1, m.handleTaskAssigned, m); err != nil {
		return fmt.Errorf("failed to register TaskAssigned consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCompletedV1, m.handleTaskCompleted, m); err != nil {
		return fmt.Errorf("failed to register TaskCompleted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.handleTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.UserRegisteredV1, m.handleUserRegistered, m); err != nil {
		return fmt.Errorf("failed to register UserRegistered consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.UserApprovedV1, m.handleUserApproved, m); err != nil {
		return fmt.Errorf("failed to register UserApproved consumer: %w", err)
	}

	log.Printf("[activity] Registered event consumers: TaskCreated, TaskUpdated, TaskAssigned, TaskCompleted, TaskDeleted, UserRegistered, UserApproved")
	return nil
}

func (m *ActivityModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "list-activity", json.Unmarshal, json.Marshal, m.listActivity,
	); err != nil {
		return fmt.Errorf("failed to register list-activity service: %w", err)
	}
	log.Printf("[activity] Registered services: list-activity")
	return nil
}

func (m *ActivityModule) handleTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	m.log.Append(Entry{
		Type:      "task_created",
		TaskID:    event.TaskID,
		Actor:     event.CreatorID,
		Message:   fmt.Sprintf("Task '%s' created", event.Title),
		Timestamp: event.CreatedAt,
		Audience:  audience(event.CreatorID, event.Assignee),
	})
	return nil
}

func (m *ActivityModule) handleTaskUpdated(_ context.Context, event events.TaskUpdatedEvent, _ *mono.Msg) error {
	m.log.Append(Entry{
		Type:      "task_updated",
		TaskID:    event.TaskID,
		Actor:     event.UpdatedBy,
		Message:   fmt.Sprintf("Task '%s' updated (%s)", event.Title, event.Status),
		Timestamp: event.UpdatedAt,
		Audience:  audience(event.CreatorID, event.Assignee),
	})
	return nil
}

func (m *ActivityModule) handleTaskAssigned(_ context.Context, event events.TaskAssignedEvent, _ *mono.Msg) error {
	msg := fmt.Sprintf("Task '%s' assigned", event.Title)
	if event.Assignee == "" {
		msg = fmt.Sprintf("Task '%s' unassigned", event.Title)
	}
	// The previous assignee learns the task left them.
	m.log.Append(Entry{
		Type:      "task_assigned",
		TaskID:    event.TaskID,
		Actor:     event.AssignedBy,
		Message:   msg,
		Timestamp: event.AssignedAt,
		Audience:  audience(event.CreatorID, event.Assignee, event.PreviousAssignee),
	})
	return nil
}

func (m *ActivityModule) handleTaskCompleted(_ context.Context, event events.TaskCompletedEvent, _ *mono.Msg) error {
	m.log.Append(Entry{
		Type:      "task_completed",
		TaskID:    event.TaskID,
		Actor:     event.CompletedBy,
		Message:   fmt.Sprintf("Task '%s' completed", event.Title),
		Timestamp: event.CompletedAt,
		Audience:  audience(event.CreatorID, event.Assignee),
	})
	return nil
}

func (m *ActivityModule) handleTaskDeleted(_ context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	m.log.Append(Entry{
		Type:      "task_deleted",
		TaskID:    event.TaskID,
		Actor:     event.CreatorID,
		Message:   fmt.Sprintf("Task '%s' deleted", event.Title),
		Timestamp: event.DeletedAt,
		Audience:  audience(event.CreatorID, event.Assignee),
	})
	return nil
}

func (m *ActivityModule) handleUserRegistered(_ context.Context, event events.UserRegisteredEvent, _ *mono.Msg) error {
	m.log.Append(Entry{
		Type:      "user_registered",
		Actor:     event.UserID,
		Message:   fmt.Sprintf("Account '%s' registered, awaiting approval", event.Username),
		Timestamp: event.RegisteredAt,
		Audience:  audience(event.UserID),
	})
	return nil
}

func (m *ActivityModule) handleUserApproved(_ context.Context, event events.UserApprovedEvent, _ *mono.Msg) error {
	m.log.Append(Entry{
		Type:      "user_approved",
		Actor:     event.ApprovedBy,
		Message:   fmt.Sprintf("Account '%s' approved", event.Username),
		Timestamp: event.ApprovedAt,
		Audience:  audience(event.UserID, event.ApprovedBy),
	})
	return nil
}

func (m *ActivityModule) listActivity(_ context.Context, req ListActivityRequest, _ *mono.Msg) (ListActivityResponse, error) {
	limit := req.Limit
	if limit <= 0 || limit > maxLimit {
		limit = maxLimit
	}
	return ListActivityResponse{Entries: m.log.For(req.UserID, limit)}, nil
}

func (m *ActivityModule) Start(_ context.Context) error {
	log.Println("[activity] Module started - listening for task and account events")
	return nil
}

func (m *ActivityModule) Stop(_ context.Context) error {
	log.Printf("[activity] Module stopped (%d entries recorded)", m.log.Len())
	return nil
}

// Health reports how full the log is. The log is in memory, so it is
// always healthy.
func (m *ActivityModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"entries":  m.log.Len(),
			"capacity": m.log.capacity,
		},
	}
}
