package board

import (
	"context"
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/example/taskboard/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Update is the message pushed to dashboards.
type Update struct {
	Type      string    `json:"type"`
	TaskID    string    `json:"taskId"`
	Title     string    `json:"title,omitempty"`
	Status    string    `json:"status,omitempty"`
	Assignee  string    `json:"assignee,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	Revision  int64     `json:"revision,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// BoardModule consumes task events and forwards them to the hub.
type BoardModule struct {
	hub       *Hub
	cancelHub context.CancelFunc
}

var _ mono.Module = (*BoardModule)(nil)
var _ mono.EventConsumerModule = (*BoardModule)(nil)
var _ mono.HealthCheckableModule = (*BoardModule)(nil)

func NewModule() *BoardModule {
	return &BoardModule{hub: NewHub()}
}

func (m *BoardModule) Name() string {
	return "board"
}

func (m *BoardModule) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelHub = cancel
	go m.hub.Run(ctx)
	log.Println("[board] Module started - WebSocket hub running")
	return nil
}

func (m *BoardModule) Stop(_ context.Context) error {
	clientCount := m.hub.ClientCount()
	if m.cancelHub != nil {
		m.cancelHub()
		m.hub.Wait()
	}
	log.Printf("[board] Module stopped - %d clients were connected", clientCount)
	return nil
}

func (m *BoardModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

func (m *BoardModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskUpdatedV1, m.handleTaskUpdated, m); err != nil {
		return fmt.Errorf("failed to register TaskUpdated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskAssignedV1, m.handleTaskAssigned, m); err != nil {
		return fmt.Errorf("failed to register TaskAssigned consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.handleTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}

	log.Println("[board] Registered event consumers: TaskCreated, TaskUpdated, TaskAssigned, TaskDeleted")
	return nil
}

func (m *BoardModule) handleTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	m.hub.Send(recipients(event.CreatorID, event.Assignee), Update{
		Type:      "task_created",
		TaskID:    event.TaskID,
		Title:     event.Title,
		Status:    event.Status,
		Assignee:  event.Assignee,
		Actor:     event.CreatorID,
		Revision:  1,
		Timestamp: event.CreatedAt,
	})
	return nil
}

func (m *BoardModule) handleTaskUpdated(_ context.Context, event events.TaskUpdatedEvent, _ *mono.Msg) error {
	m.hub.Send(recipients(event.CreatorID, event.Assignee), Update{
		Type:      "task_updated",
		TaskID:    event.TaskID,
		Title:     event.Title,
		Status:    event.Status,
		Assignee:  event.Assignee,
		Actor:     event.UpdatedBy,
		Revision:  event.Revision,
		Timestamp: event.UpdatedAt,
	})
	return nil
}

// handleTaskAssigned tells the previous assignee to drop the card; the
// current parties already get TaskUpdated.
func (m *BoardModule) handleTaskAssigned(_ context.Context, event events.TaskAssignedEvent, _ *mono.Msg) error {
	if event.PreviousAssignee == "" || event.PreviousAssignee == event.CreatorID {
		return nil
	}
	m.hub.Send([]string{event.PreviousAssignee}, Update{
		Type:      "task_removed",
		TaskID:    event.TaskID,
		Actor:     event.AssignedBy,
		Timestamp: event.AssignedAt,
	})
	return nil
}

func (m *BoardModule) handleTaskDeleted(_ context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	m.hub.Send(recipients(event.CreatorID, event.Assignee), Update{
		Type:      "task_removed",
		TaskID:    event.TaskID,
		Actor:     event.CreatorID,
		Timestamp: event.DeletedAt,
	})
	return nil
}

// Hub returns the hub for the HTTP layer to register connections with.
func (m *BoardModule) Hub() *Hub {
	return m.hub
}

func recipients(ids ...string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
