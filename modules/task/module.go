package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/example/taskboard/config"
	"github.com/example/taskboard/database"
	domain "github.com/example/taskboard/domain/task"
	"github.com/example/taskboard/events"
	"github.com/example/taskboard/modules/auth"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// TaskModule provides the task store and access policy.
type TaskModule struct {
	cfg      config.Config
	repo     TaskRepository
	service  *TaskService
	users    UserDirectory
	eventBus mono.EventBus
}

var _ mono.Module = (*TaskModule)(nil)
var _ mono.ServiceProviderModule = (*TaskModule)(nil)
var _ mono.DependentModule = (*TaskModule)(nil)
var _ mono.EventEmitterModule = (*TaskModule)(nil)
var _ mono.HealthCheckableModule = (*TaskModule)(nil)

// NewModule creates a new TaskModule. The store is opened in Start.
func NewModule(cfg config.Config) *TaskModule {
	return &TaskModule{cfg: cfg}
}

// newModuleWithRepository creates a TaskModule over an existing store.
func newModuleWithRepository(cfg config.Config, repo TaskRepository, users UserDirectory) *TaskModule {
	return &TaskModule{cfg: cfg, repo: repo, users: users}
}

func (m *TaskModule) Name() string {
	return "task"
}

func (m *TaskModule) Dependencies() []string {
	return []string{"auth"}
}

func (m *TaskModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "auth" {
		m.users = NewAuthUserDirectory(auth.NewAuthAdapter(container))
	}
}

func (m *TaskModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

func (m *TaskModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskUpdatedV1.ToBase(),
		events.TaskAssignedV1.ToBase(),
		events.TaskCompletedV1.ToBase(),
		events.TaskDeletedV1.ToBase(),
	}
}

func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "create-task", json.Unmarshal, json.Marshal, m.createTask,
	); err != nil {
		return fmt.Errorf("failed to register create-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-task", json.Unmarshal, json.Marshal, m.getTask,
	); err != nil {
		return fmt.Errorf("failed to register get-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-task", json.Unmarshal, json.Marshal, m.updateTask,
	); err != nil {
		return fmt.Errorf("failed to register update-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "reassign-task", json.Unmarshal, json.Marshal, m.reassignTask,
	); err != nil {
		return fmt.Errorf("failed to register reassign-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-task", json.Unmarshal, json.Marshal, m.deleteTask,
	); err != nil {
		return fmt.Errorf("failed to register delete-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-tasks", json.Unmarshal, json.Marshal, m.listTasks,
	); err != nil {
		return fmt.Errorf("failed to register list-tasks service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "toggle-subtask", json.Unmarshal, json.Marshal, m.toggleSubtask,
	); err != nil {
		return fmt.Errorf("failed to register toggle-subtask service: %w", err)
	}

	log.Printf("[task] Registered services: create-task, get-task, update-task, reassign-task, delete-task, list-tasks, toggle-subtask")
	return nil
}

func (m *TaskModule) Start(ctx context.Context) error {
	if m.users == nil {
		return fmt.Errorf("auth dependency not set")
	}
	if m.repo == nil {
		repo, err := openTaskRepository(ctx, m.cfg)
		if err != nil {
			return err
		}
		m.repo = repo
	}

	service, err := NewTaskService(m.repo, m.users)
	if err != nil {
		return err
	}
	m.service = service

	if m.eventBus == nil {
		log.Println("[task] Warning: eventBus not set, events will not be published")
	}
	log.Printf("[task] Module started (store: %s, depends on: auth)", m.cfg.StoreDriver)
	return nil
}

func openTaskRepository(ctx context.Context, cfg config.Config) (TaskRepository, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, db, err := database.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return NewMongoTaskRepository(ctx, client, db)
	default:
		db, err := database.OpenSQLite(cfg.SQLitePath, &domain.Task{})
		if err != nil {
			return nil, err
		}
		return NewGormTaskRepository(db), nil
	}
}

func (m *TaskModule) Stop(ctx context.Context) error {
	if m.repo != nil {
		if err := m.repo.Close(ctx); err != nil {
			log.Printf("[task] Error closing store: %v", err)
		}
	}
	log.Println("[task] Module stopped")
	return nil
}

func (m *TaskModule) Health(ctx context.Context) mono.HealthStatus {
	if m.repo == nil {
		return mono.HealthStatus{Healthy: false, Message: "database not initialized"}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := m.repo.Ping(pingCtx); err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("database ping failed: %v", err)}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{"store": m.cfg.StoreDriver},
	}
}

// AuthUserDirectory resolves assignees through the auth module.
type AuthUserDirectory struct {
	port auth.AuthPort
}

// NewAuthUserDirectory wraps an auth port.
func NewAuthUserDirectory(port auth.AuthPort) *AuthUserDirectory {
	return &AuthUserDirectory{port: port}
}

// UserExists reports whether userID names an account.
func (d *AuthUserDirectory) UserExists(ctx context.Context, userID string) (bool, error) {
	if _, err := d.port.GetUser(ctx, userID); err != nil {
		// Errors cross the service boundary as text.
		if strings.Contains(err.Error(), auth.ErrUserNotFound.Error()) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
