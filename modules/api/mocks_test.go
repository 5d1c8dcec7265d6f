package api

import (
	"context"
	"errors"

	taskdomain "github.com/example/taskboard/domain/task"
	domain "github.com/example/taskboard/domain/user"
	"github.com/example/taskboard/modules/activity"
	"github.com/example/taskboard/modules/auth"
	"github.com/example/taskboard/modules/task"
)

var errNotImplemented = errors.New("not implemented")

// mockAuthPort implements auth.AuthPort for testing
type mockAuthPort struct {
	validateTokenFunc func(ctx context.Context, token string) (*domain.Claims, error)
	getUserFunc       func(ctx context.Context, userID string) (*domain.User, error)
	loginFunc         func(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error)
	registerFunc      func(ctx context.Context, req auth.RegisterRequest) (*auth.RegisterResponse, error)
	approveFunc       func(ctx context.Context, requesterID, username string) (*domain.User, error)
}

var _ auth.AuthPort = (*mockAuthPort)(nil)

func (m *mockAuthPort) Register(ctx context.Context, req auth.RegisterRequest) (*auth.RegisterResponse, error) {
	if m.registerFunc != nil {
		return m.registerFunc(ctx, req)
	}
	return nil, errNotImplemented
}

func (m *mockAuthPort) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	if m.loginFunc != nil {
		return m.loginFunc(ctx, req)
	}
	return nil, errNotImplemented
}

func (m *mockAuthPort) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	if m.validateTokenFunc != nil {
		return m.validateTokenFunc(ctx, token)
	}
	return nil, errNotImplemented
}

func (m *mockAuthPort) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if m.getUserFunc != nil {
		return m.getUserFunc(ctx, userID)
	}
	return nil, errNotImplemented
}

func (m *mockAuthPort) GetUserByUsername(context.Context, string) (*domain.User, error) {
	return nil, errNotImplemented
}

func (m *mockAuthPort) ListUsers(context.Context) ([]domain.User, error) {
	return nil, errNotImplemented
}

func (m *mockAuthPort) ApproveUser(ctx context.Context, requesterID, username string) (*domain.User, error) {
	if m.approveFunc != nil {
		return m.approveFunc(ctx, requesterID, username)
	}
	return nil, errNotImplemented
}

func (m *mockAuthPort) UpdateAvatar(context.Context, string, string) (*domain.User, error) {
	return nil, errNotImplemented
}

// mockTaskPort implements task.TaskPort; every call returns err.
type mockTaskPort struct {
	err      error
	lastList task.ListTasksRequest
	lastGet  task.GetTaskRequest
}

var _ task.TaskPort = (*mockTaskPort)(nil)

func (m *mockTaskPort) Create(context.Context, task.CreateTaskRequest) (*taskdomain.Task, error) {
	return nil, m.err
}

func (m *mockTaskPort) Get(_ context.Context, req task.GetTaskRequest) (*taskdomain.Task, error) {
	m.lastGet = req
	if m.err != nil {
		return nil, m.err
	}
	return &taskdomain.Task{ID: req.TaskID}, nil
}

func (m *mockTaskPort) Update(context.Context, task.UpdateTaskRequest) (*taskdomain.Task, error) {
	return nil, m.err
}

func (m *mockTaskPort) Reassign(context.Context, task.ReassignTaskRequest) (*taskdomain.Task, error) {
	return nil, m.err
}

func (m *mockTaskPort) ToggleSubtask(context.Context, task.ToggleSubtaskRequest) (*taskdomain.Task, error) {
	return nil, m.err
}

func (m *mockTaskPort) Delete(context.Context, task.DeleteTaskRequest) error {
	return m.err
}

func (m *mockTaskPort) List(_ context.Context, req task.ListTasksRequest) (*task.ListTasksResponse, error) {
	m.lastList = req
	if m.err != nil {
		return nil, m.err
	}
	return &task.ListTasksResponse{}, nil
}

// mockActivityPort implements activity.ActivityPort.
type mockActivityPort struct {
	entries []activity.Entry
}

func (m *mockActivityPort) List(context.Context, string, int) ([]activity.Entry, error) {
	return m.entries, nil
}
