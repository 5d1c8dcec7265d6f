package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/example/taskboard/database"
	taskdomain "github.com/example/taskboard/domain/task"
	domain "github.com/example/taskboard/domain/user"
	"github.com/example/taskboard/modules/auth"
	"github.com/example/taskboard/modules/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// localAuth serves AuthPort from an in-process AuthService.
type localAuth struct {
	svc *auth.AuthService
}

func (l *localAuth) Register(ctx context.Context, req auth.RegisterRequest) (*auth.RegisterResponse, error) {
	user, err := l.svc.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return &auth.RegisterResponse{ID: user.ID, Username: user.Username, CreatedAt: user.CreatedAt}, nil
}

func (l *localAuth) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	token, err := l.svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	return &auth.LoginResponse{
		AccessToken: token.AccessToken,
		ExpiresIn:   token.ExpiresIn,
		ExpiresAt:   token.ExpiresAt,
		TokenType:   "Bearer",
		User:        *token.User,
	}, nil
}

func (l *localAuth) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	claims, err := l.svc.ValidateToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	}
	return claims, nil
}

func (l *localAuth) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return l.svc.GetUser(ctx, userID)
}

func (l *localAuth) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return l.svc.GetUserByUsername(ctx, username)
}

func (l *localAuth) ListUsers(ctx context.Context) ([]domain.User, error) {
	return l.svc.ListUsers(ctx)
}

func (l *localAuth) ApproveUser(ctx context.Context, requesterID, username string) (*domain.User, error) {
	return l.svc.Approve(ctx, requesterID, username)
}

func (l *localAuth) UpdateAvatar(ctx context.Context, userID, avatar string) (*domain.User, error) {
	return l.svc.UpdateAvatar(ctx, userID, domain.Avatar(avatar))
}

// localTasks serves TaskPort from an in-process TaskService.
type localTasks struct {
	svc *task.TaskService
}

func (l *localTasks) Create(ctx context.Context, req task.CreateTaskRequest) (*taskdomain.Task, error) {
	return l.svc.Create(ctx, req.Identity, req.Task.Input())
}

func (l *localTasks) Get(ctx context.Context, req task.GetTaskRequest) (*taskdomain.Task, error) {
	return l.svc.Get(ctx, req.Identity, req.TaskID)
}

func (l *localTasks) Update(ctx context.Context, req task.UpdateTaskRequest) (*taskdomain.Task, error) {
	updated, _, err := l.svc.Update(ctx, req.Identity, req.TaskID, req.Task.Input())
	return updated, err
}

func (l *localTasks) Reassign(ctx context.Context, req task.ReassignTaskRequest) (*taskdomain.Task, error) {
	updated, _, err := l.svc.Reassign(ctx, req.Identity, req.TaskID, req.Assignee, req.Revision)
	return updated, err
}

func (l *localTasks) ToggleSubtask(ctx context.Context, req task.ToggleSubtaskRequest) (*taskdomain.Task, error) {
	updated, _, err := l.svc.ToggleSubtask(ctx, req.Identity, req.TaskID, req.Index, req.Revision)
	return updated, err
}

func (l *localTasks) Delete(ctx context.Context, req task.DeleteTaskRequest) error {
	_, err := l.svc.Delete(ctx, req.Identity, req.TaskID)
	return err
}

func (l *localTasks) List(ctx context.Context, req task.ListTasksRequest) (*task.ListTasksResponse, error) {
	found, err := l.svc.List(ctx, req.Identity, taskdomain.Status(req.Status))
	if err != nil {
		return nil, err
	}
	resp := &task.ListTasksResponse{Tasks: make([]taskdomain.Task, 0, len(found)), Total: len(found)}
	for _, t := range found {
		resp.Tasks = append(resp.Tasks, *t)
	}
	return resp, nil
}

func setupLocalPorts(t *testing.T) (*localAuth, *localTasks) {
	t.Helper()

	userDB, err := database.OpenSQLite(":memory:", &domain.User{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseSQLite(userDB) })

	taskDB, err := database.OpenSQLite(":memory:", &taskdomain.Task{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseSQLite(taskDB) })

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		SecretKey:     "e2e-secret",
		TokenDuration: time.Hour,
		Issuer:        "taskboard-test",
	})
	authSvc := auth.NewAuthService(
		auth.NewGormUserRepository(userDB),
		auth.NewPasswordHasher(bcrypt.MinCost),
		jwtManager,
		nil,
	)
	_, err = authSvc.ProvisionAdmin(context.Background(), "admin", "admin@example.com", "admin-password")
	require.NoError(t, err)

	authPort := &localAuth{svc: authSvc}
	taskSvc, err := task.NewTaskService(task.NewGormTaskRepository(taskDB), task.NewAuthUserDirectory(authPort))
	require.NoError(t, err)

	return authPort, &localTasks{svc: taskSvc}
}

func login(t *testing.T, do func(method, path, token, body string) (int, string), username, password string) (string, string) {
	t.Helper()

	status, body := do("POST", "/api/auth/login", "", fmt.Sprintf(`{"username":%q,"password":%q}`, username, password))
	require.Equal(t, http.StatusOK, status, body)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	return resp.Token, resp.UserID
}

func TestEndToEndTaskFlow(t *testing.T) {
	authPort, taskPort := setupLocalPorts(t)
	_, app := newTestApp(authPort, taskPort, &mockActivityPort{})
	do := func(method, path, token, body string) (int, string) {
		return doRequest(t, app, method, path, token, body)
	}

	for _, name := range []string{"alice", "bob", "carol"} {
		status, body := do("POST", "/api/auth/register", "",
			fmt.Sprintf(`{"username":%q,"email":"%s@example.com","password":"password-%s"}`, name, name, name))
		require.Equal(t, http.StatusCreated, status, body)
	}

	// Unapproved accounts cannot log in.
	status, body := do("POST", "/api/auth/login", "", `{"username":"alice","password":"password-alice"}`)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Contains(t, body, `"not_approved"`)

	adminToken, _ := login(t, do, "admin", "admin-password")
	for _, name := range []string{"alice", "bob"} {
		status, body = do("POST", "/api/auth/approveUser/"+name, adminToken, "")
		require.Equal(t, http.StatusOK, status, body)
	}

	status, _ = do("POST", "/api/auth/approveUser/alice", adminToken, "")
	assert.Equal(t, http.StatusBadRequest, status)

	aliceToken, _ := login(t, do, "alice", "password-alice")
	bobToken, bobID := login(t, do, "bob", "password-bob")

	// Only admins approve.
	status, _ = do("POST", "/api/auth/approveUser/carol", aliceToken, "")
	assert.Equal(t, http.StatusForbidden, status)

	due := time.Now().Add(72 * time.Hour).Format("2006-01-02")
	status, body = do("POST", "/api/tasks", aliceToken, fmt.Sprintf(
		`{"title":"Write report","description":"Quarterly numbers","dueDate":%q,"priority":"High","assignee":%q,"subtasks":[{"text":"Collect data","done":false}]}`,
		due, bobID))
	require.Equal(t, http.StatusCreated, status, body)

	var created taskdomain.Task
	require.NoError(t, json.Unmarshal([]byte(body), &created))
	assert.Equal(t, taskdomain.StatusNotStarted, created.Status)
	assert.Equal(t, bobID, created.Assignee)
	assert.Equal(t, int64(1), created.Revision)

	// The assignee sees the task.
	status, body = do("GET", "/api/tasks", bobToken, "")
	require.Equal(t, http.StatusOK, status)
	var bobTasks []taskdomain.Task
	require.NoError(t, json.Unmarshal([]byte(body), &bobTasks))
	require.Len(t, bobTasks, 1)
	assert.Equal(t, created.ID, bobTasks[0].ID)

	// Outsiders do not.
	status, body = do("GET", "/api/tasks", adminToken, "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, body)

	status, _ = do("GET", "/api/tasks/"+created.ID, adminToken, "")
	assert.Equal(t, http.StatusNotFound, status)

	// The assignee may edit but not delete.
	status, _ = do("DELETE", "/api/tasks/"+created.ID, bobToken, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, body = do("PATCH", fmt.Sprintf("/api/tasks/%s/subtasks/0?revision=1", created.ID), bobToken, "")
	require.Equal(t, http.StatusOK, status, body)
	var toggled TaskMessageResponse
	require.NoError(t, json.Unmarshal([]byte(body), &toggled))
	assert.True(t, toggled.Task.Subtasks[0].Done)
	assert.Equal(t, int64(2), toggled.Task.Revision)

	status, _ = do("PATCH", fmt.Sprintf("/api/tasks/%s/subtasks/5", created.ID), bobToken, "")
	assert.Equal(t, http.StatusNotFound, status)

	// A write against the old revision conflicts.
	update := fmt.Sprintf(
		`{"title":"Write report","description":"Quarterly numbers","dueDate":%q,"priority":"High","status":"completed","assignee":%q,"revision":1}`,
		due, bobID)
	status, body = do("PUT", "/api/tasks/"+created.ID, bobToken, update)
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, body, `"stale_revision"`)

	update = fmt.Sprintf(
		`{"title":"Write report","description":"Quarterly numbers","dueDate":%q,"priority":"High","status":"completed","assignee":%q,"revision":2}`,
		due, bobID)
	status, body = do("PUT", "/api/tasks/"+created.ID, bobToken, update)
	require.Equal(t, http.StatusOK, status, body)
	var completed taskdomain.Task
	require.NoError(t, json.Unmarshal([]byte(body), &completed))
	assert.Equal(t, taskdomain.StatusCompleted, completed.Status)
	assert.NotNil(t, completed.CompletionDate)

	status, body = do("GET", "/api/tasks/status/Completed", aliceToken, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, created.ID)

	// Assigning to an unknown user is rejected.
	status, body = do("PATCH", "/api/tasks/"+created.ID+"/assignee", aliceToken, `{"assignee":"nobody"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, task.ErrUnknownAssignee.Error())

	status, body = do("DELETE", "/api/tasks/"+created.ID, aliceToken, "")
	require.Equal(t, http.StatusOK, status, body)
	assert.JSONEq(t, `{"message":"Task deleted"}`, body)

	status, _ = do("GET", "/api/tasks/"+created.ID, bobToken, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestEndToEndUserLookups(t *testing.T) {
	authPort, taskPort := setupLocalPorts(t)
	_, app := newTestApp(authPort, taskPort, &mockActivityPort{})
	do := func(method, path, token, body string) (int, string) {
		return doRequest(t, app, method, path, token, body)
	}

	adminToken, adminID := login(t, do, "admin", "admin-password")

	status, body := do("GET", "/api/user/data", adminToken, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"username":"admin"`)
	assert.NotContains(t, body, "passwordHash")

	status, body = do("GET", "/api/user/getUserId/admin", adminToken, "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, fmt.Sprintf(`{"userId":%q}`, adminID), body)

	status, body = do("GET", "/api/user/getUsername/"+adminID, adminToken, "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"username":"admin"}`, body)

	status, _ = do("GET", "/api/user/getUserId/ghost", adminToken, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, body = do("POST", "/api/user/update-avatar", adminToken, `{"avatar":"no-such-avatar.png"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, `"validation_error"`)

	status, _ = do("GET", "/api/tasks", "not-a-jwt", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestEndToEndClientTextCannotPickErrorKind(t *testing.T) {
	authPort, taskPort := setupLocalPorts(t)
	_, app := newTestApp(authPort, taskPort, &mockActivityPort{})
	do := func(method, path, token, body string) (int, string) {
		return doRequest(t, app, method, path, token, body)
	}

	adminToken, _ := login(t, do, "admin", "admin-password")
	due := time.Now().Add(24 * time.Hour).Format("2006-01-02")

	for _, priority := range []string{
		auth.ErrUserNotFound.Error(),
		auth.ErrForbidden.Error(),
		auth.ErrInvalidToken.Error(),
	} {
		t.Run(priority, func(t *testing.T) {
			status, body := do("POST", "/api/tasks", adminToken, fmt.Sprintf(
				`{"title":"Report","description":"Numbers","dueDate":%q,"priority":%q}`, due, priority))
			assert.Equal(t, http.StatusBadRequest, status, body)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal([]byte(body), &resp))
			assert.Equal(t, "validation_error", resp.Error)
		})
	}
}
