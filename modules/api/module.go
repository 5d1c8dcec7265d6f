package api

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/example/taskboard/config"
	"github.com/example/taskboard/modules/activity"
	"github.com/example/taskboard/modules/auth"
	"github.com/example/taskboard/modules/board"
	"github.com/example/taskboard/modules/ratelimit"
	"github.com/example/taskboard/modules/task"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// APIModule is the HTTP API module.
type APIModule struct {
	cfg      config.Config
	app      *fiber.App
	auth     auth.AuthPort
	tasks    task.TaskPort
	activity activity.ActivityPort

	limiter *ratelimit.Middleware
	hub     *board.Hub
	checks  map[string]mono.HealthCheckableModule
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule.
func NewModule(cfg config.Config) *APIModule {
	return &APIModule{
		cfg:    cfg,
		checks: make(map[string]mono.HealthCheckableModule),
	}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth", "task", "activity"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.auth = auth.NewAuthAdapter(container)
	case "task":
		m.tasks = task.NewTaskAdapter(container)
	case "activity":
		m.activity = activity.NewActivityAdapter(container)
	}
}

// SetRateLimitModule enables rate limiting of the public auth routes.
func (m *APIModule) SetRateLimitModule(rl *ratelimit.Module) {
	m.limiter = rl.Middleware()
}

// SetBoardModule enables the live board WebSocket endpoint.
func (m *APIModule) SetBoardModule(b *board.BoardModule) {
	m.hub = b.Hub()
	m.AddHealthCheck(b.Name(), b)
}

// AddHealthCheck includes a module in GET /health.
func (m *APIModule) AddHealthCheck(name string, hm mono.HealthCheckableModule) {
	m.checks[name] = hm
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.auth == nil || m.tasks == nil || m.activity == nil {
		return fmt.Errorf("auth, task and activity dependencies must be set")
	}

	m.app = m.buildApp()
	addr := fmt.Sprintf(":%d", m.cfg.HTTPPort)

	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	log.Printf("[api] HTTP server started on %s", addr)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.ShutdownWithContext(ctx)
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port": m.cfg.HTTPPort,
		},
	}
}

// buildApp creates the Fiber app with middleware and routes.
func (m *APIModule) buildApp() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     m.cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: m.cfg.AllowedOrigins != "*",
	}))

	m.setupRoutes(app)
	return app
}

// setupRoutes configures all API routes.
func (m *APIModule) setupRoutes(app *fiber.App) {
	h := NewHandlers(m.auth, m.tasks, m.activity)

	app.Get("/health", m.healthHandler)

	if m.hub != nil {
		app.Get("/ws/board", board.Handlers(m.hub, m.auth.ValidateToken)...)
	}

	api := app.Group("/api")

	// Public auth routes
	public := []fiber.Handler{}
	if m.limiter != nil {
		public = append(public, m.limiter.PerIP())
	}
	api.Post("/auth/register", append(public, h.Register)...)
	api.Post("/auth/login", append(public, h.Login)...)

	gate := AuthMiddleware(m.auth)

	api.Post("/auth/approveUser/:username", gate, h.ApproveUser)

	tasks := api.Group("/tasks", gate)
	tasks.Get("/", h.ListTasks)
	tasks.Get("/getTasks", h.ListTasks)
	tasks.Post("/", h.CreateTask)
	tasks.Post("/tasks", h.CreateTask)
	tasks.Get("/getTaskById", h.GetTask)
	tasks.Get("/status/:status", h.ListTasksByStatus)
	tasks.Patch("/:taskId/subtasks/:index", h.ToggleSubtask)
	tasks.Patch("/:id/assignee", h.ReassignTask)
	tasks.Get("/:id", h.GetTask)
	tasks.Put("/:id", h.UpdateTask)
	tasks.Delete("/:id", h.DeleteTask)

	user := api.Group("/user", gate)
	user.Get("/data", h.UserData)
	user.Get("/allUsers", h.AllUsers)
	user.Post("/update-avatar", h.UpdateAvatar)
	user.Get("/getUserId/:username", h.GetUserID)
	user.Get("/getUsername/:userId", h.GetUsername)

	api.Get("/activity", gate, h.Activity)
}

// healthHandler reports every registered module; any unhealthy module
// turns the response into 503.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(m.checks))
	for name := range m.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	healthy := true
	modules := make(map[string]ModuleHealth, len(names))
	for _, name := range names {
		status := m.checks[name].Health(ctx)
		modules[name] = ModuleHealth{
			Healthy: status.Healthy,
			Message: status.Message,
			Details: status.Details,
		}
		if !status.Healthy {
			healthy = false
		}
	}

	code := fiber.StatusOK
	state := "healthy"
	if !healthy {
		code = fiber.StatusServiceUnavailable
		state = "unhealthy"
	}
	return c.Status(code).JSON(fiber.Map{
		"status":  state,
		"modules": modules,
	})
}
