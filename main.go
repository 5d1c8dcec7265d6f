// Taskboard - a multi-user task tracker on the mono framework.
//
// Accounts register, wait for admin approval, then log in for a bearer
// token. Tasks are shared between their creator and an optional assignee;
// task events feed an activity log and a live WebSocket board.
package main

import (
	"context"
	"log"
	"os"

	"github.com/example/taskboard/config"
	"github.com/example/taskboard/modules/activity"
	"github.com/example/taskboard/modules/api"
	"github.com/example/taskboard/modules/auth"
	"github.com/example/taskboard/modules/board"
	"github.com/example/taskboard/modules/cache"
	"github.com/example/taskboard/modules/ratelimit"
	"github.com/example/taskboard/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	log.Println("=== Taskboard ===")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Printf("Configuration:")
	log.Printf("  HTTP Port: %d", cfg.HTTPPort)
	log.Printf("  Store: %s", cfg.StoreDriver)
	if cfg.RedisEnabled() {
		log.Printf("  Redis Address: %s", cfg.RedisAddr)
	} else {
		log.Printf("  Redis: disabled (no cache, no rate limiting)")
	}

	logLevel := mono.LogLevelInfo
	if cfg.LogLevel == "error" {
		logLevel = mono.LogLevelError
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(logLevel),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	authModule := auth.NewModule(cfg)
	taskModule := task.NewModule(cfg)
	activityModule := activity.NewModule(activity.DefaultCapacity)
	boardModule := board.NewModule()
	apiModule := api.NewModule(cfg)

	// Wire up dependencies
	apiModule.SetBoardModule(boardModule)
	apiModule.AddHealthCheck(authModule.Name(), authModule)
	apiModule.AddHealthCheck(taskModule.Name(), taskModule)
	apiModule.AddHealthCheck(activityModule.Name(), activityModule)

	if cfg.RedisEnabled() {
		// The framework calls SetPlugin("cache", ...) on the auth module.
		cachePlugin := cache.NewPluginModule(cfg.RedisAddr, cfg.RedisPassword, "taskboard:", cfg.CacheTTL)
		if err := app.RegisterPlugin(cachePlugin, "cache"); err != nil {
			log.Fatalf("Failed to register cache plugin: %v", err)
		}
		apiModule.AddHealthCheck("cache", cachePlugin)

		rateLimitModule := ratelimit.NewModule(cfg.RedisAddr, cfg.RedisPassword, ratelimit.Config{
			RequestsPerWindow: cfg.LoginLimit,
			WindowSize:        cfg.LoginWindow,
		}, app.Logger())
		apiModule.SetRateLimitModule(rateLimitModule)
		apiModule.AddHealthCheck(rateLimitModule.Name(), rateLimitModule)
		app.Register(rateLimitModule)
	}

	// Register modules
	app.Register(authModule)
	app.Register(taskModule)
	app.Register(activityModule)
	app.Register(boardModule)
	app.Register(apiModule)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg.HTTPPort)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(port int) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%d):", port)
	log.Println("  GET    /health                          - Module health")
	log.Println("  GET    /ws/board?token=...              - Live task updates")
	log.Println("  POST   /api/auth/register               - Register (awaits approval)")
	log.Println("  POST   /api/auth/login                  - Log in")
	log.Println("  POST   /api/auth/approveUser/:username  - Approve an account (admin)")
	log.Println("  GET    /api/tasks                       - List own and assigned tasks")
	log.Println("  GET    /api/tasks/status/:status        - List tasks by status")
	log.Println("  POST   /api/tasks                       - Create a task")
	log.Println("  GET    /api/tasks/:id                   - Get a task")
	log.Println("  PUT    /api/tasks/:id                   - Update a task")
	log.Println("  PATCH  /api/tasks/:id/assignee          - Reassign a task")
	log.Println("  PATCH  /api/tasks/:taskId/subtasks/:i   - Toggle a subtask")
	log.Println("  DELETE /api/tasks/:id                   - Delete a task (creator only)")
	log.Println("  GET    /api/user/data                   - Current user")
	log.Println("  GET    /api/user/allUsers               - All users")
	log.Println("  POST   /api/user/update-avatar          - Change avatar")
	log.Println("  GET    /api/activity                    - Recent activity")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
