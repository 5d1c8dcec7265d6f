package ratelimit

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/redis/go-redis/v9"
)

// Module owns the Redis client used for rate limiting.
type Module struct {
	client     *redis.Client
	middleware *Middleware
	redisAddr  string
}

var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a rate limiting module. The client is created eagerly
// so the middleware can be wired before the application starts; it only
// dials on first use.
func NewModule(redisAddr, password string, config Config, logger types.Logger) *Module {
	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: password,
	})
	limiter := NewSlidingWindowLimiter(client, config, "taskboard:ratelimit:")
	return &Module{
		client:     client,
		middleware: NewMiddleware(limiter, config.RequestsPerWindow, logger),
		redisAddr:  redisAddr,
	}
}

func (m *Module) Name() string {
	return "ratelimit"
}

// Start checks Redis once. An unreachable server is logged, not fatal:
// the middleware fails open.
func (m *Module) Start(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := m.client.Ping(pingCtx).Err(); err != nil {
		log.Printf("[ratelimit] Warning: Redis at %s unreachable, requests will not be limited: %v", m.redisAddr, err)
	} else {
		log.Printf("[ratelimit] Connected to Redis at %s", m.redisAddr)
	}
	log.Println("[ratelimit] Module started")
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	if err := m.client.Close(); err != nil {
		log.Printf("[ratelimit] Error closing Redis connection: %v", err)
	}
	log.Println("[ratelimit] Module stopped")
	return nil
}

func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if err := m.client.Ping(ctx).Err(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("redis ping failed: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{"redis": m.redisAddr},
	}
}

// Middleware returns the per-IP middleware for public routes.
func (m *Module) Middleware() *Middleware {
	return m.middleware
}
