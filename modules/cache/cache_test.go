package cache

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/storage/redis/v3"
)

const testRedisAddr = "localhost:6379"

// memoryStorage is an in-process Storage used by the unit tests.
type memoryStorage struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	failGet bool
	closed  bool
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (s *memoryStorage) GetWithContext(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet {
		return nil, errors.New("connection refused")
	}
	return s.data[key], nil
}

func (s *memoryStorage) SetWithContext(_ context.Context, key string, val []byte, exp time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = val
	s.ttls[key] = exp
	return nil
}

func (s *memoryStorage) DeleteWithContext(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *memoryStorage) Close() error {
	s.closed = true
	return nil
}

type cachedUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func TestCacheService_SetAndGet(t *testing.T) {
	store := newMemoryStorage()
	svc := NewCacheService(store, "test:", 5*time.Minute)
	ctx := context.Background()

	want := cachedUser{ID: "u1", Username: "alice"}
	if err := svc.Set(ctx, "user:u1", want); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if _, ok := store.data["test:user:u1"]; !ok {
		t.Fatal("expected prefixed key in storage")
	}
	if store.ttls["test:user:u1"] != 5*time.Minute {
		t.Errorf("ttl = %v, want 5m", store.ttls["test:user:u1"])
	}

	var got cachedUser
	found, err := svc.Get(ctx, "user:u1", &got)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatal("Get() expected cache hit")
	}
	if got != want {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

func TestCacheService_Miss(t *testing.T) {
	svc := NewCacheService(newMemoryStorage(), "test:", time.Minute)

	var got cachedUser
	found, err := svc.Get(context.Background(), "missing", &got)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Get() expected cache miss")
	}
}

func TestCacheService_Delete(t *testing.T) {
	svc := NewCacheService(newMemoryStorage(), "test:", time.Minute)
	ctx := context.Background()

	if err := svc.Set(ctx, "k", cachedUser{ID: "1"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := svc.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	var got cachedUser
	if found, _ := svc.Get(ctx, "k", &got); found {
		t.Error("expected miss after Delete()")
	}
}

func TestCacheService_StorageError(t *testing.T) {
	store := newMemoryStorage()
	store.failGet = true
	svc := NewCacheService(store, "test:", time.Minute)

	var got cachedUser
	found, err := svc.Get(context.Background(), "k", &got)
	if err == nil {
		t.Fatal("Get() expected error")
	}
	if found {
		t.Error("Get() must not report a hit on error")
	}
}

func TestCacheService_CorruptValue(t *testing.T) {
	store := newMemoryStorage()
	store.data["test:k"] = []byte("{not json")
	svc := NewCacheService(store, "test:", time.Minute)

	var got cachedUser
	if _, err := svc.Get(context.Background(), "k", &got); err == nil {
		t.Error("Get() expected unmarshal error")
	}
}

func TestNopCache(t *testing.T) {
	var c CacheService = NopCache{}
	ctx := context.Background()

	if err := c.Set(ctx, "k", 1); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	var v int
	found, err := c.Get(ctx, "k", &v)
	if err != nil || found {
		t.Errorf("Get() = %v, %v; want miss", found, err)
	}
}

func TestPluginModule_Lifecycle(t *testing.T) {
	store := newMemoryStorage()
	m := newPluginModuleWithStorage(store, "taskboard:", time.Minute)
	ctx := context.Background()

	if m.Name() != "cache" {
		t.Errorf("Name() = %q, want cache", m.Name())
	}
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if m.Port() == nil {
		t.Fatal("Port() returned nil after Start()")
	}
	if h := m.Health(ctx); !h.Healthy {
		t.Errorf("Health() = %+v, want healthy", h)
	}

	store.failGet = true
	if h := m.Health(ctx); h.Healthy {
		t.Error("Health() should report storage errors")
	}

	if err := m.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if !store.closed {
		t.Error("Stop() should close storage")
	}
}

func TestPluginModule_StartUnreachable(t *testing.T) {
	m := NewPluginModule("127.0.0.1:1", "", "taskboard:", time.Minute)
	if err := m.Start(context.Background()); err == nil {
		t.Error("Start() expected error for unreachable Redis")
	}
	if h := m.Health(context.Background()); h.Healthy {
		t.Error("Health() should be unhealthy before a successful Start()")
	}
}

func TestParseRedisAddr(t *testing.T) {
	tests := []struct {
		addr     string
		wantHost string
		wantPort int
	}{
		{"localhost:6379", "localhost", 6379},
		{"redis:6380", "redis", 6380},
		{":6379", "127.0.0.1", 6379},
		{"garbage", "127.0.0.1", 6379},
		{"host:notaport", "host", 6379},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			host, port := parseRedisAddr(tt.addr)
			if host != tt.wantHost || port != tt.wantPort {
				t.Errorf("parseRedisAddr(%q) = %s, %d; want %s, %d", tt.addr, host, port, tt.wantHost, tt.wantPort)
			}
		})
	}
}

// checkRedisAvailable skips the test when Redis is not reachable.
// gofiber/storage/redis panics on connection failure, so we check first.
func checkRedisAvailable(t *testing.T) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", testRedisAddr, 2*time.Second)
	if err != nil {
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}
	conn.Close()
}

func TestCacheService_Redis(t *testing.T) {
	checkRedisAvailable(t)

	store := redis.New(redis.Config{Host: "localhost", Port: 6379})
	svc := NewCacheService(store, "test:taskboard:", time.Minute)
	defer svc.Close()
	ctx := context.Background()

	want := cachedUser{ID: "u-redis", Username: "redis"}
	if err := svc.Set(ctx, "user", want); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	defer svc.Delete(ctx, "user")

	var got cachedUser
	found, err := svc.Get(ctx, "user", &got)
	if err != nil || !found {
		t.Fatalf("Get() = %v, %v; want hit", found, err)
	}
	if got != want {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}
