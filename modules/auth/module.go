package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/taskboard/config"
	"github.com/example/taskboard/database"
	domain "github.com/example/taskboard/domain/user"
	"github.com/example/taskboard/events"
	"github.com/example/taskboard/modules/cache"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthModule provides the token service and the account directory.
type AuthModule struct {
	cfg      config.Config
	repo     UserRepository
	service  *AuthService
	cache    cache.CacheService
	eventBus mono.EventBus
}

// Compile-time interface checks.
var _ mono.Module = (*AuthModule)(nil)
var _ mono.ServiceProviderModule = (*AuthModule)(nil)
var _ mono.HealthCheckableModule = (*AuthModule)(nil)
var _ mono.EventEmitterModule = (*AuthModule)(nil)
var _ mono.UsePluginModule = (*AuthModule)(nil)

// NewModule creates a new AuthModule. The store is opened in Start.
func NewModule(cfg config.Config) *AuthModule {
	return &AuthModule{
		cfg: cfg,
	}
}

// newModuleWithRepository builds a module around an already opened store.
func newModuleWithRepository(cfg config.Config, repo UserRepository) *AuthModule {
	return &AuthModule{
		cfg:  cfg,
		repo: repo,
	}
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// SetPlugin receives the optional cache plugin.
func (m *AuthModule) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias != "cache" {
		return
	}
	if cachePlugin, ok := plugin.(*cache.PluginModule); ok {
		m.cache = cachePlugin.Port()
		log.Println("[auth] Cache plugin injected")
	}
}

// SetEventBus is called by the framework to inject the event bus.
func (m *AuthModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module publishes.
func (m *AuthModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.UserRegisteredV1.ToBase(),
		events.UserApprovedV1.ToBase(),
	}
}

// Start opens the user store and provisions the admin account if configured.
func (m *AuthModule) Start(ctx context.Context) error {
	if m.repo == nil {
		repo, err := openUserRepository(ctx, m.cfg)
		if err != nil {
			return err
		}
		m.repo = repo
	}

	jwtManager := NewJWTManager(JWTConfig{
		SecretKey:     m.cfg.JWTSecret,
		TokenDuration: m.cfg.TokenTTL,
		Issuer:        m.cfg.JWTIssuer,
	})
	m.service = NewAuthService(m.repo, NewPasswordHasher(m.cfg.BcryptCost), jwtManager, m.cache)

	if m.cfg.AdminBootstrap() {
		admin, err := m.service.ProvisionAdmin(ctx, m.cfg.AdminUsername, m.cfg.AdminEmail, m.cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("failed to provision admin: %w", err)
		}
		log.Printf("[auth] Admin account ready: %s", admin.Username)
	}

	if m.eventBus == nil {
		log.Println("[auth] Warning: eventBus not set, events will not be published")
	}
	log.Printf("[auth] Module started (store: %s)", m.cfg.StoreDriver)
	return nil
}

func openUserRepository(ctx context.Context, cfg config.Config) (UserRepository, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, db, err := database.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return NewMongoUserRepository(ctx, client, db)
	default:
		db, err := database.OpenSQLite(cfg.SQLitePath, &domain.User{})
		if err != nil {
			return nil, err
		}
		return NewGormUserRepository(db), nil
	}
}

// Stop closes the user store.
func (m *AuthModule) Stop(ctx context.Context) error {
	if m.repo != nil {
		if err := m.repo.Close(ctx); err != nil {
			log.Printf("[auth] Error closing store: %v", err)
		}
	}
	log.Println("[auth] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *AuthModule) Health(ctx context.Context) mono.HealthStatus {
	if m.repo == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := m.repo.Ping(pingCtx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"store":  m.cfg.StoreDriver,
			"cached": m.cache != nil,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "register", json.Unmarshal, json.Marshal, m.handleRegister,
	); err != nil {
		return fmt.Errorf("failed to register register service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "login", json.Unmarshal, json.Marshal, m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register login service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "validate-token", json.Unmarshal, json.Marshal, m.handleValidateToken,
	); err != nil {
		return fmt.Errorf("failed to register validate-token service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-user", json.Unmarshal, json.Marshal, m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register get-user service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-users", json.Unmarshal, json.Marshal, m.handleListUsers,
	); err != nil {
		return fmt.Errorf("failed to register list-users service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "approve-user", json.Unmarshal, json.Marshal, m.handleApproveUser,
	); err != nil {
		return fmt.Errorf("failed to register approve-user service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-avatar", json.Unmarshal, json.Marshal, m.handleUpdateAvatar,
	); err != nil {
		return fmt.Errorf("failed to register update-avatar service: %w", err)
	}

	log.Printf("[auth] Registered services: register, login, validate-token, get-user, list-users, approve-user, update-avatar")
	return nil
}

func (m *AuthModule) handleRegister(ctx context.Context, req RegisterRequest, _ *mono.Msg) (RegisterResponse, error) {
	user, err := m.service.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		return RegisterResponse{}, err
	}

	if m.eventBus != nil {
		event := events.UserRegisteredEvent{
			UserID:       user.ID,
			Username:     user.Username,
			RegisteredAt: user.CreatedAt,
		}
		if err := events.UserRegisteredV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[auth] Warning: failed to publish UserRegistered event for %s: %v", user.ID, err)
		}
	}

	return RegisterResponse{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	}, nil
}

func (m *AuthModule) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (LoginResponse, error) {
	token, err := m.service.Login(ctx, req.Username, req.Password)
	if err != nil {
		return LoginResponse{}, err
	}

	return LoginResponse{
		AccessToken: token.AccessToken,
		ExpiresIn:   token.ExpiresIn,
		ExpiresAt:   token.ExpiresAt,
		TokenType:   "Bearer",
		User:        *token.User,
	}, nil
}

func (m *AuthModule) handleValidateToken(ctx context.Context, req ValidateTokenRequest, _ *mono.Msg) (ValidateTokenResponse, error) {
	claims, err := m.service.ValidateToken(ctx, req.Token)
	if err != nil {
		errMsg := ErrInvalidToken.Error()
		if errors.Is(err, ErrExpiredToken) {
			errMsg = ErrExpiredToken.Error()
		}
		// Validation failures are a normal answer, not a transport error.
		return ValidateTokenResponse{
			Valid: false,
			Error: errMsg,
		}, nil
	}

	return ValidateTokenResponse{
		Valid:    true,
		UserID:   claims.UserID,
		Username: claims.Username,
	}, nil
}

func (m *AuthModule) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (UserResponse, error) {
	var (
		user *domain.User
		err  error
	)
	switch {
	case req.UserID != "":
		user, err = m.service.GetUser(ctx, req.UserID)
	case req.Username != "":
		user, err = m.service.GetUserByUsername(ctx, req.Username)
	default:
		return UserResponse{}, ErrUserNotFound
	}
	if err != nil {
		return UserResponse{}, err
	}
	return UserResponse{User: *user}, nil
}

func (m *AuthModule) handleListUsers(ctx context.Context, _ ListUsersRequest, _ *mono.Msg) (ListUsersResponse, error) {
	users, err := m.service.ListUsers(ctx)
	if err != nil {
		return ListUsersResponse{}, err
	}
	return ListUsersResponse{Users: users}, nil
}

func (m *AuthModule) handleApproveUser(ctx context.Context, req ApproveUserRequest, _ *mono.Msg) (UserResponse, error) {
	user, err := m.service.Approve(ctx, req.RequesterID, req.Username)
	if err != nil {
		return UserResponse{}, err
	}

	if m.eventBus != nil {
		event := events.UserApprovedEvent{
			UserID:     user.ID,
			Username:   user.Username,
			ApprovedBy: req.RequesterID,
			ApprovedAt: user.UpdatedAt,
		}
		if err := events.UserApprovedV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[auth] Warning: failed to publish UserApproved event for %s: %v", user.ID, err)
		}
	}

	return UserResponse{User: *user}, nil
}

func (m *AuthModule) handleUpdateAvatar(ctx context.Context, req UpdateAvatarRequest, _ *mono.Msg) (UserResponse, error) {
	user, err := m.service.UpdateAvatar(ctx, req.UserID, domain.Avatar(req.Avatar))
	if err != nil {
		return UserResponse{}, err
	}
	return UserResponse{User: *user}, nil
}
