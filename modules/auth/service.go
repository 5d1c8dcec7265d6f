package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"regexp"
	"time"

	domain "github.com/example/taskboard/domain/user"
	"github.com/example/taskboard/modules/cache"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrBadCredentials is returned for an unknown username or a wrong
	// password alike.
	ErrBadCredentials = errors.New("invalid username or password")
	// ErrNotApproved is returned when a valid login hits an unapproved account.
	ErrNotApproved = errors.New("account is awaiting admin approval")
	// ErrAlreadyApproved is returned when approving an approved account.
	ErrAlreadyApproved = errors.New("user is already approved")
	// ErrForbidden is returned when a non-admin attempts an admin action.
	ErrForbidden = errors.New("admin privileges required")
	// ErrInvalidUsername is returned when the username format is invalid.
	ErrInvalidUsername = errors.New("username must be 3-32 characters of letters, digits, '.', '_' or '-'")
	// ErrInvalidEmail is returned when email format is invalid.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrWeakPassword is returned when password is too weak.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
	// ErrPasswordTooLong is returned when password exceeds bcrypt's 72-byte limit.
	ErrPasswordTooLong = errors.New("password must be at most 72 characters")
	// ErrInvalidAvatar is returned for an unknown avatar reference.
	ErrInvalidAvatar = errors.New("invalid avatar")
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)

// Token is the result of a successful login.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
	ExpiresIn   int64
	User        *domain.User
}

// AuthService implements the credential, token and account directory logic.
type AuthService struct {
	repo    UserRepository
	hasher  *PasswordHasher
	jwt     *JWTManager
	cache   cache.CacheService
	sfGroup singleflight.Group
}

// NewAuthService creates a new AuthService. A nil cache disables caching.
func NewAuthService(repo UserRepository, hasher *PasswordHasher, jwt *JWTManager, c cache.CacheService) *AuthService {
	if c == nil {
		c = cache.NopCache{}
	}
	return &AuthService{
		repo:   repo,
		hasher: hasher,
		jwt:    jwt,
		cache:  c,
	}
}

func cacheKeyByID(id string) string {
	return "user:" + id
}

// Register creates a new unapproved, non-admin account.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	if err := validateRegistration(username, email, password); err != nil {
		return nil, err
	}

	exists, err := s.repo.IdentityExists(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check identity existence: %w", err)
	}
	if exists {
		return nil, ErrDuplicateIdentity
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Avatar:       domain.DefaultAvatar,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The unique indexes still catch a concurrent registration.
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateIdentity) {
			return nil, ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func validateRegistration(username, email, password string) error {
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}
	// bcrypt has a 72-byte limit
	if len(password) < 8 {
		return ErrWeakPassword
	}
	if len(password) > 72 {
		return ErrPasswordTooLong
	}
	return nil
}

// Login verifies credentials and issues a token for approved accounts.
func (s *AuthService) Login(ctx context.Context, username, password string) (*Token, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.hasher.Reject(password)
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrBadCredentials
	}

	if !user.IsApproved {
		return nil, ErrNotApproved
	}

	token, expiresAt, err := s.jwt.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	public := user.Public()
	return &Token{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		ExpiresIn:   s.jwt.TokenDuration(),
		User:        &public,
	}, nil
}

// ValidateToken verifies a bearer token. It performs no store lookup.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*domain.Claims, error) {
	return s.jwt.ValidateToken(token)
}

// GetUser retrieves a user by ID through the cache. Concurrent misses for
// the same ID share one store read.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	key := cacheKeyByID(userID)

	var cached domain.User
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Printf("[auth] Cache error for user %s: %v", userID, err)
	}
	if found {
		return &cached, nil
	}

	v, err, _ := s.sfGroup.Do(key, func() (any, error) {
		user, err := s.repo.FindByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		public := user.Public()
		if err := s.cache.Set(ctx, key, public); err != nil {
			log.Printf("[auth] Warning: failed to cache user %s: %v", userID, err)
		}
		return &public, nil
	})
	if err != nil {
		return nil, err
	}

	user := *v.(*domain.User)
	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (s *AuthService) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	public := user.Public()
	return &public, nil
}

// ListUsers returns every account without credential hashes.
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	result := make([]domain.User, 0, len(users))
	for _, u := range users {
		result = append(result, u.Public())
	}
	return result, nil
}

// IsAdmin reads the account straight from the store and fails closed.
func (s *AuthService) IsAdmin(ctx context.Context, userID string) bool {
	if userID == "" {
		return false
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			log.Printf("[auth] Admin check failed for %s: %v", userID, err)
		}
		return false
	}
	return user.IsAdmin
}

// Approve marks username as approved. The requester must be an admin.
func (s *AuthService) Approve(ctx context.Context, requesterID, username string) (*domain.User, error) {
	if !s.IsAdmin(ctx, requesterID) {
		return nil, ErrForbidden
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.IsApproved {
		return nil, ErrAlreadyApproved
	}

	user.IsApproved = true
	user.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to approve user: %w", err)
	}
	s.invalidate(ctx, user.ID)

	public := user.Public()
	return &public, nil
}

// UpdateAvatar changes the avatar of the given account.
func (s *AuthService) UpdateAvatar(ctx context.Context, userID string, avatar domain.Avatar) (*domain.User, error) {
	if !avatar.Valid() {
		return nil, ErrInvalidAvatar
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Avatar = avatar
	user.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update avatar: %w", err)
	}
	s.invalidate(ctx, user.ID)

	public := user.Public()
	return &public, nil
}

// ProvisionAdmin creates the configured admin account, or promotes and
// approves it if the username already exists.
func (s *AuthService) ProvisionAdmin(ctx context.Context, username, email, password string) (*domain.User, error) {
	existing, err := s.repo.FindByUsername(ctx, username)
	switch {
	case err == nil:
		if existing.IsAdmin && existing.IsApproved {
			return existing, nil
		}
		existing.IsAdmin = true
		existing.IsApproved = true
		existing.UpdatedAt = time.Now()
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to promote admin: %w", err)
		}
		s.invalidate(ctx, existing.ID)
		return existing, nil
	case !errors.Is(err, ErrUserNotFound):
		return nil, fmt.Errorf("failed to look up admin: %w", err)
	}

	user, err := s.Register(ctx, username, email, password)
	if err != nil {
		return nil, err
	}
	user.IsAdmin = true
	user.IsApproved = true
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to promote admin: %w", err)
	}
	return user, nil
}

func (s *AuthService) invalidate(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, cacheKeyByID(userID)); err != nil {
		log.Printf("[auth] Warning: failed to invalidate cached user %s: %v", userID, err)
	}
}
