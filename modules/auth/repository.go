package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/example/taskboard/database"
	domain "github.com/example/taskboard/domain/user"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateIdentity is returned when the username or email is taken.
	ErrDuplicateIdentity = errors.New("username or email already exists")
)

// UserRepository persists accounts. Implementations map their driver's
// not-found and unique-violation errors to ErrUserNotFound and
// ErrDuplicateIdentity.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	IdentityExists(ctx context.Context, username, email string) (bool, error)
	List(ctx context.Context) ([]*domain.User, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// GormUserRepository handles user persistence using GORM.
type GormUserRepository struct {
	db *gorm.DB
}

var _ UserRepository = (*GormUserRepository)(nil)

// NewGormUserRepository creates a new GormUserRepository.
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GormUserRepository) Create(ctx context.Context, user *domain.User) error {
	result := r.db.WithContext(ctx).Create(user)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return ErrDuplicateIdentity
		}
		return result.Error
	}
	return nil
}

// Update saves all fields of an existing user.
func (r *GormUserRepository) Update(ctx context.Context, user *domain.User) error {
	result := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", user.ID).Select("*").Updates(user)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return ErrDuplicateIdentity
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// FindByID finds a user by ID.
func (r *GormUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByUsername finds a user by username.
func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *GormUserRepository) first(ctx context.Context, query string, arg string) (*domain.User, error) {
	var user domain.User
	result := r.db.WithContext(ctx).First(&user, query, arg)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// IdentityExists checks if a user with the given username or email exists.
func (r *GormUserRepository) IdentityExists(ctx context.Context, username, email string) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// List returns every user ordered by username.
func (r *GormUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	if err := r.db.WithContext(ctx).Order("username").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Ping checks the database connection.
func (r *GormUserRepository) Ping(ctx context.Context) error {
	return database.PingSQLite(ctx, r.db)
}

// Close releases the connection pool.
func (r *GormUserRepository) Close(_ context.Context) error {
	return database.CloseSQLite(r.db)
}

// isUniqueViolation also matches the raw SQLite message for drivers that
// do not translate constraint errors.
func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}
