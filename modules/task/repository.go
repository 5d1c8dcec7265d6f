package task

import (
	"context"
	"errors"

	"github.com/example/taskboard/database"
	domain "github.com/example/taskboard/domain/task"
	"gorm.io/gorm"
)

var (
	// ErrTaskNotFound covers both a missing task and one the caller may
	// not touch.
	ErrTaskNotFound = errors.New("task not found or not authorized")
	// ErrStaleRevision is returned when a conditional write lost a race.
	ErrStaleRevision = errors.New("task was modified by another request")
)

// mutableColumns are replaced on update; id, creator and createdAt never are.
var mutableColumns = []string{
	"title", "description", "due_date", "priority", "status",
	"completion_date", "notes", "assignee", "subtasks", "updated_at",
}

// TaskRepository persists tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	FindByID(ctx context.Context, id string) (*domain.Task, error)
	// Update replaces the mutable fields of task and bumps its revision.
	// A non-zero expectedRevision makes the write conditional. On success
	// task is reloaded from the store.
	Update(ctx context.Context, task *domain.Task, expectedRevision int64) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]*domain.Task, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// GormTaskRepository handles task persistence using GORM.
type GormTaskRepository struct {
	db *gorm.DB
}

var _ TaskRepository = (*GormTaskRepository)(nil)

// NewGormTaskRepository creates a new GormTaskRepository.
func NewGormTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db}
}

// Create inserts a new task.
func (r *GormTaskRepository) Create(ctx context.Context, task *domain.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// FindByID finds a task by ID.
func (r *GormTaskRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	result := r.db.WithContext(ctx).First(&task, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

// Update replaces the mutable columns and increments the revision in one
// transaction.
func (r *GormTaskRepository) Update(ctx context.Context, task *domain.Task, expectedRevision int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&domain.Task{}).Where("id = ?", task.ID)
		if expectedRevision > 0 {
			q = q.Where("revision = ?", expectedRevision)
		}

		result := q.Select(mutableColumns).Updates(task)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return r.missOrStale(tx, task.ID)
		}

		if err := tx.Model(&domain.Task{}).Where("id = ?", task.ID).
			UpdateColumn("revision", gorm.Expr("revision + ?", 1)).Error; err != nil {
			return err
		}

		var fresh domain.Task
		if err := tx.First(&fresh, "id = ?", task.ID).Error; err != nil {
			return err
		}
		*task = fresh
		return nil
	})
}

func (r *GormTaskRepository) missOrStale(tx *gorm.DB, id string) error {
	var count int64
	if err := tx.Model(&domain.Task{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrTaskNotFound
	}
	return ErrStaleRevision
}

// Delete removes a task by ID.
func (r *GormTaskRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&domain.Task{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// List returns the tasks matching filter ordered by due date.
func (r *GormTaskRepository) List(ctx context.Context, filter ListFilter) ([]*domain.Task, error) {
	tasks := make([]*domain.Task, 0)
	if filter.UserID == "" {
		return tasks, nil
	}

	q := r.db.WithContext(ctx).
		Where("(creator_id = ? OR assignee = ?)", filter.UserID, filter.UserID)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if err := q.Order("due_date ASC, created_at ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Ping checks the database connection.
func (r *GormTaskRepository) Ping(ctx context.Context) error {
	return database.PingSQLite(ctx, r.db)
}

// Close releases the connection pool.
func (r *GormTaskRepository) Close(_ context.Context) error {
	return database.CloseSQLite(r.db)
}
