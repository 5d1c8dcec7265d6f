package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/example/taskboard/domain/task"
	nanoid "github.com/jaevor/go-nanoid"
)

var (
	// ErrInvalidTask prefixes every input validation failure.
	ErrInvalidTask = errors.New("invalid task")
	// ErrUnknownAssignee is returned when the assignee is not a known user.
	ErrUnknownAssignee = errors.New("assignee is not a known user")
	// ErrInvalidSubtaskIndex is returned for an out-of-range subtask position.
	ErrInvalidSubtaskIndex = errors.New("subtask index out of range")
)

// maxDueHorizon bounds how far ahead a due date may be.
const maxDueHorizon = 5 * 365 * 24 * time.Hour

// UserDirectory answers whether a user id exists.
type UserDirectory interface {
	UserExists(ctx context.Context, userID string) (bool, error)
}

// TaskInput is the full replaceable state of a task.
type TaskInput struct {
	Title          string
	Description    string
	DueDate        time.Time
	Priority       domain.Priority
	Status         domain.Status
	CompletionDate *time.Time
	Notes          string
	Assignee       string
	Subtasks       []domain.Subtask
	// Revision, when non-zero, must match the stored revision.
	Revision int64
}

// Change describes what a write did, for event publishing.
type Change struct {
	PreviousAssignee string
	PreviousStatus   domain.Status
}

// AssigneeChanged reports whether the write moved the task to someone else.
func (c Change) AssigneeChanged(t *domain.Task) bool {
	return c.PreviousAssignee != t.Assignee
}

// Completed reports whether the write moved the task into Completed.
func (c Change) Completed(t *domain.Task) bool {
	return c.PreviousStatus != domain.StatusCompleted && t.Status == domain.StatusCompleted
}

// TaskService applies the access policy on top of a TaskRepository.
type TaskService struct {
	repo  TaskRepository
	users UserDirectory
	newID func() string
	now   func() time.Time
}

// NewTaskService creates a new TaskService. Task ids are 21-character
// nanoids.
func NewTaskService(repo TaskRepository, users UserDirectory) (*TaskService, error) {
	gen, err := nanoid.Standard(21)
	if err != nil {
		return nil, fmt.Errorf("failed to create id generator: %w", err)
	}
	return &TaskService{
		repo:  repo,
		users: users,
		newID: gen,
		now:   time.Now,
	}, nil
}

// Create stores a new task owned by the caller.
func (s *TaskService) Create(ctx context.Context, id Identity, in TaskInput) (*domain.Task, error) {
	if id.UserID == "" {
		return nil, ErrTaskNotFound
	}
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}

	now := s.now()
	task := &domain.Task{
		ID:        s.newID(),
		CreatorID: id.UserID,
		Revision:  1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	apply(task, in)
	task.ApplyCompletion(now)

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}
	return task, nil
}

// Get returns the task if the caller may read it.
func (s *TaskService) Get(ctx context.Context, id Identity, taskID string) (*domain.Task, error) {
	task, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !CanRead(id, task) {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// Update replaces the mutable fields of a task the caller may write.
func (s *TaskService) Update(ctx context.Context, id Identity, taskID string, in TaskInput) (*domain.Task, Change, error) {
	task, err := s.writable(ctx, id, taskID, in.Revision)
	if err != nil {
		return nil, Change{}, err
	}
	if err := s.validate(ctx, &in); err != nil {
		return nil, Change{}, err
	}

	change := Change{PreviousAssignee: task.Assignee, PreviousStatus: task.Status}

	// Re-saving a completed task keeps its original completion date.
	if in.CompletionDate == nil && task.Status == domain.StatusCompleted && in.Status == domain.StatusCompleted {
		in.CompletionDate = task.CompletionDate
	}

	apply(task, in)
	return s.save(ctx, task, in.Revision, change)
}

// Reassign changes only the assignee.
func (s *TaskService) Reassign(ctx context.Context, id Identity, taskID, assignee string, revision int64) (*domain.Task, Change, error) {
	task, err := s.writable(ctx, id, taskID, revision)
	if err != nil {
		return nil, Change{}, err
	}

	assignee = strings.TrimSpace(assignee)
	if err := s.checkAssignee(ctx, assignee); err != nil {
		return nil, Change{}, err
	}

	change := Change{PreviousAssignee: task.Assignee, PreviousStatus: task.Status}
	task.Assignee = assignee
	return s.save(ctx, task, revision, change)
}

// ToggleSubtask flips the done flag of the subtask at index.
func (s *TaskService) ToggleSubtask(ctx context.Context, id Identity, taskID string, index int, revision int64) (*domain.Task, Change, error) {
	task, err := s.writable(ctx, id, taskID, revision)
	if err != nil {
		return nil, Change{}, err
	}
	if index < 0 || index >= len(task.Subtasks) {
		return nil, Change{}, ErrInvalidSubtaskIndex
	}

	change := Change{PreviousAssignee: task.Assignee, PreviousStatus: task.Status}
	task.Subtasks[index].Done = !task.Subtasks[index].Done
	return s.save(ctx, task, revision, change)
}

// Delete removes a task. Only its creator may do so; anyone else gets
// the same error as for a missing task.
func (s *TaskService) Delete(ctx context.Context, id Identity, taskID string) (*domain.Task, error) {
	task, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !CanDelete(id, task) {
		return nil, ErrTaskNotFound
	}
	if err := s.repo.Delete(ctx, taskID); err != nil {
		return nil, err
	}
	return task, nil
}

// List returns the caller's tasks, optionally narrowed to one status.
func (s *TaskService) List(ctx context.Context, id Identity, status domain.Status) ([]*domain.Task, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTask, status)
	}
	tasks, err := s.repo.List(ctx, FilterFor(id, status))
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// writable loads a task for modification by id.
func (s *TaskService) writable(ctx context.Context, id Identity, taskID string, revision int64) (*domain.Task, error) {
	task, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !CanWrite(id, task) {
		return nil, ErrTaskNotFound
	}
	if revision > 0 && revision != task.Revision {
		return nil, ErrStaleRevision
	}
	return task, nil
}

func (s *TaskService) save(ctx context.Context, task *domain.Task, revision int64, change Change) (*domain.Task, Change, error) {
	now := s.now()
	task.UpdatedAt = now
	task.ApplyCompletion(now)

	if err := s.repo.Update(ctx, task, revision); err != nil {
		if errors.Is(err, ErrTaskNotFound) || errors.Is(err, ErrStaleRevision) {
			return nil, Change{}, err
		}
		return nil, Change{}, fmt.Errorf("failed to update task: %w", err)
	}
	return task, change, nil
}

func (s *TaskService) validate(ctx context.Context, in *TaskInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Assignee = strings.TrimSpace(in.Assignee)

	if in.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidTask)
	}
	if in.Description == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidTask)
	}
	if in.DueDate.IsZero() {
		return fmt.Errorf("%w: due date is required", ErrInvalidTask)
	}
	if in.DueDate.After(s.now().Add(maxDueHorizon)) {
		return fmt.Errorf("%w: due date is more than 5 years away", ErrInvalidTask)
	}

	if in.Priority == "" {
		in.Priority = domain.PriorityMedium
	}
	if !in.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidTask, in.Priority)
	}
	if in.Status == "" {
		in.Status = domain.StatusNotStarted
	}
	if !in.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTask, in.Status)
	}

	for i, st := range in.Subtasks {
		if strings.TrimSpace(st.Text) == "" {
			return fmt.Errorf("%w: subtask %d has no text", ErrInvalidTask, i)
		}
	}

	return s.checkAssignee(ctx, in.Assignee)
}

func (s *TaskService) checkAssignee(ctx context.Context, assignee string) error {
	if assignee == "" {
		return nil
	}
	if s.users == nil {
		return ErrUnknownAssignee
	}
	ok, err := s.users.UserExists(ctx, assignee)
	if err != nil {
		return fmt.Errorf("failed to validate assignee: %w", err)
	}
	if !ok {
		return ErrUnknownAssignee
	}
	return nil
}

// apply copies the replaceable fields of in onto task.
func apply(task *domain.Task, in TaskInput) {
	task.Title = in.Title
	task.Description = in.Description
	task.DueDate = in.DueDate
	task.Priority = in.Priority
	task.Status = in.Status
	task.CompletionDate = in.CompletionDate
	task.Notes = in.Notes
	task.Assignee = in.Assignee
	task.Subtasks = append([]domain.Subtask(nil), in.Subtasks...)
	if task.Subtasks == nil {
		task.Subtasks = []domain.Subtask{}
	}
}
