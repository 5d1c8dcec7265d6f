package task

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/example/taskboard/database"
	domain "github.com/example/taskboard/domain/task"
	"github.com/google/uuid"
)

// setupTestRepo creates a repository over an in-memory SQLite database.
func setupTestRepo(t *testing.T) *GormTaskRepository {
	t.Helper()

	db, err := database.OpenSQLite(":memory:", &domain.Task{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.CloseSQLite(db) })

	return NewGormTaskRepository(db)
}

func newTestTask(creator, assignee, title string, due time.Time) *domain.Task {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: title + " description",
		DueDate:     due.UTC().Truncate(time.Second),
		Priority:    domain.PriorityMedium,
		Status:      domain.StatusNotStarted,
		Assignee:    assignee,
		CreatorID:   creator,
		Subtasks:    []domain.Subtask{{Text: "first"}},
		Revision:    1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func testTaskRepository(t *testing.T, repo TaskRepository) {
	ctx := context.Background()
	base := time.Now().Add(24 * time.Hour)

	later := newTestTask("alice", "bob", "later", base.Add(48*time.Hour))
	sooner := newTestTask("alice", "", "sooner", base)
	bobs := newTestTask("bob", "", "bob only", base)
	for _, task := range []*domain.Task{later, sooner, bobs} {
		if err := repo.Create(ctx, task); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	t.Run("find by id", func(t *testing.T) {
		got, err := repo.FindByID(ctx, later.ID)
		if err != nil {
			t.Fatalf("FindByID() error = %v", err)
		}
		if got.Title != "later" || got.Assignee != "bob" || got.Revision != 1 {
			t.Errorf("FindByID() = %+v", got)
		}
		if len(got.Subtasks) != 1 || got.Subtasks[0].Text != "first" {
			t.Errorf("Subtasks = %+v", got.Subtasks)
		}

		if _, err := repo.FindByID(ctx, "missing"); err != ErrTaskNotFound {
			t.Errorf("FindByID(missing) error = %v, want %v", err, ErrTaskNotFound)
		}
	})

	t.Run("list by involvement ordered by due date", func(t *testing.T) {
		tests := []struct {
			name   string
			filter ListFilter
			want   []string
		}{
			{"creator sees own tasks", ListFilter{UserID: "alice"}, []string{"sooner", "later"}},
			{"assignee sees assigned and own", ListFilter{UserID: "bob"}, []string{"bob only", "later"}},
			{"stranger sees nothing", ListFilter{UserID: "carol"}, nil},
			{"empty user sees nothing", ListFilter{}, nil},
			{"status narrows", ListFilter{UserID: "alice", Status: domain.StatusCompleted}, nil},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := repo.List(ctx, tt.filter)
				if err != nil {
					t.Fatalf("List() error = %v", err)
				}
				if len(got) != len(tt.want) {
					t.Fatalf("List() returned %d tasks, want %d", len(got), len(tt.want))
				}
				for i, title := range tt.want {
					if got[i].Title != title {
						t.Errorf("List()[%d] = %q, want %q", i, got[i].Title, title)
					}
				}
			})
		}
	})

	t.Run("conditional update", func(t *testing.T) {
		task, err := repo.FindByID(ctx, sooner.ID)
		if err != nil {
			t.Fatalf("FindByID() error = %v", err)
		}
		task.Status = domain.StatusCompleted
		done := time.Now().UTC().Truncate(time.Second)
		task.CompletionDate = &done

		if err := repo.Update(ctx, task, 1); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if task.Revision != 2 {
			t.Errorf("Revision = %d, want 2", task.Revision)
		}
		if task.CompletionDate == nil {
			t.Error("CompletionDate not persisted")
		}

		stale := *task
		stale.Title = "lost"
		if err := repo.Update(ctx, &stale, 1); err != ErrStaleRevision {
			t.Errorf("Update(stale) error = %v, want %v", err, ErrStaleRevision)
		}

		task.Status = domain.StatusInProgress
		task.CompletionDate = nil
		if err := repo.Update(ctx, task, 0); err != nil {
			t.Fatalf("Update(unconditional) error = %v", err)
		}
		if task.Revision != 3 || task.CompletionDate != nil {
			t.Errorf("after unconditional update: revision %d, completion %v", task.Revision, task.CompletionDate)
		}

		missing := newTestTask("alice", "", "ghost", base)
		if err := repo.Update(ctx, missing, 0); err != ErrTaskNotFound {
			t.Errorf("Update(missing) error = %v, want %v", err, ErrTaskNotFound)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := repo.Delete(ctx, bobs.ID); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if err := repo.Delete(ctx, bobs.ID); err != ErrTaskNotFound {
			t.Errorf("second Delete() error = %v, want %v", err, ErrTaskNotFound)
		}
	})

	if err := repo.Ping(ctx); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestGormTaskRepository(t *testing.T) {
	testTaskRepository(t, setupTestRepo(t))
}

func TestGormTaskRepository_PingAfterClose(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if err := repo.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := repo.Ping(ctx); err == nil {
		t.Error("Ping() after Close() error = nil, want error")
	}
}

func TestMongoTaskRepository(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set, skipping MongoDB test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, db, err := database.OpenMongo(ctx, uri, "taskboard_task_test_"+uuid.NewString()[:8])
	if err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}
	defer func() {
		db.Drop(context.Background())
		client.Disconnect(context.Background())
	}()

	repo, err := NewMongoTaskRepository(ctx, client, db)
	if err != nil {
		t.Fatalf("NewMongoTaskRepository() error = %v", err)
	}
	testTaskRepository(t, repo)
}
