package task

import (
	domain "github.com/example/taskboard/domain/task"
)

// Identity is the verified caller of a task operation.
type Identity struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
}

// CanRead reports whether id may see t: it must be the creator or the
// assignee. Identities compare by user id only.
func CanRead(id Identity, t *domain.Task) bool {
	if t == nil {
		return false
	}
	return t.Involves(id.UserID)
}

// CanWrite uses the same rule as CanRead; either party may edit the task.
func CanWrite(id Identity, t *domain.Task) bool {
	return CanRead(id, t)
}

// CanDelete is creator-only.
func CanDelete(id Identity, t *domain.Task) bool {
	if t == nil || id.UserID == "" {
		return false
	}
	return t.CreatorID == id.UserID
}

// ListFilter selects the tasks visible to UserID, optionally narrowed to
// one status.
type ListFilter struct {
	UserID string
	Status domain.Status
}

// FilterFor builds the list predicate for id. An empty status means any.
func FilterFor(id Identity, status domain.Status) ListFilter {
	return ListFilter{UserID: id.UserID, Status: status}
}

// Matches evaluates the filter in memory. Stores translate the same
// predicate into their query language.
func (f ListFilter) Matches(t *domain.Task) bool {
	if !t.Involves(f.UserID) {
		return false
	}
	return f.Status == "" || t.Status == f.Status
}
