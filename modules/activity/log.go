// Package activity keeps a bounded in-memory log of task and account
// events and answers per-user queries over it.
package activity

import (
	"slices"
	"sync"
	"time"
)

// DefaultCapacity is the number of entries kept before the oldest are
// dropped.
const DefaultCapacity = 1000

// Entry is one recorded event.
type Entry struct {
	Type      string    `json:"type"`
	TaskID    string    `json:"taskId,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	// Audience are the user ids allowed to see this entry.
	Audience []string `json:"-"`
}

// visibleTo reports whether userID is in the audience.
func (e Entry) visibleTo(userID string) bool {
	if userID == "" {
		return false
	}
	return slices.Contains(e.Audience, userID)
}

// Log is a fixed-capacity ring of entries, safe for concurrent use.
type Log struct {
	mu       sync.RWMutex
	entries  []Entry
	next     int
	full     bool
	capacity int
}

// NewLog creates a log holding at most capacity entries.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		entries:  make([]Entry, capacity),
		capacity: capacity,
	}
}

// Append records e, overwriting the oldest entry when full.
func (l *Log) Append(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[l.next] = e
	l.next = (l.next + 1) % l.capacity
	if l.next == 0 {
		l.full = true
	}
}

// Len returns the number of stored entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.full {
		return l.capacity
	}
	return l.next
}

// For returns up to limit entries visible to userID, newest first.
// A non-positive limit returns all of them.
func (l *Log) For(userID string, limit int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := l.next
	if l.full {
		n = l.capacity
	}

	result := make([]Entry, 0)
	for i := 1; i <= n; i++ {
		e := l.entries[(l.next-i+l.capacity)%l.capacity]
		if !e.visibleTo(userID) {
			continue
		}
		result = append(result, e)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result
}

// audience returns the non-empty, distinct ids.
func audience(ids ...string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
