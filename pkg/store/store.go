package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by GetSession when no record matches the identifier.
// It is a normal outcome, not a storage failure; callers distinguish it with
// errors.Is.
var ErrNotFound = errors.New("session not found")

// Message represents a single conversation turn
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is a chat transcript plus its bookkeeping fields
type Session struct {
	SessionID string                 `json:"sessionId"`
	Messages  []Message              `json:"messages"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// Store is the session persistence contract. Two implementations exist:
// MemoryStore for tests and single-process deployments, SQLiteStore for
// durable storage. Saves replace the stored messages, activity timestamp and
// metadata wholesale; there is no incremental append at this boundary.
type Store interface {
	// SaveSession creates the session on first save for its identifier and
	// replaces it in place on every subsequent save. CreatedAt is preserved
	// across updates, UpdatedAt is refreshed on every write.
	SaveSession(ctx context.Context, s *Session) error

	// GetSession returns the session or ErrNotFound. Side-effect free.
	GetSession(ctx context.Context, sessionID string) (*Session, error)

	// GetAllSessions returns every session ordered by activity timestamp
	// descending, ties broken by insertion order. Empty store yields an
	// empty slice, never an error.
	GetAllSessions(ctx context.Context) ([]*Session, error)

	// DeleteSession removes the session if present. The boolean reports
	// whether a record was actually removed; an unknown identifier is a
	// normal (false, nil) outcome.
	DeleteSession(ctx context.Context, sessionID string) (bool, error)

	// GetSessionCount returns the number of stored sessions. It performs a
	// real round trip to the storage medium, which makes it usable as a
	// liveness probe.
	GetSessionCount(ctx context.Context) (int, error)

	// Close releases resources held by the store.
	Close() error
}

// cloneSession deep-copies a session so stored state is never aliased by
// callers.
func cloneSession(s *Session) *Session {
	c := *s
	if s.Messages != nil {
		c.Messages = make([]Message, len(s.Messages))
		copy(c.Messages, s.Messages)
	}
	if s.Metadata != nil {
		c.Metadata = make(map[string]interface{}, len(s.Metadata))
		for k, v := range s.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
