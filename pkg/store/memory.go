package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// memoryRecord pairs a stored session with its insertion sequence number,
// which breaks listing ties between equal activity timestamps.
type memoryRecord struct {
	session *Session
	seq     uint64
}

// MemoryStore keeps sessions in a mutex-guarded map. Data does not survive a
// restart; use SQLiteStore for durable deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memoryRecord
	nextSeq  uint64
	logger   zerolog.Logger
	now      func() time.Time
}

// NewMemoryStore creates an in-memory session store
func NewMemoryStore(logger zerolog.Logger) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memoryRecord),
		logger:   logger,
		now:      time.Now,
	}
}

// SaveSession upserts a session keyed by its identifier
func (m *MemoryStore) SaveSession(_ context.Context, s *Session) error {
	if s == nil || s.SessionID == "" {
		return fmt.Errorf("session id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	record := cloneSession(s)
	if record.Timestamp.IsZero() {
		record.Timestamp = now
	}
	record.UpdatedAt = now

	if existing, ok := m.sessions[s.SessionID]; ok {
		record.CreatedAt = existing.session.CreatedAt
		existing.session = record
	} else {
		record.CreatedAt = now
		m.nextSeq++
		m.sessions[s.SessionID] = &memoryRecord{session: record, seq: m.nextSeq}
	}

	m.logger.Debug().
		Str("sessionId", s.SessionID).
		Int("messages", len(record.Messages)).
		Msg("Session saved")

	return nil
}

// GetSession returns the session or ErrNotFound
func (m *MemoryStore) GetSession(_ context.Context, sessionID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}

	return cloneSession(record.session), nil
}

// GetAllSessions returns all sessions, most recent activity first
func (m *MemoryStore) GetAllSessions(_ context.Context) ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*memoryRecord, 0, len(m.sessions))
	for _, record := range m.sessions {
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.session.Timestamp.Equal(b.session.Timestamp) {
			return a.session.Timestamp.After(b.session.Timestamp)
		}
		return a.seq < b.seq
	})

	sessions := make([]*Session, 0, len(records))
	for _, record := range records {
		sessions = append(sessions, cloneSession(record.session))
	}

	return sessions, nil
}

// DeleteSession removes a session; false means nothing matched
func (m *MemoryStore) DeleteSession(_ context.Context, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return false, nil
	}

	delete(m.sessions, sessionID)
	m.logger.Debug().Str("sessionId", sessionID).Msg("Session deleted")

	return true, nil
}

// GetSessionCount returns the number of stored sessions
func (m *MemoryStore) GetSessionCount(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions), nil
}

// Close releases the store; a no-op for the in-memory implementation
func (m *MemoryStore) Close() error {
	return nil
}
