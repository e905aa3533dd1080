package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// SQLiteStore persists sessions in a single SQLite table. The session
// identifier is the primary key, which gives the upsert contract its
// uniqueness guarantee. Messages and metadata are stored as JSON blobs;
// timestamps as nanoseconds since the epoch.
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
	now    func() time.Time
}

// NewSQLiteStore opens (creating if needed) the database at dbPath
func NewSQLiteStore(dbPath string, logger zerolog.Logger) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL keeps concurrent readers off the writer's lock; busy_timeout
	// retries briefly instead of failing on contention.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
		now:    time.Now,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s.logger.Info().Str("path", dbPath).Msg("SQLite session store initialized")
	return s, nil
}

// initSchema creates the sessions table
func (s *SQLiteStore) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			messages   TEXT NOT NULL,
			timestamp  INTEGER NOT NULL,
			metadata   TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_timestamp ON sessions(timestamp DESC);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// SaveSession upserts a session keyed by its identifier. The ON CONFLICT
// clause leaves created_at (and the implicit rowid, used for listing
// tie-breaks) untouched on updates.
func (s *SQLiteStore) SaveSession(ctx context.Context, sess *Session) error {
	if sess == nil || sess.SessionID == "" {
		return fmt.Errorf("session id is required")
	}

	messages, err := json.Marshal(sess.Messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}

	var metadata sql.NullString
	if sess.Metadata != nil {
		data, err := json.Marshal(sess.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadata = sql.NullString{String: string(data), Valid: true}
	}

	now := s.now()
	timestamp := sess.Timestamp
	if timestamp.IsZero() {
		timestamp = now
	}

	query := `
		INSERT INTO sessions (session_id, messages, timestamp, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			messages   = excluded.messages,
			timestamp  = excluded.timestamp,
			metadata   = excluded.metadata,
			updated_at = excluded.updated_at
	`

	if _, err := s.db.ExecContext(ctx, query,
		sess.SessionID,
		string(messages),
		timestamp.UnixNano(),
		metadata,
		now.UnixNano(),
		now.UnixNano(),
	); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Debug().
		Str("sessionId", sess.SessionID).
		Int("messages", len(sess.Messages)).
		Msg("Session saved")

	return nil
}

// GetSession returns the session or ErrNotFound
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	query := `
		SELECT session_id, messages, timestamp, metadata, created_at, updated_at
		FROM sessions
		WHERE session_id = ?
	`

	row := s.db.QueryRowContext(ctx, query, sessionID)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	return sess, nil
}

// GetAllSessions returns all sessions, most recent activity first. Equal
// timestamps fall back to rowid, which preserves insertion order.
func (s *SQLiteStore) GetAllSessions(ctx context.Context) ([]*Session, error) {
	query := `
		SELECT session_id, messages, timestamp, metadata, created_at, updated_at
		FROM sessions
		ORDER BY timestamp DESC, rowid ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]*Session, 0)
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}

	return sessions, nil
}

// DeleteSession removes a session; false means nothing matched
func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE session_id = ?", sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}

	if affected > 0 {
		s.logger.Debug().Str("sessionId", sessionID).Msg("Session deleted")
	}

	return affected > 0, nil
}

// GetSessionCount returns the number of stored sessions
func (s *SQLiteStore) GetSessionCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		sess        Session
		messages    string
		metadata    sql.NullString
		timestampNs int64
		createdNs   int64
		updatedNs   int64
	)

	if err := row.Scan(&sess.SessionID, &messages, &timestampNs, &metadata, &createdNs, &updatedNs); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(messages), &sess.Messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
	}
	if metadata.Valid {
		if err := json.Unmarshal([]byte(metadata.String), &sess.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	sess.Timestamp = time.Unix(0, timestampNs)
	sess.CreatedAt = time.Unix(0, createdNs)
	sess.UpdatedAt = time.Unix(0, updatedNs)

	return &sess, nil
}
