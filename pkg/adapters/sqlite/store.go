// Package sqlite persists sessions and their conversation logs in a SQLite
// database using the pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/lendflow/pkg/domain"
	_ "modernc.org/sqlite"
)

// Store implements ports.SessionStore and ports.ConversationLog.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and applies the schema.
// dbPath may also be a "file:" URI such as an in-memory shared cache.
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && !isURI(dbPath) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL; PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func isURI(path string) bool {
	return len(path) > 5 && path[:5] == "file:"
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			stage TEXT NOT NULL,
			status TEXT NOT NULL,
			data TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS conversation_log (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			speaker TEXT NOT NULL,
			text TEXT NOT NULL,
			at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status)`,
		`CREATE INDEX IF NOT EXISTS idx_log_session ON conversation_log(session_id, seq)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// Save upserts the session document.
func (s *Store) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	now := time.Now().UTC()
	query := `INSERT INTO sessions (id, stage, status, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			stage = excluded.stage,
			status = excluded.status,
			data = excluded.data,
			updated_at = excluded.updated_at`

	_, err = s.db.ExecContext(ctx, query, sessionID, string(session.Stage), string(session.Status), string(data), now, now)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load retrieves the session document.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM sessions WHERE id = ?`, sessionID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// Delete removes the session row. The conversation log is kept.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// List returns all session IDs in sorted order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	return s.ids(ctx, `SELECT id FROM sessions ORDER BY id`)
}

// ListByStatus returns the IDs of sessions with the given conversation status.
func (s *Store) ListByStatus(ctx context.Context, status domain.ConversationStatus) ([]string, error) {
	return s.ids(ctx, `SELECT id FROM sessions WHERE status = ? ORDER BY id`, string(status))
}

func (s *Store) ids(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Append inserts one log line.
func (s *Store) Append(ctx context.Context, sessionID string, entry domain.LogEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversation_log (session_id, speaker, text, at) VALUES (?, ?, ?, ?)`,
		sessionID, string(entry.Speaker), entry.Text, entry.At.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to append log entry: %w", err)
	}
	return nil
}

// History returns the session's log lines in insertion order.
func (s *Store) History(ctx context.Context, sessionID string) ([]domain.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT speaker, text, at FROM conversation_log WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	defer rows.Close()

	entries := []domain.LogEntry{}
	for rows.Next() {
		var speaker, text, at string
		if err := rows.Scan(&speaker, &text, &at); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("failed to parse log timestamp: %w", err)
		}
		entries = append(entries, domain.LogEntry{Speaker: domain.Speaker(speaker), Text: text, At: ts})
	}
	return entries, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
