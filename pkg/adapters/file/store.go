// Package file stores sessions as JSON documents and conversation logs as
// JSON lines on the local filesystem.
package file

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/lendflow/pkg/domain"
)

// Store implements ports.SessionStore and ports.ConversationLog using the
// local filesystem.
type Store struct {
	BasePath string

	// serialises appends; sessions are already serialised by the session manager
	logMu sync.Mutex
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".lendflow/sessions".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".lendflow", "sessions")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) sessionPath(sessionID string) string {
	return filepath.Join(s.BasePath, sessionID+".json")
}

func (s *Store) logPath(sessionID string) string {
	return filepath.Join(s.BasePath, sessionID+".log.jsonl")
}

func validID(sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}
	if strings.ContainsAny(sessionID, `/\`) || sessionID == "." || sessionID == ".." {
		return fmt.Errorf("invalid sessionID %q", sessionID)
	}
	return nil
}

// Save persists the session to a JSON file atomically.
// It writes to a temporary file, syncs it, then renames it over the destination.
func (s *Store) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	if err := validID(sessionID); err != nil {
		return err
	}
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure session directory: %w", err)
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// Same directory keeps the rename on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+sessionID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	destPath := s.sessionPath(sessionID)
	if _, err := os.Stat(destPath); err == nil {
		// Windows rename fails when the destination exists.
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing session file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to session: %w", err)
	}
	return nil
}

// Load retrieves the session from its JSON file.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	if err := validID(sessionID); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.sessionPath(sessionID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// Delete removes the session file. The conversation log is kept.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := validID(sessionID); err != nil {
		return err
	}

	err := os.Remove(s.sessionPath(sessionID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// List returns all stored session IDs in sorted order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		sessions = append(sessions, strings.TrimSuffix(name, ".json"))
	}
	slices.Sort(sessions)
	return sessions, nil
}

// Append writes one JSON line to the session's log file.
func (s *Store) Append(ctx context.Context, sessionID string, entry domain.LogEntry) error {
	if err := validID(sessionID); err != nil {
		return err
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal log entry: %w", err)
	}

	s.logMu.Lock()
	defer s.logMu.Unlock()

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure session directory: %w", err)
	}
	f, err := os.OpenFile(s.logPath(sessionID), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append log entry: %w", err)
	}
	return f.Sync()
}

// History reads the session's log file back in order.
func (s *Store) History(ctx context.Context, sessionID string) ([]domain.LogEntry, error) {
	if err := validID(sessionID); err != nil {
		return nil, err
	}

	s.logMu.Lock()
	defer s.logMu.Unlock()

	f, err := os.Open(s.logPath(sessionID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.LogEntry{}, nil
		}
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	entries := []domain.LogEntry{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e domain.LogEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("failed to parse log line: %w", err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}
	return entries, nil
}
