package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/daydemir/postdoc/internal/types"
)

// FileRegistry stores each session as <dir>/<id>.json
type FileRegistry struct {
	dir    string
	mu     sync.Mutex
	logger *zap.Logger
}

// NewFileRegistry creates the directory if needed
func NewFileRegistry(dir string, logger *zap.Logger) (*FileRegistry, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create session directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileRegistry{dir: dir, logger: logger}, nil
}

func (r *FileRegistry) path(id string) string {
	return filepath.Join(r.dir, id+".json")
}

// Load reads a session file, or returns a fresh state when none exists
func (r *FileRegistry) Load(_ context.Context, id string) (*types.SessionState, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.read(r.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return types.NewSessionState(id), nil
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (r *FileRegistry) read(path string) (*types.SessionState, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var state types.SessionState
	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&state); err != nil {
		return nil, fmt.Errorf("cannot decode %s: %w", filepath.Base(path), err)
	}
	if err := state.Validate(); err != nil {
		return nil, fmt.Errorf("session validation failed: %w", err)
	}
	if state.Messages == nil {
		state.Messages = []types.Message{}
	}
	return &state, nil
}

// Save writes the session atomically: temp file, then rename
func (r *FileRegistry) Save(_ context.Context, state *types.SessionState) error {
	if state == nil {
		return fmt.Errorf("cannot save nil session")
	}
	if err := ValidateID(state.ID); err != nil {
		return err
	}
	if err := state.Validate(); err != nil {
		return fmt.Errorf("cannot save invalid session: %w", err)
	}

	stored := state.Clone()
	stored.UpdatedAt = time.Now()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = stored.UpdatedAt
	}
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal session: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	path := r.path(state.ID)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("cannot write temp session file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("cannot rename temp session file: %w", err)
	}
	return nil
}

// Delete removes the session file
func (r *FileRegistry) Delete(_ context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := os.Remove(r.path(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("cannot delete session: %w", err)
	}
	return nil
}

// List summarizes every readable session file. Corrupt files are logged and skipped.
func (r *FileRegistry) List(_ context.Context) ([]Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	states, err := r.readAll()
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(states))
	for _, s := range states {
		out = append(out, summarize(s))
	}
	sortSummaries(out)
	return out, nil
}

func (r *FileRegistry) readAll() ([]*types.SessionState, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read session directory: %w", err)
	}
	var states []*types.SessionState
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		s, err := r.read(filepath.Join(r.dir, entry.Name()))
		if err != nil {
			r.logger.Warn("Skipping unreadable session file", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		states = append(states, s)
	}
	return states, nil
}

// Prune deletes sessions not updated within olderThan
func (r *FileRegistry) Prune(_ context.Context, olderThan time.Duration) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	states, err := r.readAll()
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, s := range states {
		if s.UpdatedAt.Before(cutoff) {
			if err := os.Remove(r.path(s.ID)); err != nil && !errors.Is(err, os.ErrNotExist) {
				return removed, fmt.Errorf("cannot delete session %s: %w", s.ID, err)
			}
			removed++
		}
	}
	return removed, nil
}

// Close implements Registry
func (r *FileRegistry) Close() error { return nil }
