package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/daydemir/postdoc/internal/types"
)

// SQLiteRegistry stores sessions in a single SQLite table. The full state is
// kept as JSON; phase and counters are denormalized for listing.
type SQLiteRegistry struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteRegistry opens (or creates) the database at dbPath
func NewSQLiteRegistry(dbPath string, logger *zap.Logger) (*SQLiteRegistry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	if dbPath == ":memory:" {
		dsn = dbPath
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer; SQLite serializes writes anyway
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &SQLiteRegistry{db: db, logger: logger}
	if err := r.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return r, nil
}

func (r *SQLiteRegistry) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		phase TEXT NOT NULL,
		iteration_count INTEGER NOT NULL DEFAULT 0,
		state_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
	`
	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Load returns the stored session or a fresh one
func (r *SQLiteRegistry) Load(ctx context.Context, id string) (*types.SessionState, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT state_json FROM sessions WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return types.NewSessionState(id), nil
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}

	var state types.SessionState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	if err := state.Validate(); err != nil {
		return nil, fmt.Errorf("session validation failed: %w", err)
	}
	if state.Messages == nil {
		state.Messages = []types.Message{}
	}
	return &state, nil
}

// Save upserts the session row
func (r *SQLiteRegistry) Save(ctx context.Context, state *types.SessionState) error {
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
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	query := `
	INSERT INTO sessions (id, phase, iteration_count, state_json, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		phase = excluded.phase,
		iteration_count = excluded.iteration_count,
		state_json = excluded.state_json,
		updated_at = excluded.updated_at`

	_, err = r.db.ExecContext(ctx, query,
		stored.ID, string(stored.Phase), stored.IterationCount, string(data),
		stored.CreatedAt.UnixMilli(), stored.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// Delete removes a session row
func (r *SQLiteRegistry) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// List returns summaries, newest first
func (r *SQLiteRegistry) List(ctx context.Context) ([]Summary, error) {
	query := `
		SELECT id, phase, iteration_count, json_array_length(state_json, '$.messages'),
		       created_at, updated_at
		FROM sessions ORDER BY updated_at DESC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var s Summary
		var phase string
		var messages sql.NullInt64
		var createdAt, updatedAt int64
		if err := rows.Scan(&s.ID, &phase, &s.IterationCount, &messages, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		s.Phase = types.Phase(phase)
		s.Messages = int(messages.Int64)
		s.CreatedAt = time.UnixMilli(createdAt)
		s.UpdatedAt = time.UnixMilli(updatedAt)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

// Prune deletes sessions not updated within olderThan
func (r *SQLiteRegistry) Prune(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan).UnixMilli()
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	if rows > 0 {
		r.logger.Info("Pruned idle sessions", zap.Int64("count", rows))
	}
	return int(rows), nil
}

// Close closes the database
func (r *SQLiteRegistry) Close() error {
	return r.db.Close()
}
