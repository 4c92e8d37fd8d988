// Package session stores per-session workflow state behind a Registry.
// Three backends exist: an in-process map with pluggable eviction, one JSON
// file per session, and a SQLite table.
package session

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/daydemir/postdoc/internal/types"
)

var (
	// ErrInvalidID is returned for ids that are empty or not filesystem-safe
	ErrInvalidID = errors.New("invalid session id")
	// ErrNotFound is returned when deleting or showing an unknown session
	ErrNotFound = errors.New("session not found")
)

// Registry owns session state. Load creates a fresh planning-phase state when
// the id is unknown; callers get a copy and must Save it back.
type Registry interface {
	Load(ctx context.Context, id string) (*types.SessionState, error)
	Save(ctx context.Context, state *types.SessionState) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Summary, error)
	Close() error
}

// Pruner is implemented by registries that can drop idle sessions on demand
type Pruner interface {
	Prune(ctx context.Context, olderThan time.Duration) (int, error)
}

// Summary is the listing view of a stored session
type Summary struct {
	ID             string      `json:"id" yaml:"id"`
	Phase          types.Phase `json:"phase" yaml:"phase"`
	IterationCount int         `json:"iteration_count" yaml:"iteration_count"`
	Messages       int         `json:"messages" yaml:"messages"`
	CreatedAt      time.Time   `json:"created_at" yaml:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" yaml:"updated_at"`
}

func summarize(s *types.SessionState) Summary {
	return Summary{
		ID:             s.ID,
		Phase:          s.Phase,
		IterationCount: s.IterationCount,
		Messages:       len(s.Messages),
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

// sortSummaries orders most recently updated first
func sortSummaries(list []Summary) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].UpdatedAt.Equal(list[j].UpdatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].UpdatedAt.After(list[j].UpdatedAt)
	})
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidateID checks that id is usable as a key and as a file name
func ValidateID(id string) error {
	if !idPattern.MatchString(id) || id == "." || id == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// NewID returns a fresh random session id
func NewID() string {
	return uuid.NewString()
}

// Options selects and configures a backend
type Options struct {
	Backend    string        // memory, file or sqlite
	Path       string        // directory (file) or database path (sqlite)
	TTL        time.Duration // memory: evict sessions idle longer than this
	MaxEntries int           // memory: keep at most this many sessions
	Logger     *zap.Logger
}

// Open creates the registry selected by opts.Backend
func Open(opts Options) (Registry, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	switch opts.Backend {
	case "", "memory":
		return NewMemoryRegistry(PolicyFor(opts.TTL, opts.MaxEntries)), nil
	case "file":
		if opts.Path == "" {
			return nil, fmt.Errorf("sessions.path is required for the file backend")
		}
		return NewFileRegistry(opts.Path, logger)
	case "sqlite":
		if opts.Path == "" {
			return nil, fmt.Errorf("sessions.path is required for the sqlite backend")
		}
		return NewSQLiteRegistry(opts.Path, logger)
	default:
		return nil, fmt.Errorf("unknown session backend %q (valid: memory, file, sqlite)", opts.Backend)
	}
}
