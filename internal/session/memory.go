package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/daydemir/postdoc/internal/types"
)

type memoryEntry struct {
	state      *types.SessionState
	lastAccess time.Time
}

// MemoryRegistry keeps sessions in process memory. States are copied on the
// way in and out so callers never share storage with the registry.
type MemoryRegistry struct {
	mu       sync.Mutex
	sessions map[string]*memoryEntry
	policy   EvictionPolicy
	now      func() time.Time
}

// MemoryOption configures a MemoryRegistry
type MemoryOption func(*MemoryRegistry)

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) MemoryOption {
	return func(r *MemoryRegistry) { r.now = now }
}

// NewMemoryRegistry creates an empty registry governed by policy
func NewMemoryRegistry(policy EvictionPolicy, opts ...MemoryOption) *MemoryRegistry {
	if policy == nil {
		policy = NoEviction{}
	}
	r := &MemoryRegistry{
		sessions: make(map[string]*memoryEntry),
		policy:   policy,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load returns a copy of the session, creating it on first use
func (r *MemoryRegistry) Load(_ context.Context, id string) (*types.SessionState, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	e, ok := r.sessions[id]
	if !ok {
		s := types.NewSessionState(id)
		s.CreatedAt, s.UpdatedAt = now, now
		e = &memoryEntry{state: s}
		r.sessions[id] = e
	}
	e.lastAccess = now
	out := e.state.Clone()
	r.evictLocked(now, id)
	return out, nil
}

// Save stores a copy of state
func (r *MemoryRegistry) Save(_ context.Context, state *types.SessionState) error {
	if state == nil {
		return fmt.Errorf("cannot save nil session")
	}
	if err := ValidateID(state.ID); err != nil {
		return err
	}
	if err := state.Validate(); err != nil {
		return fmt.Errorf("cannot save invalid session: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	stored := state.Clone()
	stored.UpdatedAt = now
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	r.sessions[state.ID] = &memoryEntry{state: stored, lastAccess: now}
	r.evictLocked(now, state.ID)
	return nil
}

// Delete removes a session
func (r *MemoryRegistry) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(r.sessions, id)
	return nil
}

// List returns summaries of resident sessions, newest first
func (r *MemoryRegistry) List(_ context.Context) ([]Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Summary, 0, len(r.sessions))
	for _, e := range r.sessions {
		out = append(out, summarize(e.state))
	}
	sortSummaries(out)
	return out, nil
}

// Len reports how many sessions are resident
func (r *MemoryRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close implements Registry
func (r *MemoryRegistry) Close() error { return nil }

// evictLocked applies the policy. The session just touched is never evicted.
func (r *MemoryRegistry) evictLocked(now time.Time, keep string) {
	entries := make([]Entry, 0, len(r.sessions))
	for id, e := range r.sessions {
		entries = append(entries, Entry{ID: id, LastAccess: e.lastAccess})
	}
	for _, id := range r.policy.Evict(entries, now) {
		if id != keep {
			delete(r.sessions, id)
		}
	}
}
