package session

import (
	"sort"
	"time"
)

// Entry describes one resident session for eviction decisions
type Entry struct {
	ID         string
	LastAccess time.Time
}

// EvictionPolicy decides which resident sessions to drop. It is consulted
// after every Load and Save with all entries and the current time.
type EvictionPolicy interface {
	Evict(entries []Entry, now time.Time) []string
}

// NoEviction keeps every session for the life of the process
type NoEviction struct{}

// Evict implements EvictionPolicy
func (NoEviction) Evict([]Entry, time.Time) []string { return nil }

// TTLPolicy drops sessions not accessed within TTL
type TTLPolicy struct {
	TTL time.Duration
}

// Evict implements EvictionPolicy
func (p TTLPolicy) Evict(entries []Entry, now time.Time) []string {
	if p.TTL <= 0 {
		return nil
	}
	var out []string
	for _, e := range entries {
		if now.Sub(e.LastAccess) > p.TTL {
			out = append(out, e.ID)
		}
	}
	return out
}

// LRUPolicy keeps the MaxEntries most recently accessed sessions
type LRUPolicy struct {
	MaxEntries int
}

// Evict implements EvictionPolicy
func (p LRUPolicy) Evict(entries []Entry, _ time.Time) []string {
	if p.MaxEntries <= 0 || len(entries) <= p.MaxEntries {
		return nil
	}
	sorted := append([]Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].LastAccess.Before(sorted[j].LastAccess)
	})
	n := len(sorted) - p.MaxEntries
	out := make([]string, 0, n)
	for _, e := range sorted[:n] {
		out = append(out, e.ID)
	}
	return out
}

// CombinedPolicy applies several policies and evicts the union
type CombinedPolicy []EvictionPolicy

// Evict implements EvictionPolicy
func (c CombinedPolicy) Evict(entries []Entry, now time.Time) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range c {
		for _, id := range p.Evict(entries, now) {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// PolicyFor builds the policy implied by a TTL and an entry cap. Zero values
// disable the corresponding limit.
func PolicyFor(ttl time.Duration, maxEntries int) EvictionPolicy {
	var policies CombinedPolicy
	if ttl > 0 {
		policies = append(policies, TTLPolicy{TTL: ttl})
	}
	if maxEntries > 0 {
		policies = append(policies, LRUPolicy{MaxEntries: maxEntries})
	}
	switch len(policies) {
	case 0:
		return NoEviction{}
	case 1:
		return policies[0]
	default:
		return policies
	}
}
