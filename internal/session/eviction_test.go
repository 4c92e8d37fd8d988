package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLPolicy(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	entries := []Entry{
		{ID: "fresh", LastAccess: now.Add(-time.Minute)},
		{ID: "stale", LastAccess: now.Add(-2 * time.Hour)},
	}
	assert.Equal(t, []string{"stale"}, TTLPolicy{TTL: time.Hour}.Evict(entries, now))
	assert.Nil(t, TTLPolicy{}.Evict(entries, now))
}

func TestLRUPolicy(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	entries := []Entry{
		{ID: "b", LastAccess: now.Add(-2 * time.Minute)},
		{ID: "c", LastAccess: now},
		{ID: "a", LastAccess: now.Add(-3 * time.Minute)},
	}
	assert.Equal(t, []string{"a"}, LRUPolicy{MaxEntries: 2}.Evict(entries, now))
	assert.Equal(t, []string{"a", "b"}, LRUPolicy{MaxEntries: 1}.Evict(entries, now))
	assert.Nil(t, LRUPolicy{MaxEntries: 5}.Evict(entries, now))
}

func TestPolicyFor(t *testing.T) {
	assert.IsType(t, NoEviction{}, PolicyFor(0, 0))
	assert.IsType(t, TTLPolicy{}, PolicyFor(time.Hour, 0))
	assert.IsType(t, LRUPolicy{}, PolicyFor(0, 10))
	assert.IsType(t, CombinedPolicy{}, PolicyFor(time.Hour, 10))
}

func TestCombinedPolicyDeduplicates(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	entries := []Entry{
		{ID: "old", LastAccess: now.Add(-2 * time.Hour)},
		{ID: "new", LastAccess: now},
	}
	p := CombinedPolicy{TTLPolicy{TTL: time.Hour}, LRUPolicy{MaxEntries: 1}}
	assert.Equal(t, []string{"old"}, p.Evict(entries, now))
}
