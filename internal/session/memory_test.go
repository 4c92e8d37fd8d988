package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daydemir/postdoc/internal/types"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemoryRegistryLazyCreate(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry(NoEviction{})

	s, err := r.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", s.ID)
	assert.Equal(t, types.PhasePlanning, s.Phase)
	assert.Empty(t, s.Messages)
	assert.Equal(t, 1, r.Len())
}

func TestMemoryRegistryCopies(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry(NoEviction{})

	s, err := r.Load(ctx, "abc")
	require.NoError(t, err)
	s.Messages = append(s.Messages, types.NewMessage(types.RoleUser, "hi"))

	again, err := r.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, again.Messages, "unsaved changes must not leak into the registry")

	require.NoError(t, r.Save(ctx, s))
	s.Messages[0].Content = "mutated"

	again, err = r.Load(ctx, "abc")
	require.NoError(t, err)
	require.Len(t, again.Messages, 1)
	assert.Equal(t, "hi", again.Messages[0].Content)
}

func TestMemoryRegistryTTLEviction(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	r := NewMemoryRegistry(TTLPolicy{TTL: time.Hour}, WithClock(clock.Now))

	_, err := r.Load(ctx, "old")
	require.NoError(t, err)
	clock.Advance(2 * time.Hour)
	_, err = r.Load(ctx, "new")
	require.NoError(t, err)

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "new", list[0].ID)
}

func TestMemoryRegistryLRUEviction(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	r := NewMemoryRegistry(LRUPolicy{MaxEntries: 2}, WithClock(clock.Now))

	for _, id := range []string{"a", "b"} {
		_, err := r.Load(ctx, id)
		require.NoError(t, err)
		clock.Advance(time.Second)
	}
	// Touch a so b becomes least recently used
	_, err := r.Load(ctx, "a")
	require.NoError(t, err)
	clock.Advance(time.Second)
	_, err = r.Load(ctx, "c")
	require.NoError(t, err)

	list, err := r.List(ctx)
	require.NoError(t, err)
	ids := []string{}
	for _, s := range list {
		ids = append(ids, s.ID)
	}
	assert.ElementsMatch(t, []string{"a", "c"}, ids)
}

func TestMemoryRegistryDelete(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry(nil)
	_, err := r.Load(ctx, "x")
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, "x"))
	assert.True(t, errors.Is(r.Delete(ctx, "x"), ErrNotFound))
}

func TestMemoryRegistryRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry(nil)

	_, err := r.Load(ctx, "../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidID)

	bad := types.NewSessionState("ok")
	bad.Phase = "bogus"
	assert.Error(t, r.Save(ctx, bad))
	assert.Error(t, r.Save(ctx, nil))
}
