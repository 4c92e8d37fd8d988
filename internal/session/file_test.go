package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daydemir/postdoc/internal/types"
)

func TestFileRegistryRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	r, err := NewFileRegistry(dir, nil)
	require.NoError(t, err)

	s, err := r.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, types.PhasePlanning, s.Phase)

	s.Phase = types.PhaseImportCheck
	s.IterationCount = 3
	s.GeneratedCode = "import numpy"
	s.Messages = append(s.Messages, types.NewMessage(types.RoleUser, "plot a histogram"))
	s.ImportResults = &types.ImportResults{
		Modules: []string{"numpy"},
		Missing: []string{"numpy"},
		Failed:  map[string]string{},
	}
	require.NoError(t, r.Save(ctx, s))

	_, err = os.Stat(filepath.Join(dir, "sess-1.json"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "sess-1.json.tmp"))
	assert.True(t, os.IsNotExist(err))

	loaded, err := r.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, types.PhaseImportCheck, loaded.Phase)
	assert.Equal(t, 3, loaded.IterationCount)
	assert.Equal(t, "import numpy", loaded.GeneratedCode)
	require.Len(t, loaded.Messages, 1)
	assert.Equal(t, []string{"numpy"}, loaded.ImportResults.Missing)

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].Messages)
}

func TestFileRegistryRejectsUnsafeIDs(t *testing.T) {
	ctx := context.Background()
	r, err := NewFileRegistry(t.TempDir(), nil)
	require.NoError(t, err)

	for _, id := range []string{"", "..", "../x", "a/b", ".hidden", "a b"} {
		_, err := r.Load(ctx, id)
		assert.ErrorIs(t, err, ErrInvalidID, "id %q", id)
	}
}

func TestFileRegistryStrictDecode(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	r, err := NewFileRegistry(dir, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"id":"bad","surprise":1}`), 0644))
	_, err = r.Load(ctx, "bad")
	assert.Error(t, err)

	// Corrupt files are skipped by List
	list, err := r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFileRegistryDeleteAndPrune(t *testing.T) {
	ctx := context.Background()
	r, err := NewFileRegistry(t.TempDir(), nil)
	require.NoError(t, err)

	require.NoError(t, r.Save(ctx, types.NewSessionState("a")))
	require.NoError(t, r.Save(ctx, types.NewSessionState("b")))

	require.NoError(t, r.Delete(ctx, "a"))
	assert.ErrorIs(t, r.Delete(ctx, "a"), ErrNotFound)

	n, err := r.Prune(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = r.Prune(ctx, -time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
