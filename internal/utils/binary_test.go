package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveBinaryPathAbsolute(t *testing.T) {
	assert.Equal(t, "/opt/bin/python3", ResolveBinaryPath("/opt/bin/python3"))
}

func TestResolveBinaryPathFallback(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "fake-interpreter")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0755))

	assert.Equal(t, bin, ResolveBinaryPath("postdoc-no-such-binary", "/nonexistent/x", bin))
	assert.True(t, BinaryAvailable("postdoc-no-such-binary", bin))
}

func TestResolveBinaryPathUnresolved(t *testing.T) {
	assert.Equal(t, "postdoc-no-such-binary", ResolveBinaryPath("postdoc-no-such-binary"))
	assert.False(t, BinaryAvailable("postdoc-no-such-binary"))
}

func TestBinaryNotFoundError(t *testing.T) {
	err := BinaryNotFoundError("claude", "claude.binary")
	assert.Contains(t, err.Error(), "claude.binary: /path/to/claude")
}
