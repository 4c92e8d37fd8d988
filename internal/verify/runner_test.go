package verify

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireBash(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash not available")
	}
}

func TestExecRunnerSuccess(t *testing.T) {
	requireBash(t)
	r := NewExecRunner(nil)
	res, err := r.Run(context.Background(), Command{Binary: "bash", Args: []string{"-c", "echo hello; echo oops >&2"}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello\n", res.Stdout)
	assert.Equal(t, "oops\n", res.Stderr)
	assert.False(t, res.TimedOut)
}

func TestExecRunnerExitCode(t *testing.T) {
	requireBash(t)
	r := NewExecRunner(nil)
	res, err := r.Run(context.Background(), Command{Binary: "bash", Args: []string{"-c", "exit 3"}})
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
}

func TestExecRunnerStdin(t *testing.T) {
	requireBash(t)
	r := NewExecRunner(nil)
	res, err := r.Run(context.Background(), Command{Binary: "bash", Args: []string{"-c", "cat"}, Stdin: "piped"})
	require.NoError(t, err)
	assert.Equal(t, "piped", res.Stdout)
}

func TestExecRunnerTimeout(t *testing.T) {
	requireBash(t)
	r := NewExecRunner(nil)
	start := time.Now()
	res, err := r.Run(context.Background(), Command{Binary: "bash", Args: []string{"-c", "sleep 5"}, Timeout: 100 * time.Millisecond})
	require.NoError(t, err)
	assert.True(t, res.TimedOut)
	assert.Equal(t, -1, res.ExitCode)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestExecRunnerMissingBinary(t *testing.T) {
	r := NewExecRunner(nil)
	_, err := r.Run(context.Background(), Command{Binary: "definitely-not-a-real-binary-xyz"})
	assert.Error(t, err)

	_, err = r.Run(context.Background(), Command{})
	assert.Error(t, err)
}

func TestExecRunnerCapsOutput(t *testing.T) {
	requireBash(t)
	r := NewExecRunner(nil)
	r.MaxOutputBytes = 10
	res, err := r.Run(context.Background(), Command{Binary: "bash", Args: []string{"-c", "printf '%0100d' 0"}})
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("0", 10), res.Stdout)
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "python3 -c import os", Command{Binary: "python3", Args: []string{"-c", "import os"}}.String())
	assert.Equal(t, "python3", Command{Binary: "python3"}.String())
}
