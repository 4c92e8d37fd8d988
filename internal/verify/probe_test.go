package verify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifierCheck(t *testing.T) {
	runner := newFakeRunner()
	runner.missing("nonexistent_pkg_xyz")
	runner.results["broken"] = &RunResult{
		ExitCode: 1,
		Stderr:   "Traceback (most recent call last):\nImportError: libfoo.so: cannot open shared object file\n",
	}
	runner.results["slow"] = &RunResult{ExitCode: -1, TimedOut: true}

	v := NewVerifier(runner, "python3", WithImportTimeout(5*time.Second))
	res := v.Check(context.Background(), []string{"os", "nonexistent_pkg_xyz", "broken", "slow"})

	assert.False(t, res.Success)
	assert.Equal(t, []string{"os", "nonexistent_pkg_xyz", "broken", "slow"}, res.Modules)
	assert.Equal(t, []string{"nonexistent_pkg_xyz"}, res.Missing)
	require.Len(t, res.Failed, 2)
	assert.Contains(t, res.Failed["broken"], "ImportError")
	assert.Equal(t, "Import timed out after 5s", res.Failed["slow"])

	require.Len(t, runner.calls, 4)
	assert.Equal(t, "python3", runner.calls[0].Binary)
	assert.Equal(t, []string{"-c", "import os"}, runner.calls[0].Args)
	assert.Equal(t, 5*time.Second, runner.calls[0].Timeout)
}

func TestVerifierAllAvailable(t *testing.T) {
	v := NewVerifier(newFakeRunner(), "python3")
	res := v.Check(context.Background(), []string{"os", "sys"})

	assert.True(t, res.Success)
	assert.Empty(t, res.Missing)
	assert.Empty(t, res.Failed)
}

func TestVerifierNoModules(t *testing.T) {
	v := NewVerifier(newFakeRunner(), "python3")
	res := v.Check(context.Background(), nil)

	assert.True(t, res.Success)
	assert.NotNil(t, res.Missing)
	assert.NotNil(t, res.Failed)
}

func TestVerifierInvalidNameNotProbed(t *testing.T) {
	runner := newFakeRunner()
	v := NewVerifier(runner, "python3")
	res := v.Check(context.Background(), []string{"os;rm"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Failed["os;rm"], "invalid module name")
	assert.Empty(t, runner.calls)
}

func TestVerifierRunnerError(t *testing.T) {
	runner := newFakeRunner()
	runner.err = errors.New("exec: \"python3\": executable file not found in $PATH")
	v := NewVerifier(runner, "python3")
	res := v.Check(context.Background(), []string{"numpy"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Failed["numpy"], "executable file not found")
}

func TestVerifierTruncatesLongErrors(t *testing.T) {
	runner := newFakeRunner()
	runner.results["noisy"] = &RunResult{ExitCode: 1, Stderr: strings.Repeat("e", 5000)}
	v := NewVerifier(runner, "python3")
	res := v.Check(context.Background(), []string{"noisy"})

	assert.Len(t, res.Failed["noisy"], maxImportErrorChars)
}

func TestIsModuleNotFound(t *testing.T) {
	assert.True(t, IsModuleNotFound("ModuleNotFoundError: No module named 'x'"))
	assert.True(t, IsModuleNotFound("ImportError: No module named x"))
	assert.False(t, IsModuleNotFound("ImportError: cannot import name 'y'"))
}
