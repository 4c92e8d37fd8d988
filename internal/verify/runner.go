// Package verify implements the code-verification pipeline: fenced code block
// extraction, static import discovery, isolated import probing and syntax
// validation. Nothing in this package runs the generated program as part of the
// workflow; Executor exists only for manual, explicitly requested runs.
package verify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxOutputBytes caps each captured stream of a subprocess
const DefaultMaxOutputBytes = 1 << 20

// Command describes one isolated process invocation
type Command struct {
	Binary  string
	Args    []string
	Stdin   string
	Dir     string
	Timeout time.Duration // 0 means bounded only by ctx
}

// String renders the command for logs
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Binary
	}
	return c.Binary + " " + strings.Join(c.Args, " ")
}

// RunResult captures the observable outcome of a process
type RunResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
	Duration time.Duration
}

// Runner is the process-execution boundary
type Runner interface {
	// Run starts the process and waits for it. A non-zero exit or a timeout is
	// reported through RunResult; the error is reserved for processes that could
	// not be started at all.
	Run(ctx context.Context, cmd Command) (*RunResult, error)
}

// ExecRunner runs commands on the host with os/exec
type ExecRunner struct {
	MaxOutputBytes int
	logger         *zap.Logger
}

// NewExecRunner creates a runner with the default output cap
func NewExecRunner(logger *zap.Logger) *ExecRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecRunner{
		MaxOutputBytes: DefaultMaxOutputBytes,
		logger:         logger,
	}
}

// Run executes cmd, enforcing cmd.Timeout when set
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (*RunResult, error) {
	if cmd.Binary == "" {
		return nil, fmt.Errorf("binary is required")
	}

	runCtx := ctx
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	execCmd := exec.CommandContext(runCtx, cmd.Binary, cmd.Args...)
	execCmd.Dir = cmd.Dir
	execCmd.WaitDelay = time.Second
	if cmd.Stdin != "" {
		execCmd.Stdin = strings.NewReader(cmd.Stdin)
	}

	maxOutput := r.MaxOutputBytes
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutputBytes
	}
	var stdoutBuf, stderrBuf bytes.Buffer
	stdout := &limitedWriter{w: &stdoutBuf, max: maxOutput}
	stderr := &limitedWriter{w: &stderrBuf, max: maxOutput}
	execCmd.Stdout = stdout
	execCmd.Stderr = stderr

	r.logger.Debug("Starting process", zap.String("cmd", cmd.String()), zap.Duration("timeout", cmd.Timeout))

	start := time.Now()
	err := execCmd.Run()
	result := &RunResult{
		ExitCode: 0,
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		Duration: time.Since(start),
	}

	if stdout.truncated || stderr.truncated {
		r.logger.Warn("Process output truncated",
			zap.String("cmd", cmd.Binary),
			zap.Int("discarded_bytes", stdout.discarded+stderr.discarded))
	}

	if err == nil {
		return result, nil
	}

	// Deadline of our own timeout, not the caller's context
	if cmd.Timeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		result.ExitCode = -1
		result.TimedOut = true
		r.logger.Debug("Process timed out", zap.String("cmd", cmd.Binary), zap.Duration("timeout", cmd.Timeout))
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}

	result.ExitCode = -1
	return result, fmt.Errorf("run %s: %w", cmd.Binary, err)
}

// limitedWriter keeps the first max bytes and silently discards the rest
type limitedWriter struct {
	w         io.Writer
	max       int
	written   int
	truncated bool
	discarded int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	remaining := lw.max - lw.written
	if remaining <= 0 {
		lw.truncated = true
		lw.discarded += len(p)
		return len(p), nil
	}
	chunk := p
	if len(chunk) > remaining {
		chunk = p[:remaining]
		lw.truncated = true
		lw.discarded += len(p) - remaining
	}
	n, err := lw.w.Write(chunk)
	lw.written += n
	if err != nil {
		return n, err
	}
	return len(p), nil
}
