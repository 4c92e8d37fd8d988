package verify

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultExecTimeout bounds a manual script run
const DefaultExecTimeout = 30 * time.Second

// ExecutionResult is the outcome of running a script
type ExecutionResult struct {
	Success  bool
	Output   string
	Error    string
	ExitCode int
}

// Executor runs a whole script in a subprocess. The workflow never calls it;
// it backs the explicit `exec` command only.
type Executor struct {
	runner      Runner
	interpreter string
	dir         string
	logger      *zap.Logger
}

// NewExecutor creates an executor that runs scripts with interpreter in dir
func NewExecutor(runner Runner, interpreter, dir string, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{runner: runner, interpreter: interpreter, dir: dir, logger: logger}
}

// Execute writes code to a temporary file and runs it under timeout
func (e *Executor) Execute(ctx context.Context, code string, timeout time.Duration) *ExecutionResult {
	if strings.TrimSpace(code) == "" {
		return &ExecutionResult{Error: "No code provided", ExitCode: -1}
	}
	if timeout <= 0 {
		timeout = DefaultExecTimeout
	}

	f, err := os.CreateTemp("", "postdoc-*.py")
	if err != nil {
		return &ExecutionResult{Error: fmt.Sprintf("Execution error: %v", err), ExitCode: -1}
	}
	tempPath := f.Name()
	defer os.Remove(tempPath)

	if _, err := f.WriteString(code); err != nil {
		f.Close()
		return &ExecutionResult{Error: fmt.Sprintf("Execution error: %v", err), ExitCode: -1}
	}
	if err := f.Close(); err != nil {
		return &ExecutionResult{Error: fmt.Sprintf("Execution error: %v", err), ExitCode: -1}
	}

	e.logger.Info("Executing script", zap.String("path", tempPath), zap.Duration("timeout", timeout))

	res, err := e.runner.Run(ctx, Command{
		Binary:  e.interpreter,
		Args:    []string{tempPath},
		Dir:     e.dir,
		Timeout: timeout,
	})
	if err != nil {
		return &ExecutionResult{Error: fmt.Sprintf("Execution error: %v", err), ExitCode: -1}
	}
	if res.TimedOut {
		return &ExecutionResult{
			Error:    fmt.Sprintf("Code execution timed out after %s", timeout),
			Output:   res.Stdout,
			ExitCode: -1,
		}
	}

	result := &ExecutionResult{
		Success:  res.ExitCode == 0,
		Output:   res.Stdout,
		ExitCode: res.ExitCode,
	}
	if !result.Success {
		result.Error = res.Stderr
	}
	return result
}
