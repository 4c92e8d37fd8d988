package verify

import (
	"context"
	"strings"
	"sync"
)

// fakeRunner answers import probes from a table keyed by module name
type fakeRunner struct {
	mu      sync.Mutex
	results map[string]*RunResult
	err     error
	calls   []Command
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{results: map[string]*RunResult{}}
}

func (f *fakeRunner) Run(_ context.Context, cmd Command) (*RunResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cmd)
	if f.err != nil {
		return nil, f.err
	}
	key := ""
	if len(cmd.Args) == 2 && strings.HasPrefix(cmd.Args[1], "import ") {
		key = strings.TrimPrefix(cmd.Args[1], "import ")
	}
	if res, ok := f.results[key]; ok {
		return res, nil
	}
	return &RunResult{ExitCode: 0}, nil
}

func (f *fakeRunner) missing(mod string) {
	f.results[mod] = &RunResult{
		ExitCode: 1,
		Stderr:   "Traceback (most recent call last):\n  File \"<string>\", line 1, in <module>\nModuleNotFoundError: No module named '" + mod + "'\n",
	}
}
