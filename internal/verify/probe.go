package verify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/daydemir/postdoc/internal/metrics"
	"github.com/daydemir/postdoc/internal/types"
)

// DefaultImportTimeout bounds a single import probe
const DefaultImportTimeout = 10 * time.Second

// maxImportErrorChars is how much of a failed probe's stderr is kept
const maxImportErrorChars = 1000

// Verifier checks module availability by importing each module in its own
// interpreter process. Probes run sequentially so one module's crash cannot
// affect the check of another.
type Verifier struct {
	runner      Runner
	interpreter string
	timeout     time.Duration
	dir         string
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// VerifierOption configures a Verifier
type VerifierOption func(*Verifier)

// WithImportTimeout overrides DefaultImportTimeout
func WithImportTimeout(d time.Duration) VerifierOption {
	return func(v *Verifier) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// WithProbeDir sets the working directory probes run in
func WithProbeDir(dir string) VerifierOption {
	return func(v *Verifier) { v.dir = dir }
}

// WithVerifierLogger sets the logger
func WithVerifierLogger(logger *zap.Logger) VerifierOption {
	return func(v *Verifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithVerifierMetrics sets the metrics sink
func WithVerifierMetrics(m *metrics.Metrics) VerifierOption {
	return func(v *Verifier) { v.metrics = m }
}

// NewVerifier creates a verifier that probes with the given interpreter binary
func NewVerifier(runner Runner, interpreter string, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		runner:      runner,
		interpreter: interpreter,
		timeout:     DefaultImportTimeout,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Check probes every module and aggregates the outcome. It never returns an
// error: runner failures and timeouts are folded into Failed.
func (v *Verifier) Check(ctx context.Context, modules []string) *types.ImportResults {
	results := &types.ImportResults{
		Modules: append([]string{}, modules...),
		Missing: []string{},
		Failed:  map[string]string{},
	}

	for _, mod := range modules {
		start := time.Now()
		outcome, detail := v.probe(ctx, mod)
		v.metrics.ImportProbe(outcome, time.Since(start))

		switch outcome {
		case probeMissing:
			results.Missing = append(results.Missing, mod)
		case probeFailed, probeTimeout:
			results.Failed[mod] = detail
		}
		v.logger.Debug("Import probe finished",
			zap.String("module", mod),
			zap.String("result", outcome),
			zap.Duration("elapsed", time.Since(start)))
	}

	results.Success = len(results.Missing) == 0 && len(results.Failed) == 0
	return results
}

const (
	probeOK      = "ok"
	probeMissing = "missing"
	probeFailed  = "failed"
	probeTimeout = "timeout"
)

// probe imports one module and classifies the outcome
func (v *Verifier) probe(ctx context.Context, mod string) (string, string) {
	if !ValidModuleName(mod) {
		return probeFailed, fmt.Sprintf("invalid module name %q", mod)
	}

	res, err := v.runner.Run(ctx, Command{
		Binary:  v.interpreter,
		Args:    []string{"-c", "import " + mod},
		Dir:     v.dir,
		Timeout: v.timeout,
	})
	if err != nil {
		return probeFailed, err.Error()
	}
	if res.TimedOut {
		return probeTimeout, fmt.Sprintf("Import timed out after %s", v.timeout)
	}
	if res.ExitCode == 0 {
		return probeOK, ""
	}

	stderr := strings.TrimSpace(res.Stderr)
	if IsModuleNotFound(stderr) {
		return probeMissing, ""
	}
	return probeFailed, truncateRunes(stderr, maxImportErrorChars)
}

// IsModuleNotFound reports whether interpreter stderr describes a missing module
func IsModuleNotFound(stderr string) bool {
	return strings.Contains(stderr, "ModuleNotFoundError") || strings.Contains(stderr, "No module named")
}

// truncateRunes keeps at most n runes of s
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
