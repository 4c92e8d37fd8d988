package cli

import (
	"errors"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/daydemir/postdoc/internal/config"
	"github.com/daydemir/postdoc/internal/display"
	"github.com/daydemir/postdoc/internal/logging"
	"github.com/daydemir/postdoc/internal/metrics"
	"github.com/daydemir/postdoc/internal/prompts"
	"github.com/daydemir/postdoc/internal/session"
	"github.com/daydemir/postdoc/internal/types"
	"github.com/daydemir/postdoc/internal/utils"
	"github.com/daydemir/postdoc/internal/verify"
	"github.com/daydemir/postdoc/internal/workspace"
)

// app bundles what every command needs
type app struct {
	wsDir   string // "" outside a workspace
	cfg     *config.Config
	logger  *zap.Logger
	display *display.Display
}

// loadApp finds the workspace, loads the config and builds the logger.
// interactive commands log at warn to stderr unless --verbose is set, so log
// lines do not interleave with the conversation.
func loadApp(interactive bool) (*app, error) {
	wsDir, err := workspace.Find()
	if err != nil && !errors.Is(err, workspace.ErrNoWorkspace) {
		return nil, err
	}

	cfg, err := config.Load(wsDir, cfgFile)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if interactive && cfg.Log.File == "" && !verbose {
		level = "warn"
	}
	logger, err := logging.New(logging.Options{Level: level, File: cfg.Log.File, Verbose: verbose})
	if err != nil {
		return nil, err
	}

	return &app{
		wsDir:   wsDir,
		cfg:     cfg,
		logger:  logger,
		display: display.NewWithOptions(os.Stdout, noColor || !isTerminal(os.Stdout)),
	}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

// workDir is where subprocesses run: the workspace, or the cwd outside one
func (a *app) workDir() string {
	if a.wsDir != "" {
		return a.wsDir
	}
	cwd, _ := os.Getwd()
	return cwd
}

// openSessions opens the configured session store
func (a *app) openSessions() (session.Registry, error) {
	return session.Open(session.Options{
		Backend:    a.cfg.Sessions.Backend,
		Path:       a.cfg.Sessions.Path,
		TTL:        a.cfg.Sessions.TTL,
		MaxEntries: a.cfg.Sessions.MaxEntries,
		Logger:     a.logger,
	})
}

// pipeline is the verification side of the workflow
type pipeline struct {
	runner    verify.Runner
	python    string
	extractor *verify.Extractor
	imports   *verify.Verifier
	syntax    verify.SyntaxChecker
	executor  *verify.Executor
}

func (a *app) pipeline(m *metrics.Metrics) (*pipeline, error) {
	runner := verify.NewExecRunner(a.logger)
	python := utils.ResolveBinaryPath(a.cfg.Verify.Python, utils.PythonFallbacks()...)
	available := utils.BinaryAvailable(a.cfg.Verify.Python, utils.PythonFallbacks()...)
	if !available {
		a.logger.Warn("Python interpreter not found, import checks will fail",
			zap.String("python", a.cfg.Verify.Python))
	}

	syntax, err := verify.NewSyntaxChecker(a.cfg.Verify.SyntaxMode, runner, python, available,
		a.cfg.Verify.ImportTimeout, a.logger)
	if err != nil {
		return nil, err
	}

	return &pipeline{
		runner:    runner,
		python:    python,
		extractor: verify.NewExtractor(a.cfg.Verify.Languages...),
		imports: verify.NewVerifier(runner, python,
			verify.WithImportTimeout(a.cfg.Verify.ImportTimeout),
			verify.WithProbeDir(a.workDir()),
			verify.WithVerifierLogger(a.logger),
			verify.WithVerifierMetrics(m)),
		syntax:   syntax,
		executor: verify.NewExecutor(runner, python, a.workDir(), a.logger),
	}, nil
}

// promptBuilder builds the per-phase system prompts
func (a *app) promptBuilder() *prompts.Builder {
	return prompts.NewBuilder(a.wsDir, prompts.ExamplesOptions{
		Enabled:  a.cfg.Examples.Enabled,
		Dir:      a.cfg.Examples.Dir,
		MaxChars: a.cfg.Examples.MaxChars,
	}, a.logger)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func validationDetails(err error) string {
	var verrs *types.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs.Details()
	}
	return ""
}

func requireWorkspace(a *app) error {
	if a.wsDir == "" {
		return workspace.ErrNoWorkspace
	}
	return nil
}
