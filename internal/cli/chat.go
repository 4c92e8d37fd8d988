package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/daydemir/postdoc/internal/llm"
	"github.com/daydemir/postdoc/internal/metrics"
	"github.com/daydemir/postdoc/internal/session"
	"github.com/daydemir/postdoc/internal/types"
	"github.com/daydemir/postdoc/internal/workflow"
)

var (
	chatSession     string
	chatModel       string
	chatBackend     string
	chatMetricsAddr string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive session",
	Long: `Start an interactive session. Each line you type is one turn.

Commands inside the session:
  /reset   Go back to planning, keeping the conversation
  /state   Show the session state
  exit     Leave (quit works too)

Sessions persist with the configured store, so 'postdoc chat --session <id>'
resumes where you left off.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(true)
		if err != nil {
			return err
		}
		defer a.close()
		return runChat(cmd, a)
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "session id to resume (default: new session)")
	chatCmd.Flags().StringVar(&chatModel, "model", "", "override llm.model")
	chatCmd.Flags().StringVar(&chatBackend, "backend", "", "override llm.backend (openai, claude)")
	chatCmd.Flags().StringVar(&chatMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, a *app) error {
	d := a.display
	cfg := a.cfg

	if chatBackend != "" {
		cfg.LLM.Backend = chatBackend
	}
	if chatModel != "" {
		cfg.LLM.Model = chatModel
	}

	id := chatSession
	if id == "" {
		id = session.NewID()
	}
	if err := session.ValidateID(id); err != nil {
		return err
	}

	// Set up signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Println("\nReceived interrupt, leaving session...")
			cancel()
		case <-ctx.Done():
		}
	}()

	var m *metrics.Metrics
	if chatMetricsAddr != "" {
		reg := prometheus.NewRegistry()
		m = metrics.New(reg)
		stop := serveMetrics(chatMetricsAddr, reg, a.logger)
		defer stop()
		d.Info("Metrics", "http://"+displayAddr(chatMetricsAddr)+"/metrics")
	}

	registry, err := a.openSessions()
	if err != nil {
		return err
	}
	defer registry.Close()

	model, err := llm.New(llm.Options{
		Backend:          cfg.LLM.Backend,
		Model:            cfg.LLM.Model,
		Temperature:      cfg.LLM.Temperature,
		BaseURL:          cfg.LLM.BaseURL,
		APIKey:           cfg.APIKey(),
		StructuredOutput: cfg.LLM.StructuredOutput,
		ClaudeBinary:     cfg.Claude.Binary,
		WorkDir:          a.workDir(),
		Logger:           a.logger,
	})
	if err != nil {
		return err
	}

	p, err := a.pipeline(m)
	if err != nil {
		return err
	}

	ctrl, err := workflow.NewController(workflow.Deps{
		Registry:  registry,
		Model:     model,
		Prompts:   a.promptBuilder(),
		Extractor: p.extractor,
		Imports:   p.imports,
		Syntax:    p.syntax,
		Logger:    a.logger,
		Metrics:   m,
	}, workflow.Options{
		PlanningContext: cfg.Workflow.PlanningContext,
		CodegenContext:  cfg.Workflow.CodegenContext,
		MaxIterations:   cfg.Workflow.MaxIterations,
	})
	if err != nil {
		return err
	}

	state, err := ctrl.State(ctx, id)
	if err != nil {
		return err
	}
	d.Banner(
		fmt.Sprintf("Session: %s", id),
		fmt.Sprintf("Model:   %s (%s)", model.Name(), cfg.LLM.Backend),
		fmt.Sprintf("Phase:   %s", state.Phase),
		"Type exit to leave, /reset to start planning again",
	)

	interactive := isTerminal(os.Stdin)
	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	phase := state.Phase
	for {
		if ctx.Err() != nil {
			return nil
		}
		if interactive {
			d.Prompt(phase)
		}
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			d.Info("Session", id)
			return nil
		case "/reset":
			st, err := ctrl.Reset(ctx, id)
			if err != nil {
				d.Error(err.Error())
				continue
			}
			phase = st.Phase
			d.Resume("Back to planning; the conversation is kept")
			continue
		case "/state":
			st, err := ctrl.State(ctx, id)
			if err != nil {
				d.Error(err.Error())
				continue
			}
			printStateYAML(st)
			continue
		}

		if phase == types.PhasePlanning || phase == types.PhaseCodeGeneration {
			d.Thinking(model.Name())
		}
		start := time.Now()
		res, err := ctrl.Step(ctx, id, line)
		if err != nil {
			if errors.Is(err, workflow.ErrIterationLimit) {
				d.Warning(err.Error())
				d.Info("Hint", "type /reset to start planning again")
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			d.Error(err.Error())
			continue
		}

		renderStep(a, phase, res)
		if verbose {
			d.Duration(time.Since(start))
		}
		phase = res.State.Phase
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

// renderStep prints the messages of one turn. Each handler appends exactly
// one message, so assistant messages pair up with res.Handlers in order.
func renderStep(a *app, from types.Phase, res *workflow.StepResult) {
	d := a.display

	if len(res.Handlers) == 0 && res.State.Phase == types.PhaseComplete {
		d.Success("This session is complete. Type /reset to plan a new task.")
		return
	}

	h := 0
	for _, msg := range res.NewMessages {
		if msg.Role != types.RoleAssistant {
			continue
		}
		handler := ""
		if h < len(res.Handlers) {
			handler = res.Handlers[h]
		}
		h++

		switch types.Phase(handler) {
		case types.PhaseImportCheck, types.PhaseTesting:
			d.Handler(handler, msg.Content)
		default:
			d.Assistant(msg.Content)
		}
	}

	d.Transition(from, res.State.Phase, res.State.IterationCount)

	if res.State.Phase == types.PhaseComplete {
		d.Success("Script verified")
		d.Code(res.State.GeneratedCode)
	}
}

// stateView is the /state and `sessions show` rendering of a session
type stateView struct {
	ID             string               `yaml:"id" json:"id"`
	Phase          types.Phase          `yaml:"phase" json:"phase"`
	IterationCount int                  `yaml:"iteration_count" json:"iteration_count"`
	Messages       int                  `yaml:"messages" json:"messages"`
	Requirements   *types.Requirements  `yaml:"requirements,omitempty" json:"requirements,omitempty"`
	GeneratedCode  string               `yaml:"generated_code,omitempty" json:"generated_code,omitempty"`
	ImportResults  *types.ImportResults `yaml:"import_results,omitempty" json:"import_results,omitempty"`
	TestResults    *types.TestResults   `yaml:"test_results,omitempty" json:"test_results,omitempty"`
	UpdatedAt      time.Time            `yaml:"updated_at" json:"updated_at"`
}

func newStateView(s *types.SessionState) stateView {
	return stateView{
		ID:             s.ID,
		Phase:          s.Phase,
		IterationCount: s.IterationCount,
		Messages:       len(s.Messages),
		Requirements:   s.Requirements,
		GeneratedCode:  s.GeneratedCode,
		ImportResults:  s.ImportResults,
		TestResults:    s.TestResults,
		UpdatedAt:      s.UpdatedAt,
	}
}

func printStateYAML(s *types.SessionState) {
	if err := writeFormatted(os.Stdout, "yaml", newStateView(s)); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
}

// serveMetrics starts a /metrics endpoint and returns its shutdown func
func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server stopped", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}
