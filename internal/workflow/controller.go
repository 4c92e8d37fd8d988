package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/daydemir/postdoc/internal/llm"
	"github.com/daydemir/postdoc/internal/metrics"
	"github.com/daydemir/postdoc/internal/session"
	"github.com/daydemir/postdoc/internal/types"
	"github.com/daydemir/postdoc/internal/verify"
)

// ErrIterationLimit is returned by Step once a session has used its handler budget
var ErrIterationLimit = errors.New("iteration limit reached")

// Deps are the collaborators a Controller needs
type Deps struct {
	Registry  session.Registry
	Model     llm.Model
	Prompts   PromptSource
	Extractor *verify.Extractor
	Imports   ImportChecker
	Syntax    verify.SyntaxChecker
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
}

// Options tunes the controller
type Options struct {
	PlanningContext int // messages sent to the planning model call
	CodegenContext  int // messages sent to the code generation model call
	MaxIterations   int // handler runs allowed per session; 0 means unlimited
}

// StepResult is what one user turn produced
type StepResult struct {
	State         *types.SessionState
	NewMessages   []types.Message
	Handlers      []string
	AwaitingInput bool
}

// Controller routes each turn to the handler for the session's phase and
// persists the result
type Controller struct {
	registry      session.Registry
	handlers      map[types.Phase]Handler
	maxIterations int
	locks         *keyedMutex
	logger        *zap.Logger
	metrics       *metrics.Metrics
}

// NewController wires the phase handlers
func NewController(deps Deps, opts Options) (*Controller, error) {
	if deps.Registry == nil {
		return nil, fmt.Errorf("session registry is required")
	}
	if deps.Model == nil {
		return nil, fmt.Errorf("model is required")
	}
	if deps.Prompts == nil {
		return nil, fmt.Errorf("prompt source is required")
	}
	if deps.Imports == nil {
		return nil, fmt.Errorf("import checker is required")
	}
	if deps.Syntax == nil {
		return nil, fmt.Errorf("syntax checker is required")
	}
	if deps.Extractor == nil {
		deps.Extractor = verify.NewExtractor()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PlanningContext <= 0 {
		opts.PlanningContext = DefaultPlanningContext
	}
	if opts.CodegenContext <= 0 {
		opts.CodegenContext = DefaultCodegenContext
	}

	return &Controller{
		registry: deps.Registry,
		handlers: map[types.Phase]Handler{
			types.PhasePlanning: &planningHandler{
				model: deps.Model, prompts: deps.Prompts, window: opts.PlanningContext, logger: logger,
			},
			types.PhaseCodeGeneration: &codegenHandler{
				model: deps.Model, prompts: deps.Prompts, extractor: deps.Extractor, window: opts.CodegenContext, logger: logger,
			},
			types.PhaseImportCheck: &importCheckHandler{checker: deps.Imports, logger: logger},
			types.PhaseTesting:     &testingHandler{checker: deps.Syntax, logger: logger},
		},
		maxIterations: opts.MaxIterations,
		locks:         newKeyedMutex(),
		logger:        logger,
		metrics:       deps.Metrics,
	}, nil
}

// Step runs one user turn. A non-empty input is appended as a user message,
// then the handler for the stored phase runs, chaining into import checking
// and testing where the transition allows. Model errors abort the turn
// without saving, so the pre-turn state is kept.
func (c *Controller) Step(ctx context.Context, id string, input string) (*StepResult, error) {
	unlock := c.locks.Lock(id)
	defer unlock()

	state, err := c.registry.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	if state.Phase == types.PhaseComplete {
		return &StepResult{State: state, NewMessages: []types.Message{}, Handlers: []string{}}, nil
	}
	if c.maxIterations > 0 && state.IterationCount >= c.maxIterations {
		return nil, fmt.Errorf("%w: session %s has run %d handlers (max %d)",
			ErrIterationLimit, id, state.IterationCount, c.maxIterations)
	}

	c.metrics.Turn(string(state.Phase))
	start := len(state.Messages)
	if strings.TrimSpace(input) != "" {
		state.Messages = append(state.Messages, types.NewMessage(types.RoleUser, input))
	}

	ran := []string{}
	for {
		handler, ok := c.handlers[state.Phase]
		if !ok {
			return nil, fmt.Errorf("no handler for phase %q", state.Phase)
		}

		outcome, err := handler.Handle(ctx, state)
		if err != nil {
			c.metrics.HandlerRun(handler.Name(), "error")
			c.logger.Warn("Handler failed, session not saved",
				zap.String("session", id),
				zap.String("handler", handler.Name()),
				zap.Error(err))
			return nil, fmt.Errorf("%s: %w", handler.Name(), err)
		}

		next := Transition(state, outcome)
		ran = append(ran, handler.Name())
		c.metrics.HandlerRun(handler.Name(), outcome.Result)
		c.logger.Info("Handler finished",
			zap.String("session", id),
			zap.String("handler", handler.Name()),
			zap.String("result", outcome.Result),
			zap.String("phase", string(next.Phase)),
			zap.Int("iteration", next.IterationCount))

		from := state.Phase
		state = next
		if !chains(from, state.Phase) {
			break
		}
	}

	if err := c.registry.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return &StepResult{
		State:         state,
		NewMessages:   append([]types.Message{}, state.Messages[start:]...),
		Handlers:      ran,
		AwaitingInput: state.Phase != types.PhaseComplete,
	}, nil
}

// Reset moves a session back to planning. The transcript is kept and the
// iteration counter cleared.
func (c *Controller) Reset(ctx context.Context, id string) (*types.SessionState, error) {
	unlock := c.locks.Lock(id)
	defer unlock()

	state, err := c.registry.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	state.Phase = types.PhasePlanning
	state.IterationCount = 0
	if err := c.registry.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	c.logger.Info("Session reset", zap.String("session", id))
	return state, nil
}

// State returns the current session state without running anything
func (c *Controller) State(ctx context.Context, id string) (*types.SessionState, error) {
	unlock := c.locks.Lock(id)
	defer unlock()
	return c.registry.Load(ctx, id)
}

// keyedMutex serializes work per key. Entries are dropped when unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock acquires the mutex for key and returns its release function
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
