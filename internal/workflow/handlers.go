package workflow

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/daydemir/postdoc/internal/llm"
	"github.com/daydemir/postdoc/internal/types"
	"github.com/daydemir/postdoc/internal/verify"
)

// Handler runs one phase against a session snapshot. It must not modify
// state; everything it produces goes into the Outcome.
type Handler interface {
	Name() string
	Handle(ctx context.Context, state *types.SessionState) (Outcome, error)
}

// PromptSource supplies the system prompt for the model-backed phases
type PromptSource interface {
	Planning() (string, error)
	CodeGeneration() (string, error)
}

// ImportChecker verifies that modules can be imported
type ImportChecker interface {
	Check(ctx context.Context, modules []string) *types.ImportResults
}

// Default context windows, in messages
const (
	DefaultPlanningContext = 12
	DefaultCodegenContext  = 10
)

type planningHandler struct {
	model   llm.Model
	prompts PromptSource
	window  int
	logger  *zap.Logger
}

func (h *planningHandler) Name() string { return string(types.PhasePlanning) }

func (h *planningHandler) Handle(ctx context.Context, state *types.SessionState) (Outcome, error) {
	system, err := h.prompts.Planning()
	if err != nil {
		return Outcome{}, fmt.Errorf("load planning prompt: %w", err)
	}

	reply, err := h.model.Complete(ctx, llm.Request{System: system, Messages: state.Tail(h.window)})
	if err != nil {
		return Outcome{}, fmt.Errorf("model call failed: %w", err)
	}

	out := Outcome{
		Result:   "continue",
		Messages: []types.Message{types.NewMessage(types.RoleAssistant, reply.Content)},
	}
	if llm.HasSignal(reply, llm.SignalReadyToCode) {
		conversation := make([]string, 0, len(state.Messages))
		for _, m := range state.Messages {
			conversation = append(conversation, m.Content)
		}
		out.Ready = true
		out.Result = "ready"
		out.Requirements = &types.Requirements{Summary: reply.Content, Conversation: conversation}
	}
	return out, nil
}

type codegenHandler struct {
	model     llm.Model
	prompts   PromptSource
	extractor *verify.Extractor
	window    int
	logger    *zap.Logger
}

func (h *codegenHandler) Name() string { return string(types.PhaseCodeGeneration) }

func (h *codegenHandler) Handle(ctx context.Context, state *types.SessionState) (Outcome, error) {
	system, err := h.prompts.CodeGeneration()
	if err != nil {
		return Outcome{}, fmt.Errorf("load code generation prompt: %w", err)
	}

	tail := state.Tail(h.window)
	messages := make([]types.Message, 0, len(tail)+1)
	messages = append(messages, tail...)
	if state.Requirements != nil && state.Requirements.Summary != "" {
		messages = append(messages, types.NewMessage(types.RoleUser,
			"\n\nRequirements Summary:\n"+state.Requirements.Summary+"\n"))
	}

	reply, err := h.model.Complete(ctx, llm.Request{System: system, Messages: messages})
	if err != nil {
		return Outcome{}, fmt.Errorf("model call failed: %w", err)
	}

	blocks := h.extractor.Extract(reply.Content)
	out := Outcome{
		Result:        "generated",
		Messages:      []types.Message{types.NewMessage(types.RoleAssistant, reply.Content)},
		GeneratedCode: verify.JoinBlocks(blocks),
		CodeReady:     llm.HasSignal(reply, llm.SignalCodeReady),
	}
	if len(blocks) == 0 {
		out.Result = "no_code"
	}
	h.logger.Debug("Code extracted",
		zap.String("session", state.ID),
		zap.Int("blocks", len(blocks)),
		zap.Bool("code_ready", out.CodeReady))
	return out, nil
}

type importCheckHandler struct {
	checker ImportChecker
	logger  *zap.Logger
}

func (h *importCheckHandler) Name() string { return string(types.PhaseImportCheck) }

func (h *importCheckHandler) Handle(ctx context.Context, state *types.SessionState) (Outcome, error) {
	modules := verify.DiscoverImports(state.GeneratedCode)
	results := h.checker.Check(ctx, modules)

	out := Outcome{
		Result:        "passed",
		Messages:      []types.Message{types.NewMessage(types.RoleAssistant, FormatImportReport(results))},
		ImportsOK:     results.Success,
		ImportResults: results,
	}
	if !results.Success {
		out.Result = "failed"
	}
	h.logger.Debug("Imports checked",
		zap.String("session", state.ID),
		zap.Strings("modules", modules),
		zap.Strings("missing", results.Missing),
		zap.Int("failed", len(results.Failed)))
	return out, nil
}

type testingHandler struct {
	checker verify.SyntaxChecker
	logger  *zap.Logger
}

func (h *testingHandler) Name() string { return string(types.PhaseTesting) }

func (h *testingHandler) Handle(ctx context.Context, state *types.SessionState) (Outcome, error) {
	if state.GeneratedCode == "" {
		return Outcome{
			Result:   "no_code",
			Messages: []types.Message{types.NewMessage(types.RoleAssistant, MsgNoCode)},
		}, nil
	}

	res := h.checker.Check(ctx, state.GeneratedCode)
	if res.Valid {
		return Outcome{
			Result:      "passed",
			Messages:    []types.Message{types.NewMessage(types.RoleAssistant, MsgSyntaxPassed)},
			SyntaxValid: true,
			TestResults: &types.TestResults{Success: true, Mode: types.TestModeSyntaxOnly},
		}, nil
	}

	return Outcome{
		Result:      "failed",
		Messages:    []types.Message{types.NewMessage(types.RoleAssistant, FormatSyntaxFailure(res.Error))},
		TestResults: &types.TestResults{Success: false, Mode: types.TestModeSyntaxOnly, Error: res.Error},
	}, nil
}
