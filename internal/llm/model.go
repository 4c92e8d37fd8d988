// Package llm is the model boundary: a chat-completion interface with an
// OpenAI-compatible HTTP backend and a Claude Code CLI backend.
package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/daydemir/postdoc/internal/types"
)

// Model produces one assistant reply for a system prompt and a transcript
type Model interface {
	// Name returns the backend name (e.g., "openai", "claude")
	Name() string

	// Complete sends the request and waits for the full reply
	Complete(ctx context.Context, req Request) (*Reply, error)
}

// Request is one model call
type Request struct {
	System   string
	Messages []types.Message
}

// Reply is the model's answer. Signal is set only by backends that support
// structured output; sentinel text is checked by HasSignal either way.
type Reply struct {
	Content string
	Signal  Signal
}

// Signal is a structured control flag attached to a reply
type Signal string

const (
	SignalNone        Signal = "none"
	SignalReadyToCode Signal = "ready_to_code"
	SignalCodeReady   Signal = "code_ready"
)

// Sentinel strings the prompts ask the model to emit
const (
	SentinelReadyToCode = "READY_TO_CODE"
	SentinelCodeReady   = "CODE_READY"
)

// IsValid checks if the signal is recognized
func (s Signal) IsValid() bool {
	switch s {
	case SignalNone, SignalReadyToCode, SignalCodeReady:
		return true
	}
	return false
}

// sentinel returns the legacy text marker for a signal
func (s Signal) sentinel() string {
	switch s {
	case SignalReadyToCode:
		return SentinelReadyToCode
	case SignalCodeReady:
		return SentinelCodeReady
	}
	return ""
}

// HasSignal reports whether reply carries sig, either as a structured field
// or as its sentinel anywhere in the text (case-insensitive)
func HasSignal(reply *Reply, sig Signal) bool {
	if reply == nil {
		return false
	}
	if reply.Signal == sig {
		return true
	}
	marker := sig.sentinel()
	if marker == "" {
		return false
	}
	return strings.Contains(strings.ToUpper(reply.Content), marker)
}

// Options selects and configures a backend
type Options struct {
	Backend          string // openai or claude
	Model            string
	Temperature      float32
	BaseURL          string
	APIKey           string
	StructuredOutput bool
	ClaudeBinary     string
	WorkDir          string
	Logger           *zap.Logger
}

// New creates the model selected by opts.Backend
func New(opts Options) (Model, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	switch opts.Backend {
	case "", "openai":
		return NewOpenAI(opts)
	case "claude":
		return NewClaude(opts), nil
	default:
		return nil, fmt.Errorf("unknown llm backend %q (valid: openai, claude)", opts.Backend)
	}
}
