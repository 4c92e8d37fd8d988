package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasSignal(t *testing.T) {
	tests := []struct {
		name  string
		reply *Reply
		sig   Signal
		want  bool
	}{
		{"structured", &Reply{Content: "ok", Signal: SignalReadyToCode}, SignalReadyToCode, true},
		{"sentinel", &Reply{Content: "Great. READY_TO_CODE"}, SignalReadyToCode, true},
		{"sentinel lowercase", &Reply{Content: "ready_to_code"}, SignalReadyToCode, true},
		{"other signal", &Reply{Content: "CODE_READY"}, SignalReadyToCode, false},
		{"code ready sentinel", &Reply{Content: "```python\nx=1\n```\nCODE_READY"}, SignalCodeReady, true},
		{"structured none", &Reply{Content: "What energy range?", Signal: SignalNone}, SignalReadyToCode, false},
		{"nil reply", nil, SignalReadyToCode, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasSignal(tt.reply, tt.sig))
		})
	}
}

func TestNewSelectsBackend(t *testing.T) {
	m, err := New(Options{Backend: "openai", APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, "openai", m.Name())

	m, err = New(Options{Backend: "claude", ClaudeBinary: "/nonexistent/claude"})
	require.NoError(t, err)
	assert.Equal(t, "claude", m.Name())

	_, err = New(Options{Backend: "openai"})
	assert.Error(t, err, "missing API key")

	_, err = New(Options{Backend: "gemini"})
	assert.Error(t, err)
}
