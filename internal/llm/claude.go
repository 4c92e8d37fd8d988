package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/daydemir/postdoc/internal/types"
	"github.com/daydemir/postdoc/internal/utils"
)

// Claude implements Model on top of the Claude Code CLI in print mode.
// The CLI has no structured output, so only sentinel signals are available.
type Claude struct {
	BinaryPath string
	Model      string
	WorkDir    string
	logger     *zap.Logger
}

// NewClaude creates a new Claude backend
func NewClaude(opts Options) *Claude {
	binaryPath := opts.ClaudeBinary
	if binaryPath == "" {
		binaryPath = "claude"
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Claude{
		BinaryPath: utils.ResolveBinaryPath(binaryPath, utils.ClaudeFallbacks()...),
		Model:      opts.Model,
		WorkDir:    opts.WorkDir,
		logger:     logger,
	}
}

func (c *Claude) Name() string {
	return "claude"
}

// Complete renders the conversation as one prompt and waits for the result event
func (c *Claude) Complete(ctx context.Context, req Request) (*Reply, error) {
	args := c.buildArgs(renderTranscript(req))

	cmd := exec.CommandContext(ctx, c.BinaryPath, args...)
	cmd.Dir = c.WorkDir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		if strings.Contains(err.Error(), "executable file not found") {
			return nil, utils.BinaryNotFoundError("claude", "claude.binary")
		}
		return nil, fmt.Errorf("failed to start claude: %w", err)
	}

	reader := &cmdReader{ReadCloser: stdout, cmd: cmd}
	collector := &Collector{}
	parseErr := ParseStream(reader, collector)
	waitErr := reader.Close()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if waitErr != nil {
		return nil, fmt.Errorf("claude exited: %w: %s", waitErr, truncateText(stderr.String(), 300))
	}
	if parseErr != nil {
		return nil, fmt.Errorf("failed to read claude output: %w", parseErr)
	}

	stats := collector.TokenStats()
	c.logger.Debug("Claude reply received",
		zap.Bool("result_seen", collector.Done()),
		zap.Int("tools", collector.ToolCount()),
		zap.Int("input_tokens", stats.InputTokens),
		zap.Int("output_tokens", stats.OutputTokens))

	content := collector.Content()
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("claude returned an empty reply")
	}
	return &Reply{Content: content, Signal: SignalNone}, nil
}

func (c *Claude) buildArgs(prompt string) []string {
	var args []string

	if c.Model != "" {
		args = append(args, "--model", c.Model)
	}

	args = append(args, "-p", prompt)

	args = append(args, "--output-format", "stream-json", "--verbose")

	return args
}

// renderTranscript flattens a chat request into a single prompt
func renderTranscript(req Request) string {
	var b strings.Builder
	if req.System != "" {
		b.WriteString(req.System)
		b.WriteString("\n\n---\n\n")
	}
	b.WriteString("Conversation so far:\n\n")
	for _, m := range req.Messages {
		label := "User"
		if m.Role == types.RoleAssistant {
			label = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n\n", label, m.Content)
	}
	b.WriteString("Reply as the Assistant to the last User message.")
	return b.String()
}

// cmdReader wraps an io.ReadCloser and waits for the command on close
type cmdReader struct {
	io.ReadCloser
	cmd *exec.Cmd
}

func (r *cmdReader) Close() error {
	// Drain so the process never blocks on a full pipe
	io.Copy(io.Discard, r.ReadCloser)
	closeErr := r.ReadCloser.Close()
	waitErr := r.cmd.Wait()
	if waitErr != nil {
		return waitErr
	}
	return closeErr
}
