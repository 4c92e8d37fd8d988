// Package transcript renders a session's conversation as a markdown file.
package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/daydemir/postdoc/internal/types"
)

// Render builds the markdown transcript of a session. The final script, when
// present, follows the conversation.
func Render(state *types.SessionState) (string, error) {
	if len(state.Messages) == 0 {
		return "", fmt.Errorf("no messages found in session")
	}

	first := state.Messages[0].CreatedAt
	if first.IsZero() {
		first = state.CreatedAt
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Session %s\n\n", first.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("Session ID: `%s`\n\n", state.ID))
	sb.WriteString(fmt.Sprintf("Phase: `%s` after %d handler run(s)\n\n", state.Phase, state.IterationCount))
	sb.WriteString("---\n\n")

	for _, msg := range state.Messages {
		role := "USER"
		if msg.Role == types.RoleAssistant {
			role = "ASSISTANT"
		}
		sb.WriteString(fmt.Sprintf("## %s (%s)\n\n", role, msg.CreatedAt.Format("15:04:05")))
		sb.WriteString(strings.TrimRight(msg.Content, "\n"))
		sb.WriteString("\n\n---\n\n")
	}

	if state.GeneratedCode != "" {
		sb.WriteString("## Generated code\n\n```python\n")
		sb.WriteString(strings.TrimRight(state.GeneratedCode, "\n"))
		sb.WriteString("\n```\n")
	}

	return sb.String(), nil
}

// FileName is <date>-<time>-<short id>.md, stamped with the first message
func FileName(state *types.SessionState) string {
	ts := state.CreatedAt
	if len(state.Messages) > 0 && !state.Messages[0].CreatedAt.IsZero() {
		ts = state.Messages[0].CreatedAt
	}
	shortID := state.ID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	return fmt.Sprintf("%s-%s-%s.md", ts.Format("2006-01-02"), ts.Format("15-04-05"), shortID)
}

// Export writes the transcript into dir and returns the file path
func Export(state *types.SessionState, dir string) (string, error) {
	content, err := Render(state)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("cannot create transcript directory: %w", err)
	}

	outPath := filepath.Join(dir, FileName(state))
	if err := os.WriteFile(outPath, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("cannot write output file: %w", err)
	}
	return outPath, nil
}
