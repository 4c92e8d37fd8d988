package llm

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// TokenStats tracks token usage reported by the CLI stream
type TokenStats struct {
	InputTokens     int
	OutputTokens    int
	TotalTokens     int
	CacheReadTokens int
}

// OutputHandler handles parsed stream events
type OutputHandler interface {
	OnToolUse(name string)
	OnText(text string)
	OnDone(result string)
	OnTokenUsage(usage TokenStats)
}

// StreamEvent represents a single event from Claude's stream-json output
type StreamEvent struct {
	Type    string          `json:"type"`
	Subtype string          `json:"subtype,omitempty"`
	Message *MessageContent `json:"message,omitempty"`
	Result  string          `json:"result,omitempty"`
	IsError bool            `json:"is_error,omitempty"`
}

// MessageContent represents the message field in stream events
type MessageContent struct {
	Content []ContentBlock `json:"content,omitempty"`
	Usage   *UsageBlock    `json:"usage,omitempty"`
}

// ContentBlock represents a content block (text or tool_use)
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	Name string `json:"name,omitempty"` // for tool_use
}

// UsageBlock represents token usage data from Claude's output
type UsageBlock struct {
	InputTokens         int `json:"input_tokens"`
	OutputTokens        int `json:"output_tokens"`
	CacheCreationTokens int `json:"cache_creation_input_tokens"`
	CacheReadTokens     int `json:"cache_read_input_tokens"`
}

// Collector accumulates a reply from the stream. The final result event wins
// over concatenated assistant text when both are present.
type Collector struct {
	text       strings.Builder
	result     string
	done       bool
	toolCount  int
	tokenStats TokenStats
}

func (c *Collector) OnToolUse(name string) {
	c.toolCount++
}

func (c *Collector) OnText(text string) {
	if c.text.Len() > 0 {
		c.text.WriteString("\n\n")
	}
	c.text.WriteString(text)
}

func (c *Collector) OnDone(result string) {
	c.result = result
	c.done = true
}

func (c *Collector) OnTokenUsage(usage TokenStats) {
	c.tokenStats.InputTokens += usage.InputTokens
	c.tokenStats.OutputTokens += usage.OutputTokens
	c.tokenStats.CacheReadTokens += usage.CacheReadTokens
	c.tokenStats.TotalTokens = c.tokenStats.InputTokens + c.tokenStats.OutputTokens
}

// Content returns the reply text
func (c *Collector) Content() string {
	if c.done && strings.TrimSpace(c.result) != "" {
		return c.result
	}
	return c.text.String()
}

// Done reports whether a result event was seen
func (c *Collector) Done() bool {
	return c.done
}

// ToolCount reports how many tool_use blocks were seen
func (c *Collector) ToolCount() int {
	return c.toolCount
}

// TokenStats returns accumulated usage
func (c *Collector) TokenStats() TokenStats {
	return c.tokenStats
}

// ParseStream reads the Claude stream-json output and calls the handler.
// Malformed lines are skipped.
func ParseStream(reader io.Reader, handler OutputHandler) error {
	scanner := bufio.NewScanner(reader)
	// Increase buffer size for large JSON lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		var event StreamEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			continue
		}

		switch event.Type {
		case "assistant":
			if event.Message == nil {
				continue
			}
			if event.Message.Usage != nil {
				handler.OnTokenUsage(TokenStats{
					InputTokens:     event.Message.Usage.InputTokens,
					OutputTokens:    event.Message.Usage.OutputTokens,
					CacheReadTokens: event.Message.Usage.CacheReadTokens,
				})
			}
			for _, content := range event.Message.Content {
				switch content.Type {
				case "tool_use":
					handler.OnToolUse(content.Name)
				case "text":
					handler.OnText(content.Text)
				}
			}
		case "result":
			handler.OnDone(event.Result)
		}
	}

	return scanner.Err()
}

func truncateText(s string, max int) string {
	s = cleanText(s)
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func cleanText(s string) string {
	// Replace newlines with spaces for single-line output
	s = strings.ReplaceAll(s, "\n", " ")
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return strings.TrimSpace(s)
}
