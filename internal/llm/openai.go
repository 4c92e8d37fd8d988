package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"

	"github.com/daydemir/postdoc/internal/types"
)

// DefaultOpenAIModel is used when no model is configured
const DefaultOpenAIModel = "gpt-4o"

// OpenAI talks to any OpenAI-compatible chat-completions endpoint
type OpenAI struct {
	client      *openai.Client
	model       string
	temperature float32
	structured  bool
	logger      *zap.Logger
}

// structuredReply is the JSON object requested in structured-output mode
type structuredReply struct {
	Message string `json:"message"`
	Signal  Signal `json:"signal"`
}

var replySchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"message": {
			Type:        jsonschema.String,
			Description: "The full reply shown to the user, in markdown.",
		},
		"signal": {
			Type:        jsonschema.String,
			Enum:        []string{string(SignalNone), string(SignalReadyToCode), string(SignalCodeReady)},
			Description: "ready_to_code when requirements are complete, code_ready after emitting final code, otherwise none.",
		},
	},
	Required:             []string{"message", "signal"},
	AdditionalProperties: false,
}

// NewOpenAI creates the client. An API key is required unless a base URL
// points at a local server.
func NewOpenAI(opts Options) (*OpenAI, error) {
	if opts.APIKey == "" && opts.BaseURL == "" {
		return nil, fmt.Errorf("no API key: set the environment variable named by llm.api_key_env")
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	model := opts.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("Initializing OpenAI client", zap.String("model", model), zap.Bool("structured", opts.StructuredOutput))
	return &OpenAI{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: opts.Temperature,
		structured:  opts.StructuredOutput,
		logger:      logger,
	}, nil
}

func (o *OpenAI) Name() string {
	return "openai"
}

// Complete sends the system prompt and transcript as one chat completion
func (o *OpenAI) Complete(ctx context.Context, req Request) (*Reply, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == types.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: o.temperature,
	}
	if o.structured {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "assistant_reply",
				Schema: &replySchema,
				Strict: true,
			},
		}
	}

	o.logger.Debug("Calling chat completion", zap.String("model", o.model), zap.Int("messages", len(messages)))
	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}
	o.logger.Debug("Received completion",
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	content := resp.Choices[0].Message.Content
	if !o.structured {
		return &Reply{Content: content, Signal: SignalNone}, nil
	}
	return parseStructured(content, o.logger), nil
}

// parseStructured decodes a structured reply, falling back to raw text
func parseStructured(content string, logger *zap.Logger) *Reply {
	var sr structuredReply
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &sr); err != nil || sr.Message == "" {
		logger.Warn("Structured reply did not parse, using raw content", zap.Error(err))
		return &Reply{Content: content, Signal: SignalNone}
	}
	if !sr.Signal.IsValid() {
		sr.Signal = SignalNone
	}
	return &Reply{Content: sr.Message, Signal: sr.Signal}
}
