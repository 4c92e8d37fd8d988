package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/daydemir/postdoc/internal/types"
)

// chatServer answers /chat/completions with content and records the request body
func chatServer(t *testing.T, content string, captured *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAICompletePlain(t *testing.T) {
	var body map[string]any
	srv := chatServer(t, "Which detector? READY_TO_CODE", &body)

	m, err := NewOpenAI(Options{APIKey: "sk-test", BaseURL: srv.URL + "/v1", Temperature: 0.2})
	require.NoError(t, err)

	reply, err := m.Complete(context.Background(), Request{
		System: "You are a physicist.",
		Messages: []types.Message{
			types.NewMessage(types.RoleUser, "plot muon pt"),
			types.NewMessage(types.RoleAssistant, "sure"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Which detector? READY_TO_CODE", reply.Content)
	assert.Equal(t, SignalNone, reply.Signal)
	assert.True(t, HasSignal(reply, SignalReadyToCode))

	assert.Equal(t, DefaultOpenAIModel, body["model"])
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 3)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "assistant", msgs[2].(map[string]any)["role"])
	assert.Nil(t, body["response_format"])
}

func TestOpenAICompleteStructured(t *testing.T) {
	var body map[string]any
	srv := chatServer(t, `{"message":"All set.","signal":"ready_to_code"}`, &body)

	m, err := NewOpenAI(Options{APIKey: "sk-test", BaseURL: srv.URL + "/v1", StructuredOutput: true})
	require.NoError(t, err)

	reply, err := m.Complete(context.Background(), Request{Messages: []types.Message{types.NewMessage(types.RoleUser, "go")}})
	require.NoError(t, err)
	assert.Equal(t, "All set.", reply.Content)
	assert.Equal(t, SignalReadyToCode, reply.Signal)

	format := body["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
}

func TestParseStructuredFallback(t *testing.T) {
	reply := parseStructured("plain text READY_TO_CODE", zap.NewNop())
	assert.Equal(t, "plain text READY_TO_CODE", reply.Content)
	assert.Equal(t, SignalNone, reply.Signal)

	reply = parseStructured(`{"message":"hi","signal":"bogus"}`, zap.NewNop())
	assert.Equal(t, "hi", reply.Content)
	assert.Equal(t, SignalNone, reply.Signal)
}

func TestOpenAIServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer srv.Close()

	m, err := NewOpenAI(Options{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)
	_, err = m.Complete(context.Background(), Request{Messages: []types.Message{types.NewMessage(types.RoleUser, "x")}})
	assert.Error(t, err)
}
