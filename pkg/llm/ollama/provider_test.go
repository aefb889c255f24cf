package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"identity-coach-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatJSONSendsFormat(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(ollamaChatResponse{
			Model:   got.Model,
			Message: ollamaMessage{Role: "assistant", Content: "  {\"message\":\"hi\"}\n"},
			Done:    true,
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3")
	schema := json.RawMessage(`{"type":"object"}`)
	raw, err := p.ChatJSON(context.Background(), []llm.Message{
		{Role: "system", Content: "be kind"},
		{Role: "model", Content: "earlier reply"},
	}, schema, llm.WithModel("qwen2.5"))
	require.NoError(t, err)

	assert.Equal(t, `{"message":"hi"}`, string(raw))
	assert.Equal(t, "qwen2.5", got.Model)
	assert.False(t, got.Stream)
	assert.JSONEq(t, `{"type":"object"}`, string(got.Format))
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "assistant", got.Messages[1].Role)
	require.NotNil(t, got.Options)
	assert.Equal(t, 0.2, got.Options.Temperature)
}

func TestChatReportsHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "missing").Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}
