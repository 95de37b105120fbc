// internal/llmclient/openai_client_test.go
package llmclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vxkade/uipilot/api/schemas"
	"github.com/vxkade/uipilot/internal/config"
)

func newTestOpenAIClient(t *testing.T, endpoint string) *OpenAIClient {
	t.Helper()
	client, err := NewOpenAIClient(config.LLMConfig{
		Provider:   config.ProviderGroq,
		Model:      "llama-3.3-70b-versatile",
		APIKey:     "test-key",
		Endpoint:   endpoint,
		APITimeout: 5 * time.Second,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return client
}

func chatReply(content string) string {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}, "finish_reason": "stop"},
		},
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	})
	return string(body)
}

func TestOpenAIClientGenerate(t *testing.T) {
	var gotAuth string
	var gotPayload chatRequestPayload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatReply(`{"action":"scroll","parameters":{"direction":"down"}}`)))
	}))
	defer srv.Close()

	client := newTestOpenAIClient(t, srv.URL)
	out, err := client.Generate(context.Background(), schemas.GenerationRequest{
		SystemPrompt: "You translate UI commands.",
		UserPrompt:   "scroll down",
		Options:      schemas.GenerationOptions{Temperature: 0.1, ForceJSON: true},
	})
	require.NoError(t, err)

	assert.Contains(t, out, `"scroll"`)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "llama-3.3-70b-versatile", gotPayload.Model)
	require.Len(t, gotPayload.Messages, 2)
	assert.Equal(t, "system", gotPayload.Messages[0].Role)
	require.NotNil(t, gotPayload.ResponseFormat)
	assert.Equal(t, "json_object", gotPayload.ResponseFormat.Type)
}

func TestOpenAIClientRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(chatReply("ok")))
	}))
	defer srv.Close()

	client := newTestOpenAIClient(t, srv.URL)
	out, err := client.Generate(context.Background(), schemas.GenerationRequest{UserPrompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
}

func TestOpenAIClientPermanentErrorDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad request"}}`))
	}))
	defer srv.Close()

	client := newTestOpenAIClient(t, srv.URL)
	_, err := client.Generate(context.Background(), schemas.GenerationRequest{UserPrompt: "hi"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAIClientEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := newTestOpenAIClient(t, srv.URL)
	_, err := client.Generate(context.Background(), schemas.GenerationRequest{UserPrompt: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestNewOpenAIClientRequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIClient(config.LLMConfig{Provider: config.ProviderOpenAI, Model: "gpt-4o-mini"}, zaptest.NewLogger(t))
	require.Error(t, err)
}

func TestFactoryRejectsUnknownProvider(t *testing.T) {
	_, err := NewClient(context.Background(), config.LLMConfig{Provider: "oracle"}, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported LLM provider")
}

func TestFactoryBuildsOpenAICompatibleClient(t *testing.T) {
	client, err := NewClient(context.Background(), config.LLMConfig{
		Provider:   config.ProviderGroq,
		Model:      "llama-3.3-70b-versatile",
		APIKey:     "k",
		APITimeout: time.Second,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.IsType(t, &OpenAIClient{}, client)
	assert.NoError(t, client.Close())
}
