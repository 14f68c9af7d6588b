package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIProvider_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body["model"])
		messages, ok := body["messages"].([]any)
		require.True(t, ok)
		assert.Len(t, messages, 2)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "{\"summary\":\"ok\",\"overallScore\":88}"},
				"finish_reason": "stop"
			}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(ProviderConfig{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	result, err := provider.Generate(context.Background(), "review this")

	require.NoError(t, err)
	assert.Equal(t, `{"summary":"ok","overallScore":88}`, result)
}

func TestOpenAIProvider_GenerateNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "chatcmpl-2", "object": "chat.completion", "created": 1, "model": "m", "choices": []}`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(ProviderConfig{APIKey: "sk-test", BaseURL: server.URL, Model: "m"})
	require.NoError(t, err)

	_, err = provider.Generate(context.Background(), "review this")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}
