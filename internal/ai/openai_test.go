package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidkat/voidkat/internal/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAICompatibleClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewOpenAICompatibleClient(
		"openai-compatible",
		server.URL,
		"/chat/completions",
		"test-key",
		logger.NewTestLogger(),
		server.Client(),
	)
}

func TestAskReturnsContent(t *testing.T) {
	var gotAuth string
	var gotReq CompletionRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]any{
			"id": "cmpl-1",
			"choices": []map[string]any{
				{"message": map[string]any{"content": "meow"}},
			},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 2, "total_tokens": 12},
		})
	})

	temp := float32(1)
	content, resp, err := client.Ask(context.Background(), CompletionRequest{
		Model:       "gpt-3.5-turbo",
		Messages:    []Message{{Role: RoleUser, Text: "hi"}},
		Temperature: &temp,
	})
	require.NoError(t, err)
	assert.Equal(t, "meow", content)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "gpt-3.5-turbo", gotReq.Model)
	assert.EqualValues(t, 12, resp.Usage.TotalTokens)
}

func TestAskHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limited", "code": "rate_limit_exceeded"},
		})
	})

	_, _, err := client.Ask(context.Background(), CompletionRequest{
		Model:    "gpt-3.5-turbo",
		Messages: []Message{{Role: RoleUser, Text: "hi"}},
	})
	require.Error(t, err)
	var aiErr *AIError
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, 429, aiErr.HTTPStatusCode)
	assert.Equal(t, "rate limited", aiErr.Message)
	assert.Equal(t, ErrorTypeRateLimit, aiErr.ErrorType())
}

func TestAskErrorInsideOK(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "model is overloaded", "code": "overloaded"},
		})
	})

	_, _, err := client.Ask(context.Background(), CompletionRequest{
		Model:    "gpt-3.5-turbo",
		Messages: []Message{{Role: RoleUser, Text: "hi"}},
	})
	require.Error(t, err)
	var aiErr *AIError
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, "overloaded", aiErr.ErrorCode)
}

func TestAskNoChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": "cmpl-2", "choices": []any{}})
	})

	_, _, err := client.Ask(context.Background(), CompletionRequest{
		Model:    "gpt-3.5-turbo",
		Messages: []Message{{Role: RoleUser, Text: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestMessageMarshalPolymorphicContent(t *testing.T) {
	plain, err := json.Marshal(Message{Role: RoleUser, Text: "hello"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"user","content":"hello"}`, string(plain))

	multi, err := json.Marshal(Message{
		Role: RoleUser,
		Content: []Content{
			NewTextContent("look"),
			NewImageContent("data:image/png;base64,AAAA"),
		},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"role": "user",
		"content": [
			{"type":"text","text":"look"},
			{"type":"image_url","image_url":{"url":"data:image/png;base64,AAAA"}}
		]
	}`, string(multi))
}
