package llm

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCompatServer(t *testing.T, status int, body string, captured *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if captured != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAICompatClient_GenerateContent(t *testing.T) {
	var req chatRequest
	srv := newCompatServer(t, http.StatusOK,
		`{"choices":[{"message":{"role":"assistant","content":"85"}}]}`, &req)

	config := DefaultGroqConfig()
	config.BaseURL = srv.URL
	client, err := NewOpenAICompatClient(config, "test-key", nil)
	require.NoError(t, err)

	text, err := client.GenerateContent(t.Context(), "rate this", TierLite)
	require.NoError(t, err)
	assert.Equal(t, "85", text)

	assert.Equal(t, "llama-3.1-8b-instant", req.Model)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "user", req.Messages[0].Role)
	assert.Equal(t, "rate this", req.Messages[0].Content)
	assert.Nil(t, req.ResponseFormat)
}

func TestOpenAICompatClient_GenerateJSON(t *testing.T) {
	var req chatRequest
	srv := newCompatServer(t, http.StatusOK,
		`{"choices":[{"message":{"content":"`+"```json\\n{\\\"score\\\": 70}\\n```"+`"}}]}`, &req)

	config := DefaultMistralConfig()
	config.BaseURL = srv.URL
	client, err := NewOpenAICompatClient(config, "test-key", nil)
	require.NoError(t, err)

	text, err := client.GenerateJSON(t.Context(), "verdict", TierStandard)
	require.NoError(t, err)
	assert.Equal(t, `{"score": 70}`, text)
	assert.Equal(t, "json_object", req.ResponseFormat["type"])
	assert.Equal(t, "mistral-small-latest", client.GetModel(TierStandard))
}

func TestOpenAICompatClient_APIError(t *testing.T) {
	srv := newCompatServer(t, http.StatusTooManyRequests, `{"error":"rate limited"}`, nil)

	config := DefaultGroqConfig()
	config.BaseURL = srv.URL
	client, err := NewOpenAICompatClient(config, "test-key", nil)
	require.NoError(t, err)

	_, err = client.GenerateContent(t.Context(), "x", TierLite)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, ProviderGroq, apiErr.Provider)
	assert.Contains(t, apiErr.Error(), "status 429")
}

func TestOpenAICompatClient_EmptyChoices(t *testing.T) {
	srv := newCompatServer(t, http.StatusOK, `{"choices":[]}`, nil)

	config := DefaultGroqConfig()
	config.BaseURL = srv.URL
	client, err := NewOpenAICompatClient(config, "test-key", nil)
	require.NoError(t, err)

	_, err = client.GenerateContent(t.Context(), "x", TierLite)
	assert.ErrorContains(t, err, "no content")
}

func TestAPIError_TruncatesBody(t *testing.T) {
	body := make([]byte, 300)
	for i := range body {
		body[i] = 'x'
	}
	err := &APIError{Provider: ProviderMistral, StatusCode: 500, Body: string(body)}
	assert.Contains(t, err.Error(), "...")
	assert.Less(t, len(err.Error()), 260)
}
