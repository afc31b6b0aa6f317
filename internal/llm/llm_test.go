package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaProvider_Complete(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"model":    "llama3.2",
			"response": "generated text",
		})
	}))
	defer srv.Close()

	p, err := NewOllamaProvider(ProviderConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	resp, err := p.Complete(context.Background(), Request{
		System: "be terse",
		Prompt: "judge this",
	})
	require.NoError(t, err)

	assert.Equal(t, "generated text", resp.Text)
	assert.Equal(t, "ollama", resp.Provider)
	assert.Equal(t, "judge this", gotBody["prompt"])
	assert.Equal(t, "be terse", gotBody["system"])
	assert.Equal(t, false, gotBody["stream"])
}

func TestOllamaProvider_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"model": "m", "response": ""})
	}))
	defer srv.Close()

	p, err := NewOllamaProvider(ProviderConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOpenAIProvider_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"model": "gpt-4o-mini",
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "verdict"}},
			},
		})
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(ProviderConfig{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	resp, err := p.Complete(context.Background(), Request{Prompt: "judge"})
	require.NoError(t, err)
	assert.Equal(t, "verdict", resp.Text)
	assert.Equal(t, "openai", resp.Provider)
}

func TestOpenAIProvider_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(ProviderConfig{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestMockProvider_RecordsCalls(t *testing.T) {
	m := NewMockProvider()
	_, err := m.Complete(context.Background(), Request{Prompt: "one"})
	require.NoError(t, err)
	_, err = m.Complete(context.Background(), Request{Prompt: "two"})
	require.NoError(t, err)

	require.Len(t, m.Calls, 2)
	assert.Equal(t, "one", m.Calls[0].Prompt)
}

func TestNew_Dispatch(t *testing.T) {
	c, err := New(ProviderConfig{Type: "mock"})
	require.NoError(t, err)
	assert.Equal(t, "mock", c.Name())

	_, err = New(ProviderConfig{Type: "ollama"})
	require.NoError(t, err)

	_, err = New(ProviderConfig{})
	assert.ErrorIs(t, err, ErrNoProvider)

	_, err = New(ProviderConfig{Type: "nope"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
