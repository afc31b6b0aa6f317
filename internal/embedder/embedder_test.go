package embedder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeHash(t *testing.T) {
	h1 := ComputeHash("hello")
	h2 := ComputeHash("hello")
	h3 := ComputeHash("world")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}

func TestCache_GetReturnsDeepCopy(t *testing.T) {
	cache := NewCache(10)
	cache.Set("k", &Embedding{Vector: []float32{1, 2, 3}, Dimension: 3})

	got, ok := cache.Get("k")
	require.True(t, ok)
	got.Vector[0] = 99

	again, ok := cache.Get("k")
	require.True(t, ok)
	assert.Equal(t, float32(1), again.Vector[0], "caller mutations must not reach the cache")
}

func TestCache_Miss(t *testing.T) {
	cache := NewCache(10)
	_, ok := cache.Get("absent")
	assert.False(t, ok)
}

func TestCache_LRUEviction(t *testing.T) {
	cache := NewCache(2)
	cache.Set("a", &Embedding{Vector: []float32{1}})
	cache.Set("b", &Embedding{Vector: []float32{2}})
	cache.Set("c", &Embedding{Vector: []float32{3}})

	assert.Equal(t, 2, cache.Size())
	_, ok := cache.Get("a")
	assert.False(t, ok, "oldest entry evicted")
}

func TestValidateBatchRequest(t *testing.T) {
	assert.ErrorIs(t, ValidateBatchRequest(BatchRequest{}), ErrInvalidInput)
	assert.ErrorIs(t, ValidateBatchRequest(BatchRequest{Texts: []string{"ok", ""}}), ErrInvalidInput)
	assert.NoError(t, ValidateBatchRequest(BatchRequest{Texts: []string{"ok"}}))
}

func TestOllamaProvider_EmbedBatch(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embed", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		texts := gotBody["input"].([]interface{})
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{float32(i), 1}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"model":      "nomic-embed-text",
			"embeddings": out,
		})
	}))
	defer srv.Close()

	p, err := NewOllamaProvider(srv.URL, "", NewCache(10))
	require.NoError(t, err)

	resp, err := p.EmbedBatch(context.Background(), BatchRequest{Texts: []string{"a", "b"}})
	require.NoError(t, err)
	require.Len(t, resp.Embeddings, 2)
	assert.Equal(t, ProviderOllama, resp.Provider)
	assert.Equal(t, []float32{0, 1}, resp.Embeddings[0].Vector)
	assert.Equal(t, []float32{1, 1}, resp.Embeddings[1].Vector)
	assert.Equal(t, "nomic-embed-text", gotBody["model"])
}

func TestOllamaProvider_EmbedUsesCache(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"model":      "nomic-embed-text",
			"embeddings": [][]float32{{1, 2}},
		})
	}))
	defer srv.Close()

	p, err := NewOllamaProvider(srv.URL, "", NewCache(10))
	require.NoError(t, err)

	first, err := p.Embed(context.Background(), "same text")
	require.NoError(t, err)
	second, err := p.Embed(context.Background(), "same text")
	require.NoError(t, err)

	assert.Equal(t, first.Vector, second.Vector)
	assert.Equal(t, 1, calls, "second call served from cache")
}

func TestOllamaProvider_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"model":      "nomic-embed-text",
			"embeddings": [][]float32{{1}},
		})
	}))
	defer srv.Close()

	p, err := NewOllamaProvider(srv.URL, "", nil)
	require.NoError(t, err)

	_, err = p.EmbedBatch(context.Background(), BatchRequest{Texts: []string{"a", "b"}})
	assert.ErrorIs(t, err, ErrProviderFailed)
}

func TestOpenAIProvider_EmbedBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embeddings", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"model": "text-embedding-ada-002",
			"data": []map[string]interface{}{
				{"embedding": []float32{0.1, 0.2}, "index": 0},
			},
		})
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider("test-key", nil)
	require.NoError(t, err)
	p.baseURL = srv.URL

	resp, err := p.EmbedBatch(context.Background(), BatchRequest{Texts: []string{"a"}})
	require.NoError(t, err)
	require.Len(t, resp.Embeddings, 1)
	assert.Equal(t, ProviderOpenAI, resp.Provider)
	assert.Equal(t, DefaultOpenAIModel, resp.Model)
}

func TestEmbedBatch_TooLarge(t *testing.T) {
	p, err := NewOllamaProvider("http://localhost:1", "", nil)
	require.NoError(t, err)

	texts := make([]string, MaxBatchSize+1)
	for i := range texts {
		texts[i] = "x"
	}
	_, err = p.EmbedBatch(context.Background(), BatchRequest{Texts: texts})
	assert.ErrorIs(t, err, ErrBatchTooLarge)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "nope"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNew_EmptyProvider(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrNoProviderEnabled)
}

func TestNew_Ollama(t *testing.T) {
	e, err := New(Config{Provider: ProviderOllama, Model: "custom"})
	require.NoError(t, err)
	assert.Equal(t, ProviderOllama, e.Provider())
	assert.Equal(t, "custom", e.Model())
}

func TestDetectProvider(t *testing.T) {
	t.Setenv(EnvOpenAIAPIKey, "")
	assert.Equal(t, ProviderOllama, DetectProvider())

	t.Setenv(EnvOpenAIAPIKey, "sk-test")
	assert.Equal(t, ProviderOpenAI, DetectProvider())
}
