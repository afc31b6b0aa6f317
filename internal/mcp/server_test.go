package mcp

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()

	// Force the keyless local provider so construction never needs a key.
	t.Setenv("PARITYSCAN_EMBEDDING_PROVIDER", "ollama")

	s, err := NewServer(filepath.Join(dir, "store.db"), filepath.Join(dir, "ledger.csv"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.embedder.Close()
		_ = s.store.Close()
	})
	return s
}

func TestNewServer_Initialization(t *testing.T) {
	s := newTestServer(t)
	assert.NotNil(t, s.mcp)
	assert.NotNil(t, s.store)
	assert.NotNil(t, s.embedder)
}

func TestHandleGetStatus_EmptyState(t *testing.T) {
	s := newTestServer(t)

	var req mcplib.CallToolRequest
	req.Params.Arguments = map[string]interface{}{}

	result, err := s.handleGetStatus(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
}

func TestHandleListUnits_EmptyLedger(t *testing.T) {
	s := newTestServer(t)

	var req mcplib.CallToolRequest
	result, err := s.handleListUnits(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
}

func TestHandleSearchChunks_RequiresQuery(t *testing.T) {
	s := newTestServer(t)

	var req mcplib.CallToolRequest
	req.Params.Arguments = map[string]interface{}{}

	_, err := s.handleSearchChunks(context.Background(), req)
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeEmptyQuery, mcpErr.Code)
}

func TestHandleSearchChunks_LimitBounds(t *testing.T) {
	s := newTestServer(t)

	var req mcplib.CallToolRequest
	req.Params.Arguments = map[string]interface{}{
		"query": "moving average",
		"limit": float64(500),
	}

	_, err := s.handleSearchChunks(context.Background(), req)
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestHelpers(t *testing.T) {
	args := map[string]interface{}{
		"n": float64(7),
		"s": "value",
	}
	assert.Equal(t, 7, getIntDefault(args, "n", 1))
	assert.Equal(t, 1, getIntDefault(args, "missing", 1))
	assert.Equal(t, "value", getStringDefault(args, "s", "d"))
	assert.Equal(t, "d", getStringDefault(args, "missing", "d"))

	out := formatJSON(map[string]interface{}{"a": 1})
	assert.Contains(t, out, `"a": 1`)

	err := newMCPError(ErrorCodeInternalError, "boom", nil)
	assert.Contains(t, err.Error(), "-32603")
}
