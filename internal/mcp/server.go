// Package mcp exposes the collected corpus over the Model Context Protocol
// so editor agents can query it directly.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/quantfort/parityscan/internal/embedder"
	"github.com/quantfort/parityscan/internal/ledger"
	"github.com/quantfort/parityscan/internal/vectorstore"
)

const (
	// ServerName is the MCP server name
	ServerName = "parityscan"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp        *server.MCPServer
	store      *vectorstore.SQLiteStore
	embedder   embedder.Embedder
	ledgerPath string
}

// NewServer creates an MCP server over an existing store and ledger.
func NewServer(storePath, ledgerPath string) (*Server, error) {
	store, err := vectorstore.NewSQLiteStore(storePath)
	if err != nil {
		return nil, err
	}

	emb, err := embedder.NewFromEnv()
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:        mcpServer,
		store:      store,
		embedder:   emb,
		ledgerPath: ledgerPath,
	}
	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() {
		_ = s.embedder.Close()
		_ = s.store.Close()
	}()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(searchChunksTool(), s.handleSearchChunks)
	s.mcp.AddTool(listUnitsTool(), s.handleListUnits)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}

// loadLedger re-reads the ledger file on each status call so the numbers
// reflect the latest collection run.
func (s *Server) loadLedger() (*ledger.Ledger, error) {
	return ledger.Load(s.ledgerPath)
}
