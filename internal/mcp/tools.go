package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/quantfort/parityscan/internal/report"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeEmptyQuery    = -32004 // Query parameter is empty
)

// handleSearchChunks handles the search_chunks tool invocation
func (s *Server) handleSearchChunks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 8)
	if limit < 1 || limit > 50 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 50", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}
	category := getStringDefault(args, "category", "")

	emb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to embed query", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Over-fetch when a category filter is set, then trim after filtering.
	fetch := limit
	if category != "" {
		fetch = limit * 4
	}
	matches, err := s.store.QuerySimilar(ctx, emb.Vector, fetch)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	results := make([]map[string]interface{}, 0, limit)
	for _, m := range matches {
		if category != "" && m.Category != category {
			continue
		}
		results = append(results, map[string]interface{}{
			"id":          m.ID,
			"score":       m.Score,
			"category":    m.Category,
			"origin_path": m.OriginPath,
			"content":     m.Text,
		})
		if len(results) >= limit {
			break
		}
	}

	response := map[string]interface{}{
		"query":   query,
		"count":   len(results),
		"results": results,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListUnits handles the list_units tool invocation
func (s *Server) handleListUnits(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	led, err := s.loadLedger()
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to load ledger", map[string]interface{}{
			"error": err.Error(),
		})
	}

	units := report.UnitsFromLedger(led.Snapshot())
	list := make([]map[string]interface{}, 0, len(units))
	for _, unit := range units {
		impls := make([]map[string]string, 0, len(unit.Implementations))
		for _, impl := range unit.Implementations {
			impls = append(impls, map[string]string{
				"category": impl.Category,
				"path":     impl.Path,
			})
		}
		list = append(list, map[string]interface{}{
			"name":            unit.Name,
			"implementations": impls,
		})
	}

	response := map[string]interface{}{
		"count": len(list),
		"units": list,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	led, err := s.loadLedger()
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to load ledger", map[string]interface{}{
			"error": err.Error(),
		})
	}

	stored, err := s.store.Count(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to count store", map[string]interface{}{
			"error": err.Error(),
		})
	}

	processed := 0
	for _, row := range led.Snapshot() {
		if row.Processed {
			processed++
		}
	}

	response := map[string]interface{}{
		"ledger": map[string]interface{}{
			"rows":        led.Len(),
			"processed":   processed,
			"unprocessed": led.Len() - processed,
		},
		"store": map[string]interface{}{
			"chunks": stored,
		},
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok && val != "" {
		return val
	}
	return defaultValue
}
