package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// searchChunksTool returns the tool definition for search_chunks
func searchChunksTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_chunks",
		Description: "Search the collected indicator code chunks with a natural language query",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-50)",
					"default":     8,
					"minimum":     1,
					"maximum":     50,
				},
				"category": map[string]interface{}{
					"type":        "string",
					"description": "Restrict results to one implementation language",
					"enum":        []string{"python", "cython", "rust"},
				},
			},
			Required: []string{"query"},
		},
	}
}

// listUnitsTool returns the tool definition for list_units
func listUnitsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_units",
		Description: "List the comparison units (indicators) known to the ledger with their per-language implementations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report collection progress: ledger rows, processed counts, and stored chunks",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
