// ABOUTME: MCP server initialization and configuration
// ABOUTME: Sets up server with ledger tools and resources for AI agents

package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harper/colony/internal/ledger"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps MCP server with the accounting service.
type Server struct {
	mcp    *mcp.Server
	ledger *ledger.Service
}

// NewServer creates MCP server with all capabilities.
func NewServer(svc *ledger.Service) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("ledger service is required")
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "colony",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcp:    mcpServer,
		ledger: svc,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server in stdio mode.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// jsonResult wraps output as indented JSON text content.
func jsonResult(output any) *mcp.CallToolResult {
	jsonBytes, _ := json.MarshalIndent(output, "", "  ") //nolint:errchkjson // output is always serializable
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(jsonBytes)}},
	}
}
