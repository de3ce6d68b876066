// Package mcp implements the Model Context Protocol server for manabi.
//
// It exposes read-only maturity and readiness scoring through MCP tools,
// resources and prompts so agents can review schools without the HTTP API.
package mcp

import (
	"encoding/json"
	"log/slog"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ashita-ai/manabi/internal/service/schools"
)

const serverInstructions = `manabi scores the ICT policy maturity of primary schools.

Every school has an overall score (0-100), an overall stage (Latent, Emerging,
Established, Advanced) and a readiness level (Low, Medium, High), derived from
eight policy themes plus cross-cutting indicators. Maturity is always computed
from the current profile and latest report; it is never stale.

Use manabi_school_maturity for one school's full breakdown, manabi_summary for
the district-wide picture and manabi_compare to rank up to five schools.`

// Server wraps the MCP server with the schools service.
type Server struct {
	mcpServer *mcpserver.MCPServer
	svc       *schools.Service
	logger    *slog.Logger
	version   string
}

// New creates and configures a new MCP server with all resources, tools and
// prompts registered.
func New(svc *schools.Service, logger *slog.Logger, version string) *Server {
	s := &Server{
		svc:     svc,
		logger:  logger,
		version: version,
	}

	s.mcpServer = mcpserver.NewMCPServer(
		"manabi",
		version,
		mcpserver.WithResourceCapabilities(true, true),
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithPromptCapabilities(true),
		mcpserver.WithInstructions(serverInstructions),
	)

	s.registerResources()
	s.registerTools()
	s.registerPrompts()

	return s
}

// MCPServer returns the underlying mcp-go server for transport setup.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

func jsonResult(v any) *mcplib.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("failed to encode result: " + err.Error())
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: string(data)},
		},
	}
}

func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
