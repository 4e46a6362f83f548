// Package mcp exposes the remoteflow engine as MCP tools over stdio.
package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rendis/remoteflow/internal/documents"
)

// ServerDeps holds the dependencies for creating a Server.
type ServerDeps struct {
	// Documents backs remoteflow.document; nil disables that tool.
	Documents *documents.Service
	Logger    *slog.Logger
	Version   string
}

// Server wraps an MCP server with remoteflow tool handlers.
type Server struct {
	docs      *documents.Service
	logger    *slog.Logger
	notifier  Notifier
	mcpServer *server.MCPServer
}

// NewServer creates a Server with its tools registered.
func NewServer(deps ServerDeps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		docs:   deps.Documents,
		logger: logger,
	}

	mcpSrv := server.NewMCPServer(
		"remoteflow",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("remoteflow maps the input loaders of an API-format workflow to host input ports. "+
			"Use remoteflow.parse to classify a workflow, remoteflow.ports to preview ports for a selection, "+
			"remoteflow.select to pick nodes with a rule, remoteflow.diagram to draw the port map, "+
			"and remoteflow.document to create, list, show, commit, delete and inspect the history of stored documents."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	s.notifier = NewMCPNotifier(mcpSrv)
	return s
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *Server) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) tools() []server.ServerTool {
	tools := []server.ServerTool{
		{Tool: parseTool(), Handler: s.handleParse},
		{Tool: portsTool(), Handler: s.handlePorts},
		{Tool: selectTool(), Handler: s.handleSelect},
		{Tool: diagramTool(), Handler: s.handleDiagram},
	}
	if s.docs != nil {
		tools = append(tools, server.ServerTool{Tool: documentTool(), Handler: s.handleDocument})
	}
	return tools
}

// --- Tool definitions ---

func parseTool() mcp.Tool {
	return mcp.NewTool("remoteflow.parse",
		mcp.WithDescription("Classify the input loaders and detected outputs of an API-format workflow"),
		mcp.WithString("workflow", mcp.Required(), mcp.Description("Workflow source: JSON object of node ID to {class_type, inputs}")),
	)
}

func portsTool() mcp.Tool {
	return mcp.NewTool("remoteflow.ports",
		mcp.WithDescription("Preview the host input ports for a selection of workflow nodes"),
		mcp.WithString("workflow", mcp.Required(), mcp.Description("Workflow source JSON")),
		mcp.WithObject("enabled", mcp.Required(), mcp.Description("Map of node ID to true for every node to expose")),
	)
}

func selectTool() mcp.Tool {
	return mcp.NewTool("remoteflow.select",
		mcp.WithDescription("Select workflow nodes with a boolean rule and preview the resulting ports"),
		mcp.WithString("workflow", mcp.Required(), mcp.Description("Workflow source JSON")),
		mcp.WithString("rule", mcp.Required(), mcp.Description("Rule over node (id, type, category, index) and outputs, e.g. node.category == \"image\"")),
		mcp.WithString("engine",
			mcp.Enum("cel", "expr", "jq"),
			mcp.Description("Rule language (default: cel)"),
		),
	)
}

func diagramTool() mcp.Tool {
	return mcp.NewTool("remoteflow.diagram",
		mcp.WithDescription("Draw the port map of a selection. Returns ASCII art, Mermaid flowchart syntax, or base64-encoded PNG image"),
		mcp.WithString("workflow", mcp.Required(), mcp.Description("Workflow source JSON")),
		mcp.WithObject("enabled", mcp.Description("Map of node ID to true for every node to expose (default: none)")),
		mcp.WithString("title", mcp.Description("Diagram title")),
		mcp.WithString("format", mcp.Required(),
			mcp.Enum("ascii", "mermaid", "image"),
			mcp.Description("Output format: ascii (text), mermaid (flowchart syntax), or image (base64 PNG)"),
		),
	)
}

func documentTool() mcp.Tool {
	return mcp.NewTool("remoteflow.document",
		mcp.WithDescription("Create, list, show, commit, delete or read the history of stored host documents"),
		mcp.WithString("action", mcp.Required(),
			mcp.Enum("create", "list", "show", "commit", "delete", "history"),
			mcp.Description("Operation to perform"),
		),
		mcp.WithString("document_id", mcp.Description("Document ID (required for show, commit, delete, history)")),
		mcp.WithString("name", mcp.Description("Document name (create, or filter for list)")),
		mcp.WithString("workflow", mcp.Description("Workflow source JSON (create, or commit to replace it)")),
		mcp.WithObject("enabled", mcp.Description("Map of node ID to true (commit)")),
		mcp.WithString("rule", mcp.Description("Selection rule instead of enabled (commit)")),
		mcp.WithString("engine", mcp.Enum("cel", "expr", "jq"), mcp.Description("Rule language (default: cel)")),
		mcp.WithNumber("limit", mcp.Description("Maximum documents (list) or snapshots (history) to return")),
		mcp.WithNumber("sequence", mcp.Description("Return only this snapshot sequence (history)")),
	)
}
