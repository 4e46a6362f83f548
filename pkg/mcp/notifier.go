package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
)

// Notifier pushes document change notices to connected clients.
type Notifier interface {
	Notify(ctx context.Context, payload map[string]any) error
}

// MCPNotifier implements Notifier by broadcasting to every MCP session.
type MCPNotifier struct {
	mcpServer *server.MCPServer
}

// NewMCPNotifier creates a notifier that broadcasts via mcpServer.
func NewMCPNotifier(mcpServer *server.MCPServer) *MCPNotifier {
	return &MCPNotifier{mcpServer: mcpServer}
}

// Notify is best-effort: clients that are gone are skipped by the server.
func (n *MCPNotifier) Notify(_ context.Context, payload map[string]any) error {
	n.mcpServer.SendNotificationToAllClients("notifications/message", payload)
	return nil
}
