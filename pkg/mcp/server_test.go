package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	s := NewServer(ServerDeps{})
	require.NotNil(t, s)
	assert.NotNil(t, s.mcpServer)
	assert.NotNil(t, s.logger)
	assert.NotNil(t, s.notifier)
}

func TestToolRegistration(t *testing.T) {
	s := NewServer(ServerDeps{})

	tools := s.mcpServer.ListTools()
	require.Len(t, tools, 4)
	for _, name := range []string{"remoteflow.parse", "remoteflow.ports", "remoteflow.select", "remoteflow.diagram"} {
		assert.NotNil(t, s.mcpServer.GetTool(name), "tool %s should be registered", name)
	}
	assert.Nil(t, s.mcpServer.GetTool("remoteflow.document"))
}

func TestToolRegistration_WithDocuments(t *testing.T) {
	s := NewServer(ServerDeps{Documents: newTestDocuments(t)})

	require.Len(t, s.mcpServer.ListTools(), 5)
	assert.NotNil(t, s.mcpServer.GetTool("remoteflow.document"))
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		toolName    string
		description string
	}{
		{"remoteflow.parse", "Classify the input loaders and detected outputs of an API-format workflow"},
		{"remoteflow.ports", "Preview the host input ports for a selection of workflow nodes"},
		{"remoteflow.select", "Select workflow nodes with a boolean rule and preview the resulting ports"},
	}

	s := NewServer(ServerDeps{})
	for _, tc := range tests {
		t.Run(tc.toolName, func(t *testing.T) {
			tool := s.mcpServer.GetTool(tc.toolName)
			require.NotNil(t, tool)
			assert.Equal(t, tc.description, tool.Tool.Description)
		})
	}
}
