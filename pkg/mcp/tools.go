package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rendis/remoteflow/internal/diagram"
	"github.com/rendis/remoteflow/internal/documents"
	"github.com/rendis/remoteflow/internal/expressions"
	"github.com/rendis/remoteflow/internal/ports"
	"github.com/rendis/remoteflow/internal/store"
	"github.com/rendis/remoteflow/internal/workflow"
	"github.com/rendis/remoteflow/pkg/schema"
)

// portsResult is the shared payload of the ports and select tools.
type portsResult struct {
	Enabled  schema.EnabledSet   `json:"enabled"`
	Ports    []schema.PortSpec   `json:"ports"`
	Selected schema.SelectedView `json:"selected"`
	Bindings map[string]string   `json:"bindings"`
}

// handleParse classifies a workflow and reports semantic warnings.
func (s *Server) handleParse(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	graph, errResult := decodeWorkflowArg(req)
	if errResult != nil {
		return errResult, nil
	}

	nodes, flags := workflow.Parse(graph)
	check := workflow.Check(graph)

	return marshalResult(map[string]any{
		"summary":       workflow.Summarize(nodes, flags),
		"nodes":         nodes,
		"outputs":       flags,
		"titles":        workflow.Titles(graph, nodes),
		"api_format":    workflow.IsAPIFormat(graph),
		"errors":        check.Errors,
		"warnings":      check.Warnings,
		"known_inputs":  workflow.InputTypes(),
		"known_outputs": workflow.OutputTypes(),
	})
}

// handlePorts previews the ports an explicit selection would produce.
func (s *Server) handlePorts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	graph, errResult := decodeWorkflowArg(req)
	if errResult != nil {
		return errResult, nil
	}
	enabled, err := enabledArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	nodes, _ := workflow.Parse(graph)
	return previewPorts(nodes, enabled)
}

// handleSelect evaluates a rule per node and previews the resulting ports.
func (s *Server) handleSelect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	graph, errResult := decodeWorkflowArg(req)
	if errResult != nil {
		return errResult, nil
	}
	rule, err := req.RequireString("rule")
	if err != nil {
		return mcp.NewToolResultError("rule is required"), nil
	}

	engine, err := expressions.ForName(req.GetString("engine", expressions.DefaultEngine))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	nodes, flags := workflow.Parse(graph)
	enabled, err := expressions.Select(ctx, engine, rule, nodes, flags)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("rule failed: %v", err)), nil
	}
	return previewPorts(nodes, enabled)
}

// handleDiagram draws the port map in the requested format.
func (s *Server) handleDiagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format, err := req.RequireString("format")
	if err != nil {
		return mcp.NewToolResultError("format is required"), nil
	}
	if format != "ascii" && format != "mermaid" && format != "image" {
		return mcp.NewToolResultError("format must be ascii, mermaid, or image"), nil
	}

	graph, errResult := decodeWorkflowArg(req)
	if errResult != nil {
		return errResult, nil
	}
	enabled, err := enabledArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	nodes, _ := workflow.Parse(graph)
	specs, _ := ports.Synthesize(nodes, enabled)
	model := diagram.Build(req.GetString("title", ""), nodes, specs)

	switch format {
	case "ascii":
		return mcp.NewToolResultText(diagram.RenderASCII(model)), nil
	case "mermaid":
		return mcp.NewToolResultText(diagram.RenderMermaid(model)), nil
	default:
		png, imgErr := diagram.RenderImage(ctx, model)
		if imgErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("image render failed: %v", imgErr)), nil
		}
		return mcp.NewToolResultText(base64.StdEncoding.EncodeToString(png)), nil
	}
}

// handleDocument dispatches the document actions to the documents service.
func (s *Server) handleDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action, err := req.RequireString("action")
	if err != nil {
		return mcp.NewToolResultError("action is required"), nil
	}
	id := req.GetString("document_id", "")
	if action != "create" && action != "list" && id == "" {
		return mcp.NewToolResultError(fmt.Sprintf("document_id is required for %s", action)), nil
	}

	switch action {
	case "create":
		doc, err := s.docs.Create(ctx, documents.CreateRequest{
			Name:     req.GetString("name", ""),
			Workflow: req.GetString("workflow", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("create failed: %v", err)), nil
		}
		return marshalResult(doc)

	case "list":
		docs, err := s.docs.List(ctx, store.DocumentFilter{
			Name:  req.GetString("name", ""),
			Limit: req.GetInt("limit", 0),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		return marshalResult(map[string]any{"documents": docs, "count": len(docs)})

	case "delete":
		if err := s.docs.Delete(ctx, id); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("delete failed: %v", err)), nil
		}
		return marshalResult(map[string]any{"deleted": id})

	case "show":
		view, err := s.docs.Show(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("show failed: %v", err)), nil
		}
		return marshalResult(view)

	case "commit":
		enabled, err := enabledArg(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if len(enabled) == 0 {
			enabled = nil
		}
		res, err := s.docs.Commit(ctx, id, documents.CommitRequest{
			Workflow: req.GetString("workflow", ""),
			Enabled:  enabled,
			Rule:     req.GetString("rule", ""),
			Engine:   req.GetString("engine", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("commit failed: %v", err)), nil
		}
		if nErr := s.notifier.Notify(ctx, map[string]any{
			"type":        "document.committed",
			"document_id": id,
			"ports":       len(res.Report.Ports),
		}); nErr != nil {
			s.logger.Warn("commit notification failed", slog.String("error", nErr.Error()))
		}
		return marshalResult(res)

	case "history":
		if seq := req.GetInt("sequence", 0); seq > 0 {
			snap, err := s.docs.Snapshot(ctx, id, int64(seq))
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("history failed: %v", err)), nil
			}
			return marshalResult(snap)
		}
		snaps, err := s.docs.History(ctx, id, req.GetInt("limit", 0))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("history failed: %v", err)), nil
		}
		return marshalResult(map[string]any{"snapshots": snaps, "count": len(snaps)})

	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown action %q", action)), nil
	}
}

// --- Helpers ---

func decodeWorkflowArg(req mcp.CallToolRequest) (schema.WorkflowGraph, *mcp.CallToolResult) {
	text, err := req.RequireString("workflow")
	if err != nil {
		return nil, mcp.NewToolResultError("workflow is required")
	}
	graph, err := workflow.Decode([]byte(text))
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("invalid workflow: %v", err))
	}
	return graph, nil
}

// enabledArg reads the optional "enabled" object; only boolean values are accepted.
func enabledArg(req mcp.CallToolRequest) (schema.EnabledSet, error) {
	raw := mcp.ParseStringMap(req, "enabled", nil)
	set := make(schema.EnabledSet, len(raw))
	for id, v := range raw {
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("enabled[%q] must be a boolean", id)
		}
		set[id] = b
	}
	return set, nil
}

func previewPorts(nodes []schema.ClassifiedNode, enabled schema.EnabledSet) (*mcp.CallToolResult, error) {
	specs, _ := ports.Synthesize(nodes, enabled)
	if specs == nil {
		specs = []schema.PortSpec{}
	}
	selected := ports.Selection(specs)
	return marshalResult(portsResult{
		Enabled:  enabled,
		Ports:    specs,
		Selected: selected,
		Bindings: ports.Bindings(selected),
	})
}

// marshalResult converts a value to a JSON text tool result.
func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
