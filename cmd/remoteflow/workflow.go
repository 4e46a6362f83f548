package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	cli "github.com/urfave/cli/v3"

	"github.com/rendis/remoteflow/internal/diagram"
	"github.com/rendis/remoteflow/internal/expressions"
	"github.com/rendis/remoteflow/internal/ports"
	"github.com/rendis/remoteflow/internal/workflow"
	"github.com/rendis/remoteflow/pkg/schema"
)

var selectionFlags = []cli.Flag{
	&cli.StringSliceFlag{
		Name:  "enable",
		Usage: "Node id to enable (repeatable or comma separated)",
	},
	&cli.StringFlag{
		Name:  "rule",
		Usage: "Boolean rule evaluated per input node",
	},
	&cli.StringFlag{
		Name:  "engine",
		Usage: "Rule engine (cel, expr, jq)",
		Value: expressions.DefaultEngine,
	},
}

func (e *env) parseCommand() *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "Classify the input loaders and outputs of a workflow",
		ArgsUsage: "<workflow.json|->",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print the result as JSON"},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			graph, err := e.readWorkflow(command.Args().First())
			if err != nil {
				return err
			}
			nodes, flags := workflow.Parse(graph)
			check := workflow.Check(graph)
			if err := check.Err(); err != nil {
				return err
			}
			titles := workflow.Titles(graph, nodes)
			if !workflow.IsAPIFormat(graph) {
				e.logger.Warn("workflow does not look like API format")
			}

			if command.Bool("json") {
				return e.printJSON(map[string]any{
					"summary":       workflow.Summarize(nodes, flags),
					"nodes":         nodes,
					"outputs":       flags,
					"titles":        titles,
					"warnings":      check.Warnings,
					"known_inputs":  workflow.InputTypes(),
					"known_outputs": workflow.OutputTypes(),
				})
			}

			fmt.Fprintln(e.out, workflow.Summarize(nodes, flags).String())
			for _, n := range nodes {
				line := fmt.Sprintf("  %-6s %-6s %s", n.ID, n.Category, n.Type)
				if t := titles[n.ID]; t != "" {
					line += fmt.Sprintf(" %q", t)
				}
				fmt.Fprintln(e.out, line)
			}
			for _, w := range check.Warnings {
				fmt.Fprintf(e.out, "warning: %s\n", w)
			}
			return nil
		},
	}
}

func (e *env) portsCommand() *cli.Command {
	return &cli.Command{
		Name:      "ports",
		Usage:     "Preview the host input ports for a selection",
		ArgsUsage: "<workflow.json|->",
		Flags:     selectionFlags,
		Action: func(ctx context.Context, command *cli.Command) error {
			graph, err := e.readWorkflow(command.Args().First())
			if err != nil {
				return err
			}
			nodes, flags := workflow.Parse(graph)
			enabled, err := selectionFromFlags(ctx, command, nodes, flags)
			if err != nil {
				return err
			}

			specs, ok := ports.Synthesize(nodes, enabled)
			if !ok {
				fmt.Fprintln(e.out, "no nodes selected")
				return nil
			}
			for _, spec := range specs {
				fmt.Fprintf(e.out, "%-8s %s\n", spec.WireType, spec.Label)
			}
			return nil
		},
	}
}

func (e *env) diagramCommand() *cli.Command {
	return &cli.Command{
		Name:      "diagram",
		Usage:     "Draw the port map of a selection",
		ArgsUsage: "<workflow.json|->",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "format", Usage: "ascii, mermaid or image", Value: "ascii"},
			&cli.StringFlag{Name: "title", Usage: "Label of the host node"},
			&cli.StringFlag{Name: "out", Usage: "Output file (required for image)"},
		}, selectionFlags...),
		Action: func(ctx context.Context, command *cli.Command) error {
			graph, err := e.readWorkflow(command.Args().First())
			if err != nil {
				return err
			}
			nodes, flags := workflow.Parse(graph)
			enabled, err := selectionFromFlags(ctx, command, nodes, flags)
			if err != nil {
				return err
			}
			specs, _ := ports.Synthesize(nodes, enabled)
			model := diagram.Build(command.String("title"), nodes, specs)

			var data []byte
			switch format := command.String("format"); format {
			case "ascii":
				data = []byte(diagram.RenderASCII(model))
			case "mermaid":
				data = []byte(diagram.RenderMermaid(model))
			case "image":
				if command.String("out") == "" {
					return fmt.Errorf("--out is required for image diagrams")
				}
				if data, err = diagram.RenderImage(ctx, model); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown format %q", format)
			}

			if path := command.String("out"); path != "" {
				return os.WriteFile(path, data, 0o644)
			}
			_, err = e.out.Write(data)
			return err
		},
	}
}

func (e *env) queryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "Run a jq expression against a workflow graph",
		ArgsUsage: "<workflow.json|-> <expression>",
		Action: func(ctx context.Context, command *cli.Command) error {
			if command.Args().Len() != 2 {
				return fmt.Errorf("expected a workflow and an expression")
			}
			graph, err := e.readWorkflow(command.Args().Get(0))
			if err != nil {
				return err
			}
			results, err := expressions.Query(ctx, expressions.NewGoJQEngine(), command.Args().Get(1), graph)
			if err != nil {
				return err
			}
			for _, r := range results {
				if err := e.printJSON(r); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// --- Helpers ---

// readWorkflow decodes a workflow from a file, or from stdin when path is "-".
func (e *env) readWorkflow(path string) (schema.WorkflowGraph, error) {
	data, err := e.readSource(path)
	if err != nil {
		return nil, err
	}
	return workflow.Decode(data)
}

func (e *env) readSource(path string) ([]byte, error) {
	switch path {
	case "":
		return nil, fmt.Errorf("a workflow file is required")
	case "-":
		return io.ReadAll(e.in)
	default:
		return os.ReadFile(path)
	}
}

func (e *env) printJSON(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// selectionFromFlags builds an enabled set from --rule or --enable. It returns
// nil when neither is given.
func selectionFromFlags(ctx context.Context, command *cli.Command, nodes []schema.ClassifiedNode, flags schema.OutputFlags) (schema.EnabledSet, error) {
	if rule := command.String("rule"); rule != "" {
		engine, err := expressions.ForName(command.String("engine"))
		if err != nil {
			return nil, err
		}
		return expressions.Select(ctx, engine, rule, nodes, flags)
	}
	return parseEnabled(command.StringSlice("enable")), nil
}

func parseEnabled(values []string) schema.EnabledSet {
	var set schema.EnabledSet
	for _, v := range values {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				if set == nil {
					set = schema.EnabledSet{}
				}
				set[id] = true
			}
		}
	}
	return set
}
