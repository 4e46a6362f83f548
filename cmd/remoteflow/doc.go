package main

import (
	"context"
	"fmt"

	cli "github.com/urfave/cli/v3"

	"github.com/rendis/remoteflow/internal/documents"
	"github.com/rendis/remoteflow/internal/host"
	"github.com/rendis/remoteflow/internal/store"
)

func (e *env) docCommand() *cli.Command {
	return &cli.Command{
		Name:  "doc",
		Usage: "Manage stored host documents",
		Commands: []*cli.Command{
			e.docCreateCommand(),
			e.docListCommand(),
			e.docShowCommand(),
			e.docCommitCommand(),
			e.docDeleteCommand(),
			e.docHistoryCommand(),
		},
	}
}

func (e *env) docCreateCommand() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create a document, optionally loading a workflow",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Document name", Required: true},
			&cli.StringFlag{Name: "workflow", Usage: "Workflow file to load (- for stdin)"},
			&cli.StringFlag{Name: "remote-ip", Usage: "Remote server host"},
			&cli.IntFlag{Name: "remote-port", Usage: "Remote server port"},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			req := documents.CreateRequest{Name: command.String("name")}
			if path := command.String("workflow"); path != "" {
				data, err := e.readSource(path)
				if err != nil {
					return err
				}
				req.Workflow = string(data)
			}
			if command.IsSet("remote-ip") || command.IsSet("remote-port") {
				ep := host.Endpoint{Host: host.DefaultRemoteIP, Port: host.DefaultRemotePort}
				if command.IsSet("remote-ip") {
					ep.Host = command.String("remote-ip")
				}
				if command.IsSet("remote-port") {
					ep.Port = int(command.Int("remote-port"))
				}
				req.Endpoint = &ep
			}

			s, err := e.openStore(ctx)
			if err != nil {
				return err
			}
			defer e.closeStore(s)

			doc, err := e.documents(s).Create(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintln(e.out, doc.ID)
			return nil
		},
	}
}

func (e *env) docShowCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a document's nodes and ports",
		ArgsUsage: "<document-id>",
		Action: func(ctx context.Context, command *cli.Command) error {
			id, err := requireID(command)
			if err != nil {
				return err
			}
			s, err := e.openStore(ctx)
			if err != nil {
				return err
			}
			defer e.closeStore(s)

			view, err := e.documents(s).Show(ctx, id)
			if err != nil {
				return err
			}
			return e.printJSON(view)
		},
	}
}

func (e *env) docCommitCommand() *cli.Command {
	return &cli.Command{
		Name:      "commit",
		Usage:     "Apply a selection to a document",
		ArgsUsage: "<document-id>",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "workflow", Usage: "Workflow file to load first (- for stdin)"},
		}, selectionFlags...),
		Action: func(ctx context.Context, command *cli.Command) error {
			id, err := requireID(command)
			if err != nil {
				return err
			}
			req := documents.CommitRequest{
				Enabled: parseEnabled(command.StringSlice("enable")),
				Rule:    command.String("rule"),
				Engine:  command.String("engine"),
			}
			if path := command.String("workflow"); path != "" {
				data, err := e.readSource(path)
				if err != nil {
					return err
				}
				req.Workflow = string(data)
			}

			s, err := e.openStore(ctx)
			if err != nil {
				return err
			}
			defer e.closeStore(s)

			res, err := e.documents(s).Commit(ctx, id, req)
			if err != nil {
				return err
			}
			for _, p := range res.Report.Ports {
				fmt.Fprintf(e.out, "%-8s %s\n", p.WireType, p.Label)
			}
			return nil
		},
	}
}

func (e *env) docHistoryCommand() *cli.Command {
	return &cli.Command{
		Name:      "history",
		Usage:     "List a document's snapshots, newest first",
		ArgsUsage: "<document-id>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Usage: "Maximum snapshots to list (0 for all)", Value: 20},
			&cli.IntFlag{Name: "seq", Usage: "Print the saved state of one snapshot"},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			id, err := requireID(command)
			if err != nil {
				return err
			}
			s, err := e.openStore(ctx)
			if err != nil {
				return err
			}
			defer e.closeStore(s)

			if command.IsSet("seq") {
				snap, err := e.documents(s).Snapshot(ctx, id, int64(command.Int("seq")))
				if err != nil {
					return err
				}
				fmt.Fprintln(e.out, snap.State)
				return nil
			}

			snaps, err := e.documents(s).History(ctx, id, int(command.Int("limit")))
			if err != nil {
				return err
			}
			for _, sn := range snaps {
				fmt.Fprintf(e.out, "#%-4d %s  nodes=%d enabled=%d\n",
					sn.Sequence, sn.CreatedAt.Format("2006-01-02 15:04:05"), sn.NodeCount, sn.EnabledCount)
			}
			return nil
		},
	}
}

func (e *env) docListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List stored documents, most recently updated first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Only documents with this name"},
			&cli.IntFlag{Name: "limit", Usage: "Maximum documents to list (0 for all)"},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			s, err := e.openStore(ctx)
			if err != nil {
				return err
			}
			defer e.closeStore(s)

			docs, err := e.documents(s).List(ctx, store.DocumentFilter{
				Name:  command.String("name"),
				Limit: int(command.Int("limit")),
			})
			if err != nil {
				return err
			}
			for _, d := range docs {
				fmt.Fprintf(e.out, "%s  %-20s %s\n", d.ID, d.Name, d.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func (e *env) docDeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a document and its snapshots",
		ArgsUsage: "<document-id>",
		Action: func(ctx context.Context, command *cli.Command) error {
			id, err := requireID(command)
			if err != nil {
				return err
			}
			s, err := e.openStore(ctx)
			if err != nil {
				return err
			}
			defer e.closeStore(s)

			return e.documents(s).Delete(ctx, id)
		},
	}
}

func requireID(command *cli.Command) (string, error) {
	id := command.Args().First()
	if id == "" {
		return "", fmt.Errorf("a document id is required")
	}
	return id, nil
}
