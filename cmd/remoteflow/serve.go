package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/rendis/remoteflow/internal/logging"
	"github.com/rendis/remoteflow/internal/scheduler"
	"github.com/rendis/remoteflow/pkg/mcp"
)

func (e *env) prunerConfig(command *cli.Command) (scheduler.Config, error) {
	cfg := e.cfg
	if command.IsSet("retention") {
		cfg.PruneRetention = command.String("retention")
	}
	if command.IsSet("keep") {
		cfg.PruneKeep = int(command.Int("keep"))
	}
	if err := cfg.Validate(); err != nil {
		return scheduler.Config{}, err
	}
	retention, _ := cfg.Retention()
	return scheduler.Config{Schedule: cfg.PruneSchedule, Retention: retention, Keep: cfg.PruneKeep}, nil
}

var pruneFlags = []cli.Flag{
	&cli.StringFlag{Name: "retention", Usage: "Prune snapshots older than this duration"},
	&cli.IntFlag{Name: "keep", Usage: "Newest snapshots per document that always survive"},
}

func (e *env) pruneCommand() *cli.Command {
	return &cli.Command{
		Name:  "prune",
		Usage: "Delete old document snapshots once",
		Flags: pruneFlags,
		Action: func(ctx context.Context, command *cli.Command) error {
			pcfg, err := e.prunerConfig(command)
			if err != nil {
				return err
			}
			s, err := e.openStore(ctx)
			if err != nil {
				return err
			}
			defer e.closeStore(s)

			p, err := scheduler.NewPruner(s, pcfg, logging.WithModule(e.logger, "pruner"))
			if err != nil {
				return err
			}
			n, err := p.RunOnce(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "pruned %d snapshots\n", n)
			return nil
		},
	}
}

func (e *env) serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the remoteflow tools over MCP stdio",
		Flags: pruneFlags,
		Action: func(ctx context.Context, command *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pcfg, err := e.prunerConfig(command)
			if err != nil {
				return err
			}
			s, err := e.openStore(ctx)
			if err != nil {
				return err
			}
			defer e.closeStore(s)

			pruner, err := scheduler.NewPruner(s, pcfg, logging.WithModule(e.logger, "pruner"))
			if err != nil {
				return err
			}
			if err := pruner.Start(ctx); err != nil {
				return err
			}
			defer func() {
				if err := pruner.Stop(); err != nil {
					e.logger.Error("failed to stop pruner", slog.String("error", err.Error()))
				}
			}()

			srv := mcp.NewServer(mcp.ServerDeps{
				Documents: e.documents(s),
				Logger:    logging.WithModule(e.logger, "mcp"),
				Version:   version,
			})
			e.logger.Info("serving over stdio", slog.String("db", e.cfg.DBPath), slog.String("version", version))
			return srv.Serve(ctx)
		},
	}
}
