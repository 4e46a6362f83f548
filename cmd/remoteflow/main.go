package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/rendis/remoteflow/internal/documents"
	"github.com/rendis/remoteflow/internal/logging"
	"github.com/rendis/remoteflow/internal/store"
)

func main() {
	if err := newApp(os.Stdin, os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env is the state shared by all commands, filled in by the root Before hook.
type env struct {
	cfg    Config
	logger *slog.Logger
	in     io.Reader
	out    io.Writer
}

func newApp(in io.Reader, out io.Writer) *cli.Command {
	e := &env{in: in, out: out}

	return &cli.Command{
		Name:                  "remoteflow",
		Usage:                 "Map the input loaders of a remote workflow to host input ports",
		Version:               version,
		EnableShellCompletion: true,
		Writer:                out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Usage:   "Path to the document database",
				Sources: cli.EnvVars("REMOTEFLOW_DB_PATH"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars("REMOTEFLOW_LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:  "log-json",
				Usage: "Write logs as JSON",
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			cfg, err := loadConfig()
			if err != nil {
				return ctx, err
			}
			if command.IsSet("db") {
				cfg.DBPath = command.String("db")
			}
			if command.IsSet("log-level") {
				cfg.LogLevel = command.String("log-level")
			}
			if command.IsSet("log-json") {
				cfg.LogJSON = command.Bool("log-json")
			}
			if err := cfg.Validate(); err != nil {
				return ctx, err
			}
			e.cfg = cfg
			e.logger = logging.New(os.Stderr, cfg.LogLevel, cfg.LogJSON)
			return ctx, nil
		},
		Commands: []*cli.Command{
			e.parseCommand(),
			e.portsCommand(),
			e.diagramCommand(),
			e.queryCommand(),
			e.docCommand(),
			e.pruneCommand(),
			e.serveCommand(),
		},
	}
}

// openStore opens and migrates the configured store.
func (e *env) openStore(ctx context.Context) (*store.LibSQLStore, error) {
	s, err := store.NewLibSQLStore(e.cfg.DSN())
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (e *env) documents(s store.Store) *documents.Service {
	return documents.NewService(s, nil, logging.WithModule(e.logger, "documents"))
}

func (e *env) closeStore(s *store.LibSQLStore) {
	if err := s.Close(); err != nil {
		e.logger.Error("failed to close store", slog.String("error", err.Error()))
	}
}
