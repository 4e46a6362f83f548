// Package scheduler runs snapshot retention on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rendis/remoteflow/pkg/schema"
)

// SnapshotPruner is the slice of the store the pruner drives.
type SnapshotPruner interface {
	PruneSnapshots(ctx context.Context, before time.Time, keep int) (int64, error)
}

// Config controls what a Pruner deletes and when.
type Config struct {
	// Schedule is a standard 5-field cron expression or a descriptor such as @daily.
	Schedule string
	// Retention is how long a snapshot is kept before it may be pruned.
	Retention time.Duration
	// Keep is how many of each document's newest snapshots always survive.
	Keep int
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NextRun computes the next activation of a cron expression after from.
func NextRun(cronExpr string, from time.Time) (time.Time, error) {
	schedule, err := parser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, schema.NewErrorf(schema.ErrCodeValidation, "parse cron expression %q: %s", cronExpr, err.Error()).
			WithCause(err)
	}
	return schedule.Next(from), nil
}

// Pruner periodically deletes old snapshots.
type Pruner struct {
	store    SnapshotPruner
	cfg      Config
	schedule cron.Schedule
	now      func() time.Time
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	runMu sync.Mutex
}

// NewPruner validates cfg and creates a Pruner. A nil logger discards.
func NewPruner(s SnapshotPruner, cfg Config, logger *slog.Logger) (*Pruner, error) {
	schedule, err := parser.Parse(cfg.Schedule)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "parse cron expression %q: %s", cfg.Schedule, err.Error()).
			WithCause(err)
	}
	if cfg.Retention < 0 || cfg.Keep < 0 {
		return nil, schema.NewError(schema.ErrCodeValidation, "retention and keep must not be negative").
			WithDetails(map[string]any{"retention": cfg.Retention.String(), "keep": cfg.Keep})
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pruner{
		store:    s,
		cfg:      cfg,
		schedule: schedule,
		now:      time.Now,
		logger:   logger,
	}, nil
}

// Start launches the background loop. It fails if the pruner is already running.
func (p *Pruner) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.done != nil {
		p.mu.Unlock()
		return fmt.Errorf("pruner already started")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	done := p.done
	p.mu.Unlock()

	go p.loop(loopCtx, done)
	p.logger.Info("snapshot pruner started",
		slog.String("schedule", p.cfg.Schedule),
		slog.String("retention", p.cfg.Retention.String()),
		slog.Int("keep", p.cfg.Keep))
	return nil
}

func (p *Pruner) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		wait := p.schedule.Next(p.now()).Sub(p.now())
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if _, err := p.RunOnce(ctx); err != nil {
				p.logger.Error("snapshot prune failed", slog.String("error", err.Error()))
			}
		}
	}
}

// RunOnce prunes now. A call that overlaps a running prune is skipped and
// returns 0.
func (p *Pruner) RunOnce(ctx context.Context) (int64, error) {
	if !p.runMu.TryLock() {
		p.logger.Debug("snapshot prune already running; skipped")
		return 0, nil
	}
	defer p.runMu.Unlock()

	cutoff := p.now().Add(-p.cfg.Retention)
	n, err := p.store.PruneSnapshots(ctx, cutoff, p.cfg.Keep)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	if n > 0 {
		p.logger.Info("snapshots pruned", slog.Int64("count", n))
	}
	return n, nil
}

// NextRun returns the pruner's next activation after from.
func (p *Pruner) NextRun(from time.Time) time.Time {
	return p.schedule.Next(from)
}

// Stop shuts the loop down and waits for it to exit.
func (p *Pruner) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel == nil {
		return nil
	}

	p.cancel()
	<-p.done
	p.cancel = nil
	p.done = nil

	p.logger.Info("snapshot pruner stopped")
	return nil
}
