package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/cemtembot/core/logger"
)

// Sweeper is the part of a Store the janitor needs.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// Janitor periodically drops expired entries from the registered stores.
type Janitor struct {
	interval time.Duration
	stores   map[string]Sweeper
}

// NewJanitor creates a janitor sweeping every interval.
func NewJanitor(interval time.Duration) *Janitor {
	return &Janitor{interval: interval, stores: make(map[string]Sweeper)}
}

// Register adds a named store to the sweep set.
func (j *Janitor) Register(name string, s Sweeper) {
	j.stores[name] = s
}

// Run sweeps until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) error {
	if j.interval <= 0 {
		<-ctx.Done()
		return nil
	}
	t := time.NewTicker(j.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep runs one pass over every store and returns the total removed.
func (j *Janitor) Sweep(ctx context.Context) int {
	total := 0
	for name, s := range j.stores {
		n, err := s.SweepExpired(ctx)
		if err != nil {
			logger.Warn(ctx, logger.CompSessions, "sessions.sweep",
				slog.String("status", "fail"),
				slog.String("store", name),
				slog.String("err", err.Error()),
			)
			continue
		}
		total += n
		if n > 0 {
			logger.Debug(ctx, logger.CompSessions, "sessions.sweep",
				slog.String("status", "ok"),
				slog.String("store", name),
				slog.Int("swept", n),
			)
		}
	}
	return total
}
