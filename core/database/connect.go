// Package database opens the Postgres pool and applies schema migrations.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/cemtembot/core/logger"
)

const (
	driverName = "postgres"
	// dialWindow bounds how long Connect waits for a starting database.
	dialWindow = 30 * time.Second
	dialPause  = 2 * time.Second
)

// Connect opens the pool and pings it, retrying while Postgres is still
// starting up. Pool limits come from cfg.MaxConnections.
func Connect(cfg Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dialWindow)
	defer cancel()
	return connect(ctx, cfg)
}

func connect(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	start := time.Now()
	target := []slog.Attr{
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", cfg.Name),
	}

	var (
		db       *sqlx.DB
		err      error
		attempts int
	)
	for {
		attempts++
		if db, err = sqlx.ConnectContext(ctx, driverName, cfg.DSN()); err == nil {
			break
		}
		logger.Debug(ctx, logger.CompDB, "db.connect",
			append(target, slog.String("status", "retry"), slog.Int("attempts", attempts), slog.String("err", err.Error()))...)
		select {
		case <-ctx.Done():
			logger.Error(ctx, logger.CompDB, "db.connect", append(target,
				slog.String("status", "fail"),
				slog.Int("attempts", attempts),
				slog.Duration("duration", time.Since(start)),
				slog.String("err", err.Error()),
			)...)
			return nil, fmt.Errorf("db connect: %w", err)
		case <-time.After(dialPause):
		}
	}

	if n := cfg.MaxConnections; n > 0 {
		db.SetMaxOpenConns(n)
		db.SetMaxIdleConns(n)
	}
	logger.Info(ctx, logger.CompDB, "db.connect", append(target,
		slog.String("status", "ok"),
		slog.Int("attempts", attempts),
		slog.Int("pool_open", cfg.MaxConnections),
		slog.Duration("duration", time.Since(start)),
	)...)
	return db, nil
}
