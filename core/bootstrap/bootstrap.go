// Package bootstrap brings up the shared infrastructure in order: logger,
// then the Postgres pool and its migrations.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/cemtembot/core/config"
	coredatabase "github.com/m3rciful/cemtembot/core/database"
	"github.com/m3rciful/cemtembot/core/logger"
)

// Options selects what Run initializes. The function fields replace the
// default steps, which tests use to stay off the network.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config
	// SkipDatabase stops after the logger; Result.DB stays nil.
	SkipDatabase bool

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) error
}

// Result carries what Run initialized.
type Result struct {
	DB *sqlx.DB
}

// Run executes the steps. On a migration failure the pool is closed again.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: nil config provided")
	}
	opts.defaults()
	if err := opts.LoggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger: %w", err)
	}
	if opts.SkipDatabase {
		logger.Info(context.Background(), logger.CompDB, "db.skip", slog.String("reason", "storage driver"))
		return &Result{}, nil
	}

	start := time.Now()
	db, err := opts.Connect(opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database: %w", err)
	}
	if err := opts.Migrate(opts.Database); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: migrations: %w", err)
	}
	logger.Debug(context.Background(), logger.CompDB, "db.ready", slog.Duration("duration", time.Since(start)))
	return &Result{DB: db}, nil
}

func (o *Options) defaults() {
	if o.LoggerInit == nil {
		o.LoggerInit = logger.InitLogger
	}
	if o.Connect == nil {
		o.Connect = coredatabase.Connect
	}
	if o.Migrate == nil {
		o.Migrate = coredatabase.RunMigrations
	}
}
