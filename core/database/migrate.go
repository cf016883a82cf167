package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/m3rciful/cemtembot/core/logger"
)

// DefaultMigrationsDir is used when the config leaves migrations_dir empty.
const DefaultMigrationsDir = "migrations"

// RunMigrations applies every pending up migration found in
// cfg.MigrationsDir. A relative directory is taken from the working dir.
func RunMigrations(cfg Config) error {
	ctx := context.Background()
	dir, err := migrationsDir(cfg.MigrationsDir)
	if err != nil {
		return err
	}
	files := upFiles(dir)
	logger.Debug(ctx, logger.CompMigrate, "resolve",
		append([]slog.Attr{slog.String("path", dir)}, filesAttrs(files)...)...)

	m, err := migrate.New("file://"+filepath.ToSlash(dir), cfg.URL())
	if err != nil {
		logger.Error(ctx, logger.CompMigrate, "db.migrate",
			slog.String("status", "fail"), slog.String("err", err.Error()))
		return fmt.Errorf("migrations init: %w", err)
	}
	defer m.Close()

	from, _, _ := m.Version()
	start := time.Now()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error(ctx, logger.CompMigrate, "apply",
			slog.String("status", "fail"),
			slog.Duration("duration", time.Since(start)),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("migrations up: %w", err)
	}
	to, _, _ := m.Version()

	applied := between(files, uint64(from), uint64(to))
	if len(applied) > 0 {
		logger.Debug(ctx, logger.CompMigrate, "apply", filesAttrs(applied)...)
	}
	logger.Info(ctx, logger.CompMigrate, "summary",
		slog.Uint64("from_ver", uint64(from)),
		slog.Uint64("to_ver", uint64(to)),
		slog.Int("files", len(applied)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func migrationsDir(dir string) (string, error) {
	if dir = strings.TrimSpace(dir); dir == "" {
		dir = DefaultMigrationsDir
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("migrations dir %q: %w", dir, err)
	}
	return abs, nil
}

// upFiles lists the *.up.sql names in dir, sorted; an unreadable dir is empty.
func upFiles(dir string) []string {
	entries, _ := os.ReadDir(dir)
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

// between keeps the files whose numeric prefix lies in (from, to].
func between(files []string, from, to uint64) []string {
	var out []string
	for _, name := range files {
		prefix, _, _ := strings.Cut(name, "_")
		v, err := strconv.ParseUint(prefix, 10, 64)
		if err == nil && v > from && v <= to {
			out = append(out, name)
		}
	}
	return out
}

func filesAttrs(files []string) []slog.Attr {
	preview, cut := logger.SummarizeStrings(files, 6)
	attrs := []slog.Attr{slog.Int("files_total", len(files))}
	if preview != "" {
		attrs = append(attrs, slog.String("files_preview", preview))
	}
	if cut {
		attrs = append(attrs, slog.Bool("files_truncated", true))
	}
	return attrs
}
