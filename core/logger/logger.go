// Package logger is the structured slog setup shared by every component:
// one line per event, a stable key order and context-carried identifiers
// (update rid, channel, session).
package logger

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/m3rciful/cemtembot/core/buildinfo"
	coreconfig "github.com/m3rciful/cemtembot/core/config"
)

// Component names used across the bot.
const (
	CompApp      = "app"
	CompDB       = "db"
	CompMigrate  = "db.migrate"
	CompTG       = "tg"
	CompTGWire   = "tg.wire"
	CompWeb      = "web"
	CompFlow     = "service.flow"
	CompMatcher  = "service.matcher"
	CompRelay    = "service.relay"
	CompQuotes   = "service.quotes"
	CompSessions = "service.sessions"
	CompEvents   = "events"
)

var (
	initOnce sync.Once
	closeMu  sync.Mutex
	closed   bool
	sinks    []*lineWriter
	files    []io.Closer

	level   slog.LevelVar
	debugSampler = newSampler(1, 50)
	trace   bool

	// L is the base logger; nil until InitLogger runs.
	L *slog.Logger
)

// InitLogger builds the global logger from cfg. Later calls are no-ops.
func InitLogger(cfg *coreconfig.Config) error {
	initOnce.Do(func() {
		if cfg == nil {
			cfg = &coreconfig.Config{}
		}
		lc := cfg.Logging
		level.Set(parseLevel(lc.Level))
		debugSampler.set(parseRatio(lc.DebugSample))
		trace = truthy(os.Getenv("TRACE")) || truthy(os.Getenv("LOG_TRACE"))

		main := newLineWriter(openSinks(lc.Dir, lc.BotFile, os.Stdout))
		sinks = append(sinks, main)
		var errSink *lineWriter
		if lc.Dir != "" && lc.ErrorsFile != "" {
			errSink = newLineWriter(openSinks(lc.Dir, lc.ErrorsFile, nil))
			sinks = append(sinks, errSink)
		}

		h := &handler{
			level:  &level,
			out:    main,
			errOut: errSink,
			json:   useJSON(lc),
			order:  parseOrder(lc.KeysOrder),
		}
		L = slog.New(h)
		slog.SetDefault(L)

		L.LogAttrs(context.Background(), slog.LevelInfo, "",
			slog.String("component", CompApp),
			slog.String("event", "startup"),
			slog.String("go_version", runtime.Version()),
			slog.String("build_version", buildinfo.Version),
			slog.String("build_commit", buildinfo.Commit),
			slog.String("build_time", buildinfo.Date),
			slog.String("cfg_profile", profile(lc)),
		)
	})
	return nil
}

// openSinks returns base (when non-nil) plus dir/file opened for append.
// A file that cannot be opened is reported on the std logger and skipped.
func openSinks(dir, file string, base io.Writer) []io.Writer {
	var out []io.Writer
	if base != nil {
		out = append(out, base)
	}
	dir, file = strings.TrimSpace(dir), strings.TrimSpace(file)
	if dir == "" || file == "" {
		return out
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("logger: create %s: %v", dir, err)
		return out
	}
	f, err := os.OpenFile(filepath.Join(dir, file), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("logger: open %s: %v", file, err)
		return out
	}
	files = append(files, f)
	return append(out, f)
}

// Shutdown drains buffered lines and closes log files.
func Shutdown() error {
	closeMu.Lock()
	defer closeMu.Unlock()
	if closed {
		return nil
	}
	closed = true

	var errs []error
	for _, s := range sinks {
		errs = append(errs, s.Close())
	}
	for _, f := range files {
		errs = append(errs, f.Close())
	}
	return errors.Join(errs...)
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func useJSON(lc coreconfig.LoggingConfig) bool {
	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "kv", "text", "pretty":
		return false
	case "json":
		return true
	}
	p := profile(lc)
	return p != "debug" && p != "dev"
}

func profile(lc coreconfig.LoggingConfig) string {
	if p := strings.ToLower(strings.TrimSpace(lc.Profile)); p != "" {
		return p
	}
	return "prod"
}

func parseOrder(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "default" {
		return keyOrder
	}
	var order []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			order = append(order, k)
		}
	}
	if len(order) == 0 {
		return keyOrder
	}
	return order
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// ShouldSampleDebug reports whether a high-volume debug line should be
// emitted. TRACE=1 disables sampling.
func ShouldSampleDebug() bool {
	return trace || debugSampler.allow()
}

// LogEvent writes event through logg, falling back to the context logger
// and then to L. Nothing is written before InitLogger.
func LogEvent(ctx context.Context, logg *slog.Logger, lvl slog.Level, event string, attrs ...slog.Attr) {
	if logg == nil {
		logg = FromContext(ctx)
	}
	if logg == nil {
		return
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(ctx, lvl, "", attrs...)
}

// Component returns L tagged with name, or nil before InitLogger.
func Component(name string) *slog.Logger {
	if L == nil {
		return nil
	}
	if name = strings.TrimSpace(name); name == "" {
		return L
	}
	return L.With("component", name)
}

// Event logs one event line for component.
func Event(ctx context.Context, component string, lvl slog.Level, event string, attrs ...slog.Attr) {
	logg := Component(component)
	if logg == nil {
		if logg = FromContext(ctx); logg != nil && component != "" {
			logg = logg.With("component", component)
		}
	}
	LogEvent(ctx, logg, lvl, event, attrs...)
}

func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelDebug, event, attrs...)
}

func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelInfo, event, attrs...)
}

func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelWarn, event, attrs...)
}

func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelError, event, attrs...)
}

// RoundMS rounds d to whole milliseconds; negative durations become zero.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// SummarizeStrings joins at most limit values and reports whether any were cut.
func SummarizeStrings(values []string, limit int) (string, bool) {
	if limit <= 0 {
		return "", len(values) > 0
	}
	if len(values) <= limit {
		return strings.Join(values, ", "), false
	}
	return strings.Join(values[:limit], ", "), true
}
