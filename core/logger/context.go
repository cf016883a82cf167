package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"
)

type ctxKey uint8

const (
	keyLogger ctxKey = iota
	keyRID
	keyUpdate
	keyUser
	keyChat
	keyHandler
	keyChannel
	keySession
)

func with(ctx context.Context, k ctxKey, v any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, k, v)
}

func value[T any](ctx context.Context, k ctxKey) T {
	var zero T
	if ctx == nil {
		return zero
	}
	v, _ := ctx.Value(k).(T)
	return v
}

// WithLogger carries log in ctx. A nil log leaves ctx untouched.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if log == nil {
		if ctx == nil {
			return context.Background()
		}
		return ctx
	}
	return with(ctx, keyLogger, log)
}

// FromContext returns the logger carried by ctx, or L.
func FromContext(ctx context.Context) *slog.Logger {
	if l := value[*slog.Logger](ctx, keyLogger); l != nil {
		return l
	}
	return L
}

// WithRID tags ctx with the update correlation id.
func WithRID(ctx context.Context, rid string) context.Context {
	return with(ctx, keyRID, rid)
}

func RIDFrom(ctx context.Context) string { return value[string](ctx, keyRID) }

// WithUpdateMeta tags ctx with the Telegram update, user and chat ids.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	ctx = with(ctx, keyUpdate, updateID)
	ctx = with(ctx, keyUser, userID)
	return with(ctx, keyChat, chatID)
}

func UpdateIDFrom(ctx context.Context) int { return value[int](ctx, keyUpdate) }
func UserIDFrom(ctx context.Context) int64 { return value[int64](ctx, keyUser) }
func ChatIDFrom(ctx context.Context) int64 { return value[int64](ctx, keyChat) }
func HandlerFrom(ctx context.Context) string { return value[string](ctx, keyHandler) }
func ChannelFrom(ctx context.Context) string { return value[string](ctx, keyChannel) }
func SessionFrom(ctx context.Context) string { return value[string](ctx, keySession) }

// WithHandler tags ctx with the name of the Telegram handler serving it.
func WithHandler(ctx context.Context, handler string) context.Context {
	if handler == "" && ctx != nil {
		return ctx
	}
	return with(ctx, keyHandler, handler)
}

// WithChannel tags ctx with the conversation channel and session key, so
// every line of one conversation can be grepped across transports.
func WithChannel(ctx context.Context, channel, session string) context.Context {
	if channel != "" {
		ctx = with(ctx, keyChannel, channel)
	}
	if session != "" {
		ctx = with(ctx, keySession, session)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx
}

// BuildRID formats "update:chat:user".
func BuildRID(updateID int, chatID, userID int64) string {
	return fmt.Sprintf("%d:%d:%d", updateID, chatID, userID)
}

// CompactRID rewrites a BuildRID value as dot-separated base36 segments.
// Anything else is returned unchanged.
func CompactRID(rid string) string {
	parts := strings.Split(strings.TrimSpace(rid), ":")
	if len(parts) != 3 {
		return rid
	}
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return rid
		}
		parts[i] = strconv.FormatInt(n, 36)
	}
	return strings.Join(parts, ".")
}

// SanitizeLimit drops control and format runes (keeping tab and newline)
// and truncates to max runes. User text goes through it before logging.
func SanitizeLimit(s string, max int) string {
	if max <= 0 {
		return ""
	}
	out := make([]rune, 0, min(len(s), max))
	for _, r := range s {
		if len(out) == max {
			break
		}
		if r != '\n' && r != '\t' && (unicode.IsControl(r) || unicode.Is(unicode.Cf, r)) {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
