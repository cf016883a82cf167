package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"
)

// keyOrder puts the fields read most often first; the rest follow sorted.
var keyOrder = []string{
	"ts", "level", "component", "event", "status",
	"rid", "rid_full", "update_id", "user_id", "chat_id", "chat_type", "handler",
	"channel", "session",
	"inquiry_id", "vendor_id", "material", "city", "step", "action", "vendors",
	"cb_key", "payload", "duration_ms",
	"mode", "listen", "public_url", "http_code", "db", "host", "port",
	"err", "err_code", "retryable", "attempts", "backoff_ms", "swept",
}

// handler renders one line per record, as JSON or key=value, and copies
// error records to errOut when configured.
type handler struct {
	level  slog.Leveler
	out    *lineWriter
	errOut *lineWriter
	json   bool
	order  []string

	attrs  []slog.Attr
	prefix string
}

func (h *handler) Enabled(_ context.Context, lvl slog.Level) bool {
	return lvl >= h.level.Level()
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(append([]slog.Attr(nil), h.attrs...), qualify(h.prefix, attrs)...)
	return &c
}

func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}

func qualify(prefix string, attrs []slog.Attr) []slog.Attr {
	if prefix == "" {
		return attrs
	}
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: prefix + a.Key, Value: a.Value}
	}
	return out
}

func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	f := fields{}
	ts := r.Time.UTC()
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	f.set("ts", ts.Truncate(time.Millisecond).Format("2006-01-02T15:04:05.000Z07:00"))
	f.set("level", r.Level.String())

	for _, a := range h.attrs {
		f.add("", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		f.add(h.prefix, a)
		return true
	})
	f.fromContext(ctx)

	if rid, ok := f["rid"].(string); ok {
		if c := CompactRID(rid); c != rid {
			if h.json {
				f.setDefault("rid_full", rid)
			}
			f["rid"] = c
		}
	}
	if r.Message != "" {
		f.setDefault("event", r.Message)
	}
	f.setDefault("event", "unknown")
	f.setDefault("component", CompApp)
	if s, ok := f["status"].(string); ok {
		f["status"] = strings.ToLower(s)
	}

	var line []byte
	if h.json {
		line = f.json(h.order)
	} else {
		line = f.kv(h.order)
	}
	line = append(line, '\n')

	err := h.out.Write(line)
	if h.errOut != nil && r.Level >= slog.LevelError {
		if e := h.errOut.Write(line); err == nil {
			err = e
		}
	}
	return err
}

type fields map[string]any

func (f fields) set(k string, v any) { f[k] = v }

func (f fields) setDefault(k string, v any) {
	if cur, ok := f[k]; !ok || cur == "" {
		f[k] = v
	}
}

// add flattens groups into dotted keys and normalizes values: durations
// become integer milliseconds under a *_ms key, errors become strings.
func (f fields) add(prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	key := prefix + a.Key
	if v.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix = key + "."
		}
		for _, c := range v.Group() {
			f.add(prefix, c)
		}
		return
	}
	if key == "" {
		return
	}
	var val any
	switch v.Kind() {
	case slog.KindString:
		val = strings.TrimSpace(v.String())
	case slog.KindDuration:
		key, val = msKey(key), RoundMS(v.Duration()).Milliseconds()
	case slog.KindTime:
		val = v.Time().UTC().Format(time.RFC3339Nano)
	case slog.KindAny:
		switch x := v.Any().(type) {
		case nil:
			return
		case error:
			val = x.Error()
		case fmt.Stringer:
			val = x.String()
		default:
			val = x
		}
	default:
		val = v.Any()
	}
	if val == "" {
		return
	}
	f[key] = val
}

func msKey(key string) string {
	switch {
	case key == "duration":
		return "duration_ms"
	case strings.HasSuffix(key, "_ms"):
		return key
	}
	return key + "_ms"
}

func (f fields) fromContext(ctx context.Context) {
	if ctx == nil {
		return
	}
	for k, v := range map[string]any{
		"rid":       RIDFrom(ctx),
		"handler":   HandlerFrom(ctx),
		"channel":   ChannelFrom(ctx),
		"session":   SessionFrom(ctx),
		"update_id": UpdateIDFrom(ctx),
		"user_id":   UserIDFrom(ctx),
		"chat_id":   ChatIDFrom(ctx),
	} {
		switch x := v.(type) {
		case string:
			if x == "" {
				continue
			}
		case int:
			if x == 0 {
				continue
			}
		case int64:
			if x == 0 {
				continue
			}
		}
		if _, ok := f[k]; !ok {
			f[k] = v
		}
	}
}

func (f fields) keys(order []string) []string {
	out := make([]string, 0, len(f))
	seen := make(map[string]bool, len(order))
	for _, k := range order {
		if _, ok := f[k]; ok && !seen[k] {
			out = append(out, k)
			seen[k] = true
		}
	}
	n := len(out)
	for k := range f {
		if !seen[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out[n:])
	return out
}

func (f fields) json(order []string) []byte {
	b := []byte{'{'}
	for i, k := range f.keys(order) {
		if i > 0 {
			b = append(b, ',')
		}
		b = strconv.AppendQuote(b, k)
		b = append(b, ':')
		raw, err := json.Marshal(f[k])
		if err != nil {
			raw, _ = json.Marshal(fmt.Sprint(f[k]))
		}
		b = append(b, raw...)
	}
	return append(b, '}')
}

func (f fields) kv(order []string) []byte {
	var b []byte
	for i, k := range f.keys(order) {
		if i > 0 {
			b = append(b, ' ')
		}
		b = append(b, k...)
		b = append(b, '=')
		s := fmt.Sprint(f[k])
		if strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
			b = strconv.AppendQuote(b, s)
		} else {
			b = append(b, s...)
		}
	}
	return b
}
