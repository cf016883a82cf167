// Package router turns a filled Registry into telebot routes.
package router

import (
	"context"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/cemtembot/core/logger"
	tg "github.com/m3rciful/cemtembot/core/telegram"
	"github.com/m3rciful/cemtembot/core/telegram/callbacks"
	"github.com/m3rciful/cemtembot/core/telegram/helpers"
	"github.com/m3rciful/cemtembot/core/telegram/middleware"
)

// CommandRouteOptions configures CommandRoutes.
type CommandRouteOptions struct {
	AdminID int64
	// OnAdminReject answers non-admins; nil ignores them.
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes returns one route per command and alias. Admin-only
// commands are guarded by the admin check.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	cmds := reg.Commands()
	var routes []tg.Route
	for name, cmd := range cmds {
		h := cmd.Handler
		if cmd.AdminOnly {
			h = middleware.AdminOnlyMiddleware(middleware.AdminOptions{
				AdminID:  opts.AdminID,
				OnReject: opts.OnAdminReject,
			})(h)
		}
		h = handled(name, h)
		routes = append(routes, tg.Route{Endpoint: name, Handler: h})
		for _, alias := range cmd.Aliases {
			routes = append(routes, tg.Route{Endpoint: "/" + strings.TrimPrefix(alias, "/"), Handler: h})
		}
	}
	logger.Info(context.Background(), logger.CompTGWire, "wire.complete",
		slog.Int("commands", len(cmds)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}

// CallbackOptions configures CallbackRoute.
type CallbackOptions struct {
	// NotFound overrides the registry's unknown-callback handler.
	NotFound tele.HandlerFunc
}

// CallbackRoute dispatches every callback query by its unique key.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	return tg.Route{Endpoint: tele.OnCallback, Handler: func(c tele.Context) error {
		key := callbacks.CallbackKey(c)
		if h, ok := reg.GetCallback(key); ok {
			// Stops the client spinner; the handler may still answer with a toast.
			_ = c.Respond()
			return handled("cb:"+key, h)(c)
		}
		notFound := opts.NotFound
		if notFound == nil {
			notFound = reg.CallbackNotFound()
		}
		logger.Warn(helpers.BuildContext(c), logger.CompTG, "callback.unknown",
			slog.String("cb_key", logger.SanitizeLimit(key, 64)),
		)
		if notFound == nil {
			return c.Respond()
		}
		return notFound(c)
	}}
}

// TextOptions configures TextRoutes.
type TextOptions struct {
	// UnknownText answers text when the registry has no fallback.
	UnknownText tele.HandlerFunc
	// NonText answers photos, documents, voice notes and stickers.
	NonText tele.HandlerFunc
}

// TextRoutes handles plain text and non-text media. Slash text reaching
// this route is resolved through aliases first; admin-only commands are
// never reachable this way.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	text := func(c tele.Context) error {
		msg := strings.TrimSpace(c.Text())
		if strings.HasPrefix(msg, "/") {
			if key, cmd, ok := reg.LookupCommand(msg); ok && !cmd.AdminOnly {
				return handled(key, cmd.Handler)(c)
			}
		}
		fallback := reg.TextFallback()
		if fallback == nil {
			fallback = opts.UnknownText
		}
		if fallback == nil {
			return nil
		}
		return handled("text", fallback)(c)
	}
	nonText := opts.NonText
	if nonText == nil {
		nonText = func(tele.Context) error { return nil }
	}
	nonText = handled("non_text", nonText)

	routes := []tg.Route{{Endpoint: tele.OnText, Handler: text}}
	for _, ep := range []string{tele.OnPhoto, tele.OnDocument, tele.OnVoice, tele.OnSticker} {
		routes = append(routes, tg.Route{Endpoint: ep, Handler: nonText})
	}
	return routes
}
