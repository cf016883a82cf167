// Package middleware holds the global telebot middleware chain.
package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/cemtembot/core/logger"
	"github.com/m3rciful/cemtembot/core/telegram/callbacks"
	"github.com/m3rciful/cemtembot/core/telegram/helpers"
)

const panicReply = "⚠️ Something went wrong on our side. Please try again or send /start."

// RecoverMiddleware turns a handler panic into an error log line and a
// short apology to the chat.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.Error(helpers.BuildContext(c), logger.CompTG, "handler.panic",
				slog.String("err", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())),
			)
			if c.Chat() != nil {
				_ = c.Send(panicReply)
			}
			err = nil
		}()
		return next(c)
	}
}

// LoggerMiddleware prepares the update context (rid and ids) and writes a
// sampled debug receipt line with the user input.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := helpers.BuildContext(c)
		if !logger.ShouldSampleDebug() {
			return next(c)
		}

		attrs := []slog.Attr{slog.String("status", "ok")}
		if chat := c.Chat(); chat != nil {
			attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
		}
		if u := c.Sender(); u != nil && u.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(u.Username, 64)))
		}
		if cb := c.Callback(); cb != nil {
			key, payload := cb.Unique, cb.Data
			if key == "" {
				key, payload = callbacks.ParseCallbackData(cb)
			}
			attrs = append(attrs,
				slog.String("cb_key", logger.SanitizeLimit(key, 64)),
				slog.String("payload", logger.SanitizeLimit(payload, 128)),
			)
		} else if text := c.Text(); text != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(text, 256)))
		}
		logger.Debug(ctx, logger.CompTG, "update.received", attrs...)
		return next(c)
	}
}
