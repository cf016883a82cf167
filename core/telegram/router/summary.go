package router

import (
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/cemtembot/core/logger"
	"github.com/m3rciful/cemtembot/core/telegram/helpers"
	"github.com/m3rciful/cemtembot/core/telegram/middleware"
)

// handled wraps h with the per-handler summary line.
func handled(name string, h tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := helpers.WithHandler(c, name)
		start := time.Now()
		err := h(c)
		replies, keyboard := middleware.Counters(c)
		attrs := []slog.Attr{
			slog.Duration("duration", time.Since(start)),
			slog.Int("messages", replies),
			slog.Bool("keyboard", keyboard),
		}
		if err != nil {
			logger.Warn(ctx, logger.CompTG, "handler.handled",
				append(attrs, slog.String("status", "fail"), slog.String("err", err.Error()))...)
			return err
		}
		logger.Info(ctx, logger.CompTG, "handler.handled", append(attrs, slog.String("status", "ok"))...)
		return nil
	}
}
