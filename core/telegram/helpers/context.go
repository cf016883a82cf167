// Package helpers bridges telebot contexts to context.Context so services
// below the handlers log with the update's rid and ids.
package helpers

import (
	"context"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/cemtembot/core/logger"
)

const (
	keyCtx = "ctx"
	keyRID = "rid"
)

// StoreContext caches ctx on c for later BuildContext calls.
func StoreContext(c tele.Context, ctx context.Context) {
	if c != nil && ctx != nil {
		c.Set(keyCtx, ctx)
	}
}

// BuildContext returns the context cached on c, creating one tagged with
// the update rid, ids and the tg component logger on first use.
func BuildContext(c tele.Context) context.Context {
	if ctx, ok := c.Get(keyCtx).(context.Context); ok {
		return ctx
	}
	updateID, chatID, userID := IDs(c)
	rid, _ := c.Get(keyRID).(string)
	if rid == "" {
		rid = logger.BuildRID(updateID, chatID, userID)
		c.Set(keyRID, rid)
	}
	ctx := logger.WithRID(context.Background(), rid)
	ctx = logger.WithUpdateMeta(ctx, updateID, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.Component(logger.CompTG))
	StoreContext(c, ctx)
	return ctx
}

// WithHandler tags the cached context with the serving handler name.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := logger.WithHandler(BuildContext(c), handler)
	StoreContext(c, ctx)
	return ctx
}

// IDs returns the update, chat and sender ids; missing parts are zero.
func IDs(c tele.Context) (updateID int, chatID, userID int64) {
	updateID = c.Update().ID
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		userID = user.ID
	}
	return updateID, chatID, userID
}
