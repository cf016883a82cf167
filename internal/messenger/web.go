package messenger

import (
	"context"
	"fmt"
	"time"

	"github.com/m3rciful/cemtembot/internal/domain"
	"github.com/m3rciful/cemtembot/internal/web"
)

// Web pushes replies to every socket joined to the addressed chat session.
type Web struct {
	hub *web.Hub
	now func() time.Time
}

// NewWeb returns a web chat transport over hub.
func NewWeb(hub *web.Hub) *Web {
	return &Web{hub: hub, now: time.Now}
}

func (w *Web) Send(ctx context.Context, to domain.Address, text string, opts ...Option) error {
	o := Resolve(opts...)
	frame := web.ReplyFrame{
		Type:    web.FrameReply,
		Text:    text,
		Options: o.QuickReplies,
		TS:      w.now().UnixMilli(),
	}
	if _, err := w.hub.Broadcast(ctx, to.ID, frame); err != nil {
		return fmt.Errorf("web send %s: %w", to.ID, err)
	}
	return nil
}
