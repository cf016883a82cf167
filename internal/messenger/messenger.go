// Package messenger delivers bot replies to participants on whatever channel
// their address belongs to.
package messenger

import (
	"context"
	"errors"
	"fmt"

	"github.com/m3rciful/cemtembot/internal/domain"
)

// ErrNoRoute is returned when no transport serves the address channel.
var ErrNoRoute = errors.New("messenger: no transport for channel")

// Messenger sends text, optionally with quick-reply buttons, to an address.
type Messenger interface {
	Send(ctx context.Context, to domain.Address, text string, opts ...Option) error
}

// Option customizes a single send.
type Option func(*SendOptions)

// SendOptions is the resolved set of per-send options.
type SendOptions struct {
	QuickReplies []domain.Option
}

// WithQuickReplies attaches buttons rendered as an inline keyboard on
// Telegram and as quick-reply chips in the web widget.
func WithQuickReplies(opts []domain.Option) Option {
	return func(o *SendOptions) {
		o.QuickReplies = append(o.QuickReplies, opts...)
	}
}

// Resolve applies opts in order.
func Resolve(opts ...Option) SendOptions {
	var o SendOptions
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// Mux routes sends to the transport registered for the address channel.
type Mux struct {
	routes map[domain.Channel]Messenger
}

// NewMux returns an empty router.
func NewMux() *Mux {
	return &Mux{routes: make(map[domain.Channel]Messenger)}
}

// Handle registers m for channel ch.
func (m *Mux) Handle(ch domain.Channel, msgr Messenger) *Mux {
	m.routes[ch] = msgr
	return m
}

func (m *Mux) Send(ctx context.Context, to domain.Address, text string, opts ...Option) error {
	if to.Empty() {
		return fmt.Errorf("messenger: empty address %q", to.Key())
	}
	msgr, ok := m.routes[to.Channel]
	if !ok {
		return fmt.Errorf("%w %s", ErrNoRoute, to.Channel)
	}
	return msgr.Send(ctx, to, text, opts...)
}
