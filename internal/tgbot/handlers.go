// Package tgbot binds Telegram updates to the channel-agnostic conversation
// router.
package tgbot

import (
	"context"
	"strconv"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/cemtembot/core/telegram"
	"github.com/m3rciful/cemtembot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/cemtembot/core/telegram/helpers"
	tgrouter "github.com/m3rciful/cemtembot/core/telegram/router"
	"github.com/m3rciful/cemtembot/internal/domain"
	"github.com/m3rciful/cemtembot/internal/messenger"
)

// Conversation receives inbound text and button presses.
type Conversation interface {
	OnText(ctx context.Context, addr domain.Address, text string) error
	OnButtonPress(ctx context.Context, addr domain.Address, token string) error
	OnStatus(ctx context.Context, addr domain.Address) error
	OnDeactivate(ctx context.Context, addr domain.Address, vendorID string) error
}

const nonTextReply = "📝 Please reply with text or use the buttons. Type /help for instructions."

// Handlers adapts telebot handlers to a Conversation.
type Handlers struct {
	conv Conversation
}

// New returns handlers for conv.
func New(conv Conversation) *Handlers {
	return &Handlers{conv: conv}
}

// Address is the reply address of an update: the chat it came from.
func Address(c tele.Context) domain.Address {
	chat := c.Chat()
	if chat == nil {
		return domain.Address{Channel: domain.ChannelTelegram}
	}
	return domain.Address{Channel: domain.ChannelTelegram, ID: strconv.FormatInt(chat.ID, 10)}
}

// Context is the request context of an update, carrying the sender's first name.
func Context(c tele.Context) context.Context {
	ctx := tghelpers.BuildContext(c)
	if s := c.Sender(); s != nil {
		ctx = domain.WithSenderName(ctx, s.FirstName)
	}
	return ctx
}

// Text forwards free text.
func (h *Handlers) Text(c tele.Context) error {
	return h.conv.OnText(Context(c), Address(c), c.Text())
}

// Command forwards a command as its canonical text, dropping any arguments.
func (h *Handlers) Command(name string) tele.HandlerFunc {
	return func(c tele.Context) error {
		return h.conv.OnText(Context(c), Address(c), name)
	}
}

// Button forwards a quick-reply press.
func (h *Handlers) Button(c tele.Context) error {
	return h.conv.OnButtonPress(Context(c), Address(c), callbacks.CallbackPayload(c))
}

// Status answers the admin status command; the route guards who reaches it.
func (h *Handlers) Status(c tele.Context) error {
	return h.conv.OnStatus(Context(c), Address(c))
}

// Deactivate forwards the admin deactivate command with its vendor id argument.
func (h *Handlers) Deactivate(c tele.Context) error {
	var vendorID string
	if args := c.Args(); len(args) > 0 {
		vendorID = args[0]
	}
	return h.conv.OnDeactivate(Context(c), Address(c), vendorID)
}

// NonText answers media messages.
func (h *Handlers) NonText(c tele.Context) error {
	return c.Send(nonTextReply)
}

// Register adds the bot commands, the quick-reply callback and the text
// fallback to reg.
func (h *Handlers) Register(reg *tg.Registry) error {
	cmds := []struct {
		name string
		cmd  tg.Command
	}{
		{"/start", tg.Command{
			Handler:     h.Command("/start"),
			Description: "Start a new price inquiry or register as a vendor",
			Aliases:     []string{"restart"},
		}},
		{"/help", tg.Command{
			Handler:     h.Command("/help"),
			Description: "How to use the bot and the quote format",
		}},
		{"/status", tg.Command{
			Handler:     h.Status,
			Description: "Active sessions and delivery errors",
			AdminOnly:   true,
		}},
		{"/deactivate", tg.Command{
			Handler:     h.Deactivate,
			Description: "Stop routing inquiries to a vendor",
			AdminOnly:   true,
		}},
	}
	for _, c := range cmds {
		if err := reg.RegisterCommand(c.name, c.cmd); err != nil {
			return err
		}
	}
	reg.SetTextFallback(h.Text)
	return reg.RegisterCallback(messenger.ButtonUnique, h.Button)
}

// Routes builds the telebot routes for a registry filled by Register.
func (h *Handlers) Routes(reg *tg.Registry, adminID int64) []tg.Route {
	routes := tgrouter.CommandRoutes(reg, tgrouter.CommandRouteOptions{AdminID: adminID})
	routes = append(routes, tgrouter.CallbackRoute(reg, tgrouter.CallbackOptions{}))
	routes = append(routes, tgrouter.TextRoutes(reg, tgrouter.TextOptions{NonText: h.NonText})...)
	return routes
}
