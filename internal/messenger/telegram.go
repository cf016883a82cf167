package messenger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/cemtembot/core/logger"
	"github.com/m3rciful/cemtembot/core/telegram/keyboard"
	"github.com/m3rciful/cemtembot/core/telegram/sender"
	"github.com/m3rciful/cemtembot/internal/domain"
)

// ButtonUnique is the callback unique shared by every quick-reply button; the
// option token travels as the callback data.
const ButtonUnique = "opt"

// TelegramAPI is the subset of *tele.Bot used for sending.
type TelegramAPI interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Telegram sends through the outbound dispatcher, falling back to a direct
// call when the queue is saturated.
type Telegram struct {
	api  TelegramAPI
	disp *sender.Dispatcher
}

// NewTelegram returns a Telegram transport. disp may be nil for synchronous sends.
func NewTelegram(api TelegramAPI, disp *sender.Dispatcher) *Telegram {
	return &Telegram{api: api, disp: disp}
}

func (t *Telegram) Send(ctx context.Context, to domain.Address, text string, opts ...Option) error {
	chatID, err := strconv.ParseInt(to.ID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram send: bad chat id %q: %w", to.ID, err)
	}
	o := Resolve(opts...)
	var sendOpts []interface{}
	if len(o.QuickReplies) > 0 {
		sendOpts = append(sendOpts, Markup(o.QuickReplies))
	}
	run := func() error {
		_, err := t.api.Send(tele.ChatID(chatID), text, sendOpts...)
		return err
	}
	if t.disp == nil {
		return run()
	}
	err = t.disp.Enqueue(ctx, sender.Job{Action: "send_message", ChatID: chatID, Run: run})
	if errors.Is(err, sender.ErrQueueFull) {
		logger.Warn(ctx, logger.CompTG, "send.queue_full",
			slog.Int64("chat_id", chatID),
			slog.String("status", "retry"),
		)
		return run()
	}
	return err
}

// Markup renders options as an inline keyboard, two per row once the list
// gets long. Options whose token does not fit in callback data are dropped.
func Markup(opts []domain.Option) *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, 0, len(opts))
	for _, o := range opts {
		b := keyboard.InlineBtn{Text: o.Label, Unique: ButtonUnique, Data: o.Token}
		if b.CallbackLen() > keyboard.MaxCallbackData {
			logger.Warn(context.Background(), logger.CompTG, "markup.button.skip",
				slog.String("action", o.Token),
				slog.String("reason", "callback_data_too_long"),
			)
			continue
		}
		btns = append(btns, b)
	}
	perRow := 1
	if len(btns) > 4 {
		perRow = 2
	}
	return keyboard.InlineButtonsNPerRow(btns, perRow)
}
