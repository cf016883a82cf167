package middleware

import tele "gopkg.in/telebot.v4"

const (
	keyReplies  = "replies"
	keyKeyboard = "kb"
)

// counting wraps a context and tallies successful replies and whether any
// carried a keyboard, for the handler summary line.
type counting struct{ tele.Context }

func (c counting) note(err error, opts []interface{}) error {
	if err != nil {
		return err
	}
	n, _ := c.Get(keyReplies).(int)
	c.Set(keyReplies, n+1)
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.ReplyMarkup:
			if v != nil {
				c.Set(keyKeyboard, true)
			}
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				c.Set(keyKeyboard, true)
			}
		}
	}
	return nil
}

func (c counting) Send(what interface{}, opts ...interface{}) error {
	return c.note(c.Context.Send(what, opts...), opts)
}

func (c counting) Reply(what interface{}, opts ...interface{}) error {
	return c.note(c.Context.Reply(what, opts...), opts)
}

func (c counting) Edit(what interface{}, opts ...interface{}) error {
	return c.note(c.Context.Edit(what, opts...), opts)
}

func (c counting) EditOrSend(what interface{}, opts ...interface{}) error {
	return c.note(c.Context.EditOrSend(what, opts...), opts)
}

// MessageMetricsMiddleware installs the reply counters read by Counters.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set(keyReplies, 0)
		c.Set(keyKeyboard, false)
		return next(counting{Context: c})
	}
}

// Counters returns how many replies the handler sent and whether one had a keyboard.
func Counters(c tele.Context) (replies int, keyboard bool) {
	replies, _ = c.Get(keyReplies).(int)
	keyboard, _ = c.Get(keyKeyboard).(bool)
	return replies, keyboard
}
