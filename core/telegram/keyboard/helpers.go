// Package keyboard builds inline keyboards from plain button values.
package keyboard

import tele "gopkg.in/telebot.v4"

// MaxCallbackData is Telegram's limit on callback_data, in bytes.
const MaxCallbackData = 64

// InlineBtn is one inline button: its label and the callback unique and
// payload telebot encodes as "\f<unique>|<data>".
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
}

// CallbackLen is the encoded callback_data length of b.
func (b InlineBtn) CallbackLen() int {
	n := 1 + len(b.Unique)
	if b.Data != "" {
		n += 1 + len(b.Data)
	}
	return n
}

// InlineButtonsNPerRow lays buttons out n per row; n below 1 means one per row.
func InlineButtonsNPerRow(buttons []InlineBtn, n int) *tele.ReplyMarkup {
	if n < 1 {
		n = 1
	}
	markup := &tele.ReplyMarkup{}
	var rows [][]tele.InlineButton
	for len(buttons) > 0 {
		k := min(n, len(buttons))
		row := make([]tele.InlineButton, k)
		for i, b := range buttons[:k] {
			row[i] = *markup.Data(b.Text, b.Unique, b.Data).Inline()
		}
		rows = append(rows, row)
		buttons = buttons[k:]
	}
	markup.InlineKeyboard = rows
	return markup
}
