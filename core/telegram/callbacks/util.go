// Package callbacks decodes inline button callback data.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// ParseCallbackData splits telebot's "\f<unique>|<payload>" encoding. The
// leading form feed is optional; a missing payload is empty.
func ParseCallbackData(cb *tele.Callback) (unique, payload string) {
	if cb == nil {
		return "", ""
	}
	unique, payload, _ = strings.Cut(strings.TrimPrefix(cb.Data, "\f"), "|")
	return strings.TrimSpace(unique), payload
}

// CallbackKey is the unique of the current callback, or "".
func CallbackKey(c tele.Context) string {
	key, _ := split(c.Callback())
	return key
}

// CallbackPayload is the payload of the current callback, or "".
func CallbackPayload(c tele.Context) string {
	_, payload := split(c.Callback())
	return payload
}

// split trusts Unique when telebot matched a registered button, since Data
// then holds the bare payload.
func split(cb *tele.Callback) (string, string) {
	if cb != nil && cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	return ParseCallbackData(cb)
}
