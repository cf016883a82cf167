package web

import (
	"github.com/go-playground/validator/v10"

	"github.com/m3rciful/cemtembot/internal/domain"
)

// Client frame types.
const (
	FrameMessage = "message"
	FrameButton  = "button"
	FrameReply   = "bot-reply"
	FrameError   = "error"
)

// ClientFrame is what the chat widget sends over the socket.
type ClientFrame struct {
	Type  string `json:"type" validate:"required,oneof=message button"`
	Text  string `json:"text,omitempty" validate:"required_if=Type message,max=4000"`
	Token string `json:"token,omitempty" validate:"required_if=Type button,max=128"`
}

// ReplyFrame is pushed to every socket joined to a session.
type ReplyFrame struct {
	Type    string          `json:"type"`
	Text    string          `json:"text"`
	Options []domain.Option `json:"options,omitempty"`
	TS      int64           `json:"ts"`
}

var validate = validator.New()

func (f ClientFrame) validate() error {
	return validate.Struct(f)
}
