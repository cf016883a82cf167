// Package router is the channel-agnostic entry point for inbound text and
// button presses. It runs the onboarding dialogue and the vendor quote flows
// and executes their side effects.
package router

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/m3rciful/cemtembot/core/logger"
	"github.com/m3rciful/cemtembot/internal/conversation"
	"github.com/m3rciful/cemtembot/internal/domain"
	"github.com/m3rciful/cemtembot/internal/events"
	"github.com/m3rciful/cemtembot/internal/ids"
	"github.com/m3rciful/cemtembot/internal/matcher"
	"github.com/m3rciful/cemtembot/internal/messenger"
	"github.com/m3rciful/cemtembot/internal/quote"
	"github.com/m3rciful/cemtembot/internal/relay"
	"github.com/m3rciful/cemtembot/internal/session"
	"github.com/m3rciful/cemtembot/internal/storage"
)

// Commands understood on every channel.
const (
	CmdStart  = conversation.StartCommand
	CmdHelp   = "/help"
	CmdStatus = "/status"
)

// Status is the snapshot reported by /status.
type Status struct {
	Conversations int
	Drafts        int
	SendErrors    uint64
}

// Deps are the collaborators of a Router.
type Deps struct {
	Flow     *conversation.Flow
	Guided   *quote.Guided
	Matcher  *matcher.Matcher
	Relay    *relay.Relay
	Storage  storage.Storage
	Msgr     messenger.Messenger
	IDs      *ids.Generator
	Sessions session.Store[conversation.Session]
	Drafts   session.Store[quote.Draft]
	Events   events.Publisher
	// SendErrors reports failed outbound deliveries; nil reports zero.
	SendErrors func() uint64
}

// Router dispatches inbound messages.
type Router struct {
	Deps
}

// New builds a router. Nil flows and publishers get defaults.
func New(d Deps) *Router {
	if d.Flow == nil {
		d.Flow = conversation.New(nil)
	}
	if d.Guided == nil {
		d.Guided = quote.NewGuided()
	}
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	return &Router{Deps: d}
}

// OnText handles a typed message.
func (r *Router) OnText(ctx context.Context, addr domain.Address, text string) error {
	ctx = logger.WithChannel(ctx, string(addr.Channel), addr.ID)
	text = strings.TrimSpace(text)
	key := addr.Key()

	switch strings.ToLower(text) {
	case CmdHelp:
		return r.reply(ctx, addr, helpText(), nil)
	case CmdStart:
		if err := r.Drafts.Delete(ctx, key); err != nil {
			logger.Warn(ctx, logger.CompQuotes, "draft.delete.fail", slog.String("err", err.Error()))
		}
		return r.converse(ctx, addr, conversation.Session{}, CmdStart)
	}

	draft, ok, err := r.Drafts.Get(ctx, key)
	if err != nil {
		return r.storeFailure(ctx, addr, "draft.load", err)
	}
	if ok && awaitingInput(draft.Step) {
		next, rep := r.Guided.Input(draft, text)
		return r.applyGuided(ctx, addr, next, rep)
	}

	if handled, err := r.freeTextQuote(ctx, addr, text); handled {
		return err
	}

	sess, _, err := r.Sessions.Get(ctx, key)
	if err != nil {
		return r.storeFailure(ctx, addr, "session.load", err)
	}
	return r.converse(ctx, addr, sess, text)
}

// OnButtonPress handles a quick-reply token.
func (r *Router) OnButtonPress(ctx context.Context, addr domain.Address, token string) error {
	ctx = logger.WithChannel(ctx, string(addr.Channel), addr.ID)
	token = strings.TrimSpace(token)
	if tok, ok := quote.ParseToken(token); ok {
		return r.guidedButton(ctx, addr, tok)
	}

	sess, ok, err := r.Sessions.Get(ctx, addr.Key())
	if err != nil {
		return r.storeFailure(ctx, addr, "session.load", err)
	}
	if !ok {
		logger.Info(ctx, logger.CompFlow, "session.expired", slog.String("action", token))
		return r.reply(ctx, addr, msgSessionExpired, nil)
	}
	return r.converse(ctx, addr, sess, token)
}

// OnStatus answers the admin status command. Callers enforce who may ask;
// OnText treats "/status" as ordinary input.
func (r *Router) OnStatus(ctx context.Context, addr domain.Address) error {
	ctx = logger.WithChannel(ctx, string(addr.Channel), addr.ID)
	return r.reply(ctx, addr, statusText(r.Status(ctx)), nil)
}

// OnDeactivate answers the admin deactivate command for vendorID. Callers
// enforce who may ask.
func (r *Router) OnDeactivate(ctx context.Context, addr domain.Address, vendorID string) error {
	ctx = logger.WithChannel(ctx, string(addr.Channel), addr.ID)
	vendorID = strings.TrimSpace(vendorID)
	if vendorID == "" {
		return r.reply(ctx, addr, msgDeactivateUsage, nil)
	}
	v, err := r.Storage.Vendor(ctx, vendorID)
	if errors.Is(err, storage.ErrNotFound) {
		return r.reply(ctx, addr, "❌ Unknown vendor "+vendorID, nil)
	}
	if err == nil {
		err = storage.Deactivate(ctx, r.Storage, vendorID)
	}
	if err != nil {
		logger.Error(ctx, logger.CompFlow, "vendor.deactivate.fail",
			slog.String("vendor_id", vendorID),
			slog.String("err", err.Error()),
		)
		return r.reply(ctx, addr, "❌ Could not deactivate "+vendorID+". Please try again.", nil)
	}
	logger.Info(ctx, logger.CompFlow, "vendor.deactivate", slog.String("vendor_id", vendorID))
	return r.reply(ctx, addr, deactivatedText(v), nil)
}

// Status counts live sessions and drafts.
func (r *Router) Status(ctx context.Context) Status {
	var s Status
	if n, err := r.Sessions.Len(ctx); err == nil {
		s.Conversations = n
	}
	if n, err := r.Drafts.Len(ctx); err == nil {
		s.Drafts = n
	}
	if r.SendErrors != nil {
		s.SendErrors = r.SendErrors()
	}
	return s
}

func (r *Router) converse(ctx context.Context, addr domain.Address, sess conversation.Session, input string) error {
	key := addr.Key()
	res := r.Flow.Process(conversation.Context{Channel: addr.Channel, Step: sess.Step, Data: sess.Data}, input)
	logger.Debug(ctx, logger.CompFlow, "flow.step",
		slog.String("step", string(sess.Step)),
		slog.String("next", string(res.Next)),
		slog.String("action", string(res.Action)),
	)

	if res.Next == conversation.StepCompleted {
		if err := r.Sessions.Delete(ctx, key); err != nil {
			logger.Warn(ctx, logger.CompFlow, "session.delete.fail", slog.String("err", err.Error()))
		}
	} else if err := r.Sessions.Set(ctx, key, conversation.Session{Step: res.Next, Data: res.Data}); err != nil {
		return r.storeFailure(ctx, addr, "session.save", err)
	}

	switch res.Action {
	case conversation.ActionCreateInquiry:
		return r.createInquiry(ctx, addr, res)
	case conversation.ActionRegisterVendor:
		return r.registerVendor(ctx, addr, res)
	}
	return r.reply(ctx, addr, res.Message, res.Options)
}

func (r *Router) createInquiry(ctx context.Context, addr domain.Address, res conversation.Result) error {
	d := res.Data
	inq := domain.Inquiry{
		InquiryID:     r.IDs.NewInquiryID(),
		UserName:      domain.SenderName(ctx),
		UserPhone:     d.Phone,
		Buyer:         addr,
		Platform:      addr.Channel,
		Material:      d.Material,
		CementCompany: d.CementCompany,
		CementTypes:   d.CementTypes,
		TMTCompany:    d.TMTCompany,
		TMTSizes:      d.TMTSizes,
		City:          d.City,
		Quantity:      d.Quantity,
		Status:        domain.StatusPending,
	}
	inq, vendors, err := r.Matcher.Dispatch(ctx, inq)
	if err != nil {
		logger.Error(ctx, logger.CompFlow, "inquiry.create.fail",
			slog.String("inquiry_id", inq.InquiryID),
			slog.String("err", err.Error()),
		)
		return r.reply(ctx, addr, msgInquiryFailed, nil)
	}
	if len(vendors) == 0 {
		return r.reply(ctx, addr, noVendorsText(inq), nil)
	}
	return r.reply(ctx, addr, res.Message+"\n\nInquiry ID: "+inq.InquiryID, nil)
}

func (r *Router) registerVendor(ctx context.Context, addr domain.Address, res conversation.Result) error {
	d := res.Data
	v := domain.Vendor{
		VendorID:  r.IDs.NewVendorID(),
		Name:      d.Company,
		Phone:     d.Phone,
		City:      d.City,
		Materials: d.VendorMaterials,
		IsActive:  true,
	}
	if addr.Channel == domain.ChannelTelegram {
		v.TelegramID = addr.ID
		existing, err := r.Storage.VendorByChannelID(ctx, addr.ID)
		if err == nil {
			return r.reply(ctx, addr, alreadyRegisteredText(existing), nil)
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return r.storeFailure(ctx, addr, "vendor.load", err)
		}
	}
	if err := r.Storage.CreateVendor(ctx, v); err != nil {
		logger.Error(ctx, logger.CompFlow, "vendor.register.fail",
			slog.String("vendor_id", v.VendorID),
			slog.String("err", err.Error()),
		)
		return r.reply(ctx, addr, msgRegisterFailed, nil)
	}
	logger.Info(ctx, logger.CompFlow, "vendor.registered",
		slog.String("vendor_id", v.VendorID),
		slog.String("city", v.City),
	)
	if err := r.Events.Publish(ctx, events.Event{
		Type:     events.VendorRegistered,
		VendorID: v.VendorID,
		City:     v.City,
		Channel:  string(addr.Channel),
	}); err != nil {
		logger.Warn(ctx, logger.CompFlow, "events.publish.fail", slog.String("err", err.Error()))
	}
	return r.reply(ctx, addr, res.Message+"\n\nVendor ID: "+v.VendorID, nil)
}

func (r *Router) reply(ctx context.Context, addr domain.Address, text string, opts []domain.Option) error {
	if text == "" {
		return nil
	}
	if err := r.Msgr.Send(ctx, addr, text, messenger.WithQuickReplies(opts)); err != nil {
		logger.Error(ctx, logger.CompFlow, "reply.send.fail", slog.String("err", err.Error()))
		return err
	}
	return nil
}

func (r *Router) storeFailure(ctx context.Context, addr domain.Address, op string, err error) error {
	logger.Error(ctx, logger.CompSessions, op+".fail", slog.String("err", err.Error()))
	_ = r.reply(ctx, addr, msgSessionExpired, nil)
	return err
}
