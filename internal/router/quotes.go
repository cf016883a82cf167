package router

import (
	"context"
	"errors"
	"log/slog"

	"github.com/m3rciful/cemtembot/core/logger"
	"github.com/m3rciful/cemtembot/internal/domain"
	"github.com/m3rciful/cemtembot/internal/quote"
	"github.com/m3rciful/cemtembot/internal/relay"
	"github.com/m3rciful/cemtembot/internal/storage"
)

func awaitingInput(s quote.Step) bool {
	switch s {
	case quote.StepAwaitingRateInput, quote.StepAwaitingGSTInput, quote.StepAwaitingDeliveryInput:
		return true
	}
	return false
}

// freeTextQuote relays a typed RATE/GST/DELIVERY reply. It reports false when
// the text is not a quote attempt.
func (r *Router) freeTextQuote(ctx context.Context, addr domain.Address, text string) (bool, error) {
	p, err := quote.Parse(text)
	if errors.Is(err, quote.ErrNotAQuote) {
		return false, nil
	}
	var fe *quote.FormatError
	if errors.As(err, &fe) {
		logger.Info(ctx, logger.CompQuotes, "quote.parse.fail", slog.Any("missing", fe.Missing))
		return true, r.reply(ctx, addr, formatErrorText(fe), nil)
	}
	if err != nil {
		return true, r.reply(ctx, addr, quote.FormatHelp, nil)
	}
	_, err = r.deliver(ctx, addr, p.Quote("", addr), "")
	return true, err
}

func (r *Router) guidedButton(ctx context.Context, addr domain.Address, tok quote.Token) error {
	key := addr.Key()
	if tok.Kind == quote.TokenStart {
		return r.startDraft(ctx, addr, tok.InquiryID)
	}

	d, ok, err := r.Drafts.Get(ctx, key)
	if err != nil {
		return r.storeFailure(ctx, addr, "draft.load", err)
	}
	if !ok {
		logger.Info(ctx, logger.CompQuotes, "draft.expired")
		return r.reply(ctx, addr, msgSessionExpired, nil)
	}

	var (
		next quote.Draft
		rep  quote.Reply
	)
	switch tok.Kind {
	case quote.TokenRate:
		next, rep = r.Guided.SelectItem(d, tok.Material, tok.Index)
	case quote.TokenDone:
		next, rep = r.Guided.Complete(d)
	case quote.TokenGST:
		next, rep = r.Guided.SelectGST(d, tok.Choice)
	case quote.TokenDelivery:
		next, rep = r.Guided.SelectDelivery(d, tok.Choice)
	case quote.TokenAbort:
		if err := r.Drafts.Delete(ctx, key); err != nil {
			logger.Warn(ctx, logger.CompQuotes, "draft.delete.fail", slog.String("err", err.Error()))
		}
		return r.reply(ctx, addr, msgQuoteCancelled, nil)
	default:
		return r.reply(ctx, addr, msgSessionExpired, nil)
	}
	return r.applyGuided(ctx, addr, next, rep)
}

func (r *Router) startDraft(ctx context.Context, addr domain.Address, inquiryID string) error {
	key := addr.Key()
	if d, ok, err := r.Drafts.Get(ctx, key); err == nil && ok && d.InquiryID == inquiryID && d.Step != quote.StepCompleted {
		next, rep := r.Guided.Resume(d)
		return r.applyGuided(ctx, addr, next, rep)
	}

	inq, err := r.Storage.Inquiry(ctx, inquiryID)
	if errors.Is(err, storage.ErrNotFound) {
		logger.Info(ctx, logger.CompQuotes, "draft.start.miss", slog.String("inquiry_id", inquiryID))
		return r.reply(ctx, addr, msgUnknownInquiry, nil)
	}
	if err != nil {
		return r.storeFailure(ctx, addr, "inquiry.load", err)
	}
	next, rep := r.Guided.Start(inq)
	logger.Debug(ctx, logger.CompQuotes, "draft.start",
		slog.String("inquiry_id", inq.InquiryID),
		slog.Int("items", len(next.Items)),
	)
	return r.applyGuided(ctx, addr, next, rep)
}

// applyGuided persists the new draft state, or relays the finished quote.
// A relay that fails before the quote is stored leaves the draft untouched
// so the vendor can press the last button again.
func (r *Router) applyGuided(ctx context.Context, addr domain.Address, next quote.Draft, rep quote.Reply) error {
	key := addr.Key()
	if rep.Action == quote.ActionSendQuote && rep.Quote != nil {
		q := *rep.Quote
		q.Vendor = addr
		final, err := r.deliver(ctx, addr, q, rep.Message)
		if final {
			if derr := r.Drafts.Delete(ctx, key); derr != nil {
				logger.Warn(ctx, logger.CompQuotes, "draft.delete.fail", slog.String("err", derr.Error()))
			}
		}
		return err
	}
	if err := r.Drafts.Set(ctx, key, next); err != nil {
		return r.storeFailure(ctx, addr, "draft.save", err)
	}
	return r.reply(ctx, addr, rep.Message, rep.Options)
}

// deliver relays q and tells the vendor how it went. confirm is prepended to
// the success message. final is false only when a retry could succeed.
func (r *Router) deliver(ctx context.Context, addr domain.Address, q domain.Quote, confirm string) (final bool, err error) {
	res, err := r.Relay.Deliver(ctx, q)
	switch {
	case errors.Is(err, relay.ErrUnknownVendor):
		logger.Info(ctx, logger.CompQuotes, "quote.vendor.miss", slog.String("inquiry_id", q.InquiryID))
		return true, r.reply(ctx, addr, msgUnknownVendor, nil)
	case errors.Is(err, relay.ErrUnknownInquiry):
		logger.Info(ctx, logger.CompQuotes, "quote.inquiry.miss", slog.String("inquiry_id", q.InquiryID))
		return true, r.reply(ctx, addr, msgUnknownInquiry, nil)
	case err != nil:
		logger.Error(ctx, logger.CompQuotes, "quote.relay.fail",
			slog.String("inquiry_id", q.InquiryID),
			slog.String("err", err.Error()),
		)
		return false, r.reply(ctx, addr, msgQuoteFailed, nil)
	}
	logger.Info(ctx, logger.CompQuotes, "quote.accepted",
		slog.String("inquiry_id", res.Inquiry.InquiryID),
		slog.String("vendor_id", res.Vendor.VendorID),
		slog.Bool("notified", res.Notified),
	)
	if confirm != "" {
		confirm += "\n\n"
	}
	// Stored rows stand even when the buyer was not reached.
	outcome := msgQuoteForwarded
	if !res.Notified {
		outcome = msgQuoteHeld
	}
	return true, r.reply(ctx, addr, confirm+outcome, nil)
}
