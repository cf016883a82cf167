package router

import (
	"fmt"
	"strings"

	"github.com/m3rciful/cemtembot/core/buildinfo"
	"github.com/m3rciful/cemtembot/internal/domain"
	"github.com/m3rciful/cemtembot/internal/quote"
)

const (
	msgSessionExpired = "❌ Session expired. Please start again."
	msgInquiryFailed  = "❌ Sorry, we couldn't submit your inquiry. Please try again with /start."
	msgRegisterFailed = "❌ Sorry, your registration could not be saved. Please try again with /start."
	msgQuoteFailed    = "❌ Sorry, your quote could not be submitted. Please try again."
	msgUnknownVendor  = "❌ You are not registered as a vendor. Type /start to register."
	msgUnknownInquiry = "❌ Inquiry not found. Please check the Inquiry ID and try again."
	msgQuoteCancelled = "❌ Quote cancelled. Tap \"Enter Rate Amount\" on the inquiry to start again."
	msgQuoteForwarded = "✅ Thanks! Your quote has been forwarded to the buyer."
	msgQuoteHeld      = "⚠️ Your quote was saved, but the buyer could not be reached right now. " +
		"It stays on record under the inquiry; there is no need to send it again."
)

func helpText() string {
	return "🤖 CemTemBot Help\n\n" +
		"Commands:\n" +
		"/start - Start a new pricing inquiry or register as a vendor\n" +
		"/help - Show this help message\n\n" +
		"For vendors: tap \"Enter Rate Amount\" on an inquiry, or reply with text.\n" +
		quote.FormatHelp
}

func noVendorsText(inq domain.Inquiry) string {
	return fmt.Sprintf("😔 Sorry, no %s vendors are available in %s right now. "+
		"Your inquiry %s has been saved and we'll reach out as vendors join.",
		strings.ToLower(inq.Material.Label()), inq.City, inq.InquiryID)
}

func alreadyRegisteredText(v domain.Vendor) string {
	return fmt.Sprintf("ℹ️ You are already registered as %s (%s).\n\n%s", v.Name, v.VendorID, quote.FormatHelp)
}

func formatErrorText(fe *quote.FormatError) string {
	return fmt.Sprintf("❌ Your quote is missing: %s\n\n%s", strings.Join(fe.Missing, ", "), quote.FormatHelp)
}

const msgDeactivateUsage = "Usage: /deactivate VEN-..."

func deactivatedText(v domain.Vendor) string {
	return fmt.Sprintf("✅ Vendor %s (%s) is deactivated and will no longer receive inquiries.", v.Name, v.VendorID)
}

func statusText(s Status) string {
	return fmt.Sprintf("📊 Bot status\n\nActive conversations: %d\nQuote drafts: %d\nFailed deliveries: %d\nBuild: %s",
		s.Conversations, s.Drafts, s.SendErrors, buildinfo.String())
}
