package quote

import (
	"strconv"
	"strings"

	"github.com/m3rciful/cemtembot/internal/domain"
)

// Button tokens of the guided flow.
const (
	TokenQuotePrefix    = "quote:"
	TokenRatePrefix     = "rate:"
	TokenGSTPrefix      = "gst:"
	TokenDeliveryPrefix = "delivery:"
	TokenRatesDone      = "rates_done"
	TokenCancel         = "quote_cancel"
)

// TokenKind classifies a guided-flow button token.
type TokenKind int

const (
	TokenUnknown TokenKind = iota
	TokenStart
	TokenRate
	TokenDone
	TokenGST
	TokenDelivery
	TokenAbort
)

// Token is a decoded guided-flow button press.
type Token struct {
	Kind      TokenKind
	InquiryID string
	Material  domain.Material
	Index     int
	Choice    string
}

// ParseToken decodes a button token. Unknown tokens return false.
func ParseToken(raw string) (Token, bool) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == TokenRatesDone:
		return Token{Kind: TokenDone}, true
	case raw == TokenCancel:
		return Token{Kind: TokenAbort}, true
	case strings.HasPrefix(raw, TokenQuotePrefix):
		id := domain.NormalizeInquiryID(strings.TrimPrefix(raw, TokenQuotePrefix))
		if !strings.HasPrefix(id, "INQ-") {
			return Token{}, false
		}
		return Token{Kind: TokenStart, InquiryID: id}, true
	case strings.HasPrefix(raw, TokenRatePrefix):
		mat, idx, ok := strings.Cut(strings.TrimPrefix(raw, TokenRatePrefix), ":")
		n, err := strconv.Atoi(idx)
		m := domain.Material(mat)
		if !ok || err != nil || n < 0 || (m != domain.MaterialCement && m != domain.MaterialTMT) {
			return Token{}, false
		}
		return Token{Kind: TokenRate, Material: m, Index: n}, true
	case strings.HasPrefix(raw, TokenGSTPrefix):
		return Token{Kind: TokenGST, Choice: strings.TrimPrefix(raw, TokenGSTPrefix)}, true
	case strings.HasPrefix(raw, TokenDeliveryPrefix):
		return Token{Kind: TokenDelivery, Choice: strings.TrimPrefix(raw, TokenDeliveryPrefix)}, true
	}
	return Token{}, false
}

// StartOption is the "Enter Rate Amount" button attached to inquiry prompts.
func StartOption(inquiryID string) domain.Option {
	return domain.Option{Label: "💰 Enter Rate Amount", Token: TokenQuotePrefix + inquiryID}
}
