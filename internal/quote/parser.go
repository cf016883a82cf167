// Package quote captures vendor prices, either from the free-text reply
// format sent with every inquiry or through the button-guided draft flow.
package quote

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/m3rciful/cemtembot/internal/domain"
)

// DefaultUnit is used when a rate carries no "per <unit>" suffix.
const DefaultUnit = "unit"

// DeliveryNotSpecified is the delivery note of a reply without a DELIVERY line.
const DeliveryNotSpecified = "Not specified"

// ErrNotAQuote reports text that carries none of the mandatory quote fields.
var ErrNotAQuote = errors.New("quote: not a quote")

// FormatError reports a reply that looks like a quote but misses mandatory fields.
type FormatError struct {
	Missing []string
}

func (e *FormatError) Error() string {
	return "quote: missing " + strings.Join(e.Missing, ", ")
}

var (
	rateRe     = regexp.MustCompile(`(?i)RATE:\s*₹?\s*(\d+(?:\.\d+)?)(?:\s*per\s*(\w+))?`)
	gstRe      = regexp.MustCompile(`(?i)GST:\s*(\d+(?:\.\d+)?)\s*%?`)
	deliveryRe = regexp.MustCompile(`(?i)DELIVERY:[ \t]*([^\r\n]+)`)
	inquiryRe  = regexp.MustCompile(`(?i)Inquiry\s*ID:\s*(INQ-\d+(?:-(?:CEMENT|TMT))*)`)
)

// Parsed is a free-text vendor reply after extraction.
type Parsed struct {
	Rate         float64
	Unit         string
	GST          float64
	Delivery     float64
	DeliveryNote string
	InquiryID    string
}

// Parse extracts the quote fields from a vendor reply.
func Parse(text string) (Parsed, error) {
	var p Parsed
	rate := rateRe.FindStringSubmatch(text)
	inq := inquiryRe.FindStringSubmatch(text)
	if rate == nil && inq == nil {
		return p, ErrNotAQuote
	}

	var missing []string
	if rate == nil {
		missing = append(missing, "RATE")
	}
	if inq == nil {
		missing = append(missing, "Inquiry ID")
	}
	if len(missing) > 0 {
		return p, &FormatError{Missing: missing}
	}

	p.Rate, _ = strconv.ParseFloat(rate[1], 64)
	p.Unit = DefaultUnit
	if rate[2] != "" {
		p.Unit = strings.ToLower(rate[2])
	}
	p.InquiryID = domain.NormalizeInquiryID(strings.ToUpper(inq[1]))

	if m := gstRe.FindStringSubmatch(text); m != nil {
		p.GST, _ = strconv.ParseFloat(m[1], 64)
	}

	p.DeliveryNote = DeliveryNotSpecified
	if m := deliveryRe.FindStringSubmatch(text); m != nil {
		raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(m[1]), "₹"))
		if v, ok := amount(raw); ok {
			p.Delivery = v
			p.DeliveryNote = ""
		} else {
			p.DeliveryNote = strings.TrimSpace(m[1])
		}
	}
	return p, nil
}

// Quote normalizes the reply into the shared quote shape. The single line item
// carries no material; the relay stamps it with the inquiry's material.
func (p Parsed) Quote(vendorID string, vendor domain.Address) domain.Quote {
	return domain.Quote{
		VendorID:     vendorID,
		Vendor:       vendor,
		InquiryID:    p.InquiryID,
		Items:        []domain.LineItem{{Rate: p.Rate, Unit: p.Unit}},
		GST:          p.GST,
		Delivery:     p.Delivery,
		DeliveryNote: p.DeliveryNote,
	}
}

// FormatHelp is the reminder sent when a reply cannot be parsed.
const FormatHelp = "Please send your quote in this format:\n" +
	"RATE: [Price] per [Unit]\n" +
	"GST: [Percentage]%\n" +
	"DELIVERY: [Charges]\n" +
	"Inquiry ID: [the inquiry id]\n\n" +
	"Example:\nRATE: 350 per bag\nGST: 18%\nDELIVERY: 50\nInquiry ID: INQ-123456789"

// RateLine renders one priced line the same way for vendors and buyers.
func RateLine(item domain.LineItem) string {
	name := item.Item
	if name == "" {
		name = "Rate"
	}
	if item.Rate == 0 {
		return fmt.Sprintf("• %s: Unavailable", name)
	}
	unit := item.Unit
	if unit == "" {
		unit = DefaultUnit
	}
	return fmt.Sprintf("• %s: ₹%s per %s", name, Amount(item.Rate), unit)
}

// Amount formats a price without trailing zeros.
func Amount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// DeliveryText renders the delivery terms of a quote.
func DeliveryText(q domain.Quote) string {
	if q.DeliveryNote != "" {
		return q.DeliveryNote
	}
	if q.Delivery == 0 {
		return "Free"
	}
	return "₹" + Amount(q.Delivery)
}

// Lines renders the rate lines of a quote grouped by material.
func Lines(q domain.Quote) string {
	var (
		b       strings.Builder
		current domain.Material
	)
	for i, it := range q.Items {
		if it.Material != "" && (i == 0 || it.Material != current) {
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "%s:\n", strings.ToUpper(string(it.Material)))
			current = it.Material
		}
		b.WriteString(RateLine(it))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
