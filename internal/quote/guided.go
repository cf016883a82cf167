package quote

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/m3rciful/cemtembot/internal/domain"
)

// Step is a position in the guided quote flow.
type Step string

const (
	StepRateEntry             Step = "rate_entry"
	StepAwaitingRateInput     Step = "awaiting_rate_input"
	StepAwaitingGST           Step = "awaiting_gst"
	StepAwaitingGSTInput      Step = "awaiting_gst_input"
	StepAwaitingDelivery      Step = "awaiting_delivery"
	StepAwaitingDeliveryInput Step = "awaiting_delivery_input"
	StepCompleted             Step = "completed"
)

// Action is the side effect requested when a draft completes.
type Action string

const (
	ActionNone      Action = ""
	ActionSendQuote Action = "send_quote_to_buyer"
)

// MaxGST bounds the GST percentage accepted by the guided flow.
const MaxGST = 30

// DraftItem is one requested line item and, once entered, its rate.
type DraftItem struct {
	Material domain.Material `json:"material"`
	Item     string          `json:"item"`
	Rate     *float64        `json:"rate,omitempty"`
}

// Draft is the in-progress guided quote of one vendor for one inquiry.
type Draft struct {
	InquiryID string      `json:"inquiryId"`
	Step      Step        `json:"step"`
	Items     []DraftItem `json:"items"`
	Current   int         `json:"current"`
	GST       float64     `json:"gst"`
	Delivery  float64     `json:"delivery"`
}

func (d Draft) clone() Draft {
	items := make([]DraftItem, len(d.Items))
	copy(items, d.Items)
	d.Items = items
	return d
}

func (d Draft) entered() int {
	n := 0
	for _, it := range d.Items {
		if it.Rate != nil {
			n++
		}
	}
	return n
}

func (d Draft) hasCurrent() bool {
	return d.Current >= 0 && d.Current < len(d.Items)
}

// Reply is what the guided flow wants shown to the vendor.
type Reply struct {
	Message string
	Options []domain.Option
	Action  Action
	Quote   *domain.Quote
}

// Guided drives the button-based quote entry. It is stateless; drafts are
// stored by the caller.
type Guided struct{}

// NewGuided returns the guided quote flow.
func NewGuided() *Guided { return &Guided{} }

// Start opens a draft for the inquiry's requested line items.
func (g *Guided) Start(inq domain.Inquiry) (Draft, Reply) {
	d := Draft{InquiryID: inq.InquiryID, Step: StepRateEntry, Current: -1}
	for _, m := range inq.Material.Expand() {
		items := inq.Items(m)
		if len(items) == 0 {
			items = []string{m.Label()}
		}
		for _, it := range items {
			d.Items = append(d.Items, DraftItem{Material: m, Item: it})
		}
	}
	return d, g.prompt(d, "")
}

// Resume re-renders the draft, leaving a pending rate prompt for the item list.
func (g *Guided) Resume(d Draft) (Draft, Reply) {
	if d.Step == StepAwaitingRateInput {
		d.Step = StepRateEntry
		d.Current = -1
	}
	return d, g.prompt(d, "")
}

// SelectItem asks for the rate of item idx of the given material.
func (g *Guided) SelectItem(d Draft, material domain.Material, idx int) (Draft, Reply) {
	if d.Step != StepRateEntry && d.Step != StepAwaitingRateInput {
		return d, g.prompt(d, "")
	}
	pos := -1
	n := 0
	for i, it := range d.Items {
		if it.Material != material {
			continue
		}
		if n == idx {
			pos = i
			break
		}
		n++
	}
	if pos < 0 {
		d.Step = StepRateEntry
		return d, g.prompt(d, "❌ Unknown item, please pick one from the list.")
	}
	d.Step = StepAwaitingRateInput
	d.Current = pos
	return d, g.prompt(d, "")
}

// Input consumes typed text for the step awaiting it.
func (g *Guided) Input(d Draft, text string) (Draft, Reply) {
	text = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "₹"))
	if d.Step == StepAwaitingRateInput && !d.hasCurrent() {
		d.Step = StepRateEntry
	}
	switch d.Step {
	case StepAwaitingRateInput:
		v, ok := amount(text)
		if !ok {
			return d, g.prompt(d, "❌ Please enter a valid number (0 or higher)")
		}
		d = d.clone()
		d.Items[d.Current].Rate = &v
		d.Current = -1
		d.Step = StepRateEntry
		return d, g.prompt(d, "✅ Rate saved.")
	case StepAwaitingGSTInput:
		v, ok := amount(strings.TrimSuffix(text, "%"))
		if !ok || v > MaxGST {
			return d, g.prompt(d, fmt.Sprintf("❌ Please enter a valid GST percentage (0-%d)", MaxGST))
		}
		d.GST = v
		d.Step = StepAwaitingDelivery
		return d, g.prompt(d, "")
	case StepAwaitingDeliveryInput:
		v, ok := amount(text)
		if !ok {
			return d, g.prompt(d, "❌ Please enter a valid delivery charge (0 or higher)")
		}
		d.Delivery = v
		return g.finish(d)
	}
	return d, g.prompt(d, "Please use the buttons below.")
}

// amount parses a finite, non-negative number. NaN and Inf are rejected.
func amount(text string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// Complete closes rate entry and moves on to GST.
func (g *Guided) Complete(d Draft) (Draft, Reply) {
	if d.Step != StepRateEntry && d.Step != StepAwaitingRateInput {
		return d, g.prompt(d, "")
	}
	if d.entered() == 0 {
		d.Step = StepRateEntry
		d.Current = -1
		return d, g.prompt(d, "❌ Please enter at least one rate before completing.")
	}
	d.Step = StepAwaitingGST
	d.Current = -1
	return d, g.prompt(d, "")
}

// SelectGST handles a GST button: "12", "18" or "custom".
func (g *Guided) SelectGST(d Draft, choice string) (Draft, Reply) {
	if d.Step != StepAwaitingGST && d.Step != StepAwaitingGSTInput {
		return d, g.prompt(d, "")
	}
	switch choice {
	case "custom":
		d.Step = StepAwaitingGSTInput
		return d, g.prompt(d, "")
	case "12", "18":
		d.GST, _ = strconv.ParseFloat(choice, 64)
		d.Step = StepAwaitingDelivery
		return d, g.prompt(d, "")
	}
	d.Step = StepAwaitingGST
	return d, g.prompt(d, "❌ Please pick a GST option.")
}

// SelectDelivery handles a delivery button: "0" or "custom".
func (g *Guided) SelectDelivery(d Draft, choice string) (Draft, Reply) {
	if d.Step != StepAwaitingDelivery && d.Step != StepAwaitingDeliveryInput {
		return d, g.prompt(d, "")
	}
	switch choice {
	case "0":
		d.Delivery = 0
		return g.finish(d)
	case "custom":
		d.Step = StepAwaitingDeliveryInput
		return d, g.prompt(d, "")
	}
	d.Step = StepAwaitingDelivery
	return d, g.prompt(d, "❌ Please pick a delivery option.")
}

func (g *Guided) finish(d Draft) (Draft, Reply) {
	d.Step = StepCompleted
	q := d.Quote()
	msg := fmt.Sprintf("✅ Quote submitted successfully!\n\n%s\n\n📊 GST: %s%%\n🚚 Delivery: %s\n\nInquiry ID: %s",
		Lines(q), Amount(q.GST), DeliveryText(q), q.InquiryID)
	return d, Reply{Message: msg, Action: ActionSendQuote, Quote: &q}
}

// Quote converts the entered items of a draft into the shared quote shape.
// Vendor fields are left for the caller.
func (d Draft) Quote() domain.Quote {
	q := domain.Quote{InquiryID: d.InquiryID, GST: d.GST, Delivery: d.Delivery}
	for _, it := range d.Items {
		if it.Rate == nil {
			continue
		}
		q.Items = append(q.Items, domain.LineItem{Material: it.Material, Item: it.Item, Rate: *it.Rate, Unit: DefaultUnit})
	}
	return q
}

func (g *Guided) prompt(d Draft, notice string) Reply {
	var r Reply
	step := d.Step
	if step == StepAwaitingRateInput && !d.hasCurrent() {
		step = StepRateEntry
	}
	switch step {
	case StepAwaitingRateInput:
		it := d.Items[d.Current]
		r.Message = fmt.Sprintf("💰 Enter rate for %s (%s):\n\nType the price per unit in ₹.\nType \"0\" if this item is unavailable.",
			it.Item, it.Material.Label())
		r.Options = []domain.Option{{Label: "⬅️ Back to items", Token: TokenQuotePrefix + d.InquiryID}}
	case StepAwaitingGST:
		r.Message = "📊 Select the GST rate:"
		r.Options = []domain.Option{
			{Label: "12%", Token: "gst:12"},
			{Label: "18%", Token: "gst:18"},
			{Label: "Enter GST %", Token: "gst:custom"},
		}
	case StepAwaitingGSTInput:
		r.Message = fmt.Sprintf("📊 Enter the GST percentage (0-%d):", MaxGST)
	case StepAwaitingDelivery:
		r.Message = "🚚 Delivery charges:"
		r.Options = []domain.Option{
			{Label: "Free Delivery", Token: "delivery:0"},
			{Label: "Enter Delivery Amount", Token: "delivery:custom"},
		}
	case StepAwaitingDeliveryInput:
		r.Message = "🚚 Enter the delivery charge in ₹ (0 or higher):"
	case StepCompleted:
		r.Message = "This quote has already been submitted."
	default:
		r.Message, r.Options = g.entryMenu(d)
	}
	if notice != "" {
		r.Message = notice + "\n\n" + r.Message
	}
	if d.Step != StepCompleted {
		r.Options = append(r.Options, domain.Option{Label: "❌ Cancel", Token: TokenCancel})
	}
	return r
}

func (g *Guided) entryMenu(d Draft) (string, []domain.Option) {
	var (
		b    strings.Builder
		opts []domain.Option
	)
	fmt.Fprintf(&b, "💰 Please provide rates for the requested materials:\nInquiry ID: %s\n", d.InquiryID)
	counts := map[domain.Material]int{}
	for _, it := range d.Items {
		idx := counts[it.Material]
		counts[it.Material]++
		label := it.Material.Label() + " - " + it.Item
		if it.Rate != nil {
			line := RateLine(domain.LineItem{Item: it.Item, Rate: *it.Rate, Unit: DefaultUnit})
			fmt.Fprintf(&b, "\n%s", line)
			label = "✅ " + label
		}
		opts = append(opts, domain.Option{
			Label: label,
			Token: fmt.Sprintf("%s%s:%d", TokenRatePrefix, it.Material, idx),
		})
	}
	opts = append(opts, domain.Option{Label: "✅ Done with all rates", Token: TokenRatesDone})
	return strings.TrimRight(b.String(), "\n"), opts
}
