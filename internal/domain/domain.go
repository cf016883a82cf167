// Package domain holds the records exchanged between the conversation core,
// storage and the messaging channels.
package domain

import (
	"context"
	"strings"
	"time"
)

// Channel identifies the transport a participant is reached through.
type Channel string

const (
	ChannelTelegram Channel = "telegram"
	ChannelWeb      Channel = "web"
)

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	return c == ChannelTelegram || c == ChannelWeb
}

// Address is a channel-scoped recipient: a Telegram chat id or a web chat session id.
type Address struct {
	Channel Channel `json:"channel"`
	ID      string  `json:"id"`
}

// Key returns the session key used by stores and logs.
func (a Address) Key() string {
	return string(a.Channel) + ":" + a.ID
}

// Empty reports whether the address cannot be delivered to.
func (a Address) Empty() bool {
	return strings.TrimSpace(a.ID) == "" || !a.Channel.Valid()
}

func (a Address) String() string { return a.Key() }

type senderKey struct{}

// WithSenderName attaches the display name the channel reports for the sender.
func WithSenderName(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, senderKey{}, name)
}

// SenderName returns the name set by WithSenderName, or "".
func SenderName(ctx context.Context) string {
	name, _ := ctx.Value(senderKey{}).(string)
	return name
}

// Material is a requested or supplied material family.
type Material string

const (
	MaterialCement Material = "cement"
	MaterialTMT    Material = "tmt"
	MaterialBoth   Material = "both"
)

// Expand returns the concrete materials covered by m.
func (m Material) Expand() []Material {
	switch m {
	case MaterialBoth:
		return []Material{MaterialCement, MaterialTMT}
	case MaterialCement, MaterialTMT:
		return []Material{m}
	}
	return nil
}

// Label is the human readable form used in prompts.
func (m Material) Label() string {
	switch m {
	case MaterialCement:
		return "Cement"
	case MaterialTMT:
		return "TMT Bars"
	case MaterialBoth:
		return "Cement & TMT Bars"
	}
	return string(m)
}

// InquiryStatus tracks where an inquiry is in its lifecycle.
type InquiryStatus string

const (
	StatusPending   InquiryStatus = "pending"
	StatusResponded InquiryStatus = "responded"
	StatusCompleted InquiryStatus = "completed"
	StatusCancelled InquiryStatus = "cancelled"
)

// Vendor is a registered supplier.
type Vendor struct {
	VendorID      string     `json:"vendorId" validate:"required,startswith=VEN-"`
	Name          string     `json:"name" validate:"required,max=200"`
	Phone         string     `json:"phone" validate:"required,max=32"`
	TelegramID    string     `json:"telegramId,omitempty"`
	City          string     `json:"city" validate:"required"`
	Materials     []Material `json:"materials" validate:"required,min=1,dive,oneof=cement tmt"`
	IsActive      bool       `json:"isActive"`
	ResponseCount int        `json:"responseCount" validate:"gte=0"`
	InquiryCount  int        `json:"inquiryCount" validate:"gte=0"`
	ResponseRate  float64    `json:"responseRate"`
	LastQuoted    *time.Time `json:"lastQuoted,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Supplies reports whether the vendor lists material m.
func (v Vendor) Supplies(m Material) bool {
	for _, have := range v.Materials {
		if have == m {
			return true
		}
	}
	return false
}

// Address returns the vendor's reachable channel address, if any.
func (v Vendor) Address() Address {
	return Address{Channel: ChannelTelegram, ID: strings.TrimSpace(v.TelegramID)}
}

// VendorPatch lists the vendor fields the core mutates after registration.
type VendorPatch struct {
	LastQuoted    *time.Time
	ResponseCount *int
	InquiryCount  *int
	ResponseRate  *float64
	IsActive      *bool
}

// Inquiry is one buyer request addressed to a snapshot of vendors.
type Inquiry struct {
	InquiryID        string        `json:"inquiryId" validate:"required,startswith=INQ-"`
	UserName         string        `json:"userName"`
	UserPhone        string        `json:"userPhone" validate:"required"`
	Buyer            Address       `json:"buyer"`
	Platform         Channel       `json:"platform" validate:"required,oneof=telegram web"`
	Material         Material      `json:"material" validate:"required,oneof=cement tmt both"`
	CementCompany    string        `json:"cementCompany,omitempty"`
	CementTypes      []string      `json:"cementTypes,omitempty"`
	TMTCompany       string        `json:"tmtCompany,omitempty"`
	TMTSizes         []string      `json:"tmtSizes,omitempty"`
	City             string        `json:"city" validate:"required"`
	Quantity         string        `json:"quantity"`
	VendorsContacted []string      `json:"vendorsContacted"`
	ResponseCount    int           `json:"responseCount"`
	Status           InquiryStatus `json:"status" validate:"required,oneof=pending responded completed cancelled"`
	CreatedAt        time.Time     `json:"createdAt"`
}

// Items returns the requested line items for material m.
func (i Inquiry) Items(m Material) []string {
	switch m {
	case MaterialCement:
		return i.CementTypes
	case MaterialTMT:
		return i.TMTSizes
	}
	return nil
}

// Company returns the preferred brand for material m.
func (i Inquiry) Company(m Material) string {
	switch m {
	case MaterialCement:
		return i.CementCompany
	case MaterialTMT:
		return i.TMTCompany
	}
	return ""
}

// PriceResponse is one vendor's price for one line item of one inquiry.
type PriceResponse struct {
	ID             int64     `db:"id" json:"id"`
	VendorID       string    `db:"vendor_id" json:"vendorId" validate:"required"`
	InquiryID      string    `db:"inquiry_id" json:"inquiryId" validate:"required"`
	Material       string    `db:"material" json:"material" validate:"required"`
	Price          float64   `db:"price" json:"price" validate:"gte=0"`
	GST            float64   `db:"gst" json:"gst" validate:"gte=0,lte=100"`
	DeliveryCharge float64   `db:"delivery_charge" json:"deliveryCharge" validate:"gte=0"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// LineItem is a single priced material variant within a quote.
type LineItem struct {
	Material Material
	Item     string
	Rate     float64
	Unit     string
}

// Label renders the composite material name stored on price responses.
func (l LineItem) Label() string {
	if l.Item == "" {
		return string(l.Material)
	}
	return string(l.Material) + " - " + l.Item
}

// Quote is the normalized output of both quote capture paths.
type Quote struct {
	VendorID  string
	Vendor    Address
	InquiryID string
	Items     []LineItem
	GST       float64
	Delivery  float64
	// DeliveryNote carries free-text delivery terms when no amount was given.
	DeliveryNote string
}

// Option is a quick-reply button offered alongside a message.
type Option struct {
	Label string `json:"label"`
	Token string `json:"token"`
}
