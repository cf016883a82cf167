package matcher

import (
	"fmt"
	"strings"

	"github.com/m3rciful/cemtembot/internal/domain"
)

// RenderPrompt builds the price request sent to a vendor. The trailing
// RATE/GST/DELIVERY/Inquiry ID block is what vendors copy back as free text.
func RenderPrompt(v domain.Vendor, inq domain.Inquiry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔔 New Price Inquiry\n\nHi %s,\n\n", v.Name)
	fmt.Fprintf(&b, "📍 City: %s\n", inq.City)
	for _, m := range inq.Material.Expand() {
		company := inq.Company(m)
		if company == "" {
			company = "Any"
		}
		fmt.Fprintf(&b, "\n🏗️ %s (%s)\n", m.Label(), company)
		for _, it := range inq.Items(m) {
			fmt.Fprintf(&b, "• %s\n", it)
		}
	}
	quantity := inq.Quantity
	if quantity == "" {
		quantity = "Not specified"
	}
	fmt.Fprintf(&b, "\n📦 Quantity: %s\n", quantity)
	fmt.Fprintf(&b, "📞 Buyer: %s\n", domain.MaskPhone(inq.UserPhone))
	b.WriteString("\nTap \"Enter Rate Amount\" below, or reply in this format:\n\n")
	b.WriteString("RATE: [Price] per [Unit]\nGST: [Percentage]%\nDELIVERY: [Charges]\n")
	fmt.Fprintf(&b, "Inquiry ID: %s", inq.InquiryID)
	return b.String()
}
