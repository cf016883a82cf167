package conversation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/m3rciful/cemtembot/internal/domain"
)

func companyPrompt(d Data, header string, step Step, catalog []string) Result {
	return Result{
		Message: header + "\n\n" + numberedList(catalog),
		Next:    step,
		Data:    d,
		Options: numbered(step, catalog),
	}
}

func cementTypesPrompt(d Data) Result {
	return Result{
		Message: fmt.Sprintf("✅ Company: %s\n\n🏗️ Select cement types (reply with numbers separated by commas, e.g. \"1,3\"):\n\n%s",
			d.CementCompany, numberedList(CementTypes)),
		Next: StepBuyerCementTypes,
		Data: d,
	}
}

func tmtSizesPrompt(d Data) Result {
	return Result{
		Message: fmt.Sprintf("✅ Company: %s\n\n📏 Select TMT sizes (reply with numbers separated by commas, e.g. \"3,5,7\"):\n\n%s",
			d.TMTCompany, numberedList(TMTSizes)),
		Next: StepBuyerTMTSizes,
		Data: d,
	}
}

func quantityPrompt(d Data) Result {
	return Result{
		Message: fmt.Sprintf("📦 Materials requested:\n%s\n\n📍 Location: %s\n\nHow much do you need? (e.g. \"50 bags\", \"2 tons\")",
			materialSummary(d), d.City),
		Next: StepBuyerQuantity,
		Data: d,
	}
}

func vendorMaterialsPrompt(d Data) Result {
	return Result{
		Message: fmt.Sprintf("📍 Location: %s\n\n🏗️ What materials do you deal with?\n1 Cement only\n2 TMT Bars only\n3 Both Cement & TMT Bars", d.City),
		Next:    StepVendorMaterials,
		Data:    d,
		Options: []domain.Option{
			{Label: "Cement only", Token: vendorMaterialPrefix + "cement"},
			{Label: "TMT Bars only", Token: vendorMaterialPrefix + "tmt"},
			{Label: "Both", Token: vendorMaterialPrefix + "both"},
		},
	}
}

func materialSummary(d Data) string {
	var lines []string
	if d.Material == domain.MaterialCement || d.Material == domain.MaterialBoth {
		lines = append(lines, fmt.Sprintf("• Cement (%s): %s", d.CementCompany, strings.Join(d.CementTypes, ", ")))
	}
	if d.Material == domain.MaterialTMT || d.Material == domain.MaterialBoth {
		lines = append(lines, fmt.Sprintf("• TMT (%s): %s", d.TMTCompany, strings.Join(d.TMTSizes, ", ")))
	}
	return strings.Join(lines, "\n")
}

func inquirySummary(d Data) string {
	return fmt.Sprintf("✅ Perfect! Your inquiry has been created and sent to vendors in %s.\n\n"+
		"📋 Summary:\n%s\n📦 Quantity: %s\n📱 Contact: %s\n\n"+
		"Vendors will reply with their best quotes shortly. Type /start for a new inquiry.",
		d.City, materialSummary(d), d.Quantity, d.Phone)
}

func registrationSummary(d Data) string {
	labels := make([]string, len(d.VendorMaterials))
	for i, m := range d.VendorMaterials {
		labels[i] = m.Label()
	}
	return fmt.Sprintf("✅ Registration submitted!\n\n🏢 Company: %s\n📱 Phone: %s\n📍 Location: %s\n🏗️ Materials: %s\n\n"+
		"You will receive inquiries from buyers in your area. Reply to an inquiry with:\n"+
		"RATE: [Price] per [Unit]\nGST: [Percentage]%%\nDELIVERY: [Charges]\nInquiry ID: [the inquiry id]",
		d.Company, d.Phone, d.City, strings.Join(labels, ", "))
}

func numberedList(items []string) string {
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = strconv.Itoa(i+1) + " " + it
	}
	return strings.Join(lines, "\n")
}
