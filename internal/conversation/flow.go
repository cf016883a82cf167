package conversation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/m3rciful/cemtembot/internal/domain"
	"github.com/m3rciful/cemtembot/internal/location"
)

// StartCommand resets the dialogue from any step.
const StartCommand = "/start"

// Flow is the single onboarding state machine shared by all channels.
type Flow struct {
	locations *location.Manager
	captures  map[domain.Channel]cityCapture
	vendorLoc picker
	// owners maps fixed button prefixes to the step that offers them.
	owners map[string]Step
}

// New builds a Flow backed by the given location catalog.
func New(locations *location.Manager) *Flow {
	if locations == nil {
		locations = location.Default()
	}
	buyerPicker := picker{
		locations:    locations,
		cityStep:     StepBuyerCitySelect,
		localityStep: StepBuyerLocalitySelect,
		cityPrefix:   "bcity_",
		localPrefix:  "bloc_",
		cityAsk:      "📍 Select which city you need materials in:",
		localityAsk:  "🏘️ Select which locality you need materials in:",
	}
	f := &Flow{
		locations: locations,
		captures: map[domain.Channel]cityCapture{
			domain.ChannelWeb:      freeTextCapture{locations: locations},
			domain.ChannelTelegram: buyerPicker,
		},
		vendorLoc: picker{
			locations:    locations,
			cityStep:     StepVendorCitySelect,
			localityStep: StepVendorLocalitySelect,
			cityPrefix:   "vcity_",
			localPrefix:  "vloc_",
			cityAsk:      "📍 Select which city you operate in:",
			localityAsk:  "🏘️ Select which locality you operate in:",
		},
	}
	f.owners = map[string]Step{
		buyerPicker.cityPrefix:  buyerPicker.cityStep,
		buyerPicker.localPrefix: buyerPicker.localityStep,
		f.vendorLoc.cityPrefix:  f.vendorLoc.cityStep,
		f.vendorLoc.localPrefix: f.vendorLoc.localityStep,
		vendorMaterialPrefix:    StepVendorMaterials,
	}
	return f
}

// Process advances the dialogue by one input. It is deterministic and has no side effects.
func (f *Flow) Process(ctx Context, input string) Result {
	input = strings.TrimSpace(input)
	if input == StartCommand || ctx.Step == "" || ctx.Step == StepStart {
		return welcome()
	}

	input = f.pressFor(ctx.Step, input)
	d := ctx.Data
	switch ctx.Step {
	case StepUserType:
		return f.userType(d, input)
	case StepBuyerMaterial:
		return f.buyerMaterial(d, input)
	case StepBuyerCementCompany:
		return f.company(d, input, StepBuyerCementCompany, CementCompanies, func(d *Data, c string) { d.CementCompany = c }, cementTypesPrompt)
	case StepBuyerCementTypes:
		return f.cementTypes(ctx.Channel, d, input)
	case StepBuyerCementCustom:
		return f.cementCustom(ctx.Channel, d, input)
	case StepBuyerTMTCompany:
		return f.company(d, input, StepBuyerTMTCompany, TMTCompanies, func(d *Data, c string) { d.TMTCompany = c }, tmtSizesPrompt)
	case StepBuyerTMTSizes:
		return f.tmtSizes(ctx.Channel, d, input)
	case StepBuyerCity, StepBuyerCitySelect, StepBuyerLocalitySelect:
		return f.capture(ctx.Channel).handle(ctx.Step, d, input, quantityPrompt)
	case StepBuyerQuantity:
		if input == "" {
			return Result{Message: "Please tell me the quantity you need (e.g. \"50 bags\").", Next: StepBuyerQuantity, Data: d}
		}
		d.Quantity = input
		return Result{Message: "📱 Great! Please provide your phone number for vendors to contact you:", Next: StepBuyerPhone, Data: d}
	case StepBuyerPhone:
		phone, ok := normalizePhone(input)
		if !ok {
			return Result{Message: "Please enter a valid phone number (digits only, e.g. 9876543210).", Next: StepBuyerPhone, Data: d}
		}
		d.Phone = phone
		return Result{Message: inquirySummary(d), Next: StepCompleted, Data: d, Action: ActionCreateInquiry}
	case StepVendorCompany:
		if input == "" {
			return Result{Message: "What's your company name?", Next: StepVendorCompany, Data: d}
		}
		d.Company = input
		return Result{Message: "📱 What's your phone number?", Next: StepVendorPhone, Data: d}
	case StepVendorPhone:
		phone, ok := normalizePhone(input)
		if !ok {
			return Result{Message: "Please enter a valid phone number (digits only, e.g. 9876543210).", Next: StepVendorPhone, Data: d}
		}
		d.Phone = phone
		return f.vendorLoc.askCity(d, "")
	case StepVendorCitySelect, StepVendorLocalitySelect:
		return f.vendorLoc.handle(ctx.Step, d, input, vendorMaterialsPrompt)
	case StepVendorMaterials:
		return f.vendorMaterials(d, input)
	}

	return Result{Message: "I didn't understand that. Type /start to begin again.", Next: StepUserType}
}

func (f *Flow) capture(ch domain.Channel) cityCapture {
	if c, ok := f.captures[ch]; ok {
		return c
	}
	return f.captures[domain.ChannelWeb]
}

func welcome() Result {
	return Result{
		Message: "🏗️ Welcome to CemTemBot!\n\n" +
			"I help you get instant pricing for cement and TMT bars from verified vendors in your city.\n\n" +
			"Reply with the number of an option:\n1 Buy Materials\n2 Register As A Vendor",
		Next:    StepUserType,
		Options: numbered(StepUserType, []string{"Buy Materials", "Register As A Vendor"}),
	}
}

func (f *Flow) userType(d Data, input string) Result {
	switch input {
	case "1":
		d.UserType = UserBuyer
		return Result{
			Message: "🏗️ Great! I'll help you get pricing for cement and TMT bars.\n\n" +
				"What material do you need pricing for?\n1 Cement\n2 TMT Bars\n3 Both Cement & TMT Bars\n\nReply with 1, 2 or 3",
			Next:    StepBuyerMaterial,
			Data:    d,
			Options: numbered(StepBuyerMaterial, []string{"Cement", "TMT Bars", "Both"}),
		}
	case "2":
		d.UserType = UserVendor
		return Result{
			Message: "🏢 Welcome vendor! Let's get you registered to provide quotes.\n\nWhat's your company name?",
			Next:    StepVendorCompany,
			Data:    d,
		}
	}
	return Result{
		Message: "Please reply with 1 to buy materials or 2 to register as a vendor.",
		Next:    StepUserType,
		Data:    d,
		Options: numbered(StepUserType, []string{"Buy Materials", "Register As A Vendor"}),
	}
}

func (f *Flow) buyerMaterial(d Data, input string) Result {
	switch input {
	case "1":
		d.Material = domain.MaterialCement
	case "2":
		d.Material = domain.MaterialTMT
	case "3":
		d.Material = domain.MaterialBoth
	default:
		return Result{
			Message: "Please reply with 1 for Cement, 2 for TMT Bars or 3 for both.",
			Next:    StepBuyerMaterial,
			Data:    d,
			Options: numbered(StepBuyerMaterial, []string{"Cement", "TMT Bars", "Both"}),
		}
	}
	if d.Material == domain.MaterialTMT {
		return companyPrompt(d, "🏗️ Select TMT company preference (reply with number):", StepBuyerTMTCompany, TMTCompanies)
	}
	header := "🏭 Select cement company preference (reply with number):"
	if d.Material == domain.MaterialBoth {
		header = "🏭 Let's start with cement. Select cement company preference (reply with number):"
	}
	return companyPrompt(d, header, StepBuyerCementCompany, CementCompanies)
}

func (f *Flow) company(d Data, input string, step Step, catalog []string, set func(*Data, string), next func(Data) Result) Result {
	idx, err := strconv.Atoi(input)
	if err != nil || idx < 1 || idx > len(catalog) {
		res := companyPrompt(d, fmt.Sprintf("Please select a valid number (1-%d)", len(catalog)), step, catalog)
		return res
	}
	set(&d, catalog[idx-1])
	return next(d)
}

func (f *Flow) cementTypes(ch domain.Channel, d Data, input string) Result {
	selected := parseSelection(input, CementTypes)
	if len(selected) == 0 {
		res := cementTypesPrompt(d)
		res.Message = "Please select valid cement types using numbers (e.g. \"1,3,5\")\n\n" + res.Message
		return res
	}
	types := make([]string, 0, len(selected))
	custom := false
	for _, s := range selected {
		if s == OtherCementType {
			custom = true
			continue
		}
		types = append(types, s)
	}
	d.CementTypes = types
	if custom {
		return Result{Message: "Please specify your custom cement type:", Next: StepBuyerCementCustom, Data: d}
	}
	return f.afterCement(ch, d)
}

func (f *Flow) cementCustom(ch domain.Channel, d Data, input string) Result {
	if input == "" {
		return Result{Message: "Please specify your custom cement type:", Next: StepBuyerCementCustom, Data: d}
	}
	d.CementTypes = appendUnique(d.CementTypes, input)
	return f.afterCement(ch, d)
}

func (f *Flow) afterCement(ch domain.Channel, d Data) Result {
	if d.Material == domain.MaterialBoth {
		header := fmt.Sprintf("✅ Cement company: %s\n✅ Cement types: %s\n\n🏗️ Now for TMT bars. Select TMT company preference (reply with number):",
			d.CementCompany, strings.Join(d.CementTypes, ", "))
		return companyPrompt(d, header, StepBuyerTMTCompany, TMTCompanies)
	}
	header := fmt.Sprintf("✅ Company: %s\n✅ Types: %s", d.CementCompany, strings.Join(d.CementTypes, ", "))
	return f.capture(ch).ask(d, header)
}

func (f *Flow) tmtSizes(ch domain.Channel, d Data, input string) Result {
	selected := parseSelection(input, TMTSizes)
	if len(selected) == 0 {
		res := tmtSizesPrompt(d)
		res.Message = "Please select valid TMT sizes using numbers (e.g. \"3,5,7\")\n\n" + res.Message
		return res
	}
	d.TMTSizes = selected
	header := fmt.Sprintf("✅ TMT company: %s\n✅ TMT sizes: %s", d.TMTCompany, strings.Join(selected, ", "))
	return f.capture(ch).ask(d, header)
}

func (f *Flow) vendorMaterials(d Data, input string) Result {
	var materials []domain.Material
	switch input {
	case vendorMaterialPrefix + "cement", "1":
		materials = []domain.Material{domain.MaterialCement}
	case vendorMaterialPrefix + "tmt", "2":
		materials = []domain.Material{domain.MaterialTMT}
	case vendorMaterialPrefix + "both", "3":
		materials = []domain.Material{domain.MaterialCement, domain.MaterialTMT}
	default:
		res := vendorMaterialsPrompt(d)
		res.Message = "Please select a valid material option.\n\n" + res.Message
		return res
	}
	d.VendorMaterials = materials
	return Result{Message: registrationSummary(d), Next: StepCompleted, Data: d, Action: ActionRegisterVendor}
}

// parseSelection maps comma-separated 1-based indices onto catalog entries.
// Out-of-range or malformed entries are dropped, duplicates collapse.
func parseSelection(input string, catalog []string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 || n > len(catalog) {
			continue
		}
		out = appendUnique(out, catalog[n-1])
	}
	return out
}

func appendUnique(list []string, v string) []string {
	for _, have := range list {
		if have == v {
			return list
		}
	}
	return append(list, v)
}

func normalizePhone(input string) (string, bool) {
	var b strings.Builder
	for i, r := range input {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-':
		default:
			return "", false
		}
	}
	digits := strings.TrimPrefix(b.String(), "+")
	if len(digits) < 7 || len(digits) > 15 {
		return "", false
	}
	return b.String(), true
}

const (
	optionPrefix         = "opt_"
	vendorMaterialPrefix = "vmat_"
)

// numbered offers labels as buttons whose tokens name the offering step:
// "opt_<step>_<n>".
func numbered(step Step, labels []string) []domain.Option {
	opts := make([]domain.Option, len(labels))
	for i, l := range labels {
		opts[i] = domain.Option{Label: l, Token: optionPrefix + string(step) + "_" + strconv.Itoa(i+1)}
	}
	return opts
}

// pressFor returns the input step should read. A button offered by another
// step comes back empty so the current step asks again; typed text passes
// through.
func (f *Flow) pressFor(step Step, input string) string {
	if rest, ok := strings.CutPrefix(input, optionPrefix); ok {
		i := strings.LastIndex(rest, "_")
		if i < 0 || Step(rest[:i]) != step {
			return ""
		}
		return rest[i+1:]
	}
	for prefix, owner := range f.owners {
		if strings.HasPrefix(input, prefix) && owner != step {
			return ""
		}
	}
	return input
}
