package conversation

import (
	"reflect"
	"strings"
	"testing"

	"github.com/m3rciful/cemtembot/internal/domain"
	"github.com/m3rciful/cemtembot/internal/location"
)

type driver struct {
	t    *testing.T
	flow *Flow
	ctx  Context
}

func newDriver(t *testing.T, ch domain.Channel) *driver {
	t.Helper()
	return &driver{t: t, flow: New(location.Default()), ctx: Context{Channel: ch, Step: StepStart}}
}

func (d *driver) send(input string) Result {
	d.t.Helper()
	res := d.flow.Process(d.ctx, input)
	if !CanTransition(d.ctx.Step, res.Next) {
		d.t.Fatalf("illegal transition %s -> %s on %q", d.ctx.Step, res.Next, input)
	}
	d.ctx.Step = res.Next
	d.ctx.Data = res.Data
	return res
}

func TestStartIsIdempotent(t *testing.T) {
	f := New(nil)
	steps := []Step{StepStart, StepBuyerQuantity, StepVendorMaterials, StepCompleted}
	first := f.Process(Context{Step: StepStart}, StartCommand)
	for _, s := range steps {
		res := f.Process(Context{Step: s, Data: Data{Quantity: "10"}}, StartCommand)
		if res.Next != StepUserType || res.Message != first.Message {
			t.Fatalf("step %s: /start did not reset, got %s", s, res.Next)
		}
		if !reflect.DeepEqual(res.Data, Data{}) {
			t.Fatalf("step %s: /start must clear data, got %+v", s, res.Data)
		}
	}
}

func TestBuyerCementWeb(t *testing.T) {
	d := newDriver(t, domain.ChannelWeb)
	d.send("hi")
	d.send("1")
	d.send("1")
	if d.ctx.Step != StepBuyerCementCompany {
		t.Fatalf("expected cement company step, got %s", d.ctx.Step)
	}
	d.send("2")
	if d.ctx.Data.CementCompany != "UltraTech" {
		t.Fatalf("unexpected company %q", d.ctx.Data.CementCompany)
	}
	d.send("2")
	if d.ctx.Step != StepBuyerCity {
		t.Fatalf("web buyer should type the city, got %s", d.ctx.Step)
	}
	d.send("guwahati")
	if d.ctx.Data.City != "Guwahati" {
		t.Fatalf("unexpected city %q", d.ctx.Data.City)
	}
	d.send("50 bags")
	res := d.send("9876543210")
	if res.Action != ActionCreateInquiry || res.Next != StepCompleted {
		t.Fatalf("expected create_inquiry, got %q next=%s", res.Action, res.Next)
	}
	want := Data{
		UserType:      UserBuyer,
		Material:      domain.MaterialCement,
		CementCompany: "UltraTech",
		CementTypes:   []string{"OPC Grade 43"},
		Quantity:      "50 bags",
		City:          "Guwahati",
		Phone:         "9876543210",
	}
	if !reflect.DeepEqual(res.Data, want) {
		t.Fatalf("unexpected data:\n got %+v\nwant %+v", res.Data, want)
	}
	if !strings.Contains(res.Message, "Guwahati") {
		t.Fatalf("summary should mention the city: %s", res.Message)
	}
}

func TestWebLocationPair(t *testing.T) {
	d := newDriver(t, domain.ChannelWeb)
	d.ctx = Context{Channel: domain.ChannelWeb, Step: StepBuyerCity, Data: Data{Material: domain.MaterialTMT}}
	d.send("guwahati:beltola")
	if d.ctx.Data.City != "Beltola, Guwahati" || d.ctx.Data.CityID != "guwahati" || d.ctx.Data.LocalityID != "beltola" {
		t.Fatalf("unexpected location data %+v", d.ctx.Data)
	}
	if d.ctx.Step != StepBuyerQuantity {
		t.Fatalf("expected quantity step, got %s", d.ctx.Step)
	}
}

func TestBuyerBothTelegramPicker(t *testing.T) {
	d := newDriver(t, domain.ChannelTelegram)
	d.send("/start")
	d.send("1")
	d.send("3")
	d.send("1")
	d.send("1,2")
	if d.ctx.Step != StepBuyerTMTCompany {
		t.Fatalf("both should continue with TMT, got %s", d.ctx.Step)
	}
	d.send("4")
	res := d.send("3,5")
	if d.ctx.Step != StepBuyerCitySelect || len(res.Options) == 0 {
		t.Fatalf("telegram buyer should get a city picker, got %s", d.ctx.Step)
	}
	if res.Options[0].Token != "bcity_guwahati" {
		t.Fatalf("unexpected city token %q", res.Options[0].Token)
	}
	res = d.send("bcity_guwahati")
	if d.ctx.Step != StepBuyerLocalitySelect || res.Options[0].Token != "bloc_ganeshguri" {
		t.Fatalf("unexpected locality picker %+v", res.Options)
	}
	d.send("bloc_zoo_road")
	if d.ctx.Data.City != "Zoo Road, Guwahati" {
		t.Fatalf("unexpected city %q", d.ctx.Data.City)
	}
	d.send("1 ton")
	res = d.send("+91 98765-43210")
	if res.Action != ActionCreateInquiry {
		t.Fatalf("expected create_inquiry, got %q", res.Action)
	}
	got := res.Data
	if got.CementCompany != "ACC" || got.TMTCompany != "JSW" {
		t.Fatalf("unexpected companies %+v", got)
	}
	if !reflect.DeepEqual(got.TMTSizes, []string{"8mm", "12mm"}) {
		t.Fatalf("unexpected sizes %v", got.TMTSizes)
	}
	if got.Phone != "+919876543210" {
		t.Fatalf("unexpected phone %q", got.Phone)
	}
}

func TestPickerRejectsUnknownCity(t *testing.T) {
	d := newDriver(t, domain.ChannelTelegram)
	d.ctx = Context{Channel: domain.ChannelTelegram, Step: StepBuyerCitySelect}
	res := d.send("bcity_mumbai")
	if res.Next != StepBuyerCitySelect {
		t.Fatalf("unknown city must re-prompt, got %s", res.Next)
	}
	d.send("2")
	if d.ctx.Data.CityID != "shillong" {
		t.Fatalf("numeric pick failed: %+v", d.ctx.Data)
	}
}

func TestCementTypeSelection(t *testing.T) {
	f := New(nil)
	base := Context{Channel: domain.ChannelWeb, Step: StepBuyerCementTypes, Data: Data{Material: domain.MaterialCement, CementCompany: "ACC"}}

	res := f.Process(base, "9, 0, abc")
	if res.Next != StepBuyerCementTypes || len(res.Data.CementTypes) != 0 {
		t.Fatalf("all invalid indices must re-prompt, got %s %v", res.Next, res.Data.CementTypes)
	}

	res = f.Process(base, "3, 1, 3, 99")
	if !reflect.DeepEqual(res.Data.CementTypes, []string{"OPC Grade 53", "OPC Grade 33"}) {
		t.Fatalf("unexpected selection %v", res.Data.CementTypes)
	}

	res = f.Process(base, "2,7")
	if res.Next != StepBuyerCementCustom {
		t.Fatalf("sentinel should route to custom step, got %s", res.Next)
	}
	if !reflect.DeepEqual(res.Data.CementTypes, []string{"OPC Grade 43"}) {
		t.Fatalf("sentinel must not be stored, got %v", res.Data.CementTypes)
	}
	res = f.Process(Context{Channel: domain.ChannelWeb, Step: res.Next, Data: res.Data}, "Slag cement")
	if !reflect.DeepEqual(res.Data.CementTypes, []string{"OPC Grade 43", "Slag cement"}) {
		t.Fatalf("custom type not appended: %v", res.Data.CementTypes)
	}
	if res.Next != StepBuyerCity {
		t.Fatalf("expected city step, got %s", res.Next)
	}
}

func TestInvalidInputsReprompt(t *testing.T) {
	f := New(nil)
	cases := []struct {
		step  Step
		input string
	}{
		{StepUserType, "3"},
		{StepBuyerMaterial, "cement"},
		{StepBuyerCementCompany, "7"},
		{StepBuyerTMTCompany, "0"},
		{StepBuyerQuantity, ""},
		{StepBuyerPhone, "12ab"},
		{StepBuyerPhone, "123"},
		{StepVendorCompany, ""},
		{StepVendorPhone, "call me"},
		{StepVendorMaterials, "4"},
	}
	for _, tc := range cases {
		res := f.Process(Context{Channel: domain.ChannelWeb, Step: tc.step}, tc.input)
		if res.Next != tc.step {
			t.Fatalf("%s with %q: expected re-prompt, got %s", tc.step, tc.input, res.Next)
		}
		if res.Action != ActionNone {
			t.Fatalf("%s: re-prompt must not carry an action", tc.step)
		}
	}
}

func TestOptionTokensNameTheirStep(t *testing.T) {
	f := New(nil)
	res := f.Process(Context{Channel: domain.ChannelTelegram}, "/start")
	if res.Options[0].Token != "opt_user_type_1" {
		t.Fatalf("unexpected token %q", res.Options[0].Token)
	}
	res = f.Process(Context{Channel: domain.ChannelTelegram, Step: res.Next}, res.Options[0].Token)
	if res.Next != StepBuyerMaterial {
		t.Fatalf("expected material step, got %s", res.Next)
	}
	res = f.Process(Context{Channel: domain.ChannelTelegram, Step: res.Next, Data: res.Data}, res.Options[2].Token)
	if res.Data.Material != domain.MaterialBoth || res.Next != StepBuyerCementCompany {
		t.Fatalf("unexpected selection %+v", res)
	}
	if res.Options[1].Token != "opt_buyer_cement_company_2" {
		t.Fatalf("unexpected company token %q", res.Options[1].Token)
	}
}

func TestStaleButtonsReprompt(t *testing.T) {
	f := New(nil)
	cases := []struct {
		step  Step
		input string
	}{
		{StepBuyerCementTypes, "opt_user_type_1"},
		{StepBuyerMaterial, "opt_user_type_2"},
		{StepBuyerTMTCompany, "opt_buyer_cement_company_1"},
		{StepUserType, "opt_buyer_material_1"},
		{StepBuyerQuantity, "bcity_guwahati"},
		{StepBuyerPhone, "bloc_ganeshguri"},
		{StepVendorCompany, "vmat_cement"},
		{StepBuyerCitySelect, "vcity_guwahati"},
	}
	for _, tc := range cases {
		res := f.Process(Context{Channel: domain.ChannelTelegram, Step: tc.step}, tc.input)
		if res.Next != tc.step {
			t.Fatalf("%s with %q: expected re-prompt, got %s", tc.step, tc.input, res.Next)
		}
		if res.Action != ActionNone || len(res.Data.CementTypes) != 0 || res.Data.Quantity != "" || res.Data.Company != "" {
			t.Fatalf("%s with %q: stale press was accepted: %+v", tc.step, tc.input, res.Data)
		}
	}
}

func TestUnknownStepResets(t *testing.T) {
	res := New(nil).Process(Context{Step: "bogus"}, "hello")
	if res.Next != StepUserType || !strings.Contains(res.Message, "/start") {
		t.Fatalf("unexpected reset %+v", res)
	}
}

func TestVendorRegistration(t *testing.T) {
	d := newDriver(t, domain.ChannelTelegram)
	d.send("/start")
	d.send("2")
	d.send("Sharma Traders")
	res := d.send("9876500000")
	if d.ctx.Step != StepVendorCitySelect || res.Options[0].Token != "vcity_guwahati" {
		t.Fatalf("vendor should get a city picker, got %s", d.ctx.Step)
	}
	d.send("vcity_guwahati")
	d.send("1")
	if d.ctx.Data.City != "Ganeshguri, Guwahati" {
		t.Fatalf("unexpected vendor city %q", d.ctx.Data.City)
	}
	res = d.send("vmat_both")
	if res.Action != ActionRegisterVendor {
		t.Fatalf("expected register_vendor, got %q", res.Action)
	}
	want := []domain.Material{domain.MaterialCement, domain.MaterialTMT}
	if !reflect.DeepEqual(res.Data.VendorMaterials, want) {
		t.Fatalf("unexpected materials %v", res.Data.VendorMaterials)
	}
	if !strings.Contains(res.Message, "RATE:") {
		t.Fatalf("confirmation should explain the quote format: %s", res.Message)
	}
}

func TestDataOnlyGrows(t *testing.T) {
	d := newDriver(t, domain.ChannelWeb)
	inputs := []string{"/start", "1", "2", "1", "2,4", "tezpur", "3 tons", "9876543210"}
	var prev Data
	for _, in := range inputs {
		d.send(in)
		if prev.Material != "" && d.ctx.Data.Material != prev.Material {
			t.Fatalf("material changed after %q", in)
		}
		if prev.TMTCompany != "" && d.ctx.Data.TMTCompany != prev.TMTCompany {
			t.Fatalf("company changed after %q", in)
		}
		if len(d.ctx.Data.TMTSizes) < len(prev.TMTSizes) {
			t.Fatalf("sizes shrank after %q", in)
		}
		prev = d.ctx.Data
	}
	if d.ctx.Step != StepCompleted || d.ctx.Data.City != "Tezpur" {
		t.Fatalf("unexpected end state %s %+v", d.ctx.Step, d.ctx.Data)
	}
}
