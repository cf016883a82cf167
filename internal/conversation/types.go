// Package conversation implements the buyer/vendor onboarding dialogue as a
// pure reducer: it never touches storage or messaging, callers execute the
// returned Action.
package conversation

import "github.com/m3rciful/cemtembot/internal/domain"

// Step identifies a position in the onboarding dialogue.
type Step string

const (
	StepStart     Step = "start"
	StepUserType  Step = "user_type"
	StepCompleted Step = "completed"

	StepBuyerMaterial       Step = "buyer_material"
	StepBuyerCementCompany  Step = "buyer_cement_company"
	StepBuyerCementTypes    Step = "buyer_cement_types"
	StepBuyerCementCustom   Step = "buyer_cement_custom"
	StepBuyerTMTCompany     Step = "buyer_tmt_company"
	StepBuyerTMTSizes       Step = "buyer_tmt_sizes"
	StepBuyerCity           Step = "buyer_city"
	StepBuyerCitySelect     Step = "buyer_city_select"
	StepBuyerLocalitySelect Step = "buyer_locality_select"
	StepBuyerQuantity       Step = "buyer_quantity"
	StepBuyerPhone          Step = "buyer_phone"

	StepVendorCompany        Step = "vendor_company"
	StepVendorPhone          Step = "vendor_phone"
	StepVendorCitySelect     Step = "vendor_city_select"
	StepVendorLocalitySelect Step = "vendor_locality_select"
	StepVendorMaterials      Step = "vendor_materials"
)

// Action is a side effect requested by a terminal transition.
type Action string

const (
	ActionNone           Action = ""
	ActionCreateInquiry  Action = "create_inquiry"
	ActionRegisterVendor Action = "register_vendor"
)

// UserType records which branch of the dialogue the user chose.
type UserType string

const (
	UserBuyer  UserType = "buyer"
	UserVendor UserType = "vendor"
)

// Data accumulates answers as the dialogue advances. Fields are only ever
// added until the session is reset or completed.
type Data struct {
	UserType UserType `json:"userType,omitempty"`

	Material      domain.Material `json:"material,omitempty"`
	CementCompany string          `json:"cementCompany,omitempty"`
	CementTypes   []string        `json:"cementTypes,omitempty"`
	TMTCompany    string          `json:"tmtCompany,omitempty"`
	TMTSizes      []string        `json:"tmtSizes,omitempty"`
	Quantity      string          `json:"quantity,omitempty"`

	CityID     string `json:"cityId,omitempty"`
	LocalityID string `json:"localityId,omitempty"`
	City       string `json:"city,omitempty"`
	Phone      string `json:"phone,omitempty"`

	Company         string            `json:"company,omitempty"`
	VendorMaterials []domain.Material `json:"vendorMaterials,omitempty"`
}

// Session is the runtime conversation state stored per channel address.
type Session struct {
	Step Step `json:"step"`
	Data Data `json:"data"`
}

// Context is the reducer input: where the user is and what is known so far.
type Context struct {
	Channel domain.Channel
	Step    Step
	Data    Data
}

// Result is the reducer output.
type Result struct {
	Message string
	Next    Step
	Data    Data
	Action  Action
	Options []domain.Option
}
