package conversation

// OtherCementType is the catalog sentinel that asks for a free-text type.
const OtherCementType = "Enter Other Specific Type"

var (
	CementTypes = []string{
		"OPC Grade 33",
		"OPC Grade 43",
		"OPC Grade 53",
		"PPC Grade 33",
		"PPC Grade 43",
		"PPC Grade 53",
		OtherCementType,
	}
	TMTSizes = []string{
		"5.5mm", "6mm", "8mm", "10mm", "12mm", "16mm", "18mm",
		"20mm", "24mm", "26mm", "28mm", "32mm", "36mm", "40mm",
	}
	CementCompanies = []string{"ACC", "UltraTech", "Ambuja", "Shree Cement", "JK Cement", "Others"}
	TMTCompanies    = []string{"TATA", "SAIL", "RINL", "JSW", "JINDAL", "Others"}
)

// transitions lists the steps reachable from each step besides a /start reset.
var transitions = map[Step][]Step{
	StepStart:                {StepUserType},
	StepUserType:             {StepUserType, StepBuyerMaterial, StepVendorCompany},
	StepBuyerMaterial:        {StepBuyerMaterial, StepBuyerCementCompany, StepBuyerTMTCompany},
	StepBuyerCementCompany:   {StepBuyerCementCompany, StepBuyerCementTypes},
	StepBuyerCementTypes:     {StepBuyerCementTypes, StepBuyerCementCustom, StepBuyerTMTCompany, StepBuyerCity, StepBuyerCitySelect},
	StepBuyerCementCustom:    {StepBuyerCementCustom, StepBuyerTMTCompany, StepBuyerCity, StepBuyerCitySelect},
	StepBuyerTMTCompany:      {StepBuyerTMTCompany, StepBuyerTMTSizes},
	StepBuyerTMTSizes:        {StepBuyerTMTSizes, StepBuyerCity, StepBuyerCitySelect},
	StepBuyerCity:            {StepBuyerCity, StepBuyerQuantity},
	StepBuyerCitySelect:      {StepBuyerCitySelect, StepBuyerLocalitySelect},
	StepBuyerLocalitySelect:  {StepBuyerLocalitySelect, StepBuyerQuantity, StepUserType},
	StepBuyerQuantity:        {StepBuyerQuantity, StepBuyerPhone},
	StepBuyerPhone:           {StepBuyerPhone, StepCompleted},
	StepVendorCompany:        {StepVendorCompany, StepVendorPhone},
	StepVendorPhone:          {StepVendorPhone, StepVendorCitySelect},
	StepVendorCitySelect:     {StepVendorCitySelect, StepVendorLocalitySelect},
	StepVendorLocalitySelect: {StepVendorLocalitySelect, StepVendorMaterials, StepUserType},
	StepVendorMaterials:      {StepVendorMaterials, StepCompleted},
}

// CanTransition reports whether the dialogue may move from one step to another.
func CanTransition(from, to Step) bool {
	if to == StepUserType {
		return true
	}
	if from == "" {
		from = StepStart
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
