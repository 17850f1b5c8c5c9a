package models

// NutrientKind distinguishes the two tables the dashboard exposes per block.
type NutrientKind string

const (
	KindMacro NutrientKind = "macro"
	KindMicro NutrientKind = "micro"
)

// Location identifies where a scraped table came from on the dashboard.
type Location struct {
	Year     string
	State    string
	District string
	Block    string
}

// Table is one HTML table lifted off the page: a header row plus data rows,
// all values kept as strings until consolidation.
type Table struct {
	Headers []string
	Rows    [][]string
}

// NutrientTable pairs a scraped table with its location context. One raw CSV
// file is written per NutrientTable.
type NutrientTable struct {
	Location Location
	Kind     NutrientKind
	Table    Table
}

// NutrientRecord is one consolidated row: a village with its macro and micro
// nutrient measurements. Pointer fields are nil when the source table did not
// report that value.
type NutrientRecord struct {
	Year     string
	State    string
	District string
	Block    string
	Village  string

	PH            *float64
	EC            *float64
	OrganicCarbon *float64
	Nitrogen      *float64
	Phosphorus    *float64
	Potassium     *float64
	Sulphur       *float64
	Zinc          *float64
	Iron          *float64
	Manganese     *float64
	Copper        *float64
	Boron         *float64
}

// NutrientColumns lists the standardized measurement columns, in the order
// they appear in the consolidated outputs and the database schema.
var NutrientColumns = []string{
	"ph", "ec", "oc_percent", "nitrogen", "phosphorus", "potassium",
	"sulphur", "zinc", "iron", "manganese", "copper", "boron",
}

// Value returns the measurement for a standardized column name, or nil.
func (r *NutrientRecord) Value(column string) *float64 {
	switch column {
	case "ph":
		return r.PH
	case "ec":
		return r.EC
	case "oc_percent":
		return r.OrganicCarbon
	case "nitrogen":
		return r.Nitrogen
	case "phosphorus":
		return r.Phosphorus
	case "potassium":
		return r.Potassium
	case "sulphur":
		return r.Sulphur
	case "zinc":
		return r.Zinc
	case "iron":
		return r.Iron
	case "manganese":
		return r.Manganese
	case "copper":
		return r.Copper
	case "boron":
		return r.Boron
	}
	return nil
}

// SetValue stores a measurement under a standardized column name. Unknown
// columns are ignored so raw tables can carry extra columns harmlessly.
func (r *NutrientRecord) SetValue(column string, v float64) {
	switch column {
	case "ph":
		r.PH = &v
	case "ec":
		r.EC = &v
	case "oc_percent":
		r.OrganicCarbon = &v
	case "nitrogen":
		r.Nitrogen = &v
	case "phosphorus":
		r.Phosphorus = &v
	case "potassium":
		r.Potassium = &v
	case "sulphur":
		r.Sulphur = &v
	case "zinc":
		r.Zinc = &v
	case "iron":
		r.Iron = &v
	case "manganese":
		r.Manganese = &v
	case "copper":
		r.Copper = &v
	case "boron":
		r.Boron = &v
	}
}
