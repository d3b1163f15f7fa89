package unit

import "github.com/shopspring/decimal"

// DefaultUnitAliases maps canonical units to spellings seen in recipes and
// inventory imports.
var DefaultUnitAliases = map[string][]string{
	"pieces":  {"pcs", "pc", "piece", "units", "unit"},
	"grams":   {"g", "gram", "gms"},
	"ml":      {"milliliter", "milliliters", "mls"},
	"liters":  {"l", "liter", "litre", "litres"},
	"kg":      {"kilogram", "kilograms", "kilo"},
	"cups":    {"cup"},
	"tbsp":    {"tablespoon", "tablespoons", "tbs"},
	"tsp":     {"teaspoon", "teaspoons"},
	"ounces":  {"oz", "ounce"},
	"serving": {"servings", "portion", "portions"},
	"pair":    {"pairs"},
}

// DefaultConversions is the built-in conversion table. Entries are
// directed; the converter derives the reverse direction by inversion.
var DefaultConversions = []Conversion{
	{FromUnit: "kg", ToUnit: "grams", Factor: decimal.NewFromInt(1000)},
	{FromUnit: "liters", ToUnit: "ml", Factor: decimal.NewFromInt(1000)},
	{FromUnit: "grams", ToUnit: "ounces", Factor: decimal.RequireFromString("0.035274")},
	{FromUnit: "kg", ToUnit: "ounces", Factor: decimal.RequireFromString("35.274")},
	{FromUnit: "cups", ToUnit: "ml", Factor: decimal.RequireFromString("236.588")},
	{FromUnit: "tbsp", ToUnit: "ml", Factor: decimal.RequireFromString("14.787")},
	{FromUnit: "tsp", ToUnit: "ml", Factor: decimal.RequireFromString("4.929")},
	{FromUnit: "pair", ToUnit: "pieces", Factor: decimal.NewFromInt(2)},
}
