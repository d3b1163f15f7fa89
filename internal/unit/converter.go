// Package unit converts recipe quantities between units of measure.
package unit

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Conversion is one directed table entry: quantity * Factor converts a
// measurement in FromUnit to one in ToUnit.
type Conversion struct {
	FromUnit string          `json:"from_unit"`
	ToUnit   string          `json:"to_unit"`
	Factor   decimal.Decimal `json:"factor"`
}

// Converter performs table-driven unit conversion. Unknown unit pairs fall
// back to a 1:1 factor; the boolean result tells the caller whether the
// conversion was verified so the fallback is never silent.
type Converter struct {
	factors map[string]map[string]decimal.Decimal
	aliases map[string]string
}

// NewConverter builds a converter from a conversion table and a map of
// canonical unit -> accepted spellings. Both tables are injectable so they
// can be extended without recompilation; see DefaultConversions and
// DefaultUnitAliases.
func NewConverter(conversions []Conversion, unitAliases map[string][]string) *Converter {
	c := &Converter{
		factors: make(map[string]map[string]decimal.Decimal),
		aliases: make(map[string]string),
	}

	for canonical, spellings := range unitAliases {
		canon := normalize(canonical)
		c.aliases[canon] = canon
		for _, s := range spellings {
			c.aliases[normalize(s)] = canon
		}
	}

	for _, conv := range conversions {
		from := c.Normalize(conv.FromUnit)
		to := c.Normalize(conv.ToUnit)
		if c.factors[from] == nil {
			c.factors[from] = make(map[string]decimal.Decimal)
		}
		c.factors[from][to] = conv.Factor
	}

	return c
}

// Convert converts quantity from one unit to another. The second return
// value is false when no table entry covered the pair and the quantity was
// passed through unchanged.
func (c *Converter) Convert(quantity decimal.Decimal, fromUnit, toUnit string) (decimal.Decimal, bool) {
	factor, verified := c.Factor(fromUnit, toUnit)
	return quantity.Mul(factor), verified
}

// Factor returns the multiplier from fromUnit to toUnit. Lookup order:
// identical units, direct table entry, inverted reverse entry, then an
// unverified 1:1 fallback.
func (c *Converter) Factor(fromUnit, toUnit string) (decimal.Decimal, bool) {
	from := c.Normalize(fromUnit)
	to := c.Normalize(toUnit)

	if from == to {
		return decimal.NewFromInt(1), true
	}

	if factor, ok := c.factors[from][to]; ok {
		return factor, true
	}

	if reverse, ok := c.factors[to][from]; ok && !reverse.IsZero() {
		return decimal.NewFromInt(1).Div(reverse), true
	}

	return decimal.NewFromInt(1), false
}

// Normalize maps a unit spelling to its canonical form ("gms" -> "grams").
// Unrecognized spellings are lowercased and trimmed but otherwise kept.
func (c *Converter) Normalize(u string) string {
	n := normalize(u)
	if canon, ok := c.aliases[n]; ok {
		return canon
	}
	return n
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
