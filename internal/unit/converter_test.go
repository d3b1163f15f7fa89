package unit

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func newDefault() *Converter {
	return NewConverter(DefaultConversions, DefaultUnitAliases)
}

func TestConvertIdentity(t *testing.T) {
	c := newDefault()

	for _, u := range []string{"ml", "grams", "pieces", "made-up-unit"} {
		q := decimal.RequireFromString("12.5")
		got, verified := c.Convert(q, u, u)
		assert.True(t, verified)
		assert.True(t, q.Equal(got), "identity conversion must not change quantity for %s", u)
	}
}

func TestConvertDirectEntry(t *testing.T) {
	c := newDefault()

	got, verified := c.Convert(decimal.NewFromInt(2), "kg", "grams")
	assert.True(t, verified)
	assert.True(t, decimal.NewFromInt(2000).Equal(got))
}

func TestConvertReverseEntryInverted(t *testing.T) {
	c := newDefault()

	// Only kg -> grams is in the table; grams -> kg comes from inversion.
	got, verified := c.Convert(decimal.NewFromInt(500), "grams", "kg")
	assert.True(t, verified)
	assert.True(t, decimal.RequireFromString("0.5").Equal(got))
}

func TestConvertUnknownPairFallsBack(t *testing.T) {
	c := newDefault()

	q := decimal.NewFromInt(30)
	got, verified := c.Convert(q, "ml", "pieces")
	assert.False(t, verified, "unknown pair must be reported as unverified")
	assert.True(t, q.Equal(got), "fallback factor is 1:1")
}

func TestNormalizeAliases(t *testing.T) {
	c := newDefault()

	assert.Equal(t, "pieces", c.Normalize("PCS"))
	assert.Equal(t, "grams", c.Normalize(" gms "))
	assert.Equal(t, "ml", c.Normalize("Milliliters"))
	assert.Equal(t, "boxes", c.Normalize("Boxes"))
}

func TestAliasedUnitsConvert(t *testing.T) {
	c := newDefault()

	got, verified := c.Convert(decimal.NewFromInt(3), "kilograms", "g")
	assert.True(t, verified)
	assert.True(t, decimal.NewFromInt(3000).Equal(got))
}
