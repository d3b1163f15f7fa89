package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFuzzyThresholdFromEnv(t *testing.T) {
	t.Setenv("MATCH_FUZZY_THRESHOLD", "0.9")

	cfg := Load()
	assert.Equal(t, 0.9, cfg.Matching.FuzzyThreshold)
}

func TestFuzzyThresholdMalformedFallsBack(t *testing.T) {
	t.Setenv("MATCH_FUZZY_THRESHOLD", "not-a-number")

	cfg := Load()
	assert.Equal(t, 0.8, cfg.Matching.FuzzyThreshold)
}

func TestMatchingTablesDefaultWhenUnconfigured(t *testing.T) {
	cfg := Load()

	aliases, err := cfg.Matching.LoadAliases()
	assert.NoError(t, err)
	assert.NotEmpty(t, aliases)

	patterns, err := cfg.Matching.LoadPatterns()
	assert.NoError(t, err)
	assert.NotEmpty(t, patterns)

	conversions, err := cfg.Matching.LoadConversions()
	assert.NoError(t, err)
	assert.NotEmpty(t, conversions)
}
