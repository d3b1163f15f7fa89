// Package classify maps ingredient names to the inventory categories they
// are expected to live in, narrowing candidate search during matching.
package classify

import (
	"strings"

	"inventory-engine/internal/models"
)

// Pattern pairs a substring with the categories an ingredient containing it
// is expected to belong to.
type Pattern struct {
	Substring  string                `json:"substring"`
	Categories []models.ItemCategory `json:"categories"`
}

// Classifier holds a priority-ordered pattern table. Patterns are checked
// case-insensitively against the ingredient name and the first match wins.
type Classifier struct {
	patterns []Pattern
}

// NewClassifier builds a classifier from an ordered pattern table. The
// table is injectable configuration; see DefaultPatterns.
func NewClassifier(patterns []Pattern) *Classifier {
	lowered := make([]Pattern, len(patterns))
	for i, p := range patterns {
		lowered[i] = Pattern{
			Substring:  strings.ToLower(p.Substring),
			Categories: p.Categories,
		}
	}
	return &Classifier{patterns: lowered}
}

// Classify returns the ranked categories expected for an ingredient name.
// An empty result means no pattern matched and the caller should search all
// categories.
func (c *Classifier) Classify(ingredientName string) []models.ItemCategory {
	name := strings.ToLower(strings.TrimSpace(ingredientName))
	if name == "" {
		return nil
	}

	for _, p := range c.patterns {
		if strings.Contains(name, p.Substring) {
			return p.Categories
		}
	}
	return nil
}
