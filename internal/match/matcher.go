// Package match resolves free-text recipe ingredient names to concrete
// inventory items.
package match

import (
	"context"
	"fmt"
	"strings"

	"inventory-engine/internal/classify"
	"inventory-engine/internal/models"
	"inventory-engine/internal/unit"
	"inventory-engine/internal/util"

	"github.com/agnivade/levenshtein"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FuzzyAcceptThreshold is the minimum similarity for an automatic fuzzy
// match. Candidates scoring in (RiskyFloor, FuzzyAcceptThreshold] are
// considered too risky for automatic deduction and rejected. Both values
// are inherited tuning constants, not proven optima.
const (
	FuzzyAcceptThreshold = 0.8
	RiskyFloor           = 0.6
)

// AliasTable maps recipe ingredient names to the canonical inventory item
// name they should resolve to, e.g. "Marshmallow Toppings" -> "Marshmallow".
type AliasTable map[string]string

// InventoryLister is the slice of the record store the matcher needs.
type InventoryLister interface {
	ListActiveItems(ctx context.Context, storeID string, categories ...models.ItemCategory) ([]models.InventoryItem, error)
}

// Matcher resolves one recipe ingredient to one inventory item using a
// tiered strategy: exact name match, standardized alias, then fuzzy
// similarity, with category-narrowed candidate search.
type Matcher struct {
	items      InventoryLister
	converter  *unit.Converter
	classifier *classify.Classifier
	aliases    AliasTable
	threshold  float64
	logger     *zap.Logger
}

// NewMatcher creates a matcher. The alias table is injectable
// configuration; see DefaultAliases.
func NewMatcher(
	items InventoryLister,
	converter *unit.Converter,
	classifier *classify.Classifier,
	aliases AliasTable,
) *Matcher {
	normalized := make(AliasTable, len(aliases))
	for from, to := range aliases {
		normalized[normalizeText(from)] = to
	}

	return &Matcher{
		items:      items,
		converter:  converter,
		classifier: classifier,
		aliases:    normalized,
		threshold:  FuzzyAcceptThreshold,
		logger:     util.GetLogger(),
	}
}

// SetFuzzyThreshold overrides the fuzzy acceptance threshold.
func (m *Matcher) SetFuzzyThreshold(t float64) {
	m.threshold = t
}

// Match resolves an ingredient name and unit against a store's active
// inventory. It always returns a match value; tier None means no item
// qualified.
func (m *Matcher) Match(ctx context.Context, ingredientName, ingredientUnit, storeID string) (*models.IngredientMatch, error) {
	ctx, span := util.StartSpan(ctx, "Matcher.Match")
	defer span.End()

	candidates, err := m.candidates(ctx, ingredientName, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate items: %w", err)
	}

	if item := m.exactMatch(candidates, ingredientName); item != nil {
		return m.accepted(models.MatchTierExact, 1.0, item, ingredientUnit), nil
	}

	if item := m.aliasMatch(candidates, ingredientName); item != nil {
		return m.accepted(models.MatchTierStandardized, 0.95, item, ingredientUnit), nil
	}

	if item, similarity := m.fuzzyMatch(candidates, ingredientName); item != nil {
		return m.accepted(models.MatchTierFuzzy, similarity, item, ingredientUnit), nil
	}

	util.MatchResultsTotal.WithLabelValues(string(models.MatchTierNone)).Inc()
	m.logger.Debug("No inventory match",
		zap.String("ingredient", ingredientName),
		zap.String("store_id", storeID))

	return &models.IngredientMatch{
		Tier:               models.MatchTierNone,
		Confidence:         0,
		ConversionFactor:   decimal.NewFromInt(1),
		ConversionVerified: false,
	}, nil
}

// candidates fetches inventory items narrowed to the classifier's expected
// categories. Classification is heuristic, so an empty or fruitless
// category set always falls back to every active item in the store.
func (m *Matcher) candidates(ctx context.Context, ingredientName, storeID string) ([]models.InventoryItem, error) {
	categories := m.classifier.Classify(ingredientName)

	if len(categories) > 0 {
		items, err := m.items.ListActiveItems(ctx, storeID, categories...)
		if err != nil {
			return nil, err
		}
		if len(items) > 0 {
			return items, nil
		}
	}

	return m.items.ListActiveItems(ctx, storeID)
}

func (m *Matcher) exactMatch(candidates []models.InventoryItem, ingredientName string) *models.InventoryItem {
	target := normalizeText(ingredientName)
	for i := range candidates {
		if normalizeText(candidates[i].Name) == target {
			return &candidates[i]
		}
	}
	return nil
}

func (m *Matcher) aliasMatch(candidates []models.InventoryItem, ingredientName string) *models.InventoryItem {
	canonical, ok := m.aliases[normalizeText(ingredientName)]
	if !ok {
		return nil
	}

	target := normalizeText(canonical)
	for i := range candidates {
		if normalizeText(candidates[i].Name) == target {
			return &candidates[i]
		}
	}
	return nil
}

func (m *Matcher) fuzzyMatch(candidates []models.InventoryItem, ingredientName string) (*models.InventoryItem, float64) {
	target := normalizeText(ingredientName)

	var best *models.InventoryItem
	bestScore := 0.0

	for i := range candidates {
		score := Similarity(target, normalizeText(candidates[i].Name))
		if score > bestScore {
			bestScore = score
			best = &candidates[i]
		}
	}

	if best == nil || bestScore <= m.threshold {
		if best != nil && bestScore > RiskyFloor {
			m.logger.Debug("Rejected risky fuzzy candidate",
				zap.String("ingredient", ingredientName),
				zap.String("candidate", best.Name),
				zap.Float64("similarity", bestScore))
		}
		return nil, 0
	}

	return best, bestScore
}

func (m *Matcher) accepted(tier models.MatchTier, confidence float64, item *models.InventoryItem, ingredientUnit string) *models.IngredientMatch {
	factor, verified := m.converter.Factor(ingredientUnit, item.Unit)
	if !verified {
		util.UnverifiedConversionsTotal.Inc()
	}

	util.MatchResultsTotal.WithLabelValues(string(tier)).Inc()

	return &models.IngredientMatch{
		Tier:               tier,
		Confidence:         confidence,
		Item:               item,
		ConversionFactor:   factor,
		ConversionVerified: verified,
		Category:           item.Category,
	}
}

// Similarity computes normalized string similarity as 1 minus the
// Levenshtein distance divided by the longer string's length.
func Similarity(a, b string) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 0
	}

	dist := levenshtein.ComputeDistance(a, b)
	return float64(maxLen-dist) / float64(maxLen)
}

// normalizeText lowercases, strips punctuation and collapses whitespace so
// "Choco  Flakes!" and "choco flakes" compare equal.
func normalizeText(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	lastSpace := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastSpace = false
		case r == ' ' || r == '\t':
			if !lastSpace && sb.Len() > 0 {
				sb.WriteRune(' ')
				lastSpace = true
			}
		}
	}

	return strings.TrimSpace(sb.String())
}
