package deduct

import (
	"context"
	"fmt"

	"inventory-engine/internal/models"
	"inventory-engine/internal/util"

	"github.com/shopspring/decimal"
)

// InsufficientIngredient reports one ingredient a sale would fail on.
type InsufficientIngredient struct {
	Ingredient string          `json:"ingredient"`
	Required   decimal.Decimal `json:"required"`
	Available  decimal.Decimal `json:"available"`
	Unit       string          `json:"unit"`
}

// ValidationResult is the outcome of a dry-run availability check.
type ValidationResult struct {
	Valid        bool                     `json:"valid"`
	Insufficient []InsufficientIngredient `json:"insufficient_items"`
	Warnings     []string                 `json:"warnings,omitempty"`
}

// ValidateForSale checks whether sufficient inventory exists for a sale
// without mutating any stock. Unresolvable products or ingredients are
// reported as warnings, matching the deduction engine's non-fatal handling.
func (e *Engine) ValidateForSale(ctx context.Context, req *SaleRequest) (*ValidationResult, error) {
	ctx, span := util.StartSpan(ctx, "Engine.ValidateForSale")
	defer span.End()

	result := &ValidationResult{Valid: true}

	for _, item := range req.Items {
		if item.RecipeRef == "" {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("no recipe link for product %q", item.ProductName))
			continue
		}

		ingredients, err := e.store.GetRecipeIngredients(ctx, item.RecipeRef)
		if err != nil {
			return nil, fmt.Errorf("failed to load recipe %s: %w", item.RecipeRef, err)
		}

		for _, ingredient := range ingredients {
			required := ingredient.Quantity.Mul(item.Quantity)

			match, err := e.matcher.Match(ctx, ingredient.Name, ingredient.Unit, req.StoreID)
			if err != nil {
				return nil, fmt.Errorf("match failed for %q: %w", ingredient.Name, err)
			}

			if match.Tier == models.MatchTierNone {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("no matching inventory item for %q", ingredient.Name))
				continue
			}

			final := required.Mul(match.ConversionFactor)
			if match.Item.StockQuantity.LessThan(final) {
				result.Valid = false
				result.Insufficient = append(result.Insufficient, InsufficientIngredient{
					Ingredient: ingredient.Name,
					Required:   final,
					Available:  match.Item.StockQuantity,
					Unit:       match.Item.Unit,
				})
			}
		}
	}

	return result, nil
}
