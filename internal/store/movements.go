package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"inventory-engine/internal/models"
)

// AppendMovement appends one entry to the movement ledger. The ledger is
// insert-only; there is no update or delete path.
func (s *Store) AppendMovement(ctx context.Context, m *models.InventoryMovement) error {
	query := `
		INSERT INTO inventory_movements
			(id, item_id, store_id, movement_type, quantity_delta, new_quantity, reference, match_tier)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	return s.db.GetContext(ctx, &m.CreatedAt, query,
		m.ID, m.ItemID, m.StoreID, m.MovementType, m.QuantityDelta, m.NewQuantity, m.Reference, m.MatchTier)
}

// ListMovements retrieves ledger entries for a store since a given time,
// optionally restricted to one item. Pass an empty itemID for all items.
func (s *Store) ListMovements(ctx context.Context, storeID, itemID string, since time.Time) ([]models.InventoryMovement, error) {
	var movements []models.InventoryMovement

	if itemID == "" {
		err := s.db.SelectContext(ctx, &movements,
			"SELECT * FROM inventory_movements WHERE store_id = $1 AND created_at >= $2 ORDER BY created_at",
			storeID, since)
		return movements, err
	}

	err := s.db.SelectContext(ctx, &movements,
		"SELECT * FROM inventory_movements WHERE store_id = $1 AND item_id = $2 AND created_at >= $3 ORDER BY created_at",
		storeID, itemID, since)
	return movements, err
}

// GetRecipeIngredients retrieves the ingredient requirements for a recipe
func (s *Store) GetRecipeIngredients(ctx context.Context, recipeRef string) ([]models.RecipeIngredient, error) {
	var ingredients []models.RecipeIngredient
	err := s.db.SelectContext(ctx, &ingredients,
		"SELECT * FROM recipe_ingredients WHERE recipe_ref = $1 ORDER BY ingredient_name", recipeRef)
	return ingredients, err
}

// SaveDeductionAudit persists the summary record of one deduction run
func (s *Store) SaveDeductionAudit(ctx context.Context, audit *models.DeductionAudit) error {
	query := `
		INSERT INTO deduction_audits (id, sale_id, store_id, success, items_processed, failures)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	return s.db.GetContext(ctx, &audit.CreatedAt, query,
		audit.ID, audit.SaleID, audit.StoreID, audit.Success, audit.ItemsProcessed, audit.Failures)
}

// GetDeductionAudit retrieves the audit record for a sale, or nil when the
// sale has not been processed yet.
func (s *Store) GetDeductionAudit(ctx context.Context, saleID string) (*models.DeductionAudit, error) {
	var audit models.DeductionAudit
	err := s.db.GetContext(ctx, &audit,
		"SELECT * FROM deduction_audits WHERE sale_id = $1 ORDER BY created_at DESC LIMIT 1", saleID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load deduction audit: %w", err)
	}
	return &audit, nil
}
