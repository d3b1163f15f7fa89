package deduct

import (
	"context"
	"errors"
	"testing"
	"time"

	"inventory-engine/internal/classify"
	"inventory-engine/internal/match"
	"inventory-engine/internal/models"
	"inventory-engine/internal/unit"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	items            map[string]*models.InventoryItem
	recipes          map[string][]models.RecipeIngredient
	movements        []models.InventoryMovement
	audits           map[string]*models.DeductionAudit
	conflictsLeft    int
	failMovement     bool
	failStockUpdates bool
}

func newMemStore() *memStore {
	return &memStore{
		items:   make(map[string]*models.InventoryItem),
		recipes: make(map[string][]models.RecipeIngredient),
		audits:  make(map[string]*models.DeductionAudit),
	}
}

func (s *memStore) addItem(item models.InventoryItem) {
	copied := item
	s.items[item.ID] = &copied
}

func (s *memStore) GetItem(_ context.Context, id string) (*models.InventoryItem, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, errors.New("inventory item not found: " + id)
	}
	copied := *item
	return &copied, nil
}

func (s *memStore) UpdateStockConditional(_ context.Context, itemID string, previous, next decimal.Decimal) (bool, error) {
	if s.failStockUpdates {
		return false, errors.New("connection reset")
	}
	if s.conflictsLeft > 0 {
		s.conflictsLeft--
		return false, nil
	}
	item, ok := s.items[itemID]
	if !ok || !item.StockQuantity.Equal(previous) {
		return false, nil
	}
	item.StockQuantity = next
	return true, nil
}

func (s *memStore) AppendMovement(_ context.Context, m *models.InventoryMovement) error {
	if s.failMovement {
		return errors.New("movement table unavailable")
	}
	m.CreatedAt = time.Now()
	s.movements = append(s.movements, *m)
	return nil
}

func (s *memStore) GetRecipeIngredients(_ context.Context, recipeRef string) ([]models.RecipeIngredient, error) {
	return s.recipes[recipeRef], nil
}

func (s *memStore) SaveDeductionAudit(_ context.Context, audit *models.DeductionAudit) error {
	audit.CreatedAt = time.Now()
	s.audits[audit.SaleID] = audit
	return nil
}

func (s *memStore) GetDeductionAudit(_ context.Context, saleID string) (*models.DeductionAudit, error) {
	return s.audits[saleID], nil
}

// storeLister adapts memStore to the matcher's candidate lookup.
type storeLister struct{ s *memStore }

func (l storeLister) ListActiveItems(_ context.Context, storeID string, categories ...models.ItemCategory) ([]models.InventoryItem, error) {
	var out []models.InventoryItem
	for _, item := range l.s.items {
		if item.StoreID != storeID || !item.IsActive {
			continue
		}
		if len(categories) > 0 {
			found := false
			for _, c := range categories {
				if item.Category == c {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, *item)
	}
	return out, nil
}

func newEngine(s *memStore) *Engine {
	converter := unit.NewConverter(unit.DefaultConversions, unit.DefaultUnitAliases)
	classifier := classify.NewClassifier(classify.DefaultPatterns)
	matcher := match.NewMatcher(storeLister{s}, converter, classifier, match.DefaultAliases)
	return NewEngine(s, matcher, nil, nil)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func chocolateSauceStore() *memStore {
	s := newMemStore()
	s.addItem(models.InventoryItem{
		ID:               "inv-choc",
		StoreID:          "store-1",
		Name:             "Chocolate Sauce for Coffee",
		Unit:             "ml",
		Category:         models.CategoryClassicSauce,
		StockQuantity:    decimal.NewFromInt(500),
		CostPerUnit:      dec("0.05"),
		MinimumThreshold: decimal.NewFromInt(100),
		IsActive:         true,
	})
	s.recipes["recipe-croffle"] = []models.RecipeIngredient{
		{RecipeRef: "recipe-croffle", Name: "Chocolate Sauce", Unit: "ml", Quantity: decimal.NewFromInt(30)},
	}
	return s
}

func TestDeductForSaleAliasEndToEnd(t *testing.T) {
	s := chocolateSauceStore()
	e := newEngine(s)

	result, err := e.DeductForSale(context.Background(), &SaleRequest{
		SaleID:  "sale-1",
		StoreID: "store-1",
		Items: []models.SoldItem{
			{ProductName: "Choco Croffle", Quantity: decimal.NewFromInt(2), RecipeRef: "recipe-croffle"},
		},
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.Len(t, result.Outcomes, 1)
	outcome := result.Outcomes[0]
	assert.Equal(t, "Chocolate Sauce", outcome.Ingredient)
	assert.Equal(t, "Chocolate Sauce for Coffee", outcome.ItemName)
	assert.True(t, decimal.NewFromInt(60).Equal(outcome.Deducted))
	assert.True(t, decimal.NewFromInt(440).Equal(outcome.NewStock))
	assert.Equal(t, models.MatchTierStandardized, outcome.Tier)

	assert.True(t, decimal.NewFromInt(440).Equal(s.items["inv-choc"].StockQuantity))

	require.Len(t, s.movements, 1)
	assert.True(t, decimal.NewFromInt(-60).Equal(s.movements[0].QuantityDelta))
	assert.Equal(t, models.MovementTypeDeduction, s.movements[0].MovementType)
	assert.Equal(t, "sale:sale-1", s.movements[0].Reference)

	require.NotNil(t, s.audits["sale-1"])
	assert.True(t, s.audits["sale-1"].Success)
}

func TestDeductTwiceSumsAndStaysNonNegative(t *testing.T) {
	s := chocolateSauceStore()
	e := newEngine(s)

	for _, saleID := range []string{"sale-a", "sale-b"} {
		result, err := e.DeductForSale(context.Background(), &SaleRequest{
			SaleID:  saleID,
			StoreID: "store-1",
			Items: []models.SoldItem{
				{ProductName: "Choco Croffle", Quantity: decimal.NewFromInt(1), RecipeRef: "recipe-croffle"},
			},
		})
		require.NoError(t, err)
		assert.True(t, result.Success)
	}

	// 500 - 30 - 30
	assert.True(t, decimal.NewFromInt(440).Equal(s.items["inv-choc"].StockQuantity))
	assert.True(t, s.items["inv-choc"].StockQuantity.IsPositive())
}

func TestDeductInsufficientStockLeavesStockUnchanged(t *testing.T) {
	s := chocolateSauceStore()
	s.items["inv-choc"].StockQuantity = decimal.NewFromInt(50)
	e := newEngine(s)

	result, err := e.DeductForSale(context.Background(), &SaleRequest{
		SaleID:  "sale-short",
		StoreID: "store-1",
		Items: []models.SoldItem{
			{ProductName: "Choco Croffle", Quantity: decimal.NewFromInt(2), RecipeRef: "recipe-croffle"},
		},
	})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Empty(t, result.Outcomes)
	require.Len(t, result.Failures, 1)
	failure := result.Failures[0]
	assert.Equal(t, models.FailureReasonInsufficientStock, failure.Reason)
	assert.True(t, decimal.NewFromInt(60).Equal(failure.Required))
	assert.True(t, decimal.NewFromInt(50).Equal(failure.Available))

	// Rejected, not clamped.
	assert.True(t, decimal.NewFromInt(50).Equal(s.items["inv-choc"].StockQuantity))
	assert.Empty(t, s.movements)
}

func TestDeductPartialFailureKeepsSuccessfulOutcomes(t *testing.T) {
	s := chocolateSauceStore()
	s.recipes["recipe-croffle"] = append(s.recipes["recipe-croffle"],
		models.RecipeIngredient{RecipeRef: "recipe-croffle", Name: "Unicorn Dust", Unit: "grams", Quantity: decimal.NewFromInt(5)})
	e := newEngine(s)

	result, err := e.DeductForSale(context.Background(), &SaleRequest{
		SaleID:  "sale-partial",
		StoreID: "store-1",
		Items: []models.SoldItem{
			{ProductName: "Choco Croffle", Quantity: decimal.NewFromInt(1), RecipeRef: "recipe-croffle"},
		},
	})
	require.NoError(t, err)

	assert.False(t, result.Success)
	require.Len(t, result.Outcomes, 1, "successful deduction must survive the sibling failure")
	require.Len(t, result.Failures, 1)
	assert.Equal(t, models.FailureReasonNoMatch, result.Failures[0].Reason)
	assert.Equal(t, "Unicorn Dust", result.Failures[0].Ingredient)

	// The applied deduction stands; no rollback.
	assert.True(t, decimal.NewFromInt(470).Equal(s.items["inv-choc"].StockQuantity))
}

func TestDeductMissingRecipeLinkIsWarningNotFailure(t *testing.T) {
	s := chocolateSauceStore()
	e := newEngine(s)

	result, err := e.DeductForSale(context.Background(), &SaleRequest{
		SaleID:  "sale-nolink",
		StoreID: "store-1",
		Items: []models.SoldItem{
			{ProductName: "Bottled Water", Quantity: decimal.NewFromInt(1)},
		},
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Empty(t, result.Failures)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "no recipe link")
}

func TestDeductMovementFailureIsWarningOnly(t *testing.T) {
	s := chocolateSauceStore()
	s.failMovement = true
	e := newEngine(s)

	result, err := e.DeductForSale(context.Background(), &SaleRequest{
		SaleID:  "sale-ledger-down",
		StoreID: "store-1",
		Items: []models.SoldItem{
			{ProductName: "Choco Croffle", Quantity: decimal.NewFromInt(1), RecipeRef: "recipe-croffle"},
		},
	})
	require.NoError(t, err)

	// Stock change is applied and kept even though the ledger write failed.
	assert.True(t, result.Success)
	assert.True(t, decimal.NewFromInt(470).Equal(s.items["inv-choc"].StockQuantity))
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "movement record failed")
}

func TestDeductRetriesOnStockConflict(t *testing.T) {
	s := chocolateSauceStore()
	s.conflictsLeft = 2
	e := newEngine(s)

	result, err := e.DeductForSale(context.Background(), &SaleRequest{
		SaleID:  "sale-contended",
		StoreID: "store-1",
		Items: []models.SoldItem{
			{ProductName: "Choco Croffle", Quantity: decimal.NewFromInt(1), RecipeRef: "recipe-croffle"},
		},
	})
	require.NoError(t, err)

	assert.True(t, result.Success, "two conflicts fit within the retry budget")
	assert.True(t, decimal.NewFromInt(470).Equal(s.items["inv-choc"].StockQuantity))
}

func TestDeductStockWriteErrorIsPersistenceFailure(t *testing.T) {
	s := chocolateSauceStore()
	s.failStockUpdates = true
	e := newEngine(s)

	result, err := e.DeductForSale(context.Background(), &SaleRequest{
		SaleID:  "sale-db-down",
		StoreID: "store-1",
		Items: []models.SoldItem{
			{ProductName: "Choco Croffle", Quantity: decimal.NewFromInt(1), RecipeRef: "recipe-croffle"},
		},
	})
	require.NoError(t, err)

	assert.False(t, result.Success)
	require.Len(t, result.Failures, 1)
	failure := result.Failures[0]
	assert.Equal(t, models.FailureReasonPersistence, failure.Reason)
	assert.Contains(t, failure.Detail, "connection reset")
	assert.Equal(t, "Chocolate Sauce", failure.Ingredient)

	assert.True(t, decimal.NewFromInt(500).Equal(s.items["inv-choc"].StockQuantity))
	assert.Empty(t, s.movements)
}

type panickingMatcher struct{}

func (panickingMatcher) Match(context.Context, string, string, string) (*models.IngredientMatch, error) {
	panic("index out of range")
}

func TestDeductPanicBecomesSyntheticFailure(t *testing.T) {
	s := chocolateSauceStore()
	e := NewEngine(s, panickingMatcher{}, nil, nil)

	result, err := e.DeductForSale(context.Background(), &SaleRequest{
		SaleID:  "sale-panic",
		StoreID: "store-1",
		Items: []models.SoldItem{
			{ProductName: "Choco Croffle", Quantity: decimal.NewFromInt(1), RecipeRef: "recipe-croffle"},
		},
	})
	require.NoError(t, err)

	require.NotNil(t, result)
	assert.False(t, result.Success)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, models.FailureReasonSystem, result.Failures[0].Reason)
	assert.Equal(t, "unknown", result.Failures[0].Ingredient)
	assert.Contains(t, result.Failures[0].Detail, "index out of range")

	// The run still leaves a durable audit record behind.
	require.NotNil(t, s.audits["sale-panic"])
	assert.False(t, s.audits["sale-panic"].Success)

	assert.True(t, decimal.NewFromInt(500).Equal(s.items["inv-choc"].StockQuantity))
}

func TestDeductExhaustedRetriesIsPersistenceFailure(t *testing.T) {
	s := chocolateSauceStore()
	s.conflictsLeft = 10
	e := newEngine(s)

	result, err := e.DeductForSale(context.Background(), &SaleRequest{
		SaleID:  "sale-hot-item",
		StoreID: "store-1",
		Items: []models.SoldItem{
			{ProductName: "Choco Croffle", Quantity: decimal.NewFromInt(1), RecipeRef: "recipe-croffle"},
		},
	})
	require.NoError(t, err)

	assert.False(t, result.Success)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, models.FailureReasonPersistence, result.Failures[0].Reason)
	assert.True(t, decimal.NewFromInt(500).Equal(s.items["inv-choc"].StockQuantity))
}

func TestDeductDuplicateSaleReturnsRecordedResult(t *testing.T) {
	s := chocolateSauceStore()
	e := newEngine(s)

	req := &SaleRequest{
		SaleID:  "sale-dup",
		StoreID: "store-1",
		Items: []models.SoldItem{
			{ProductName: "Choco Croffle", Quantity: decimal.NewFromInt(1), RecipeRef: "recipe-croffle"},
		},
	}

	first, err := e.DeductForSale(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, first.Success)

	second, err := e.DeductForSale(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Success)
	assert.Contains(t, second.Warnings[0], "already processed")

	// No second deduction was applied.
	assert.True(t, decimal.NewFromInt(470).Equal(s.items["inv-choc"].StockQuantity))
	assert.Len(t, s.movements, 1)
}

func TestValidateForSaleReportsShortfallWithoutMutating(t *testing.T) {
	s := chocolateSauceStore()
	s.items["inv-choc"].StockQuantity = decimal.NewFromInt(40)
	e := newEngine(s)

	result, err := e.ValidateForSale(context.Background(), &SaleRequest{
		SaleID:  "sale-check",
		StoreID: "store-1",
		Items: []models.SoldItem{
			{ProductName: "Choco Croffle", Quantity: decimal.NewFromInt(2), RecipeRef: "recipe-croffle"},
		},
	})
	require.NoError(t, err)

	assert.False(t, result.Valid)
	require.Len(t, result.Insufficient, 1)
	assert.True(t, decimal.NewFromInt(60).Equal(result.Insufficient[0].Required))
	assert.True(t, decimal.NewFromInt(40).Equal(result.Insufficient[0].Available))

	assert.True(t, decimal.NewFromInt(40).Equal(s.items["inv-choc"].StockQuantity))
	assert.Empty(t, s.movements)
}
