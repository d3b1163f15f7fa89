package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemCategory classifies an inventory item within a store.
type ItemCategory string

// Inventory item categories
const (
	CategoryBaseIngredient ItemCategory = "base_ingredient"
	CategoryClassicSauce   ItemCategory = "classic_sauce"
	CategoryPremiumSauce   ItemCategory = "premium_sauce"
	CategoryClassicTopping ItemCategory = "classic_topping"
	CategoryPremiumTopping ItemCategory = "premium_topping"
	CategoryBiscuit        ItemCategory = "biscuit"
	CategoryPackaging      ItemCategory = "packaging"
)

// InventoryItem represents one stock-keeping unit at one store
type InventoryItem struct {
	ID               string          `db:"id" json:"id"`
	StoreID          string          `db:"store_id" json:"store_id"`
	Name             string          `db:"name" json:"name"`
	Unit             string          `db:"unit" json:"unit"`
	Category         ItemCategory    `db:"category" json:"category"`
	StockQuantity    decimal.Decimal `db:"stock_quantity" json:"stock_quantity"`
	CostPerUnit      decimal.Decimal `db:"cost_per_unit" json:"cost_per_unit"`
	MinimumThreshold decimal.Decimal `db:"minimum_threshold" json:"minimum_threshold"`
	IsActive         bool            `db:"is_active" json:"is_active"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// RecipeIngredient is one line of a product's recipe. The ingredient name is
// free text chosen by the recipe author, not a foreign key into inventory.
type RecipeIngredient struct {
	ID        string          `db:"id" json:"id"`
	RecipeRef string          `db:"recipe_ref" json:"recipe_ref"`
	Name      string          `db:"ingredient_name" json:"ingredient_name"`
	Unit      string          `db:"unit" json:"unit"`
	Quantity  decimal.Decimal `db:"quantity" json:"quantity"`
}

// MatchTier is the confidence category under which an ingredient was
// resolved to an inventory item.
type MatchTier string

// Match tiers, strongest first
const (
	MatchTierExact        MatchTier = "exact"
	MatchTierStandardized MatchTier = "standardized"
	MatchTierFuzzy        MatchTier = "fuzzy"
	MatchTierNone         MatchTier = "none"
)

// IngredientMatch is the resolution of one recipe ingredient against a
// store's inventory. It is recomputed per deduction run and never persisted.
type IngredientMatch struct {
	Tier               MatchTier       `json:"tier"`
	Confidence         float64         `json:"confidence"`
	Item               *InventoryItem  `json:"item,omitempty"`
	ConversionFactor   decimal.Decimal `json:"conversion_factor"`
	ConversionVerified bool            `json:"conversion_verified"`
	Category           ItemCategory    `json:"category,omitempty"`
}

// DeductionOutcome records one successfully applied ingredient deduction.
type DeductionOutcome struct {
	Ingredient    string          `json:"ingredient"`
	ItemID        string          `json:"item_id"`
	ItemName      string          `json:"item_name"`
	Deducted      decimal.Decimal `json:"deducted"`
	Unit          string          `json:"unit"`
	PreviousStock decimal.Decimal `json:"previous_stock"`
	NewStock      decimal.Decimal `json:"new_stock"`
	Tier          MatchTier       `json:"tier"`
}

// Failure reasons for a single ingredient deduction
const (
	FailureReasonNoMatch           = "no_matching_inventory_item"
	FailureReasonInsufficientStock = "insufficient_stock"
	FailureReasonPersistence       = "persistence_error"
	FailureReasonSystem            = "system_error"
)

// DeductionFailure records one ingredient that could not be deducted.
type DeductionFailure struct {
	Ingredient string          `json:"ingredient"`
	Reason     string          `json:"reason"`
	Detail     string          `json:"detail,omitempty"`
	Required   decimal.Decimal `json:"required"`
	Available  decimal.Decimal `json:"available"`
}

// DeductionResult aggregates all outcomes of one sale-processing run.
// Success is false if any ingredient failed; successfully applied
// deductions stand regardless.
type DeductionResult struct {
	SaleID    string             `json:"sale_id"`
	StoreID   string             `json:"store_id"`
	Success   bool               `json:"success"`
	Outcomes  []DeductionOutcome `json:"outcomes"`
	Failures  []DeductionFailure `json:"failures"`
	Warnings  []string           `json:"warnings"`
	Processed int                `json:"processed"`
}

// DeductionAudit is the persisted summary of one deduction run.
type DeductionAudit struct {
	ID             string    `db:"id" json:"id"`
	SaleID         string    `db:"sale_id" json:"sale_id"`
	StoreID        string    `db:"store_id" json:"store_id"`
	Success        bool      `db:"success" json:"success"`
	ItemsProcessed int       `db:"items_processed" json:"items_processed"`
	Failures       string    `db:"failures" json:"failures"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Movement types
const (
	MovementTypeDeduction = "deduction"
	MovementTypeReceiving = "receiving"
	MovementTypeAdjust    = "adjustment"
)

// InventoryMovement is an append-only ledger entry recording a stock change.
// The ledger is the sole source of truth for consumption analytics.
type InventoryMovement struct {
	ID            string          `db:"id" json:"id"`
	ItemID        string          `db:"item_id" json:"item_id"`
	StoreID       string          `db:"store_id" json:"store_id"`
	MovementType  string          `db:"movement_type" json:"movement_type"`
	QuantityDelta decimal.Decimal `db:"quantity_delta" json:"quantity_delta"`
	NewQuantity   decimal.Decimal `db:"new_quantity" json:"new_quantity"`
	Reference     string          `db:"reference" json:"reference"`
	MatchTier     string          `db:"match_tier" json:"match_tier"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// ConsumptionPattern is a derived view of an item's consumption over a
// trailing window. Recomputed on demand; cached at most, never
// authoritative.
type ConsumptionPattern struct {
	ItemID        string          `json:"item_id"`
	ItemName      string          `json:"item_name"`
	StoreID       string          `json:"store_id"`
	WindowDays    int             `json:"window_days"`
	TotalConsumed decimal.Decimal `json:"total_consumed"`
	DailyAverage  decimal.Decimal `json:"daily_average"`
	DataPoints    int             `json:"data_points"`
}

// UrgencyTier classifies how soon an item will stock out.
type UrgencyTier string

// Urgency tiers
const (
	UrgencyLow      UrgencyTier = "low"
	UrgencyMedium   UrgencyTier = "medium"
	UrgencyHigh     UrgencyTier = "high"
	UrgencyCritical UrgencyTier = "critical"
)

// StockoutSentinelDays is reported when an item has no measured consumption
// and therefore no projectable stockout date.
const StockoutSentinelDays = 9999

// ReorderRecommendation is a derived restock suggestion. Regenerated on
// demand, never mutated in place.
type ReorderRecommendation struct {
	ItemID            string          `json:"item_id"`
	ItemName          string          `json:"item_name"`
	StoreID           string          `json:"store_id"`
	CurrentStock      decimal.Decimal `json:"current_stock"`
	DailyRate         decimal.Decimal `json:"daily_rate"`
	RecommendedQty    decimal.Decimal `json:"recommended_qty"`
	DaysUntilStockout int             `json:"days_until_stockout"`
	Urgency           UrgencyTier     `json:"urgency"`
	EstimatedCost     decimal.Decimal `json:"estimated_cost"`
}

// Stock alert types
const (
	AlertTypeOutOfStock   = "out_of_stock"
	AlertTypeLowStock     = "low_stock"
	AlertTypeReorderPoint = "reorder_point"
	AlertTypeUsageSpike   = "usage_spike"
)

// StockAlert is a threshold-driven warning about an item's stock level.
type StockAlert struct {
	ItemID       string          `json:"item_id"`
	ItemName     string          `json:"item_name"`
	StoreID      string          `json:"store_id"`
	AlertType    string          `json:"alert_type"`
	Severity     UrgencyTier     `json:"severity"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	Threshold    decimal.Decimal `json:"threshold"`
	Message      string          `json:"message"`
}

// InventoryStatus is a per-store stock roll-up.
type InventoryStatus struct {
	StoreID       string          `json:"store_id"`
	TotalItems    int             `json:"total_items"`
	LowStockItems int             `json:"low_stock_items"`
	LowStock      []InventoryItem `json:"low_stock_details"`
}
