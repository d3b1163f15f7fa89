// Package deduct turns completed sales into inventory deductions.
package deduct

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"inventory-engine/internal/broker"
	"inventory-engine/internal/models"
	"inventory-engine/internal/redisclient"
	"inventory-engine/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// stockUpdateRetries bounds the optimistic-concurrency loop on one
// ingredient's stock write.
const stockUpdateRetries = 3

// saleClaimTTL is how long a sale claim blocks duplicate processing.
const saleClaimTTL = 10 * time.Minute

// RecordStore is the slice of the persistence layer the engine needs. It
// is durable and queryable but provides no cross-call transactions.
type RecordStore interface {
	GetItem(ctx context.Context, id string) (*models.InventoryItem, error)
	UpdateStockConditional(ctx context.Context, itemID string, previous, next decimal.Decimal) (bool, error)
	AppendMovement(ctx context.Context, m *models.InventoryMovement) error
	GetRecipeIngredients(ctx context.Context, recipeRef string) ([]models.RecipeIngredient, error)
	SaveDeductionAudit(ctx context.Context, audit *models.DeductionAudit) error
	GetDeductionAudit(ctx context.Context, saleID string) (*models.DeductionAudit, error)
}

// IngredientMatcher resolves a recipe ingredient to an inventory item.
type IngredientMatcher interface {
	Match(ctx context.Context, ingredientName, ingredientUnit, storeID string) (*models.IngredientMatch, error)
}

// Engine processes a sale's ingredient list against current stock.
// Processing is sequential and partial: a failed ingredient is recorded
// and skipped, and already-applied deductions are never rolled back.
// Operators reconcile partial results from the aggregated outcome.
type Engine struct {
	store   RecordStore
	matcher IngredientMatcher
	redis   *redisclient.Client    // optional; sale claims and cache invalidation
	events  *broker.EventPublisher // optional; deduction-completed events
	logger  *zap.Logger
}

// NewEngine creates a deduction engine. redis and events may be nil, which
// disables sale claims and event publishing respectively.
func NewEngine(store RecordStore, matcher IngredientMatcher, redis *redisclient.Client, events *broker.EventPublisher) *Engine {
	return &Engine{
		store:   store,
		matcher: matcher,
		redis:   redis,
		events:  events,
		logger:  util.GetLogger(),
	}
}

// SaleRequest describes one completed sale to deduct inventory for.
type SaleRequest struct {
	SaleID  string           `json:"sale_id" binding:"required"`
	StoreID string           `json:"store_id" binding:"required"`
	Items   []models.SoldItem `json:"items" binding:"required,min=1"`
}

// DeductForSale processes every sold item of a sale in input order and
// returns the aggregated result. The returned error is reserved for cases
// where no result could be produced at all; per-ingredient problems are
// reported inside the result.
func (e *Engine) DeductForSale(ctx context.Context, req *SaleRequest) (result *models.DeductionResult, err error) {
	ctx, span := util.StartSpan(ctx, "Engine.DeductForSale")
	defer span.End()

	start := time.Now()
	defer func() {
		util.DeductionLatency.Observe(time.Since(start).Seconds())
	}()

	util.DeductionsTotal.Inc()

	result = &models.DeductionResult{
		SaleID:  req.SaleID,
		StoreID: req.StoreID,
	}

	// A panic anywhere below becomes a single synthetic failure; the
	// partial result accumulated so far is still returned.
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Deduction run panicked",
				zap.String("sale_id", req.SaleID),
				zap.Any("panic", r))
			result.Failures = append(result.Failures, models.DeductionFailure{
				Ingredient: "unknown",
				Reason:     models.FailureReasonSystem,
				Detail:     fmt.Sprintf("%v", r),
			})
			e.finish(ctx, result)
			err = nil
		}
	}()

	if prior := e.priorResult(ctx, req.SaleID); prior != nil {
		return prior, nil
	}

	if e.redis != nil {
		claimed, claimErr := e.redis.ClaimSale(ctx, req.SaleID, saleClaimTTL)
		if claimErr != nil {
			e.logger.Warn("Sale claim check failed, continuing without it",
				zap.String("sale_id", req.SaleID), zap.Error(claimErr))
		} else if !claimed {
			result.Warnings = append(result.Warnings, "sale is already being processed")
			result.Success = true
			return result, nil
		}
	}

	for _, item := range req.Items {
		e.processSoldItem(ctx, req.StoreID, req.SaleID, item, result)
		result.Processed++
	}

	e.finish(ctx, result)
	return result, nil
}

// processSoldItem deducts all recipe ingredients of one sold product.
func (e *Engine) processSoldItem(ctx context.Context, storeID, saleID string, item models.SoldItem, result *models.DeductionResult) {
	if item.RecipeRef == "" {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("no recipe link for product %q, skipped", item.ProductName))
		return
	}

	ingredients, err := e.store.GetRecipeIngredients(ctx, item.RecipeRef)
	if err != nil {
		util.IngredientFailuresTotal.WithLabelValues(models.FailureReasonPersistence).Inc()
		result.Failures = append(result.Failures, models.DeductionFailure{
			Ingredient: item.ProductName,
			Reason:     models.FailureReasonPersistence,
			Detail:     fmt.Sprintf("failed to load recipe %s: %v", item.RecipeRef, err),
		})
		return
	}

	if len(ingredients) == 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("no ingredients defined for product %q (recipe %s)", item.ProductName, item.RecipeRef))
		return
	}

	for _, ingredient := range ingredients {
		e.deductIngredient(ctx, storeID, saleID, item, ingredient, result)
	}
}

// deductIngredient resolves, verifies and applies one ingredient deduction.
func (e *Engine) deductIngredient(ctx context.Context, storeID, saleID string, item models.SoldItem, ingredient models.RecipeIngredient, result *models.DeductionResult) {
	required := ingredient.Quantity.Mul(item.Quantity)

	match, err := e.matcher.Match(ctx, ingredient.Name, ingredient.Unit, storeID)
	if err != nil {
		util.IngredientFailuresTotal.WithLabelValues(models.FailureReasonPersistence).Inc()
		result.Failures = append(result.Failures, models.DeductionFailure{
			Ingredient: ingredient.Name,
			Reason:     models.FailureReasonPersistence,
			Detail:     err.Error(),
			Required:   required,
		})
		return
	}

	if match.Tier == models.MatchTierNone {
		util.IngredientFailuresTotal.WithLabelValues(models.FailureReasonNoMatch).Inc()
		result.Failures = append(result.Failures, models.DeductionFailure{
			Ingredient: ingredient.Name,
			Reason:     models.FailureReasonNoMatch,
			Detail:     fmt.Sprintf("no matching inventory item at store %s", storeID),
			Required:   required,
		})
		return
	}

	if !match.ConversionVerified {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("unverified unit conversion for %q: %s to %s assumed 1:1",
				ingredient.Name, ingredient.Unit, match.Item.Unit))
	}

	final := required.Mul(match.ConversionFactor)

	outcome, failure := e.applyDeduction(ctx, match, final)
	if failure != nil {
		failure.Ingredient = ingredient.Name
		util.IngredientFailuresTotal.WithLabelValues(failure.Reason).Inc()
		result.Failures = append(result.Failures, *failure)
		return
	}

	outcome.Ingredient = ingredient.Name
	outcome.Unit = match.Item.Unit
	result.Outcomes = append(result.Outcomes, *outcome)
	util.IngredientDeductionsTotal.Inc()

	movement := &models.InventoryMovement{
		ID:            uuid.New().String(),
		ItemID:        match.Item.ID,
		StoreID:       storeID,
		MovementType:  models.MovementTypeDeduction,
		QuantityDelta: final.Neg(),
		NewQuantity:   outcome.NewStock,
		Reference:     fmt.Sprintf("sale:%s", saleID),
		MatchTier:     string(match.Tier),
	}

	// Ledger writes are best-effort: an applied stock change is never
	// reverted because its movement entry could not be recorded.
	if err := e.store.AppendMovement(ctx, movement); err != nil {
		e.logger.Error("Failed to append inventory movement",
			zap.String("item_id", match.Item.ID),
			zap.String("sale_id", saleID),
			zap.Error(err))
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("movement record failed for %q: %v", ingredient.Name, err))
	}
}

// applyDeduction performs the conditional read-modify-write with bounded
// retries. Insufficient stock rejects the deduction outright; it is never
// clamped to zero.
func (e *Engine) applyDeduction(ctx context.Context, match *models.IngredientMatch, quantity decimal.Decimal) (*models.DeductionOutcome, *models.DeductionFailure) {
	for attempt := 0; attempt < stockUpdateRetries; attempt++ {
		current, err := e.store.GetItem(ctx, match.Item.ID)
		if err != nil {
			return nil, &models.DeductionFailure{
				Reason:   models.FailureReasonPersistence,
				Detail:   err.Error(),
				Required: quantity,
			}
		}

		if current.StockQuantity.LessThan(quantity) {
			return nil, &models.DeductionFailure{
				Reason:    models.FailureReasonInsufficientStock,
				Detail:    "insufficient stock",
				Required:  quantity,
				Available: current.StockQuantity,
			}
		}

		next := current.StockQuantity.Sub(quantity)

		ok, err := e.store.UpdateStockConditional(ctx, current.ID, current.StockQuantity, next)
		if err != nil {
			return nil, &models.DeductionFailure{
				Reason:    models.FailureReasonPersistence,
				Detail:    err.Error(),
				Required:  quantity,
				Available: current.StockQuantity,
			}
		}
		if ok {
			return &models.DeductionOutcome{
				ItemID:        current.ID,
				ItemName:      current.Name,
				Deducted:      quantity,
				PreviousStock: current.StockQuantity,
				NewStock:      next,
				Tier:          match.Tier,
			}, nil
		}

		util.StockUpdateConflictsTotal.Inc()
	}

	return nil, &models.DeductionFailure{
		Reason:   models.FailureReasonPersistence,
		Detail:   fmt.Sprintf("stock update lost to concurrent writers %d times", stockUpdateRetries),
		Required: quantity,
	}
}

// finish derives the overall flag, persists the audit record and notifies
// downstream consumers. Audit and event writes are best-effort.
func (e *Engine) finish(ctx context.Context, result *models.DeductionResult) {
	result.Success = len(result.Failures) == 0
	if !result.Success {
		util.DeductionsPartialTotal.Inc()
	}

	failures, err := json.Marshal(result.Failures)
	if err != nil {
		failures = []byte("[]")
	}

	audit := &models.DeductionAudit{
		ID:             uuid.New().String(),
		SaleID:         result.SaleID,
		StoreID:        result.StoreID,
		Success:        result.Success,
		ItemsProcessed: result.Processed,
		Failures:       string(failures),
	}
	if err := e.store.SaveDeductionAudit(ctx, audit); err != nil {
		e.logger.Error("Failed to persist deduction audit",
			zap.String("sale_id", result.SaleID), zap.Error(err))
		// Without an audit record a duplicate request cannot be answered
		// from history; drop the claim so a retry can reprocess.
		if e.redis != nil {
			if relErr := e.redis.ReleaseSale(ctx, result.SaleID); relErr != nil {
				e.logger.Warn("Failed to release sale claim",
					zap.String("sale_id", result.SaleID), zap.Error(relErr))
			}
		}
	}

	if e.redis != nil && len(result.Outcomes) > 0 {
		if err := e.redis.InvalidatePatterns(ctx, result.StoreID); err != nil {
			e.logger.Warn("Failed to invalidate pattern cache",
				zap.String("store_id", result.StoreID), zap.Error(err))
		}
	}

	if e.events != nil {
		if err := e.events.PublishDeductionCompleted(ctx, result); err != nil {
			e.logger.Error("Failed to publish DeductionCompleted event",
				zap.String("sale_id", result.SaleID), zap.Error(err))
		}
	}

	e.logger.Info("Deduction run completed",
		zap.String("sale_id", result.SaleID),
		zap.String("store_id", result.StoreID),
		zap.Bool("success", result.Success),
		zap.Int("deducted", len(result.Outcomes)),
		zap.Int("failures", len(result.Failures)))
}

// priorResult reconstructs a summary result when the sale was already
// processed, so a duplicate request never deducts twice.
func (e *Engine) priorResult(ctx context.Context, saleID string) *models.DeductionResult {
	audit, err := e.store.GetDeductionAudit(ctx, saleID)
	if err != nil {
		e.logger.Warn("Audit lookup failed, proceeding with deduction",
			zap.String("sale_id", saleID), zap.Error(err))
		return nil
	}
	if audit == nil {
		return nil
	}

	var failures []models.DeductionFailure
	_ = json.Unmarshal([]byte(audit.Failures), &failures)

	return &models.DeductionResult{
		SaleID:    audit.SaleID,
		StoreID:   audit.StoreID,
		Success:   audit.Success,
		Failures:  failures,
		Processed: audit.ItemsProcessed,
		Warnings:  []string{"sale already processed, returning recorded result"},
	}
}
