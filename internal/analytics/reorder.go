package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"inventory-engine/internal/models"
	"inventory-engine/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// restockDays is how many days of consumption a reorder should cover.
const restockDays = 30

// alertSnapshotTTL bounds staleness of the cached alert snapshot served to
// dashboards between monitor runs.
const alertSnapshotTTL = 5 * time.Minute

var (
	two          = decimal.NewFromInt(2)
	half         = decimal.RequireFromString("0.5")
	reorderBand  = decimal.RequireFromString("1.5")
	urgencyOrder = map[models.UrgencyTier]int{
		models.UrgencyCritical: 0,
		models.UrgencyHigh:     1,
		models.UrgencyMedium:   2,
		models.UrgencyLow:      3,
	}
)

// GenerateReorderRecommendations projects stockout dates from trailing
// consumption and emits restock suggestions. Items above threshold with Low
// urgency are omitted.
func (a *Analyzer) GenerateReorderRecommendations(ctx context.Context, storeID string) ([]models.ReorderRecommendation, error) {
	ctx, span := util.StartSpan(ctx, "Analyzer.GenerateReorderRecommendations")
	defer span.End()

	patterns, err := a.ComputeConsumptionPatterns(ctx, storeID, DefaultWindowDays)
	if err != nil {
		return nil, err
	}
	rates := make(map[string]decimal.Decimal, len(patterns))
	for _, p := range patterns {
		rates[p.ItemID] = p.DailyAverage
	}

	items, err := a.store.ListActiveItems(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items for store %s: %w", storeID, err)
	}

	var recommendations []models.ReorderRecommendation
	for _, item := range items {
		rate := rates[item.ID]

		days := models.StockoutSentinelDays
		if rate.IsPositive() {
			days = int(item.StockQuantity.Div(rate).IntPart())
		}

		urgency := urgencyFor(days)
		belowThreshold := item.StockQuantity.LessThanOrEqual(item.MinimumThreshold)
		if !belowThreshold && urgency == models.UrgencyLow {
			continue
		}

		qty := decimal.Max(rate.Mul(decimal.NewFromInt(restockDays)).Ceil(), item.MinimumThreshold.Mul(two))
		recommendations = append(recommendations, models.ReorderRecommendation{
			ItemID:            item.ID,
			ItemName:          item.Name,
			StoreID:           storeID,
			CurrentStock:      item.StockQuantity,
			DailyRate:         rate,
			RecommendedQty:    qty,
			DaysUntilStockout: days,
			Urgency:           urgency,
			EstimatedCost:     qty.Mul(item.CostPerUnit),
		})
		util.ReorderRecommendationsTotal.WithLabelValues(string(urgency)).Inc()
	}

	sort.Slice(recommendations, func(i, j int) bool {
		left, right := recommendations[i], recommendations[j]
		if urgencyOrder[left.Urgency] != urgencyOrder[right.Urgency] {
			return urgencyOrder[left.Urgency] < urgencyOrder[right.Urgency]
		}
		return left.DaysUntilStockout < right.DaysUntilStockout
	})

	return recommendations, nil
}

// MonitorStockAlerts evaluates threshold rules against current stock levels
// and caches the resulting snapshot. Threshold alerts are independent of
// consumption history; spike alerts from the detector are appended.
func (a *Analyzer) MonitorStockAlerts(ctx context.Context, storeID string) ([]models.StockAlert, error) {
	ctx, span := util.StartSpan(ctx, "Analyzer.MonitorStockAlerts")
	defer span.End()

	items, err := a.store.ListActiveItems(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items for store %s: %w", storeID, err)
	}

	alerts := make([]models.StockAlert, 0, len(items))
	for _, item := range items {
		if alert := thresholdAlert(item); alert != nil {
			alerts = append(alerts, *alert)
			util.StockAlertsTotal.WithLabelValues(string(alert.Severity)).Inc()
		}
	}

	spikes, err := a.DetectConsumptionSpikes(ctx, storeID, DefaultWindowDays)
	if err != nil {
		a.logger.Warn("Spike detection failed",
			zap.String("store_id", storeID), zap.Error(err))
	} else {
		for _, spike := range spikes {
			util.StockAlertsTotal.WithLabelValues(string(spike.Severity)).Inc()
		}
		alerts = append(alerts, spikes...)
	}

	if a.redis != nil {
		if err := a.redis.CacheAlertSnapshot(ctx, storeID, alerts, alertSnapshotTTL); err != nil {
			a.logger.Warn("Alert snapshot cache write failed",
				zap.String("store_id", storeID), zap.Error(err))
		}
	}

	return alerts, nil
}

// StockAlertSnapshot serves the cached alert set from the last monitor run
// when one is still fresh, falling back to a full evaluation on a miss.
func (a *Analyzer) StockAlertSnapshot(ctx context.Context, storeID string) ([]models.StockAlert, error) {
	if a.redis != nil {
		cached, err := a.redis.GetAlertSnapshot(ctx, storeID)
		if err != nil {
			a.logger.Warn("Alert snapshot read failed",
				zap.String("store_id", storeID), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	return a.MonitorStockAlerts(ctx, storeID)
}

// InventoryStatus summarizes a store's stock position for dashboards.
func (a *Analyzer) InventoryStatus(ctx context.Context, storeID string) (*models.InventoryStatus, error) {
	ctx, span := util.StartSpan(ctx, "Analyzer.InventoryStatus")
	defer span.End()

	items, err := a.store.ListActiveItems(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items for store %s: %w", storeID, err)
	}

	status := &models.InventoryStatus{
		StoreID:    storeID,
		TotalItems: len(items),
	}
	for _, item := range items {
		if item.StockQuantity.LessThanOrEqual(item.MinimumThreshold) {
			status.LowStockItems++
			status.LowStock = append(status.LowStock, item)
		}
	}

	return status, nil
}

// urgencyFor maps projected days of remaining stock to an urgency tier.
// The boundaries are inherited tuning values, not proven optima.
func urgencyFor(daysUntilStockout int) models.UrgencyTier {
	switch {
	case daysUntilStockout <= 1:
		return models.UrgencyCritical
	case daysUntilStockout <= 3:
		return models.UrgencyHigh
	case daysUntilStockout <= 7:
		return models.UrgencyMedium
	default:
		return models.UrgencyLow
	}
}

// thresholdAlert applies the stock level rules in precedence order: out of
// stock, then low stock, then reorder point. At most one alert per item.
func thresholdAlert(item models.InventoryItem) *models.StockAlert {
	alert := models.StockAlert{
		ItemID:       item.ID,
		ItemName:     item.Name,
		StoreID:      item.StoreID,
		CurrentStock: item.StockQuantity,
		Threshold:    item.MinimumThreshold,
	}

	switch {
	case item.StockQuantity.IsZero() || item.StockQuantity.IsNegative():
		alert.AlertType = models.AlertTypeOutOfStock
		alert.Severity = models.UrgencyCritical
		alert.Message = fmt.Sprintf("%s is out of stock", item.Name)
	case item.StockQuantity.LessThanOrEqual(item.MinimumThreshold):
		alert.AlertType = models.AlertTypeLowStock
		if item.StockQuantity.LessThanOrEqual(item.MinimumThreshold.Mul(half)) {
			alert.Severity = models.UrgencyHigh
		} else {
			alert.Severity = models.UrgencyMedium
		}
		alert.Message = fmt.Sprintf("%s is below its minimum threshold (%s of %s %s left)",
			item.Name, item.StockQuantity.String(), item.MinimumThreshold.String(), item.Unit)
	case item.StockQuantity.LessThanOrEqual(item.MinimumThreshold.Mul(reorderBand)):
		alert.AlertType = models.AlertTypeReorderPoint
		alert.Severity = models.UrgencyLow
		alert.Message = fmt.Sprintf("%s is approaching its reorder point", item.Name)
	default:
		return nil
	}

	return &alert
}
