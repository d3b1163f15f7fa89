// Package analytics derives consumption patterns, reorder recommendations
// and stock alerts from the inventory movement ledger. Everything here is
// recomputed on demand from movements and current stock; nothing is stored
// back except short-lived cache entries.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"inventory-engine/internal/models"
	"inventory-engine/internal/redisclient"
	"inventory-engine/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultWindowDays is the trailing window used when the caller passes
// zero or a negative window.
const DefaultWindowDays = 30

// patternCacheTTL bounds staleness of cached pattern sets. Deductions also
// invalidate the cache eagerly.
const patternCacheTTL = 15 * time.Minute

// spikeFactor flags a day whose consumption exceeds this multiple of the
// item's trailing daily average.
var spikeFactor = decimal.NewFromInt(2)

// RecordReader is the read-only slice of the record store analytics needs.
type RecordReader interface {
	ListActiveItems(ctx context.Context, storeID string, categories ...models.ItemCategory) ([]models.InventoryItem, error)
	ListMovements(ctx context.Context, storeID, itemID string, since time.Time) ([]models.InventoryMovement, error)
}

// Analyzer computes consumption analytics for one store at a time.
type Analyzer struct {
	store  RecordReader
	redis  *redisclient.Client // optional; pattern and alert caching
	logger *zap.Logger
	now    func() time.Time
}

// NewAnalyzer creates an analyzer. redis may be nil to disable caching.
func NewAnalyzer(store RecordReader, redis *redisclient.Client) *Analyzer {
	return &Analyzer{
		store:  store,
		redis:  redis,
		logger: util.GetLogger(),
		now:    time.Now,
	}
}

// ComputeConsumptionPatterns aggregates deduction movements over the
// trailing window into per-item daily averages. Values are raw arithmetic
// means with no smoothing or outlier rejection.
func (a *Analyzer) ComputeConsumptionPatterns(ctx context.Context, storeID string, windowDays int) ([]models.ConsumptionPattern, error) {
	ctx, span := util.StartSpan(ctx, "Analyzer.ComputeConsumptionPatterns")
	defer span.End()

	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	if a.redis != nil {
		cached, err := a.redis.GetCachedPatterns(ctx, storeID, windowDays)
		if err != nil {
			a.logger.Warn("Pattern cache read failed",
				zap.String("store_id", storeID), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	since := a.now().AddDate(0, 0, -windowDays)
	movements, err := a.store.ListMovements(ctx, storeID, "", since)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements for store %s: %w", storeID, err)
	}

	names, err := a.itemNames(ctx, storeID)
	if err != nil {
		return nil, err
	}

	type agg struct {
		total  decimal.Decimal
		points int
	}
	byItem := make(map[string]*agg)
	for _, m := range movements {
		if m.MovementType != models.MovementTypeDeduction {
			continue
		}
		entry, ok := byItem[m.ItemID]
		if !ok {
			entry = &agg{}
			byItem[m.ItemID] = entry
		}
		entry.total = entry.total.Add(m.QuantityDelta.Abs())
		entry.points++
	}

	window := decimal.NewFromInt(int64(windowDays))
	patterns := make([]models.ConsumptionPattern, 0, len(byItem))
	for itemID, entry := range byItem {
		patterns = append(patterns, models.ConsumptionPattern{
			ItemID:        itemID,
			ItemName:      names[itemID],
			StoreID:       storeID,
			WindowDays:    windowDays,
			TotalConsumed: entry.total,
			DailyAverage:  entry.total.Div(window),
			DataPoints:    entry.points,
		})
	}
	sort.Slice(patterns, func(i, j int) bool {
		return patterns[i].TotalConsumed.GreaterThan(patterns[j].TotalConsumed)
	})

	if a.redis != nil {
		if err := a.redis.CachePatterns(ctx, storeID, windowDays, patterns, patternCacheTTL); err != nil {
			a.logger.Warn("Pattern cache write failed",
				zap.String("store_id", storeID), zap.Error(err))
		}
	}

	return patterns, nil
}

// DetectConsumptionSpikes flags items where any single day's consumption
// within the window exceeded twice the item's trailing daily average.
func (a *Analyzer) DetectConsumptionSpikes(ctx context.Context, storeID string, windowDays int) ([]models.StockAlert, error) {
	ctx, span := util.StartSpan(ctx, "Analyzer.DetectConsumptionSpikes")
	defer span.End()

	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	since := a.now().AddDate(0, 0, -windowDays)
	movements, err := a.store.ListMovements(ctx, storeID, "", since)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements for store %s: %w", storeID, err)
	}

	names, err := a.itemNames(ctx, storeID)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]decimal.Decimal)
	daily := make(map[string]map[string]decimal.Decimal)
	for _, m := range movements {
		if m.MovementType != models.MovementTypeDeduction {
			continue
		}
		consumed := m.QuantityDelta.Abs()
		totals[m.ItemID] = totals[m.ItemID].Add(consumed)
		day := m.CreatedAt.Format("2006-01-02")
		if daily[m.ItemID] == nil {
			daily[m.ItemID] = make(map[string]decimal.Decimal)
		}
		daily[m.ItemID][day] = daily[m.ItemID][day].Add(consumed)
	}

	window := decimal.NewFromInt(int64(windowDays))
	var alerts []models.StockAlert
	for itemID, days := range daily {
		average := totals[itemID].Div(window)
		if average.IsZero() {
			continue
		}
		limit := average.Mul(spikeFactor)
		for day, consumed := range days {
			if consumed.GreaterThan(limit) {
				alerts = append(alerts, models.StockAlert{
					ItemID:       itemID,
					ItemName:     names[itemID],
					StoreID:      storeID,
					AlertType:    models.AlertTypeUsageSpike,
					Severity:     models.UrgencyMedium,
					CurrentStock: consumed,
					Threshold:    limit,
					Message: fmt.Sprintf("consumption of %s on %s exceeded twice the daily average (%s vs %s)",
						names[itemID], day, consumed.String(), average.String()),
				})
				break
			}
		}
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].ItemID < alerts[j].ItemID })

	return alerts, nil
}

func (a *Analyzer) itemNames(ctx context.Context, storeID string) (map[string]string, error) {
	items, err := a.store.ListActiveItems(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items for store %s: %w", storeID, err)
	}
	names := make(map[string]string, len(items))
	for _, item := range items {
		names[item.ID] = item.Name
	}
	return names, nil
}
