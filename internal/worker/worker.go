// Package worker hosts the background consumers of the engine: sale events
// arriving over Kafka and the periodic stock alert sweep.
package worker

import (
	"context"
	"time"

	"inventory-engine/internal/analytics"
	"inventory-engine/internal/broker"
	"inventory-engine/internal/deduct"
	"inventory-engine/internal/models"
	"inventory-engine/internal/util"

	"go.uber.org/zap"
)

// SaleWorker consumes SaleCompleted events and runs inventory deductions
// for them.
type SaleWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	engine       *deduct.Engine
	logger       *zap.Logger
}

// NewSaleWorker creates a sale worker wired to the deduction engine.
func NewSaleWorker(consumer *broker.Consumer, engine *deduct.Engine) *SaleWorker {
	w := &SaleWorker{
		consumer: consumer,
		engine:   engine,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnSaleCompleted(w.handleSaleCompleted)
	w.eventHandler = eventHandler

	return w
}

// Start blocks consuming sale events until the context is cancelled.
func (w *SaleWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting sale worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop closes the underlying consumer.
func (w *SaleWorker) Stop() error {
	w.logger.Info("Stopping sale worker")
	return w.consumer.Close()
}

func (w *SaleWorker) handleSaleCompleted(ctx context.Context, event *models.SaleCompletedEvent) error {
	result, err := w.engine.DeductForSale(ctx, &deduct.SaleRequest{
		SaleID:  event.SaleID,
		StoreID: event.StoreID,
		Items:   event.Items,
	})
	if err != nil {
		w.logger.Error("Deduction for sale event failed",
			zap.String("sale_id", event.SaleID), zap.Error(err))
		return err
	}

	if !result.Success {
		// Partial results are final; operators reconcile from the audit
		// record, so the message is not retried.
		w.logger.Warn("Sale deduction completed with failures",
			zap.String("sale_id", event.SaleID),
			zap.Int("failures", len(result.Failures)))
	}

	return nil
}

// AlertWorker periodically evaluates stock alerts for a fixed set of stores
// and publishes the results.
type AlertWorker struct {
	analyzer *analytics.Analyzer
	events   *broker.EventPublisher
	storeIDs []string
	interval time.Duration
	logger   *zap.Logger
}

// NewAlertWorker creates an alert worker. events may be nil to disable
// publishing; alerts are still computed and cached.
func NewAlertWorker(analyzer *analytics.Analyzer, events *broker.EventPublisher, storeIDs []string, interval time.Duration) *AlertWorker {
	return &AlertWorker{
		analyzer: analyzer,
		events:   events,
		storeIDs: storeIDs,
		interval: interval,
		logger:   util.GetLogger(),
	}
}

// Start blocks running alert sweeps on the configured interval until the
// context is cancelled. The first sweep runs immediately.
func (w *AlertWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting alert worker",
		zap.Int("stores", len(w.storeIDs)),
		zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stopping alert worker")
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *AlertWorker) sweep(ctx context.Context) {
	for _, storeID := range w.storeIDs {
		alerts, err := w.analyzer.MonitorStockAlerts(ctx, storeID)
		if err != nil {
			w.logger.Error("Stock alert sweep failed",
				zap.String("store_id", storeID), zap.Error(err))
			continue
		}
		if len(alerts) == 0 {
			continue
		}

		w.logger.Info("Stock alerts raised",
			zap.String("store_id", storeID), zap.Int("alerts", len(alerts)))

		if w.events != nil {
			if err := w.events.PublishStockAlerts(ctx, storeID, alerts); err != nil {
				w.logger.Error("Failed to publish stock alerts",
					zap.String("store_id", storeID), zap.Error(err))
			}
		}
	}
}
