package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"inventory-engine/internal/models"
	"inventory-engine/internal/util"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher publishes engine events to the notification surface
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishDeductionCompleted publishes the outcome of one deduction run
func (ep *EventPublisher) PublishDeductionCompleted(ctx context.Context, result *models.DeductionResult) error {
	event := &models.DeductionCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeDeductionCompleted,
			Timestamp: time.Now(),
		},
		SaleID:   result.SaleID,
		StoreID:  result.StoreID,
		Success:  result.Success,
		Deducted: len(result.Outcomes),
		Failures: result.Failures,
		Warnings: result.Warnings,
	}

	return ep.producer.Publish(ctx, fmt.Sprintf("sale-%s", result.SaleID), event)
}

// PublishStockAlerts publishes a batch of stock alerts for a store
func (ep *EventPublisher) PublishStockAlerts(ctx context.Context, storeID string, alerts []models.StockAlert) error {
	if len(alerts) == 0 {
		return nil
	}

	event := &models.StockAlertEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeStockAlert,
			Timestamp: time.Now(),
		},
		StoreID: storeID,
		Alerts:  alerts,
	}

	return ep.producer.Publish(ctx, fmt.Sprintf("store-%s", storeID), event)
}

// EventHandler routes incoming events to registered callbacks
type EventHandler struct {
	onSaleCompleted func(context.Context, *models.SaleCompletedEvent) error
	logger          *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnSaleCompleted registers a handler for SaleCompleted events
func (eh *EventHandler) OnSaleCompleted(handler func(context.Context, *models.SaleCompletedEvent) error) {
	eh.onSaleCompleted = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeSaleCompleted:
		if eh.onSaleCompleted != nil {
			var event models.SaleCompletedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal SaleCompleted event: %w", err)
			}
			return eh.onSaleCompleted(ctx, &event)
		}

	default:
		eh.logger.Debug("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
