package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeSaleCompleted      = "SALE_COMPLETED"
	EventTypeDeductionCompleted = "DEDUCTION_COMPLETED"
	EventTypeStockAlert         = "STOCK_ALERT"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// SoldItem is one product line of a completed sale.
type SoldItem struct {
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	RecipeRef   string          `json:"recipe_ref,omitempty"`
}

// SaleCompletedEvent is published by the transaction-processing glue when a
// sale finalizes. Consuming it drives the deduction engine.
type SaleCompletedEvent struct {
	BaseEvent
	SaleID  string     `json:"sale_id"`
	StoreID string     `json:"store_id"`
	Items   []SoldItem `json:"items"`
}

// DeductionCompletedEvent is published after a deduction run, successful
// or not, so operators can reconcile partial failures.
type DeductionCompletedEvent struct {
	BaseEvent
	SaleID   string             `json:"sale_id"`
	StoreID  string             `json:"store_id"`
	Success  bool               `json:"success"`
	Deducted int                `json:"deducted"`
	Failures []DeductionFailure `json:"failures,omitempty"`
	Warnings []string           `json:"warnings,omitempty"`
}

// StockAlertEvent carries threshold alerts to the notification surface.
type StockAlertEvent struct {
	BaseEvent
	StoreID string       `json:"store_id"`
	Alerts  []StockAlert `json:"alerts"`
}
