package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"inventory-engine/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// ListActiveItems retrieves a store's active inventory items, optionally
// restricted to the given categories.
func (s *Store) ListActiveItems(ctx context.Context, storeID string, categories ...models.ItemCategory) ([]models.InventoryItem, error) {
	if len(categories) == 0 {
		var items []models.InventoryItem
		err := s.db.SelectContext(ctx, &items,
			"SELECT * FROM inventory_items WHERE store_id = $1 AND is_active = TRUE ORDER BY name", storeID)
		return items, err
	}

	query, args, err := sqlx.In(
		"SELECT * FROM inventory_items WHERE store_id = ? AND is_active = TRUE AND category IN (?) ORDER BY name",
		storeID, categories)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var items []models.InventoryItem
	err = s.db.SelectContext(ctx, &items, query, args...)
	return items, err
}

// GetItem retrieves one inventory item by ID
func (s *Store) GetItem(ctx context.Context, id string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := s.db.GetContext(ctx, &item, "SELECT * FROM inventory_items WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("inventory item not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateStockConditional writes a new stock quantity only if the row still
// holds the previously-read quantity. Returns false when a concurrent
// writer got there first; the caller re-reads and retries.
func (s *Store) UpdateStockConditional(ctx context.Context, itemID string, previous, next decimal.Decimal) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE inventory_items SET stock_quantity = $1, updated_at = NOW() WHERE id = $2 AND stock_quantity = $3",
		next, itemID, previous)
	if err != nil {
		return false, fmt.Errorf("failed to update stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
