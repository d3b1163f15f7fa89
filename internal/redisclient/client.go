package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"inventory-engine/internal/models"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// ClaimSale marks a sale as being processed. Returns false when another
// deduction run already claimed the same sale within the TTL.
func (c *Client) ClaimSale(ctx context.Context, saleID string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("deduction:sale:%s", saleID), "1", ttl).Result()
}

// ReleaseSale drops a sale claim, letting a retry reprocess it.
func (c *Client) ReleaseSale(ctx context.Context, saleID string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("deduction:sale:%s", saleID)).Err()
}

// CachePatterns stores a store's consumption patterns. The cache is a
// convenience only; the movement ledger stays authoritative.
func (c *Client) CachePatterns(ctx context.Context, storeID string, windowDays int, patterns []models.ConsumptionPattern, ttl time.Duration) error {
	payload, err := json.Marshal(patterns)
	if err != nil {
		return fmt.Errorf("failed to marshal patterns: %w", err)
	}
	return c.rdb.Set(ctx, patternsKey(storeID, windowDays), payload, ttl).Err()
}

// GetCachedPatterns retrieves cached consumption patterns, or nil on a miss.
func (c *Client) GetCachedPatterns(ctx context.Context, storeID string, windowDays int) ([]models.ConsumptionPattern, error) {
	payload, err := c.rdb.Get(ctx, patternsKey(storeID, windowDays)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var patterns []models.ConsumptionPattern
	if err := json.Unmarshal(payload, &patterns); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached patterns: %w", err)
	}
	return patterns, nil
}

// InvalidatePatterns drops a store's cached patterns after new deductions.
// The sweep is incremental; it never issues a blocking KEYS command.
func (c *Client) InvalidatePatterns(ctx context.Context, storeID string) error {
	iter := c.rdb.Scan(ctx, 0, fmt.Sprintf("patterns:%s:*", storeID), 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// CacheAlertSnapshot stores the latest alert set for a store so repeated
// monitor calls within the TTL do not rescan inventory.
func (c *Client) CacheAlertSnapshot(ctx context.Context, storeID string, alerts []models.StockAlert, ttl time.Duration) error {
	payload, err := json.Marshal(alerts)
	if err != nil {
		return fmt.Errorf("failed to marshal alerts: %w", err)
	}
	return c.rdb.Set(ctx, fmt.Sprintf("alerts:%s", storeID), payload, ttl).Err()
}

// GetAlertSnapshot retrieves the cached alert set, or nil on a miss.
func (c *Client) GetAlertSnapshot(ctx context.Context, storeID string) ([]models.StockAlert, error) {
	payload, err := c.rdb.Get(ctx, fmt.Sprintf("alerts:%s", storeID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var alerts []models.StockAlert
	if err := json.Unmarshal(payload, &alerts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached alerts: %w", err)
	}
	return alerts, nil
}

func patternsKey(storeID string, windowDays int) string {
	return fmt.Sprintf("patterns:%s:%d", storeID, windowDays)
}
