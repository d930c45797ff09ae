package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"invoice-desk/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a key does not exist
var ErrNotFound = errors.New("redis: key not found")

const (
	catalogSnapshotKey = "catalog:snapshot"
	catalogSnapshotTTL = 24 * time.Hour
	tallyTTL           = 8 * 24 * time.Hour
	tallySeenTTL       = 48 * time.Hour
)

// addTallyScript adds one invoice to a day's tally unless the event was
// already counted. Totals are kept in minor units so sums stay exact.
const addTallyScript = `
if redis.call('SET', KEYS[2], '1', 'NX', 'EX', ARGV[3]) then
	redis.call('HINCRBY', KEYS[1], 'count', 1)
	redis.call('HINCRBY', KEYS[1], 'total_minor', ARGV[1])
	redis.call('EXPIRE', KEYS[1], ARGV[2])
	return 1
end
return 0
`

type Client struct {
	rdb         *redis.Client
	tallyScript *redis.Script
}

// NewClient creates a new Redis client and checks the connection
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

	return NewFromRedis(rdb), nil
}

// NewFromRedis wraps an existing connection
func NewFromRedis(rdb *redis.Client) *Client {
	return &Client{
		rdb:         rdb,
		tallyScript: redis.NewScript(addTallyScript),
	}
}

// Ping checks the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// SetJSON stores value as JSON under key
func (c *Client) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

// GetJSON loads key into out, returning ErrNotFound when missing
func (c *Client) GetJSON(ctx context.Context, key string, out interface{}) error {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

// Delete removes a key
func (c *Client) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// Expire refreshes the TTL of a key, returning ErrNotFound when missing
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) error {
	ok, err := c.rdb.Expire(ctx, key, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// SaveCatalog stores the last good product list
func (c *Client) SaveCatalog(ctx context.Context, items []models.Product) error {
	return c.SetJSON(ctx, catalogSnapshotKey, items, catalogSnapshotTTL)
}

// LoadCatalog returns the stored product list
func (c *Client) LoadCatalog(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	if err := c.GetJSON(ctx, catalogSnapshotKey, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func tallyKey(day time.Time) string {
	return fmt.Sprintf("tally:%s", day.Format("2006-01-02"))
}

// AddToTally counts one invoice total towards day. eventID makes the call
// idempotent; it reports false when the event was already counted.
func (c *Client) AddToTally(ctx context.Context, day time.Time, eventID string, total decimal.Decimal) (bool, error) {
	minor := total.Shift(2).Round(0).IntPart()
	keys := []string{tallyKey(day), fmt.Sprintf("tally:seen:%s", eventID)}

	result, err := c.tallyScript.Run(ctx, c.rdb, keys,
		minor, int(tallyTTL.Seconds()), int(tallySeenTTL.Seconds())).Result()
	if err != nil {
		return false, fmt.Errorf("tally script failed: %w", err)
	}

	added, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected script result type")
	}
	return added == 1, nil
}

// GetTally returns the invoice count and summed total recorded for day
func (c *Client) GetTally(ctx context.Context, day time.Time) (int64, decimal.Decimal, error) {
	result, err := c.rdb.HGetAll(ctx, tallyKey(day)).Result()
	if err != nil {
		return 0, decimal.Zero, err
	}
	if len(result) == 0 {
		return 0, decimal.Zero, nil
	}

	var count, minor int64
	fmt.Sscanf(result["count"], "%d", &count)
	fmt.Sscanf(result["total_minor"], "%d", &minor)

	return count, decimal.New(minor, -2), nil
}

// AcquireLock acquires a distributed lock
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), "1", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("lock:%s", lockKey)).Err()
}
