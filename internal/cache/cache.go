package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/emranffl/gain-solutions/internal/models"
	"github.com/redis/go-redis/v9"
)

// Keys carry the owning user so a cached entry can never answer a
// request about another user's order.
const keyOrderStatus = "order_status:%d:%d"

// Client is a read-through cache for order status. The database stays
// the source of truth; every method failure is safe to ignore.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(addr string, ttl time.Duration) *Client {
	return &Client{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
		ttl: ttl,
	}
}

func (c *Client) GetOrderStatus(ctx context.Context, userID, orderID int64) (models.OrderStatus, bool) {
	s, err := c.rdb.Get(ctx, fmt.Sprintf(keyOrderStatus, userID, orderID)).Result()
	if err != nil || s == "" {
		return "", false
	}
	return models.OrderStatus(s), true
}

func (c *Client) SetOrderStatus(ctx context.Context, userID, orderID int64, status models.OrderStatus) error {
	return c.rdb.Set(ctx, fmt.Sprintf(keyOrderStatus, userID, orderID), string(status), c.ttl).Err()
}

func (c *Client) Close() error { return c.rdb.Close() }
