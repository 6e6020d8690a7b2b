package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/andhikadk/smi-test/config"
	"github.com/andhikadk/smi-test/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisCache holds read-side copies only. It is never consulted when deciding
// a transition.
type RedisCache struct {
	client      *redis.Client
	bookingTTL  time.Duration
	approverTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, bookingTTL, approverTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:      redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		bookingTTL:  bookingTTL,
		approverTTL: approverTTL,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetBooking returns nil, nil on a miss.
func (c *RedisCache) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	data, err := c.client.Get(ctx, bookingKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return decodeBooking(data)
}

func (c *RedisCache) SetBooking(ctx context.Context, booking *domain.Booking) error {
	payload, err := json.Marshal(booking)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, bookingKey(booking.ID), payload, c.bookingTTL).Err()
}

func (c *RedisCache) InvalidateBooking(ctx context.Context, id int64) error {
	return c.client.Del(ctx, bookingKey(id)).Err()
}

func (c *RedisCache) GetApprover(ctx context.Context, level int) (int64, bool, error) {
	raw, err := c.client.Get(ctx, approverKey(level)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt approver entry for level %d: %w", level, err)
	}
	return id, true, nil
}

func (c *RedisCache) SetApprover(ctx context.Context, level int, approverID int64) error {
	return c.client.Set(ctx, approverKey(level), strconv.FormatInt(approverID, 10), c.approverTTL).Err()
}

func decodeBooking(data []byte) (*domain.Booking, error) {
	var b domain.Booking
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func bookingKey(id int64) string {
	return fmt.Sprintf("cache:booking:%d", id)
}

func approverKey(level int) string {
	return fmt.Sprintf("cache:approver:level:%d", level)
}
