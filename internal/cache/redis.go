package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const barcodeKeyPrefix = "pos:barcode:"

// RedisClient holds the Redis client connection
type RedisClient struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient connects to addr and pings it.
func NewRedisClient(addr string, ttl time.Duration) (*RedisClient, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address not set")
	}

	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pong, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Printf("Connected to Redis, ping response: %s", pong)

	return &RedisClient{client: client, ttl: ttl}, nil
}

// Close closes the Redis connection
func (c *RedisClient) Close() {
	if c.client != nil {
		c.client.Close()
		log.Println("Redis connection closed.")
	}
}

// Lookup returns the product id cached for barcode.
func (c *RedisClient) Lookup(ctx context.Context, barcode string) (uint, bool, error) {
	v, err := c.client.Get(ctx, barcodeKeyPrefix+barcode).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return uint(id), true, nil
}

// Store caches barcode -> product id.
func (c *RedisClient) Store(ctx context.Context, barcode string, productID uint) error {
	return c.client.Set(ctx, barcodeKeyPrefix+barcode, strconv.FormatUint(uint64(productID), 10), c.ttl).Err()
}

// Forget removes a cached barcode.
func (c *RedisClient) Forget(ctx context.Context, barcode string) error {
	return c.client.Del(ctx, barcodeKeyPrefix+barcode).Err()
}
