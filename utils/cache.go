package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"staygate/config"
)

// NewQuoteCacheClient builds the Redis client used for priced-quote caching.
// The client is constructed once at startup and passed to consumers; there is
// no lazily-initialized shared instance.
func NewQuoteCacheClient() (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQuoteDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis (quote cache): %w", err)
	}
	return client, nil
}
