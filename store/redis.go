package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"pedestrian-forecast-api/config"

	"github.com/redis/go-redis/v9"
)

// NewClient constructs the process-wide redis client. The client is created
// once at startup and injected into every consumer; nothing in this module
// reaches for a package-level connection.
func NewClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Retry covers slow container startup ordering.
	var lastErr error
	for i := 0; i < 10; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		lastErr = client.Ping(ctx).Err()
		cancel()
		if lastErr == nil {
			return client, nil
		}
		log.Printf("redis ping attempt %d/10 failed: %v", i+1, lastErr)
		time.Sleep(2 * time.Second)
	}

	return nil, fmt.Errorf("redis ping failed after 10 attempts: %w", lastErr)
}
