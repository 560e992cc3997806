package cache

import (
	"context"
	"fmt"
	"time"

	"AudioEditor/config"

	"github.com/cockroachdb/errors"
	"github.com/go-redis/redis/v8"
)

const roundTripKey = "audio_editor:test_key"

// ConnectRedis opens a client and pings it.
func ConnectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}
	return client, nil
}

// TestRedis runs a set/get/del round trip.
func TestRedis(ctx context.Context, client *redis.Client) error {
	const want = "Redis connection successful!"

	if err := client.Set(ctx, roundTripKey, want, time.Minute).Err(); err != nil {
		return errors.Wrap(err, "failed to set Redis key")
	}
	val, err := client.Get(ctx, roundTripKey).Result()
	if err != nil {
		return errors.Wrap(err, "failed to get Redis key")
	}
	if val != want {
		return errors.Newf("unexpected value from Redis: got %s", val)
	}
	if err := client.Del(ctx, roundTripKey).Err(); err != nil {
		return errors.Wrap(err, "failed to delete Redis key")
	}
	return nil
}
