package config

import (
	"context"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	envRedisAddr     = "ABORTABLE_REDIS_ADDR"
	defaultRedisAddr = "localhost:6379"
)

// RedisAddr returns the address of the test Redis server.
func RedisAddr() string {
	if addr := os.Getenv(envRedisAddr); addr != "" {
		return addr
	}

	return defaultRedisAddr
}

// RedisClient creates a client for the test Redis server and pings it.
func RedisClient(ctx context.Context) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        RedisAddr(),
		DialTimeout: 2 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}
