package utils

import (
	"context"
	"log"
	"time"

	"salesagent/config"

	"github.com/go-redis/redis/v8"
)

// GateCacheClient is the dedicated client for admin-gate token caching.
var GateCacheClient *redis.Client

// InitGateCache initializes the Redis client used for admin-gate tokens.
func InitGateCache() {
	GateCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisGateDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := GateCacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Gate Cache): %v", err)
	}
}

// GetGateCacheClient returns the Redis client for admin-gate tokens.
func GetGateCacheClient() *redis.Client {
	if GateCacheClient == nil {
		InitGateCache()
	}
	return GateCacheClient
}
