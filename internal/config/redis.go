package config

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis dials the snapshot cache. Returns nil when no URL is set; the
// cache layer treats a nil client as a permanent miss.
func ConnectRedis(url string) *redis.Client {
	if url == "" {
		return nil
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("invalid REDIS_URL, snapshot cache disabled: %v", err)
		return nil
	}
	opt.PoolSize = 10
	opt.MinIdleConns = 3

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis ping failed, snapshot cache disabled: %v", err)
		return nil
	}

	log.Println("connected to Redis")
	return client
}
