package storage

import (
	"log"
	"os"

	"github.com/go-redis/redis/v8"
)

// ConnectRedis returns a Redis client for the refresh-token store. The addr
// falls back to localhost for development.
func ConnectRedis() *redis.Client {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "localhost:6379"
		log.Println("REDIS_URL not set, using localhost:6379 (development mode)")
	}

	return redis.NewClient(&redis.Options{
		Addr:     redisURL,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})
}
