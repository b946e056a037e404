package configuration

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var ctx = context.Background()

// Client caches read-side payment views (dues, history) in redis. A nil
// Client means caching is off and every read hits the database.
var Client *redis.Client

// InitRedis function initializes redis server
func InitRedis() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	var err error
	MaxRetries := 5
	RetryDelay := time.Second * 5
	for i := 0; i < MaxRetries; i++ {
		Client = redis.NewClient(&redis.Options{
			Network:  "tcp",
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		})

		_, err = Client.Ping(ctx).Result()
		if err == nil {
			break
		}

		fmt.Printf("Failed to connect to Redis (Attempt %d/%d): %s\n", i+1, MaxRetries, err.Error())
		time.Sleep(RetryDelay)
	}
	if err != nil {
		fmt.Println("Redis unavailable, continuing without the read cache: " + err.Error())
		Client = nil
	}
}

// SetRedis will set a key value in redis server
func SetRedis(key string, value any, expirationTime time.Duration) error {
	if err := Client.Set(context.Background(), key, value, expirationTime).Err(); err != nil {
		return err
	}
	return nil
}

// GetRedis will get the value from redis server using key
func GetRedis(key string) (string, error) {
	jsonData, err := Client.Get(context.Background(), key).Result()
	if err != nil {
		return "", err
	}
	return jsonData, nil
}

// DelRedis drops cached keys, used when a payment completes and the cached
// dues view goes stale.
func DelRedis(keys ...string) error {
	return Client.Del(context.Background(), keys...).Err()
}
