package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/umtracker/platform/pkg/common/config"
	"github.com/umtracker/platform/pkg/common/logger"
)

// NewRedis builds a client and pings it once. A failed ping is logged and the
// client is still returned; callers decide whether redis is required.
func NewRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Log.WithError(err).Error("Failed to connect to Redis")
		return client, err
	}
	logger.Log.Info("Connected to Redis")
	return client, nil
}
