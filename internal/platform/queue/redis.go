package queue

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/krishkrishna03/techex-sub003/internal/platform/config"
)

var RDB *redis.Client

func ConnectRedis() {
	RDB = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := RDB.Ping(ctx).Result(); err != nil {
		slog.Error("Could not connect to Redis", slog.Any("err", err))
		os.Exit(1)
	}
	slog.Info("Successfully connected to Redis")
}

func CloseRedis() {
	if RDB != nil {
		RDB.Close()
		slog.Info("Redis connection closed")
	}
}
