package locking

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/tabresto/fiscal/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewRedisClient returns nil when REDIS_ADDR is unset; locks then run
// in-process only.
func NewRedisClient(cfg config.Config, log *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		log.Info("redis not configured, per-period locks are in-process only")
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

var Module = fx.Module("locking",
	fx.Provide(NewRedisClient),
	fx.Provide(NewLocker),
	fx.Provide(NewKeyedLock),
)
