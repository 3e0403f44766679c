package redis

import (
	"context"
	"fmt"

	"grid_bot/internal/modules/config"
	"grid_bot/pkg/lock"
	"grid_bot/pkg/logger"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// NewLocker: блокировки позиций. Без redis.addr хватает локальных.
func NewLocker(lc fx.Lifecycle, cfg *config.Config) lock.Locker {
	if cfg.Redis.Addr == "" {
		logger.Info("[LOCK] redis не настроен, локальные блокировки")
		return lock.NewLocal()
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	l := lock.NewRedis(client, cfg.Redis.Prefix)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := l.Ping(ctx); err != nil {
				return fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
			}
			logger.Info("[LOCK] redis %s prefix=%s", cfg.Redis.Addr, cfg.Redis.Prefix)
			return nil
		},
		OnStop: func(context.Context) error {
			return l.Close()
		},
	})
	return l
}

func Module() fx.Option {
	return fx.Module("redis",
		fx.Provide(
			NewLocker,
		),
	)
}
