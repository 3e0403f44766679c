package postgres

import (
	"context"
	"fmt"

	"grid_bot/internal/modules/config"
	"grid_bot/internal/runner"
	"grid_bot/internal/storage/memory"
	pgstore "grid_bot/internal/storage/pg"
	"grid_bot/pkg/db"
	"grid_bot/pkg/logger"

	"go.uber.org/fx"
)

// NewStore без db_dsn отдаёт хранилище в памяти: состояние живёт до рестарта.
func NewStore(ctx context.Context, lc fx.Lifecycle, cfg *config.Config) (runner.TradeStore, error) {
	if cfg.DB == "" {
		logger.Warn("[STORE] db_dsn пуст, позиции хранятся только в памяти")
		return memory.New(), nil
	}

	poolMaster, err := db.NewPool(ctx, db.PoolConfig{
		DSN: cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create poolMaster: %w", err)
	}

	err = poolMaster.Ping(ctx)
	if err != nil {
		poolMaster.Close()
		return nil, err
	}

	tm := db.NewPgTxManager(poolMaster)
	store := pgstore.New(tm)
	if err := store.Migrate(ctx); err != nil {
		tm.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			tm.Close()
			return nil
		},
	})
	return store, nil
}

func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			NewStore,
		),
	)
}
