package config

import (
	"context"

	"grid_bot/pkg/logger"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(
			NewConfig,
		),
		fx.Invoke(logOnStart),
	)
}

// logOnStart пишет итоговые параметры сетки уже после инициализации логгера.
func logOnStart(lc fx.Lifecycle, c *Config) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("[CONFIG] range=%v investment=%s commission=%s",
				c.Strategy.Range, c.Strategy.Investment, c.Trader.Commission)
			return nil
		},
	})
}
