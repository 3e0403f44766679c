package main

import (
	"context"

	"grid_bot/internal/modules/config"
	"grid_bot/internal/modules/health"
	"grid_bot/internal/modules/kafka"
	okx "grid_bot/internal/modules/okx_client"
	ws "grid_bot/internal/modules/okx_websocket"
	"grid_bot/internal/modules/postgres"
	"grid_bot/internal/modules/redis"
	"grid_bot/internal/modules/strategy"
	telegram "grid_bot/internal/modules/telegram_bot"
	"grid_bot/internal/runner"
	"grid_bot/pkg/logger"
	"grid_bot/pkg/tracing"

	"go.uber.org/fx"
)

// initObservability поднимает логгер и трейсер до остальных модулей.
func initObservability(lc fx.Lifecycle, cfg *config.Config) error {
	logger.SetServiceName(cfg.Service.Name)
	tracing.SetServiceName(cfg.Service.Name)
	if err := logger.Init(cfg.Service.LogLevel); err != nil {
		return err
	}

	_, closeTracer, err := tracing.InitTracer(tracing.Config{
		Host: cfg.Tracing.Host,
		Port: cfg.Tracing.Port,
	})
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			closeTracer()
			return nil
		},
	})

	logger.Info("[BOOT] %s: %s %s, trader=%s", cfg.Service.Name, cfg.Strategy.Kind, cfg.Trader.InstID, cfg.Trader.Mode)
	return nil
}

func main() {
	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		fx.Module("observability", fx.Invoke(initObservability)),
		health.Module(),
		strategy.Module(),
		okx.Module(),
		postgres.Module(),
		redis.Module(),
		kafka.Module(),
		ws.Module(),
		runner.Module(),
		telegram.Module(),
	)
	app.Run()
}
