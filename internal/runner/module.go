package runner

import (
	"context"

	"grid_bot/internal/exchange"
	"grid_bot/internal/journal"
	"grid_bot/internal/metrics"
	"grid_bot/internal/models"
	"grid_bot/internal/modules/config"
	"grid_bot/internal/modules/health"
	healthsvc "grid_bot/internal/modules/health/service"
	"grid_bot/internal/strategy"
	"grid_bot/pkg/lock"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

type Params struct {
	fx.In

	Cfg       *config.Config
	Strategy  strategy.Strategy
	Trader    models.Trader
	Store     TradeStore
	Publisher journal.Publisher
	Notifier  Notifier
	Locker    lock.Locker
	Metrics   *metrics.Metrics
}

func NewFromParams(p Params) (*Runner, error) {
	commission, err := decimal.NewFromString(p.Cfg.Trader.Commission)
	if err != nil {
		return nil, err
	}
	return New(Options{
		InstID:    p.Cfg.Trader.InstID,
		Strategy:  p.Strategy,
		Trader:    p.Trader,
		Preview:   exchange.NewPaperTrader(exchange.PaperConfig{Commission: commission}),
		Store:     p.Store,
		Publisher: p.Publisher,
		Notifier:  p.Notifier,
		Locker:    p.Locker,
		LockTTL:   p.Cfg.Redis.LockTTL,
		Metrics:   p.Metrics,
	}), nil
}

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			NewFromParams,
			func(r *Runner) health.Snapshotter { return r },
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			r *Runner,
			ticks chan exchange.Tick,
			state *healthsvc.State,
		) {
			runCtx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})

			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					if err := r.Restore(ctx); err != nil {
						cancel()
						return err
					}
					state.SetReady(true)
					go func() {
						defer close(done)
						r.Run(runCtx, ticks, state.TouchTick)
					}()
					return nil
				},
				OnStop: func(ctx context.Context) error {
					state.SetReady(false)
					cancel()
					select {
					case <-done:
					case <-ctx.Done():
					}
					return nil
				},
			})
		}),
	)
}
