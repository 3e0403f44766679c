package okx_client

import (
	"context"
	"fmt"

	"grid_bot/internal/exchange"
	"grid_bot/internal/models"
	"grid_bot/internal/modules/config"
	"grid_bot/pkg/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

// NewTrader собирает исполнителя по trader.mode: paper или okx.
func NewTrader(lc fx.Lifecycle, cfg *config.Config) (models.Trader, error) {
	commission, err := decimal.NewFromString(cfg.Trader.Commission)
	if err != nil {
		return nil, fmt.Errorf("trader.commission %q: %w", cfg.Trader.Commission, err)
	}

	switch cfg.Trader.Mode {
	case config.TraderPaper:
		logger.Info("[TRADER] paper, commission=%s parts=%d", commission, cfg.Trader.MaxFillParts)
		return exchange.NewPaperTrader(exchange.PaperConfig{
			Commission:   commission,
			MaxFillParts: cfg.Trader.MaxFillParts,
			RateLimit:    cfg.Trader.RateLimit,
		}), nil

	case config.TraderOKX:
		c := exchange.NewClient(exchange.ClientConfig{
			BaseURL:    cfg.Trader.OKX.BaseURL,
			APIKey:     cfg.Trader.OKX.APIKey,
			APISecret:  cfg.Trader.OKX.APISecret,
			Passphrase: cfg.Trader.OKX.Passphrase,
			Simulated:  cfg.Trader.OKX.Simulated,
			RateLimit:  cfg.Trader.RateLimit,
		})
		tr := exchange.NewOKXTrader(c, cfg.Trader.InstID)

		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				inst, err := tr.LoadInstrument(ctx)
				if err != nil {
					return fmt.Errorf("okx instrument %s: %w", cfg.Trader.InstID, err)
				}
				logger.Info("[TRADER] okx %s lotSz=%s minSz=%s simulated=%v",
					inst.InstID, inst.LotSz, inst.MinSz, cfg.Trader.OKX.Simulated)
				return nil
			},
		})
		return tr, nil
	}
	return nil, fmt.Errorf("unknown trader.mode %q", cfg.Trader.Mode)
}

func Module() fx.Option {
	return fx.Module("okx_client",
		fx.Provide(
			NewTrader,
		),
	)
}
