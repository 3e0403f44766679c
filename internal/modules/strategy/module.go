package strategy

import (
	"grid_bot/internal/modules/config"
	"grid_bot/internal/strategy"
	"grid_bot/pkg/logger"

	"go.uber.org/fx"
)

func NewStrategy(cfg *config.Config) (strategy.Strategy, error) {
	s, err := strategy.New(cfg.Strategy.Params())
	if err != nil {
		return nil, err
	}
	logger.Info("[STRATEGY] %s: %d positions", s.Name(), len(s.AssignPositions()))
	return s, nil
}

func Module() fx.Option {
	return fx.Module("strategy",
		fx.Provide(
			NewStrategy,
		),
	)
}
