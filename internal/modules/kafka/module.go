package kafka

import (
	"context"

	"grid_bot/internal/journal"
	"grid_bot/internal/modules/config"
	"grid_bot/pkg/logger"

	"go.uber.org/fx"
)

// NewPublisher отдаёт журнал сделок в Kafka, без брокеров заглушку.
func NewPublisher(lc fx.Lifecycle, cfg *config.Config) journal.Publisher {
	if len(cfg.Kafka.Brokers) == 0 {
		return journal.Nop{}
	}

	p := journal.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	logger.Info("[JOURNAL] kafka %v topic=%s", cfg.Kafka.Brokers, cfg.Kafka.Topic)

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return p.Close()
		},
	})
	return p
}

func Module() fx.Option {
	return fx.Module("kafka",
		fx.Provide(
			NewPublisher,
		),
	)
}
