package telegram

import (
	"context"

	"grid_bot/internal/modules/config"
	"grid_bot/internal/notify"
	"grid_bot/internal/runner"
	"grid_bot/pkg/logger"

	"go.uber.org/fx"
)

// NewBot: nil без токена, тогда уведомления идут в лог.
func NewBot(cfg *config.Config) (*notify.Telegram, error) {
	if cfg.Telegram.Token == "" {
		logger.Info("[TG] токен не задан, уведомления в stdout")
		return nil, nil
	}
	return notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
}

func NewNotifier(t *notify.Telegram) runner.Notifier {
	if t == nil {
		return notify.NewStdout()
	}
	return t
}

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			NewBot,
			NewNotifier,
		),
		// Команды читают состояние раннера, поэтому подключаем его после сборки.
		fx.Invoke(
			func(lc fx.Lifecycle, t *notify.Telegram, r *runner.Runner) {
				if t == nil {
					return
				}
				t.Attach(r)

				runCtx, cancel := context.WithCancel(context.Background())
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						t.Start(runCtx)
						return nil
					},
					OnStop: func(ctx context.Context) error {
						cancel()
						t.Stop()
						return nil
					},
				})
			},
		),
	)
}
