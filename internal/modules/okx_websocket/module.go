package okx_websocket

import (
	"context"

	"grid_bot/internal/exchange"
	"grid_bot/internal/modules/config"
	healthsvc "grid_bot/internal/modules/health/service"

	"go.uber.org/fx"
)

// общий буфер тиков между стримом и раннером
const ticksBuffer = 1024

func NewTicks() chan exchange.Tick {
	return make(chan exchange.Tick, ticksBuffer)
}

func NewStream(cfg *config.Config, state *healthsvc.State) *exchange.Stream {
	s := exchange.NewStream(cfg.Market.WSURL)
	s.OnState = state.SetWSConnected
	return s
}

// Forward перекладывает тики из стрима в out до отмены ctx. Если out
// переполнен, старый тик выбрасывается: важна только последняя цена.
func Forward(ctx context.Context, in <-chan exchange.Tick, out chan exchange.Tick) {
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-in:
			if !ok {
				return
			}
			select {
			case out <- t:
			default:
				select {
				case <-out:
				default:
				}
				select {
				case out <- t:
				default:
				}
			}
		}
	}
}

// Module поднимает стрим тикеров OKX по trader.inst_id.
func Module() fx.Option {
	return fx.Module("okx_websocket",
		fx.Provide(
			NewStream,
			NewTicks,
		),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, s *exchange.Stream, out chan exchange.Tick) {
			runCtx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})

			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					in := s.StreamTickers(runCtx, []string{cfg.Trader.InstID})
					go func() {
						defer close(done)
						Forward(runCtx, in, out)
					}()
					return nil
				},
				OnStop: func(ctx context.Context) error {
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
