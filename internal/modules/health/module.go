package health

import (
	"context"
	"net"
	"net/http"
	"time"

	"grid_bot/internal/metrics"
	"grid_bot/internal/models"
	"grid_bot/internal/modules/config"
	"grid_bot/internal/modules/health/service"
	"grid_bot/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

type Config struct {
	Addr   string
	InstID string
}

func NewConfig(cfg *config.Config) Config {
	return Config{Addr: cfg.Service.HealthAddr, InstID: cfg.Trader.InstID}
}

// Snapshotter: источник состояния сетки для /positions.
type Snapshotter interface {
	Snapshot() (models.Positions, models.Evaluate, decimal.Decimal)
}

type status struct {
	InstID       string `json:"instId"`
	Ready        bool   `json:"ready"`
	WSConnected  bool   `json:"wsConnected"`
	WSReconnects int64  `json:"wsReconnects"`
	UptimeSec    int64  `json:"uptimeSec"`
	LastTickUnix int64  `json:"lastTickUnix"`
	TickAgeMs    int64  `json:"tickAgeMs"`
}

type positionsView struct {
	LastPrice decimal.Decimal  `json:"last_price"`
	Positions models.Positions `json:"positions"`
	Evaluate  models.Evaluate  `json:"evaluate"`
}

func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func NewMetrics(reg *prometheus.Registry) *metrics.Metrics {
	return metrics.New(reg)
}

func writeJSON(w http.ResponseWriter, v any) {
	bs, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(bs)
}

type MuxParams struct {
	fx.In

	Cfg      Config
	State    *service.State
	Registry *prometheus.Registry
	Source   Snapshotter `optional:"true"`
}

func NewMux(p MuxParams) *http.ServeMux {
	mux := http.NewServeMux()
	state := p.State

	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// ready после восстановления позиций и запуска раннера
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !state.Ready() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ready"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		st := status{
			InstID:       p.Cfg.InstID,
			Ready:        state.Ready(),
			WSConnected:  state.WSConnected(),
			WSReconnects: state.WSReconnects(),
			UptimeSec:    int64(state.Uptime().Seconds()),
			TickAgeMs:    state.TickAge(time.Now()).Milliseconds(),
		}
		if t := state.LastTick(); !t.IsZero() {
			st.LastTickUnix = t.Unix()
		}
		writeJSON(w, st)
	})

	mux.HandleFunc("/positions", func(w http.ResponseWriter, r *http.Request) {
		if p.Source == nil {
			http.Error(w, "runner is not attached", http.StatusServiceUnavailable)
			return
		}
		ps, ev, last := p.Source.Snapshot()
		writeJSON(w, positionsView{LastPrice: last, Positions: ps, Evaluate: ev})
	})

	mux.Handle("/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{Registry: p.Registry}))

	return mux
}

func RunHTTP(lc fx.Lifecycle, cfg Config, mux *http.ServeMux) {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return err
			}
			logger.Info("[HEALTH] listening on %s", ln.Addr())
			go func() { _ = srv.Serve(ln) }()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(
			service.NewState,
			NewConfig,
			NewRegistry,
			NewMetrics,
			NewMux,
		),
		fx.Invoke(RunHTTP),
	)
}
