package metrics

import (
	"grid_bot/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ticks        *prometheus.CounterVec
	trades       *prometheus.CounterVec
	volumeBase   *prometheus.CounterVec
	volumeQuote  *prometheus.CounterVec
	traderErrors *prometheus.CounterVec
	fillDuration *prometheus.HistogramVec
	inventory    *prometheus.GaugeVec
	lastPrice    *prometheus.GaugeVec
	positions    *prometheus.GaugeVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ticks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "grid_bot_ticks_total",
			Help: "Price ticks processed",
		}, []string{"inst_id"}),
		trades: f.NewCounterVec(prometheus.CounterOpts{
			Name: "grid_bot_trades_total",
			Help: "Trades executed by side",
		}, []string{"inst_id", "side"}),
		volumeBase: f.NewCounterVec(prometheus.CounterOpts{
			Name: "grid_bot_volume_base_total",
			Help: "Traded volume in base currency",
		}, []string{"inst_id", "side"}),
		volumeQuote: f.NewCounterVec(prometheus.CounterOpts{
			Name: "grid_bot_volume_quote_total",
			Help: "Traded volume in quote currency",
		}, []string{"inst_id", "side"}),
		traderErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "grid_bot_trader_errors_total",
			Help: "Failed fill attempts",
		}, []string{"inst_id"}),
		fillDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "grid_bot_tick_duration_seconds",
			Help:    "Time spent driving all positions on one tick",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0},
		}, []string{"inst_id"}),
		inventory: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "grid_bot_inventory",
			Help: "Total inventory held by positions",
		}, []string{"inst_id", "asset"}),
		lastPrice: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "grid_bot_last_price",
			Help: "Last processed price",
		}, []string{"inst_id"}),
		positions: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "grid_bot_positions",
			Help: "Positions by state",
		}, []string{"inst_id", "state"}),
	}
}

func (m *Metrics) ObserveTick(instID string, price float64, seconds float64) {
	m.ticks.WithLabelValues(instID).Inc()
	m.lastPrice.WithLabelValues(instID).Set(price)
	m.fillDuration.WithLabelValues(instID).Observe(seconds)
}

func (m *Metrics) ObserveTrades(instID string, trades []models.Trade) {
	for _, t := range trades {
		side := string(t.Side)
		m.trades.WithLabelValues(instID, side).Inc()
		m.volumeBase.WithLabelValues(instID, side).Add(t.BaseQuantity.Abs().InexactFloat64())
		m.volumeQuote.WithLabelValues(instID, side).Add(t.QuoteQuantity.Abs().InexactFloat64())
	}
}

func (m *Metrics) TraderError(instID string) {
	m.traderErrors.WithLabelValues(instID).Inc()
}

func (m *Metrics) ObservePositions(instID string, ps models.Positions) {
	base, quote := ps.Totals()
	m.inventory.WithLabelValues(instID, "base").Set(base.InexactFloat64())
	m.inventory.WithLabelValues(instID, "quote").Set(quote.InexactFloat64())

	short := 0
	for _, p := range ps {
		if p.IsShort() {
			short++
		}
	}
	m.positions.WithLabelValues(instID, "short").Set(float64(short))
	m.positions.WithLabelValues(instID, "holding").Set(float64(len(ps) - short))
}
