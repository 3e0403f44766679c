package metrics

import (
	"testing"

	"grid_bot/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveTick("BTC-USDT", 20, 0.01)
	m.ObserveTrades("BTC-USDT", []models.Trade{
		models.NewTrade(models.SideBuy, decimal.NewFromInt(20), decimal.NewFromInt(1), decimal.NewFromInt(20), 0),
		models.NewTrade(models.SideBuy, decimal.NewFromInt(20), decimal.NewFromInt(2), decimal.NewFromInt(40), 0),
	})
	m.TraderError("BTC-USDT")
	m.ObservePositions("BTC-USDT", models.Positions{
		{BaseQuantity: decimal.NewFromInt(3), QuoteQuantity: decimal.Zero},
		{BaseQuantity: decimal.Zero, QuoteQuantity: decimal.NewFromInt(10)},
	})

	if v := testutil.ToFloat64(m.trades.WithLabelValues("BTC-USDT", "BUY")); v != 2 {
		t.Errorf("trades = %v", v)
	}
	if v := testutil.ToFloat64(m.volumeQuote.WithLabelValues("BTC-USDT", "BUY")); v != 60 {
		t.Errorf("quote volume = %v", v)
	}
	if v := testutil.ToFloat64(m.traderErrors.WithLabelValues("BTC-USDT")); v != 1 {
		t.Errorf("errors = %v", v)
	}
	if v := testutil.ToFloat64(m.inventory.WithLabelValues("BTC-USDT", "base")); v != 3 {
		t.Errorf("base inventory = %v", v)
	}
	if v := testutil.ToFloat64(m.positions.WithLabelValues("BTC-USDT", "short")); v != 1 {
		t.Errorf("short positions = %v", v)
	}
	if v := testutil.ToFloat64(m.lastPrice.WithLabelValues("BTC-USDT")); v != 20 {
		t.Errorf("last price = %v", v)
	}
}
