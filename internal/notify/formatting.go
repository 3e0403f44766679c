package notify

import (
	"fmt"
	"strings"

	"grid_bot/internal/models"

	"github.com/shopspring/decimal"
)

const helpText = "Команды:\n" +
	"/positions — позиции сетки\n" +
	"/evaluate — сводка по сделкам\n" +
	"/roundtrip N — минимальный круг позиции N\n" +
	"/trades [N] — последние сделки"

func bands(rs []models.Range) string {
	parts := make([]string, 0, len(rs))
	for _, r := range rs {
		parts = append(parts, r.String())
	}
	return strings.Join(parts, " ")
}

func formatPositions(instID string, ps models.Positions, last decimal.Decimal) string {
	if len(ps) == 0 {
		return "📭 Позиций нет"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 %s, последняя цена %s\n", instID, last)
	for i, p := range ps {
		state := "💰"
		if p.IsShort() {
			state = "⏳"
		}
		fmt.Fprintf(&b, "%s #%d base=%s quote=%s\n   buy %s\n   sell %s\n",
			state, i, p.BaseQuantity, p.QuoteQuantity.StringFixed(4),
			bands(p.BuyingPrices), bands(p.SellingPrices))
	}
	base, quote := ps.Totals()
	fmt.Fprintf(&b, "Итого: base=%s quote=%s", base, quote.StringFixed(4))
	return b.String()
}

func formatEvaluate(instID string, ev models.Evaluate) string {
	minPrice := "—"
	if ev.MinPrice.Valid {
		minPrice = ev.MinPrice.Decimal.String()
	}
	return fmt.Sprintf(
		"📈 %s\n"+
			"Сделок: buy %d / sell %d\n"+
			"Объём: base %s, quote %s\n"+
			"Итог: base %s, quote %s\n"+
			"Цены: %s … %s\n"+
			"Комиссии: %s",
		instID,
		ev.BuyCount, ev.SellCount,
		ev.VolumeBase, ev.VolumeQuote.StringFixed(4),
		ev.LeaveBase, ev.LeaveQuote.StringFixed(4),
		minPrice, ev.MaxPrice,
		ev.Costs.StringFixed(4),
	)
}

func formatRoundTrip(idx int, trades []models.Trade) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔁 Позиция #%d, минимальный круг:\n", idx)
	for _, t := range trades {
		fmt.Fprintf(&b, "%s\n", t)
	}
	base, quote := models.Trades(trades).Profit()
	fmt.Fprintf(&b, "Результат: base %s, quote %s", base, quote.StringFixed(6))
	return b.String()
}

func formatTrades(instID string, trades models.Trades) string {
	if len(trades) == 0 {
		return "📭 Сделок ещё не было"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🧾 %s, последние %d:\n", instID, len(trades))
	for _, t := range trades {
		fmt.Fprintf(&b, "%s\n", t)
	}
	return strings.TrimRight(b.String(), "\n")
}
