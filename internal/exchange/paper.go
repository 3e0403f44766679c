package exchange

import (
	"context"
	"sync"
	"time"

	"grid_bot/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

type PaperConfig struct {
	Commission decimal.Decimal
	// MaxFillParts > 1 режет каждый запрос на столько частичных исполнений.
	MaxFillParts int
	RateLimit    float64
	// JournalSize: сколько последних исполнений хранить для Trades; 0: не хранить.
	JournalSize int
}

// PaperTrader исполняет всё сразу по запрошенной цене, комиссия удерживается
// с получаемой стороны.
type PaperTrader struct {
	commission decimal.Decimal
	parts      int
	limiter    *rate.Limiter
	now        func() time.Time
	journal    int

	mu     sync.Mutex
	trades []models.Trade
}

var _ models.Trader = (*PaperTrader)(nil)

func NewPaperTrader(cfg PaperConfig) *PaperTrader {
	parts := cfg.MaxFillParts
	if parts < 1 {
		parts = 1
	}
	return &PaperTrader{
		commission: cfg.Commission,
		parts:      parts,
		limiter:    newLimiter(cfg.RateLimit),
		now:        time.Now,
		journal:    cfg.JournalSize,
	}
}

func (p *PaperTrader) Buy(ctx context.Context, price, quote decimal.Decimal) ([]models.Trade, error) {
	if err := p.check(ctx, price, quote); err != nil {
		return nil, err
	}
	return p.fill(models.SideBuy, price, quote), nil
}

func (p *PaperTrader) Sell(ctx context.Context, price, base decimal.Decimal) ([]models.Trade, error) {
	if err := p.check(ctx, price, base); err != nil {
		return nil, err
	}
	return p.fill(models.SideSell, price, base), nil
}

func (p *PaperTrader) check(ctx context.Context, price, qty decimal.Decimal) error {
	if !price.IsPositive() {
		return models.ErrInvalidPrice
	}
	if qty.IsNegative() {
		return models.ErrInvalidQuantity
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return &models.TraderError{Op: "paper wait", Err: err}
		}
	}
	return nil
}

// fill делит amount (quote для покупки, base для продажи) на равные части,
// последняя забирает остаток.
func (p *PaperTrader) fill(side models.TradeSide, price, amount decimal.Decimal) []models.Trade {
	keep := decimal.NewFromInt(1).Sub(p.commission)
	ts := p.now().UnixMilli()

	parts := p.parts
	if amount.IsZero() {
		parts = 1
	}
	chunk := amount.Div(decimal.NewFromInt(int64(parts))).Truncate(8)

	out := make([]models.Trade, 0, parts)
	left := amount
	for i := 0; i < parts; i++ {
		spend := chunk
		if i == parts-1 {
			spend = left
		}
		left = left.Sub(spend)

		var tr models.Trade
		switch side {
		case models.SideBuy:
			tr = models.NewTrade(side, price, spend.Div(price).Mul(keep), spend, ts)
		case models.SideSell:
			tr = models.NewTrade(side, price, spend, spend.Mul(price).Mul(keep), ts)
		}
		out = append(out, tr)
	}

	if p.journal > 0 {
		p.mu.Lock()
		p.trades = append(p.trades, out...)
		if over := len(p.trades) - p.journal; over > 0 {
			p.trades = append(p.trades[:0], p.trades[over:]...)
		}
		p.mu.Unlock()
	}

	return out
}

// Trades: последние JournalSize исполнений.
func (p *PaperTrader) Trades() models.Trades {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(models.Trades, len(p.trades))
	copy(out, p.trades)
	return out
}
