package models

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func rng(a, b string) Range {
	return NewRange(d(a), d(b))
}

func buy(price, base, quote string) Trade {
	return NewTrade(SideBuy, d(price), d(base), d(quote), 0)
}

func sell(price, base, quote string) Trade {
	return NewTrade(SideSell, d(price), d(base), d(quote), 0)
}

// testTrader исполняет всё целиком с комиссией, удерживаемой с получаемой стороны.
type testTrader struct {
	commission decimal.Decimal
	calls      []TradeSide
	failOn     TradeSide
}

var errVenue = errors.New("venue rejected")

func (t *testTrader) Buy(_ context.Context, price, quote decimal.Decimal) ([]Trade, error) {
	t.calls = append(t.calls, SideBuy)
	if t.failOn == SideBuy {
		return nil, &TraderError{Op: "buy", Err: errVenue}
	}
	if !price.IsPositive() {
		return nil, ErrInvalidPrice
	}
	base := quote.Div(price).Mul(decimal.NewFromInt(1).Sub(t.commission))
	return []Trade{NewBuyTrade(price, base, quote)}, nil
}

func (t *testTrader) Sell(_ context.Context, price, base decimal.Decimal) ([]Trade, error) {
	t.calls = append(t.calls, SideSell)
	if t.failOn == SideSell {
		return nil, &TraderError{Op: "sell", Err: errVenue}
	}
	if !price.IsPositive() {
		return nil, ErrInvalidPrice
	}
	quote := base.Mul(price).Mul(decimal.NewFromInt(1).Sub(t.commission))
	return []Trade{NewSellTrade(price, base, quote)}, nil
}
