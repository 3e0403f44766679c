package models

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type TradeSide string

const (
	SideBuy  TradeSide = "BUY"
	SideSell TradeSide = "SELL"
)

func (s TradeSide) Valid() bool {
	return s == SideBuy || s == SideSell
}

func (s TradeSide) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, errors.Wrapf(ErrUnknownSide, "%q", string(s))
	}
	return []byte(s), nil
}

func (s *TradeSide) UnmarshalText(text []byte) error {
	v := TradeSide(text)
	if !v.Valid() {
		return errors.Wrapf(ErrUnknownSide, "%q", string(text))
	}
	*s = v
	return nil
}

// nowMillis подменяется в тестах.
var nowMillis = func() int64 { return time.Now().UnixMilli() }

// Trade: исполнение на площадке. После создания не меняется.
type Trade struct {
	Side          TradeSide       `json:"side" yaml:"side"`
	Price         decimal.Decimal `json:"price" yaml:"price"`
	BaseQuantity  decimal.Decimal `json:"base_quantity" yaml:"base_quantity"`
	QuoteQuantity decimal.Decimal `json:"quote_quantity" yaml:"quote_quantity"`
	Timestamp     int64           `json:"timestamp" yaml:"timestamp"` // ms
}

func NewTrade(side TradeSide, price, base, quote decimal.Decimal, ts int64) Trade {
	return Trade{
		Side:          side,
		Price:         price,
		BaseQuantity:  base,
		QuoteQuantity: quote,
		Timestamp:     ts,
	}
}

func NewBuyTrade(price, base, quote decimal.Decimal) Trade {
	return NewTrade(SideBuy, price, base, quote, nowMillis())
}

func NewSellTrade(price, base, quote decimal.Decimal) Trade {
	return NewTrade(SideSell, price, base, quote, nowMillis())
}

// Costs: сколько съела площадка относительно идеального обмена по Price.
// Для покупки выражено в quote через недополученную base, для продажи: напрямую в quote.
func (t Trade) Costs() decimal.Decimal {
	switch t.Side {
	case SideBuy:
		if t.Price.IsZero() {
			return decimal.Zero
		}
		ideal := t.QuoteQuantity.Div(t.Price)
		if ideal.Equal(t.BaseQuantity) {
			return decimal.Zero
		}
		return ideal.Sub(t.BaseQuantity).Mul(t.Price)
	case SideSell:
		ideal := t.BaseQuantity.Mul(t.Price)
		if ideal.Equal(t.QuoteQuantity) {
			return decimal.Zero
		}
		return ideal.Sub(t.QuoteQuantity)
	}
	return decimal.Zero
}

// Matches сравнивает сделки без учёта времени.
func (t Trade) Matches(o Trade) bool {
	return t.Side == o.Side &&
		t.Price.Equal(o.Price) &&
		t.BaseQuantity.Equal(o.BaseQuantity) &&
		t.QuoteQuantity.Equal(o.QuoteQuantity)
}

func (t Trade) Equal(o Trade) bool {
	return t.Matches(o) && t.Timestamp == o.Timestamp
}

func (t Trade) String() string {
	return fmt.Sprintf("%s %s @ %s (quote %s)", t.Side, t.BaseQuantity, t.Price, t.QuoteQuantity)
}

type Trades []Trade

// Profit считает итоговое изменение инвентаря со знаком (покупка +base −quote, продажа −base +quote).
func (ts Trades) Profit() (base, quote decimal.Decimal) {
	base, quote = decimal.Zero, decimal.Zero
	for _, t := range ts {
		switch t.Side {
		case SideBuy:
			base = base.Add(t.BaseQuantity)
			quote = quote.Sub(t.QuoteQuantity)
		case SideSell:
			base = base.Sub(t.BaseQuantity)
			quote = quote.Add(t.QuoteQuantity)
		}
	}
	return base, quote
}

func (ts Trades) Evaluate() Evaluate {
	e := NewEvaluate()
	for _, t := range ts {
		e.Add(t)
	}
	return e
}

func (ts Trades) Matches(o Trades) bool {
	if len(ts) != len(o) {
		return false
	}
	for i := range ts {
		if !ts[i].Matches(o[i]) {
			return false
		}
	}
	return true
}
