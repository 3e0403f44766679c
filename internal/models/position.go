package models

import (
	"context"

	"github.com/shopspring/decimal"
)

// Trader: площадка, исполняющая ордера позиции.
// Один запрос может вернуть несколько частичных исполнений.
type Trader interface {
	// Buy тратит quote по цене price.
	Buy(ctx context.Context, price, quoteQuantity decimal.Decimal) ([]Trade, error)
	// Sell продаёт base по цене price.
	Sell(ctx context.Context, price, baseQuantity decimal.Decimal) ([]Trade, error)
}

// Position: независимо профинансированная зона сетки.
// BaseQuantity == 0 означает, что позиция «в кэше» (IsShort).
type Position struct {
	BuyingPrices  []Range         `json:"buying_prices" yaml:"buying_prices"`
	SellingPrices []Range         `json:"selling_prices" yaml:"selling_prices"`
	BaseQuantity  decimal.Decimal `json:"base_quantity" yaml:"base_quantity"`
	QuoteQuantity decimal.Decimal `json:"quote_quantity" yaml:"quote_quantity"`
}

func (p *Position) IsShort() bool {
	return p.BaseQuantity.IsZero()
}

// MaxBuyingPrice: максимум верхних границ полос покупки; false, если полос нет.
func (p *Position) MaxBuyingPrice() (decimal.Decimal, bool) {
	if len(p.BuyingPrices) == 0 {
		return decimal.Zero, false
	}
	out := p.BuyingPrices[0].Max()
	for _, r := range p.BuyingPrices[1:] {
		out = decimal.Max(out, r.Max())
	}
	return out, true
}

// MinSellingPrice: минимум нижних границ полос продажи; false, если полос нет.
func (p *Position) MinSellingPrice() (decimal.Decimal, bool) {
	if len(p.SellingPrices) == 0 {
		return decimal.Zero, false
	}
	out := p.SellingPrices[0].Min()
	for _, r := range p.SellingPrices[1:] {
		out = decimal.Min(out, r.Min())
	}
	return out, true
}

func (p *Position) IsWithinBuyingPrice(price decimal.Decimal) bool {
	return ContainsAny(p.BuyingPrices, price)
}

func (p *Position) IsWithinSellingPrice(price decimal.Decimal) bool {
	return ContainsAny(p.SellingPrices, price)
}

func (p *Position) apply(trades []Trade) {
	for _, t := range trades {
		switch t.Side {
		case SideBuy:
			p.BaseQuantity = p.BaseQuantity.Add(t.BaseQuantity)
			p.QuoteQuantity = p.QuoteQuantity.Sub(t.QuoteQuantity)
		case SideSell:
			p.BaseQuantity = p.BaseQuantity.Sub(t.BaseQuantity)
			p.QuoteQuantity = p.QuoteQuantity.Add(t.QuoteQuantity)
		}
	}
}

// AttemptFill проверяет цену против полос: сначала продажа всей base,
// затем покупка на весь quote (уже с учётом выручки от продажи).
// Ошибка трейдера возвращается как есть вместе со сделками уже применённой ноги;
// применённое не откатывается.
func (p *Position) AttemptFill(ctx context.Context, trader Trader, price decimal.Decimal) ([]Trade, error) {
	if !price.IsPositive() {
		return nil, ErrInvalidPrice
	}

	var out []Trade

	if p.IsWithinSellingPrice(price) && p.BaseQuantity.IsPositive() {
		trades, err := trader.Sell(ctx, price, p.BaseQuantity)
		if err != nil {
			return out, err
		}
		p.apply(trades)
		out = append(out, trades...)
	}

	if p.IsWithinBuyingPrice(price) && p.QuoteQuantity.IsPositive() {
		trades, err := trader.Buy(ctx, price, p.QuoteQuantity)
		if err != nil {
			return out, err
		}
		p.apply(trades)
		out = append(out, trades...)
	}

	return out, nil
}

// MinimalRoundTrip строит сделки полного цикла по худшим ценам полос. Купить по
// MaxBuyingPrice, продать по MinSellingPrice. Если позиция держит base, сначала
// она продаётся. Позиция не меняется.
func (p *Position) MinimalRoundTrip(ctx context.Context, trader Trader) ([]Trade, error) {
	buyPrice, ok := p.MaxBuyingPrice()
	if !ok {
		return nil, ErrNoBand
	}
	sellPrice, ok := p.MinSellingPrice()
	if !ok {
		return nil, ErrNoBand
	}

	var out Trades
	quote := p.QuoteQuantity

	if !p.IsShort() {
		sold, err := trader.Sell(ctx, sellPrice, p.BaseQuantity)
		if err != nil {
			return nil, err
		}
		out = append(out, sold...)
		_, proceeds := Trades(sold).Profit()
		quote = quote.Add(proceeds)
	}

	bought, err := trader.Buy(ctx, buyPrice, quote)
	if err != nil {
		return nil, err
	}
	out = append(out, bought...)
	base, _ := Trades(bought).Profit()

	sold, err := trader.Sell(ctx, sellPrice, base)
	if err != nil {
		return nil, err
	}
	out = append(out, sold...)

	return out, nil
}

func (p *Position) Clone() *Position {
	c := &Position{
		BuyingPrices:  make([]Range, len(p.BuyingPrices)),
		SellingPrices: make([]Range, len(p.SellingPrices)),
		BaseQuantity:  p.BaseQuantity,
		QuoteQuantity: p.QuoteQuantity,
	}
	copy(c.BuyingPrices, p.BuyingPrices)
	copy(c.SellingPrices, p.SellingPrices)
	return c
}

func (p *Position) Equal(o *Position) bool {
	if p == nil || o == nil {
		return p == o
	}
	if len(p.BuyingPrices) != len(o.BuyingPrices) || len(p.SellingPrices) != len(o.SellingPrices) {
		return false
	}
	for i := range p.BuyingPrices {
		if !p.BuyingPrices[i].Equal(o.BuyingPrices[i]) {
			return false
		}
	}
	for i := range p.SellingPrices {
		if !p.SellingPrices[i].Equal(o.SellingPrices[i]) {
			return false
		}
	}
	return p.BaseQuantity.Equal(o.BaseQuantity) && p.QuoteQuantity.Equal(o.QuoteQuantity)
}

type Positions []*Position

// AttemptFill прогоняет позиции по очереди на одной цене и останавливается на первой ошибке.
func (ps Positions) AttemptFill(ctx context.Context, trader Trader, price decimal.Decimal) ([]Trade, error) {
	var out []Trade
	for _, p := range ps {
		trades, err := p.AttemptFill(ctx, trader, price)
		out = append(out, trades...)
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// Totals: суммарный инвентарь.
func (ps Positions) Totals() (base, quote decimal.Decimal) {
	base, quote = decimal.Zero, decimal.Zero
	for _, p := range ps {
		base = base.Add(p.BaseQuantity)
		quote = quote.Add(p.QuoteQuantity)
	}
	return base, quote
}

func (ps Positions) Clone() Positions {
	out := make(Positions, len(ps))
	for i, p := range ps {
		out[i] = p.Clone()
	}
	return out
}

func (ps Positions) Equal(o Positions) bool {
	if len(ps) != len(o) {
		return false
	}
	for i := range ps {
		if !ps[i].Equal(o[i]) {
			return false
		}
	}
	return true
}
