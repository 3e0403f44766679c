package models

import (
	"github.com/shopspring/decimal"
)

// Evaluate: сводка по набору сделок.
type Evaluate struct {
	VolumeBase  decimal.Decimal `json:"volume_base" yaml:"volume_base"`
	VolumeQuote decimal.Decimal `json:"volume_quote" yaml:"volume_quote"`
	LeaveBase   decimal.Decimal `json:"leave_base" yaml:"leave_base"`
	LeaveQuote  decimal.Decimal `json:"leave_quote" yaml:"leave_quote"`
	BuyCount    int             `json:"buy_count" yaml:"buy_count"`
	SellCount   int             `json:"sell_count" yaml:"sell_count"`
	MaxPrice    decimal.Decimal `json:"max_price" yaml:"max_price"`
	// MinPrice невалиден, пока не было ни одной сделки.
	MinPrice decimal.NullDecimal `json:"min_price" yaml:"min_price"`
	Costs    decimal.Decimal     `json:"costs" yaml:"costs"`
}

func NewEvaluate() Evaluate {
	return Evaluate{
		VolumeBase:  decimal.Zero,
		VolumeQuote: decimal.Zero,
		LeaveBase:   decimal.Zero,
		LeaveQuote:  decimal.Zero,
		MaxPrice:    decimal.Zero,
		Costs:       decimal.Zero,
	}
}

func (e *Evaluate) Add(t Trade) {
	if t.Price.GreaterThan(e.MaxPrice) {
		e.MaxPrice = t.Price
	}
	if !e.MinPrice.Valid || t.Price.LessThan(e.MinPrice.Decimal) {
		e.MinPrice = decimal.NewNullDecimal(t.Price)
	}

	e.VolumeBase = e.VolumeBase.Add(t.BaseQuantity.Abs())
	e.VolumeQuote = e.VolumeQuote.Add(t.QuoteQuantity.Abs())
	e.Costs = e.Costs.Add(t.Costs())

	switch t.Side {
	case SideBuy:
		e.LeaveBase = e.LeaveBase.Add(t.BaseQuantity)
		e.LeaveQuote = e.LeaveQuote.Sub(t.QuoteQuantity)
		e.BuyCount++
	case SideSell:
		e.LeaveBase = e.LeaveBase.Sub(t.BaseQuantity)
		e.LeaveQuote = e.LeaveQuote.Add(t.QuoteQuantity)
		e.SellCount++
	}
}

func (e Evaluate) Equal(o Evaluate) bool {
	if e.MinPrice.Valid != o.MinPrice.Valid {
		return false
	}
	if e.MinPrice.Valid && !e.MinPrice.Decimal.Equal(o.MinPrice.Decimal) {
		return false
	}
	return e.VolumeBase.Equal(o.VolumeBase) &&
		e.VolumeQuote.Equal(o.VolumeQuote) &&
		e.LeaveBase.Equal(o.LeaveBase) &&
		e.LeaveQuote.Equal(o.LeaveQuote) &&
		e.BuyCount == o.BuyCount &&
		e.SellCount == o.SellCount &&
		e.MaxPrice.Equal(o.MaxPrice) &&
		e.Costs.Equal(o.Costs)
}
