package models

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPositionQueries(t *testing.T) {
	p := &Position{
		BuyingPrices:  []Range{rng("30", "80"), rng("100", "90")},
		SellingPrices: []Range{rng("210", "250"), rng("205", "200")},
		BaseQuantity:  d("0"),
		QuoteQuantity: d("20"),
	}
	if !p.IsShort() {
		t.Error("zero base must be short")
	}
	if v, ok := p.MaxBuyingPrice(); !ok || !v.Equal(d("100")) {
		t.Errorf("max buying = %s, %v", v, ok)
	}
	if v, ok := p.MinSellingPrice(); !ok || !v.Equal(d("200")) {
		t.Errorf("min selling = %s, %v", v, ok)
	}
	if !p.IsWithinBuyingPrice(d("95")) || p.IsWithinBuyingPrice(d("85")) {
		t.Error("buying band check")
	}
	if !p.IsWithinSellingPrice(d("200")) || p.IsWithinSellingPrice(d("260")) {
		t.Error("selling band check")
	}

	empty := &Position{BaseQuantity: d("1"), QuoteQuantity: d("0")}
	if _, ok := empty.MaxBuyingPrice(); ok {
		t.Error("no buying band must report absence")
	}
	if _, ok := empty.MinSellingPrice(); ok {
		t.Error("no selling band must report absence")
	}
	if empty.IsShort() {
		t.Error("non-zero base is not short")
	}
}

func TestAttemptFill(t *testing.T) {
	cases := []struct {
		name      string
		pos       Position
		price     string
		want      Trades
		wantBase  string
		wantQuote string
	}{
		{
			name: "sell then buy at the same price",
			pos: Position{
				BuyingPrices:  []Range{rng("30", "80")},
				SellingPrices: []Range{rng("70", "80")},
				BaseQuantity:  d("5"),
				QuoteQuantity: d("20"),
			},
			price:     "80",
			want:      Trades{sell("80", "5", "400"), buy("80", "5.25", "420")},
			wantBase:  "5.25",
			wantQuote: "0",
		},
		{
			name: "selling band without base does nothing",
			pos: Position{
				BuyingPrices:  []Range{rng("10", "20")},
				SellingPrices: []Range{rng("50", "80")},
				BaseQuantity:  d("0"),
				QuoteQuantity: d("20"),
			},
			price:     "80",
			wantBase:  "0",
			wantQuote: "20",
		},
		{
			name: "buy at the band edge",
			pos: Position{
				BuyingPrices:  []Range{rng("10", "20")},
				SellingPrices: []Range{rng("50", "80")},
				BaseQuantity:  d("0"),
				QuoteQuantity: d("20"),
			},
			price:     "20",
			want:      Trades{buy("20", "1", "20")},
			wantBase:  "1",
			wantQuote: "0",
		},
		{
			name: "price outside every band",
			pos: Position{
				BuyingPrices:  []Range{rng("10", "20")},
				SellingPrices: []Range{rng("50", "80")},
				BaseQuantity:  d("1"),
				QuoteQuantity: d("0"),
			},
			price:     "35",
			wantBase:  "1",
			wantQuote: "0",
		},
		{
			name: "stop loss band sells",
			pos: Position{
				BuyingPrices:  []Range{rng("50", "50.5")},
				SellingPrices: []Range{rng("51.005", "60"), rng("0", "45.9045")},
				BaseQuantity:  d("2"),
				QuoteQuantity: d("0"),
			},
			price:     "40",
			want:      Trades{sell("40", "2", "80")},
			wantBase:  "0",
			wantQuote: "80",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := c.pos
			got, err := p.AttemptFill(context.Background(), &testTrader{commission: decimal.Zero}, d(c.price))
			if err != nil {
				t.Fatalf("AttemptFill: %v", err)
			}
			if !Trades(got).Matches(c.want) {
				t.Errorf("trades = %v, want %v", got, c.want)
			}
			if !p.BaseQuantity.Equal(d(c.wantBase)) || !p.QuoteQuantity.Equal(d(c.wantQuote)) {
				t.Errorf("inventory = (%s, %s), want (%s, %s)", p.BaseQuantity, p.QuoteQuantity, c.wantBase, c.wantQuote)
			}
		})
	}
}

func TestAttemptFillAppliesEveryPartialFill(t *testing.T) {
	p := &Position{
		BuyingPrices:  []Range{rng("10", "20")},
		SellingPrices: []Range{rng("50", "80")},
		BaseQuantity:  d("0"),
		QuoteQuantity: d("20"),
	}
	tr := &splitTrader{}
	got, err := p.AttemptFill(context.Background(), tr, d("20"))
	if err != nil {
		t.Fatalf("AttemptFill: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 partial fills, got %d", len(got))
	}
	if !p.BaseQuantity.Equal(d("1")) || !p.QuoteQuantity.IsZero() {
		t.Errorf("inventory = (%s, %s)", p.BaseQuantity, p.QuoteQuantity)
	}
}

type splitTrader struct{ testTrader }

func (s *splitTrader) Buy(_ context.Context, price, quote decimal.Decimal) ([]Trade, error) {
	half := quote.Div(decimal.NewFromInt(2))
	return []Trade{
		NewBuyTrade(price, half.Div(price), half),
		NewBuyTrade(price, quote.Sub(half).Div(price), quote.Sub(half)),
	}, nil
}

func TestAttemptFillTraderFailure(t *testing.T) {
	p := &Position{
		BuyingPrices:  []Range{rng("30", "80")},
		SellingPrices: []Range{rng("70", "80")},
		BaseQuantity:  d("5"),
		QuoteQuantity: d("20"),
	}
	tr := &testTrader{failOn: SideBuy}

	got, err := p.AttemptFill(context.Background(), tr, d("80"))
	var te *TraderError
	if !errors.As(err, &te) || !errors.Is(err, errVenue) {
		t.Fatalf("expected TraderError wrapping venue error, got %v", err)
	}
	// продажа уже применена и не откатывается
	if !Trades(got).Matches(Trades{sell("80", "5", "400")}) {
		t.Errorf("trades = %v", got)
	}
	if !p.BaseQuantity.IsZero() || !p.QuoteQuantity.Equal(d("420")) {
		t.Errorf("inventory = (%s, %s)", p.BaseQuantity, p.QuoteQuantity)
	}
}

func TestAttemptFillInvalidPrice(t *testing.T) {
	p := &Position{
		BuyingPrices:  []Range{rng("0", "10")},
		SellingPrices: []Range{rng("0", "5")},
		BaseQuantity:  d("1"),
		QuoteQuantity: d("1"),
	}
	tr := &testTrader{}
	for _, price := range []string{"0", "-1"} {
		if _, err := p.AttemptFill(context.Background(), tr, d(price)); !errors.Is(err, ErrInvalidPrice) {
			t.Errorf("price %s: expected ErrInvalidPrice, got %v", price, err)
		}
	}
	if len(tr.calls) != 0 {
		t.Errorf("trader must not be called, got %v", tr.calls)
	}
}

func TestMinimalRoundTrip(t *testing.T) {
	cases := []struct {
		name       string
		pos        Position
		commission string
		want       Trades
	}{
		{
			name: "short",
			pos: Position{
				BuyingPrices:  []Range{rng("30", "50")},
				SellingPrices: []Range{rng("200", "250")},
				BaseQuantity:  d("0"),
				QuoteQuantity: d("20"),
			},
			commission: "0",
			want:       Trades{buy("50", "0.4", "20"), sell("200", "0.4", "80")},
		},
		{
			name: "short with commission",
			pos: Position{
				BuyingPrices:  []Range{rng("30", "50")},
				SellingPrices: []Range{rng("200", "250")},
				BaseQuantity:  d("0"),
				QuoteQuantity: d("20"),
			},
			commission: "0.001",
			want:       Trades{buy("50", "0.3996", "20"), sell("200", "0.3996", "79.84008")},
		},
		{
			name: "holding",
			pos: Position{
				BuyingPrices:  []Range{rng("30", "80")},
				SellingPrices: []Range{rng("210", "250")},
				BaseQuantity:  d("5"),
				QuoteQuantity: d("20"),
			},
			commission: "0",
			want:       Trades{sell("210", "5", "1050"), buy("80", "13.375", "1070"), sell("210", "13.375", "2808.75")},
		},
		{
			name: "holding with several bands",
			pos: Position{
				BuyingPrices:  []Range{rng("30", "80"), rng("90", "100")},
				SellingPrices: []Range{rng("210", "250"), rng("205", "200")},
				BaseQuantity:  d("5"),
				QuoteQuantity: d("20"),
			},
			commission: "0",
			want:       Trades{sell("200", "5", "1000"), buy("100", "10.2", "1020"), sell("200", "10.2", "2040")},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := c.pos
			before := p.Clone()
			got, err := p.MinimalRoundTrip(context.Background(), &testTrader{commission: d(c.commission)})
			if err != nil {
				t.Fatalf("MinimalRoundTrip: %v", err)
			}
			if !Trades(got).Matches(c.want) {
				t.Errorf("trades = %v\nwant %v", got, c.want)
			}
			if !p.Equal(before) {
				t.Error("position must not change")
			}
		})
	}
}

func TestMinimalRoundTripErrors(t *testing.T) {
	noSell := &Position{BuyingPrices: []Range{rng("1", "2")}, BaseQuantity: d("0"), QuoteQuantity: d("1")}
	if _, err := noSell.MinimalRoundTrip(context.Background(), &testTrader{}); !errors.Is(err, ErrNoBand) {
		t.Errorf("expected ErrNoBand, got %v", err)
	}

	p := &Position{
		BuyingPrices:  []Range{rng("30", "80")},
		SellingPrices: []Range{rng("210", "250")},
		BaseQuantity:  d("5"),
		QuoteQuantity: d("20"),
	}
	tr := &testTrader{failOn: SideBuy}
	got, err := p.MinimalRoundTrip(context.Background(), tr)
	if !errors.Is(err, errVenue) || got != nil {
		t.Fatalf("expected venue error and no trades, got %v, %v", got, err)
	}
	if len(tr.calls) != 2 {
		t.Errorf("must stop at the failing leg, calls = %v", tr.calls)
	}
}

func TestPositionsAttemptFill(t *testing.T) {
	ps := Positions{
		{BuyingPrices: []Range{rng("10", "20")}, SellingPrices: []Range{rng("50", "80")}, BaseQuantity: d("0"), QuoteQuantity: d("20")},
		{BuyingPrices: []Range{rng("15", "25")}, SellingPrices: []Range{rng("60", "80")}, BaseQuantity: d("0"), QuoteQuantity: d("40")},
		{BuyingPrices: []Range{rng("30", "40")}, SellingPrices: []Range{rng("70", "80")}, BaseQuantity: d("0"), QuoteQuantity: d("10")},
	}
	got, err := ps.AttemptFill(context.Background(), &testTrader{}, d("20"))
	if err != nil {
		t.Fatalf("AttemptFill: %v", err)
	}
	if !Trades(got).Matches(Trades{buy("20", "1", "20"), buy("20", "2", "40")}) {
		t.Errorf("trades = %v", got)
	}
	base, quote := ps.Totals()
	if !base.Equal(d("3")) || !quote.Equal(d("10")) {
		t.Errorf("totals = (%s, %s)", base, quote)
	}

	failing := &testTrader{failOn: SideSell}
	if _, err := ps.AttemptFill(context.Background(), failing, d("70")); err == nil {
		t.Fatal("expected error")
	}
	if len(failing.calls) != 1 {
		t.Errorf("must stop after the first failure, calls = %v", failing.calls)
	}
}

func TestPositionJSONRoundTrip(t *testing.T) {
	p := &Position{
		BuyingPrices:  []Range{rng("50", "50.5")},
		SellingPrices: []Range{rng("51.005", "60"), rng("0", "45.9045")},
		BaseQuantity:  d("0"),
		QuoteQuantity: d("100"),
	}
	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Position
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(p) {
		t.Errorf("round trip: %s", raw)
	}
}
