package exchange

import (
	"context"
	"errors"
	"testing"
	"time"

	"grid_bot/internal/models"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPaperTraderCommission(t *testing.T) {
	p := NewPaperTrader(PaperConfig{Commission: d("0.001"), JournalSize: 10})
	ctx := context.Background()

	bought, err := p.Buy(ctx, d("50"), d("20"))
	if err != nil {
		t.Fatalf("Buy: %v", err)
	}
	want := models.NewTrade(models.SideBuy, d("50"), d("0.3996"), d("20"), 0)
	if len(bought) != 1 || !bought[0].Matches(want) {
		t.Fatalf("bought = %v", bought)
	}
	if !bought[0].Costs().Equal(d("0.02")) {
		t.Errorf("costs = %s", bought[0].Costs())
	}

	sold, err := p.Sell(ctx, d("200"), d("0.3996"))
	if err != nil {
		t.Fatalf("Sell: %v", err)
	}
	if len(sold) != 1 || !sold[0].Matches(models.NewTrade(models.SideSell, d("200"), d("0.3996"), d("79.84008"), 0)) {
		t.Fatalf("sold = %v", sold)
	}

	if len(p.Trades()) != 2 {
		t.Errorf("journal size = %d", len(p.Trades()))
	}
}

func TestPaperTraderJournalIsBounded(t *testing.T) {
	ctx := context.Background()

	off := NewPaperTrader(PaperConfig{})
	for i := 0; i < 5; i++ {
		if _, err := off.Buy(ctx, d("10"), d("1")); err != nil {
			t.Fatalf("Buy: %v", err)
		}
	}
	if n := len(off.Trades()); n != 0 {
		t.Errorf("journal without JournalSize = %d, want 0", n)
	}

	capped := NewPaperTrader(PaperConfig{JournalSize: 3})
	for i := 1; i <= 5; i++ {
		if _, err := capped.Buy(ctx, decimal.NewFromInt(int64(i)), d("1")); err != nil {
			t.Fatalf("Buy: %v", err)
		}
	}
	got := capped.Trades()
	if len(got) != 3 {
		t.Fatalf("journal = %d, want 3", len(got))
	}
	if !got[0].Price.Equal(d("3")) || !got[2].Price.Equal(d("5")) {
		t.Errorf("journal must keep the latest fills: %v", got)
	}
}

func TestPaperTraderValidation(t *testing.T) {
	p := NewPaperTrader(PaperConfig{})
	ctx := context.Background()

	if _, err := p.Buy(ctx, d("0"), d("10")); !errors.Is(err, models.ErrInvalidPrice) {
		t.Errorf("zero price: %v", err)
	}
	if _, err := p.Sell(ctx, d("-5"), d("1")); !errors.Is(err, models.ErrInvalidPrice) {
		t.Errorf("negative price: %v", err)
	}
	if _, err := p.Sell(ctx, d("5"), d("-1")); !errors.Is(err, models.ErrInvalidQuantity) {
		t.Errorf("negative quantity: %v", err)
	}
}

func TestPaperTraderSplitsFills(t *testing.T) {
	p := NewPaperTrader(PaperConfig{MaxFillParts: 3})
	trades, err := p.Buy(context.Background(), d("20"), d("10"))
	if err != nil {
		t.Fatalf("Buy: %v", err)
	}
	if len(trades) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(trades))
	}
	base, quote := models.Trades(trades).Profit()
	if !quote.Equal(d("-10")) {
		t.Errorf("spent quote = %s", quote.Neg())
	}
	if !base.Equal(d("0.5")) {
		t.Errorf("bought base = %s", base)
	}
}

func TestPaperTraderRateLimitHonorsContext(t *testing.T) {
	p := NewPaperTrader(PaperConfig{RateLimit: 1})
	ctx := context.Background()
	if _, err := p.Buy(ctx, d("1"), d("1")); err != nil {
		t.Fatalf("first call: %v", err)
	}

	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	_, err := p.Buy(short, d("1"), d("1"))
	var te *models.TraderError
	if !errors.As(err, &te) {
		t.Fatalf("expected TraderError, got %v", err)
	}
}
