package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"grid_bot/internal/models"
	"grid_bot/pkg/logger"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fakeBot struct {
	sent    []tgbot.MessageConfig
	updates chan tgbot.Update
	stopped bool
}

func (f *fakeBot) Send(c tgbot.Chattable) (tgbot.Message, error) {
	if m, ok := c.(tgbot.MessageConfig); ok {
		f.sent = append(f.sent, m)
	}
	return tgbot.Message{}, nil
}

func (f *fakeBot) GetUpdatesChan(tgbot.UpdateConfig) tgbot.UpdatesChannel { return f.updates }
func (f *fakeBot) StopReceivingUpdates()                                   { f.stopped = true }

type fakeSource struct {
	ps      models.Positions
	ev      models.Evaluate
	last    decimal.Decimal
	trades  models.Trades
	preview []models.Trade
	err     error
	limit   int
}

func (f *fakeSource) InstID() string { return "BTC-USDT" }
func (f *fakeSource) Snapshot() (models.Positions, models.Evaluate, decimal.Decimal) {
	return f.ps, f.ev, f.last
}
func (f *fakeSource) RoundTripPreview(_ context.Context, idx int) ([]models.Trade, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.preview, nil
}
func (f *fakeSource) Trades(_ context.Context, limit int) (models.Trades, error) {
	f.limit = limit
	return f.trades, nil
}

func newSource() *fakeSource {
	buy := models.NewTrade(models.SideBuy, d("100"), d("0.5"), d("50"), 1)
	sell := models.NewTrade(models.SideSell, d("120"), d("0.5"), d("60"), 2)
	return &fakeSource{
		ps: models.Positions{{
			BuyingPrices:  []models.Range{models.NewRange(d("90"), d("100"))},
			SellingPrices: []models.Range{models.NewRange(d("110"), d("120"))},
			BaseQuantity:  decimal.Zero,
			QuoteQuantity: d("60"),
		}},
		ev:      models.Trades{buy, sell}.Evaluate(),
		last:    d("120"),
		trades:  models.Trades{buy, sell},
		preview: []models.Trade{buy, sell},
	}
}

func TestHandle(t *testing.T) {
	tg := &Telegram{bot: &fakeBot{}, chatID: 1}
	if got := tg.Handle(context.Background(), "positions", ""); !strings.Contains(got, "не запущена") {
		t.Fatalf("reply before Attach = %q", got)
	}

	src := newSource()
	tg.Attach(src)

	cases := []struct {
		cmd, args string
		want      []string
	}{
		{"help", "", []string{"/positions", "/roundtrip"}},
		{"positions", "", []string{"BTC-USDT", "#0", "[90, 100]", "[110, 120]", "quote=60.0000"}},
		{"evaluate", "", []string{"buy 1 / sell 1", "Цены: 100 … 120", "quote 10.0000"}},
		{"roundtrip", "0", []string{"#0", "Результат: base 0, quote 10.000000"}},
		{"roundtrip", "x", []string{"Использование: /roundtrip"}},
		{"trades", "", []string{"последние 2", "SELL 0.5 @ 120"}},
		{"trades", "-1", []string{"Использование: /trades"}},
		{"moon", "", []string{"Неизвестная команда"}},
	}
	for _, tc := range cases {
		got := tg.Handle(context.Background(), tc.cmd, tc.args)
		for _, w := range tc.want {
			if !strings.Contains(got, w) {
				t.Errorf("/%s %s: reply %q misses %q", tc.cmd, tc.args, got, w)
			}
		}
	}

	tg.Handle(context.Background(), "trades", "5")
	if src.limit != 5 {
		t.Errorf("trades limit = %d, want 5", src.limit)
	}

	src.err = errors.New("position 7 out of range [0, 1)")
	if got := tg.Handle(context.Background(), "roundtrip", "7"); !strings.Contains(got, "out of range") {
		t.Errorf("roundtrip error reply = %q", got)
	}
}

func TestSendAndStop(t *testing.T) {
	bot := &fakeBot{}
	tg := &Telegram{bot: bot, chatID: 42}
	tg.Send(context.Background(), "hello")
	if len(bot.sent) != 1 || bot.sent[0].Text != "hello" || bot.sent[0].ChatID != 42 {
		t.Fatalf("sent = %+v", bot.sent)
	}

	// без chatID молчим
	(&Telegram{bot: bot}).Send(context.Background(), "lost")
	if len(bot.sent) != 1 {
		t.Fatal("message without chat must not be sent")
	}

	tg.Stop()
	if !bot.stopped {
		t.Error("Stop must stop polling")
	}
}

func TestStdout(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := logger.Replace(zap.New(core))
	defer restore()

	NewStdout().Send(context.Background(), "fill")
	if logs.Len() != 1 || logs.All()[0].Message != "[NOTIFY] fill" {
		t.Fatalf("logs = %v", logs.All())
	}
}
