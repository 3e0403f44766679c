package notify

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"grid_bot/internal/models"
	"grid_bot/pkg/logger"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
)

const defaultTradesLimit = 10

// Source: откуда бот берёт состояние сетки для команд.
type Source interface {
	InstID() string
	Snapshot() (models.Positions, models.Evaluate, decimal.Decimal)
	RoundTripPreview(ctx context.Context, idx int) ([]models.Trade, error)
	Trades(ctx context.Context, limit int) (models.Trades, error)
}

type botAPI interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
	GetUpdatesChan(config tgbot.UpdateConfig) tgbot.UpdatesChannel
	StopReceivingUpdates()
}

// Telegram: уведомления о сделках в один чат + команды только на чтение.
type Telegram struct {
	bot    botAPI
	chatID int64

	mu  sync.RWMutex
	src Source
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{bot: b, chatID: chatID}, nil
}

// Attach подключает источник состояния. До этого команды отвечают заглушкой.
func (t *Telegram) Attach(src Source) {
	t.mu.Lock()
	t.src = src
	t.mu.Unlock()
}

func (t *Telegram) source() Source {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.src
}

func (t *Telegram) Send(_ context.Context, msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, msg)); err != nil {
		logger.Warn("[TG] send: %v", err)
	}
}

// Start: long-polling команд из своего чата до отмены ctx.
func (t *Telegram) Start(ctx context.Context) {
	if t == nil || t.bot == nil {
		return
	}

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message"}

	updates := t.bot.GetUpdatesChan(u)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case upd, ok := <-updates:
				if !ok {
					return
				}
				msg := upd.Message
				if msg == nil || msg.Chat == nil || msg.Chat.ID != t.chatID || !msg.IsCommand() {
					continue
				}
				go func(cmd, args string) {
					t.Send(ctx, t.Handle(ctx, cmd, args))
				}(msg.Command(), msg.CommandArguments())
			}
		}
	}()
}

func (t *Telegram) Stop() {
	if t == nil || t.bot == nil {
		return
	}
	t.bot.StopReceivingUpdates()
}

// Handle отвечает на команду текстом.
func (t *Telegram) Handle(ctx context.Context, cmd, args string) string {
	src := t.source()
	if src == nil {
		return "⏳ Сетка ещё не запущена"
	}

	switch cmd {
	case "start", "help":
		return helpText
	case "positions":
		ps, _, last := src.Snapshot()
		return formatPositions(src.InstID(), ps, last)
	case "evaluate":
		_, ev, _ := src.Snapshot()
		return formatEvaluate(src.InstID(), ev)
	case "roundtrip":
		idx, err := strconv.Atoi(strings.TrimSpace(args))
		if err != nil {
			return "❗️ Использование: /roundtrip <номер позиции>"
		}
		trades, err := src.RoundTripPreview(ctx, idx)
		if err != nil {
			return "❗️ " + err.Error()
		}
		return formatRoundTrip(idx, trades)
	case "trades":
		limit := defaultTradesLimit
		if a := strings.TrimSpace(args); a != "" {
			n, err := strconv.Atoi(a)
			if err != nil || n <= 0 {
				return "❗️ Использование: /trades [количество]"
			}
			limit = n
		}
		trades, err := src.Trades(ctx, limit)
		if err != nil {
			return "❗️ Ошибка чтения сделок: " + err.Error()
		}
		return formatTrades(src.InstID(), trades)
	}
	return "🤷 Неизвестная команда, см. /help"
}

// Stdout: заглушка без Telegram, всё уходит в лог.
type Stdout struct{}

func NewStdout() *Stdout { return &Stdout{} }

func (s *Stdout) Send(_ context.Context, msg string) {
	logger.Info("[NOTIFY] %s", msg)
}
