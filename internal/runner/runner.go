package runner

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"grid_bot/internal/exchange"
	"grid_bot/internal/journal"
	"grid_bot/internal/metrics"
	"grid_bot/internal/models"
	"grid_bot/internal/strategy"
	"grid_bot/pkg/lock"
	"grid_bot/pkg/logger"
	"grid_bot/pkg/tracing"

	"github.com/opentracing/opentracing-go"
	"github.com/shopspring/decimal"
)

// TradeStore: журнал сделок и снапшоты позиций.
type TradeStore interface {
	SaveFill(ctx context.Context, instID string, trades []models.Trade, positions models.Positions) error
	LoadPositions(ctx context.Context, instID string) (models.Positions, bool, error)
	// ListTrades: последние limit сделок по времени; limit <= 0 означает всю историю.
	ListTrades(ctx context.Context, instID string, limit int) (models.Trades, error)
}

type Notifier interface {
	Send(ctx context.Context, msg string)
}

type Options struct {
	InstID   string
	Strategy strategy.Strategy
	Trader   models.Trader
	// Preview: трейдер без побочных эффектов для расчёта round trip.
	Preview   models.Trader
	Store     TradeStore
	Publisher journal.Publisher
	Notifier  Notifier
	Locker    lock.Locker
	LockTTL   time.Duration
	Metrics   *metrics.Metrics
}

// Runner владеет позициями одного инструмента и прогоняет их по тикам.
// Тик обрабатывается целиком под mu: позиции по очереди, каждая под своим локом.
type Runner struct {
	opts Options

	mu        sync.Mutex
	positions models.Positions
	eval      models.Evaluate
	lastPrice decimal.Decimal
}

func New(opts Options) *Runner {
	if opts.Publisher == nil {
		opts.Publisher = journal.Nop{}
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 30 * time.Second
	}
	return &Runner{
		opts: opts,
		eval: models.NewEvaluate(),
	}
}

func (r *Runner) InstID() string { return r.opts.InstID }

// Restore поднимает позиции из хранилища, иначе раскладывает стратегию заново.
func (r *Runner) Restore(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ps, ok, err := r.opts.Store.LoadPositions(ctx, r.opts.InstID)
	if err != nil {
		return fmt.Errorf("restore positions: %w", err)
	}
	assigned := r.opts.Strategy.AssignPositions()
	if ok && len(ps) > 0 {
		r.positions = ps
		logger.Info("[RUNNER] %s: restored %d positions", r.opts.InstID, len(ps))
		if !sameBands(ps, assigned) {
			logger.Warn("[RUNNER] %s: stored grid (%d positions) differs from %s config (%d positions), config ignored until grid_positions is cleared",
				r.opts.InstID, len(ps), r.opts.Strategy.Name(), len(assigned))
		}
	} else {
		r.positions = assigned
		logger.Info("[RUNNER] %s: %s assigned %d positions", r.opts.InstID, r.opts.Strategy.Name(), len(r.positions))
	}

	history, err := r.opts.Store.ListTrades(ctx, r.opts.InstID, 0)
	if err != nil {
		return fmt.Errorf("restore trades: %w", err)
	}
	r.eval = history.Evaluate()

	if r.opts.Metrics != nil {
		r.opts.Metrics.ObservePositions(r.opts.InstID, r.positions)
	}
	return nil
}

// OnTick прогоняет все позиции по цене. Первая ошибка трейдера прерывает тик:
// оставшиеся позиции ждут следующего.
func (r *Runner) OnTick(ctx context.Context, price decimal.Decimal) ([]models.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	started := time.Now()
	span, ctx := tracing.StartSpan(ctx, "grid.tick", opentracing.Tags{
		"inst_id": r.opts.InstID,
		"price":   price.String(),
	})

	var all []models.Trade
	var tickErr error
	for i, p := range r.positions {
		trades, err := r.fillOne(ctx, i, p, price)
		all = append(all, trades...)
		if err != nil {
			tickErr = fmt.Errorf("position %d: %w", i, err)
			break
		}
	}

	r.lastPrice = price
	span.SetTag("trades", len(all))
	tracing.Finish(span, tickErr)

	if r.opts.Metrics != nil {
		r.opts.Metrics.ObserveTick(r.opts.InstID, price.InexactFloat64(), time.Since(started).Seconds())
		if tickErr != nil {
			r.opts.Metrics.TraderError(r.opts.InstID)
		}
		if len(all) > 0 {
			r.opts.Metrics.ObservePositions(r.opts.InstID, r.positions)
		}
	}
	if tickErr != nil {
		logger.Error("[RUNNER] %s @ %s: %v", r.opts.InstID, price, tickErr)
	}
	return all, tickErr
}

func (r *Runner) fillOne(ctx context.Context, idx int, p *models.Position, price decimal.Decimal) (_ []models.Trade, err error) {
	key := fmt.Sprintf("%s:%d", r.opts.InstID, idx)
	if r.opts.Locker != nil {
		if err := r.opts.Locker.Lock(ctx, key, r.opts.LockTTL); err != nil {
			return nil, fmt.Errorf("lock %s: %w", key, err)
		}
		defer func() {
			if uerr := r.opts.Locker.Unlock(context.WithoutCancel(ctx), key); uerr != nil {
				logger.Warn("[LOCK] unlock %s: %v", key, uerr)
			}
		}()
	}

	span, ctx := tracing.StartSpan(ctx, "position.fill", opentracing.Tags{"position": idx})
	defer func() { tracing.Finish(span, err) }()

	trades, err := p.AttemptFill(ctx, r.opts.Trader, price)
	if len(trades) > 0 {
		r.record(ctx, idx, trades)
	}
	return trades, err
}

// record фиксирует применённые сделки. Сбои хранилища и публикации не
// останавливают торговлю: состояние в памяти уже изменено.
func (r *Runner) record(ctx context.Context, idx int, trades []models.Trade) {
	for _, t := range trades {
		r.eval.Add(t)
	}

	if err := r.opts.Store.SaveFill(ctx, r.opts.InstID, trades, r.positions); err != nil {
		logger.Error("[STORE] %s position %d: %v", r.opts.InstID, idx, err)
	}

	events := make([]journal.Event, 0, len(trades))
	for _, t := range trades {
		events = append(events, journal.Event{InstID: r.opts.InstID, Position: idx, Trade: t})
	}
	if err := r.opts.Publisher.Publish(ctx, events); err != nil {
		logger.Error("[JOURNAL] %s position %d: %v", r.opts.InstID, idx, err)
	}

	if r.opts.Metrics != nil {
		r.opts.Metrics.ObserveTrades(r.opts.InstID, trades)
	}

	for _, t := range trades {
		logger.Info("[FILL] %s #%d %s", r.opts.InstID, idx, t)
	}
	if r.opts.Notifier != nil {
		r.opts.Notifier.Send(ctx, formatFill(r.opts.InstID, idx, trades, r.positions[idx]))
	}
}

func formatFill(instID string, idx int, trades []models.Trade, p *models.Position) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💱 %s — позиция #%d\n", instID, idx)
	for _, t := range trades {
		icon := "🟢"
		if t.Side == models.SideSell {
			icon = "🔴"
		}
		fmt.Fprintf(&b, "%s %s %s @ %s = %s\n", icon, t.Side, t.BaseQuantity, t.Price, t.QuoteQuantity.StringFixed(4))
	}
	fmt.Fprintf(&b, "Остаток: base=%s quote=%s", p.BaseQuantity, p.QuoteQuantity.StringFixed(4))
	return b.String()
}

// Run читает тики до отмены ctx или закрытия канала. onTick: хук для health.
func (r *Runner) Run(ctx context.Context, ticks <-chan exchange.Tick, onTick func(time.Time)) {
	logger.Info("[RUNNER] ▶️ %s: старт", r.opts.InstID)
	for {
		select {
		case <-ctx.Done():
			return
		case tick, ok := <-ticks:
			if !ok {
				logger.Warn("[RUNNER] %s: поток тиков закрыт", r.opts.InstID)
				return
			}
			if tick.InstID != r.opts.InstID {
				continue
			}
			if onTick != nil {
				onTick(tick.At)
			}
			logger.Debug("[TICK] %s — %s", tick.InstID, tick.Last)
			_, _ = r.OnTick(ctx, tick.Last)
		}
	}
}

// Snapshot: копия позиций и сводки для чтения снаружи.
func (r *Runner) Snapshot() (models.Positions, models.Evaluate, decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.positions.Clone(), r.eval, r.lastPrice
}

// RoundTripPreview считает MinimalRoundTrip позиции idx на Preview-трейдере.
func (r *Runner) RoundTripPreview(ctx context.Context, idx int) ([]models.Trade, error) {
	r.mu.Lock()
	if idx < 0 || idx >= len(r.positions) {
		n := len(r.positions)
		r.mu.Unlock()
		return nil, fmt.Errorf("position %d out of range [0, %d)", idx, n)
	}
	p := r.positions[idx].Clone()
	r.mu.Unlock()

	if r.opts.Preview == nil {
		return nil, fmt.Errorf("preview trader is not configured")
	}
	return p.MinimalRoundTrip(ctx, r.opts.Preview)
}

// Trades: последние limit сделок инструмента из хранилища.
func (r *Runner) Trades(ctx context.Context, limit int) (models.Trades, error) {
	return r.opts.Store.ListTrades(ctx, r.opts.InstID, limit)
}

// sameBands сравнивает только полосы позиций, без остатков.
func sameBands(a, b models.Positions) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !sameRanges(a[i].BuyingPrices, b[i].BuyingPrices) || !sameRanges(a[i].SellingPrices, b[i].SellingPrices) {
			return false
		}
	}
	return true
}

func sameRanges(a, b []models.Range) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Min().Equal(b[i].Min()) || !a[i].Max().Equal(b[i].Max()) {
			return false
		}
	}
	return true
}
