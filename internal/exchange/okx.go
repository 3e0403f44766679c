package exchange

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"grid_bot/internal/models"
	"grid_bot/pkg/logger"

	"github.com/shopspring/decimal"
)

const (
	pathPlaceOrder = "/api/v5/trade/order"
	pathFills      = "/api/v5/trade/fills"

	sizeScale = 8

	recoverTimeout = 5 * time.Second
)

// OKXTrader ставит IOC-лимитки на споте OKX и возвращает исполнения по ордеру.
type OKXTrader struct {
	c         *Client
	instID    string
	baseCcy   string
	quoteCcy  string
	pollEvery time.Duration
	pollTimes int
	inst      Instrument
}

var _ models.Trader = (*OKXTrader)(nil)

func NewOKXTrader(c *Client, instID string) *OKXTrader {
	base, quote, _ := strings.Cut(instID, "-")
	return &OKXTrader{
		c:         c,
		instID:    instID,
		baseCcy:   base,
		quoteCcy:  quote,
		pollEvery: 300 * time.Millisecond,
		pollTimes: 10,
	}
}

// LoadInstrument подтягивает lotSz/minSz, дальше размеры ордеров округляются по ним.
func (o *OKXTrader) LoadInstrument(ctx context.Context) (Instrument, error) {
	inst, err := o.c.Instrument(ctx, o.instID)
	if err != nil {
		return Instrument{}, err
	}
	o.inst = inst
	return inst, nil
}

type orderState struct {
	OrdID string `json:"ordId"`
	State string `json:"state"`
	SCode string `json:"sCode"`
	SMsg  string `json:"sMsg"`
}

type fill struct {
	TradeID string `json:"tradeId"`
	OrdID   string `json:"ordId"`
	Side    string `json:"side"`
	FillPx  string `json:"fillPx"`
	FillSz  string `json:"fillSz"`
	Fee     string `json:"fee"`
	FeeCcy  string `json:"feeCcy"`
	Ts      string `json:"ts"`
}

func (o *OKXTrader) Buy(ctx context.Context, price, quote decimal.Decimal) ([]models.Trade, error) {
	if err := checkOrder(price, quote); err != nil {
		return nil, err
	}
	size := o.inst.RoundSize(quote.Div(price).Truncate(sizeScale))
	if !size.IsPositive() {
		return nil, nil
	}
	trades, err := o.execute(ctx, "buy", price, size)
	if err != nil {
		return nil, &models.TraderError{Op: "okx buy", Err: err}
	}
	return trades, nil
}

// Sell продаёт кратное lotSz. Остаток меньше шага продать нельзя, он списывается
// отдельной сделкой с нулевым quote, иначе позиция никогда не станет IsShort.
func (o *OKXTrader) Sell(ctx context.Context, price, base decimal.Decimal) ([]models.Trade, error) {
	if err := checkOrder(price, base); err != nil {
		return nil, err
	}
	size := o.inst.RoundSize(base.Truncate(sizeScale))
	dust := base.Sub(size)
	if !size.IsPositive() {
		if !dust.IsPositive() {
			return nil, nil
		}
		return []models.Trade{o.writeOff(price, dust)}, nil
	}

	trades, err := o.execute(ctx, "sell", price, size)
	if err != nil {
		return nil, &models.TraderError{Op: "okx sell", Err: err}
	}

	sold := decimal.Zero
	for _, t := range trades {
		sold = sold.Add(t.BaseQuantity)
	}
	// частичное исполнение: остаток ещё продаётся на следующих тиках
	if dust.IsPositive() && sold.GreaterThanOrEqual(size) {
		trades = append(trades, o.writeOff(price, dust))
	}
	return trades, nil
}

func (o *OKXTrader) writeOff(price, dust decimal.Decimal) models.Trade {
	logger.Warn("[OKX] %s: write off %s %s below lot size", o.instID, dust, o.baseCcy)
	return models.NewSellTrade(price, dust, decimal.Zero)
}

func checkOrder(price, qty decimal.Decimal) error {
	if !price.IsPositive() {
		return models.ErrInvalidPrice
	}
	if qty.IsNegative() {
		return models.ErrInvalidQuantity
	}
	return nil
}

func (o *OKXTrader) execute(ctx context.Context, side string, price, size decimal.Decimal) ([]models.Trade, error) {
	ordID, err := o.place(ctx, side, price, size)
	if err != nil {
		return nil, err
	}

	if err := o.await(ctx, ordID); err != nil {
		return o.recoverFills(ctx, ordID, err)
	}
	return o.fills(ctx, ordID)
}

// await ждёт финального состояния ордера: IOC закрывается сразу, но fills появляются с задержкой.
func (o *OKXTrader) await(ctx context.Context, ordID string) error {
	for i := 0; i < o.pollTimes; i++ {
		st, err := o.order(ctx, ordID)
		if err != nil {
			return err
		}
		if st.State == "filled" || st.State == "canceled" {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(o.pollEvery):
		}
	}
	return fmt.Errorf("order %s not finished after %d polls", ordID, o.pollTimes)
}

// recoverFills: ордер уже на площадке, поэтому исполнения забираются даже после
// отмены ctx. Пусто: возвращается исходная ошибка.
func (o *OKXTrader) recoverFills(ctx context.Context, ordID string, cause error) ([]models.Trade, error) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recoverTimeout)
	defer cancel()

	trades, err := o.fills(rctx, ordID)
	if err != nil {
		logger.Error("[OKX] order %s: fills after %v: %v", ordID, cause, err)
		return nil, cause
	}
	if len(trades) == 0 {
		return nil, cause
	}
	logger.Warn("[OKX] order %s: %v, recovered %d fills", ordID, cause, len(trades))
	return trades, nil
}

func (o *OKXTrader) place(ctx context.Context, side string, price, size decimal.Decimal) (string, error) {
	body := map[string]string{
		"instId":  o.instID,
		"tdMode":  "cash",
		"side":    side,
		"ordType": "ioc",
		"px":      price.String(),
		"sz":      size.String(),
	}

	var res []orderState
	if err := o.c.do(ctx, http.MethodPost, pathPlaceOrder, nil, body, &res); err != nil {
		return "", err
	}
	if len(res) == 0 {
		return "", fmt.Errorf("place order: empty data")
	}
	if res[0].SCode != "" && res[0].SCode != "0" {
		return "", &APIError{Code: res[0].SCode, Msg: res[0].SMsg}
	}
	return res[0].OrdID, nil
}

func (o *OKXTrader) order(ctx context.Context, ordID string) (orderState, error) {
	q := url.Values{}
	q.Set("instId", o.instID)
	q.Set("ordId", ordID)

	var res []orderState
	if err := o.c.do(ctx, http.MethodGet, pathPlaceOrder, q, nil, &res); err != nil {
		return orderState{}, err
	}
	if len(res) == 0 {
		return orderState{}, fmt.Errorf("order %s: empty data", ordID)
	}
	return res[0], nil
}

func (o *OKXTrader) fills(ctx context.Context, ordID string) ([]models.Trade, error) {
	q := url.Values{}
	q.Set("instType", "SPOT")
	q.Set("instId", o.instID)
	q.Set("ordId", ordID)

	var res []fill
	if err := o.c.do(ctx, http.MethodGet, pathFills, q, nil, &res); err != nil {
		return nil, err
	}

	out := make([]models.Trade, 0, len(res))
	for _, f := range res {
		tr, err := o.toTrade(f)
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, nil
}

// toTrade переводит fill в Trade. Комиссия OKX приходит отрицательной
// в валюте получаемой стороны и вычитается из неё.
func (o *OKXTrader) toTrade(f fill) (models.Trade, error) {
	px, err := decimal.NewFromString(f.FillPx)
	if err != nil {
		return models.Trade{}, fmt.Errorf("fill %s px %q: %w", f.TradeID, f.FillPx, err)
	}
	sz, err := decimal.NewFromString(f.FillSz)
	if err != nil {
		return models.Trade{}, fmt.Errorf("fill %s sz %q: %w", f.TradeID, f.FillSz, err)
	}
	fee := decimal.Zero
	if f.Fee != "" {
		if fee, err = decimal.NewFromString(f.Fee); err != nil {
			return models.Trade{}, fmt.Errorf("fill %s fee %q: %w", f.TradeID, f.Fee, err)
		}
	}
	fee = fee.Abs()

	var ts int64
	if f.Ts != "" {
		if v, err := decimal.NewFromString(f.Ts); err == nil {
			ts = v.IntPart()
		}
	}

	base, quote := sz, sz.Mul(px)
	switch f.Side {
	case "buy":
		if f.FeeCcy == o.baseCcy {
			base = base.Sub(fee)
		}
		return models.NewTrade(models.SideBuy, px, base, quote, ts), nil
	case "sell":
		if f.FeeCcy == o.quoteCcy {
			quote = quote.Sub(fee)
		}
		return models.NewTrade(models.SideSell, px, base, quote, ts), nil
	}
	return models.Trade{}, fmt.Errorf("fill %s: unknown side %q", f.TradeID, f.Side)
}
