package exchange

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
)

const pathInstruments = "/api/v5/public/instruments"

// Instrument: торговые шаги спотового инструмента OKX.
type Instrument struct {
	InstID string
	LotSz  decimal.Decimal
	MinSz  decimal.Decimal
	TickSz decimal.Decimal
}

type instrumentRaw struct {
	InstID string `json:"instId"`
	State  string `json:"state"`
	LotSz  string `json:"lotSz"`
	MinSz  string `json:"minSz"`
	TickSz string `json:"tickSz"`
}

func (c *Client) Instrument(ctx context.Context, instID string) (Instrument, error) {
	q := url.Values{}
	q.Set("instType", "SPOT")
	q.Set("instId", instID)

	var res []instrumentRaw
	if err := c.do(ctx, http.MethodGet, pathInstruments, q, nil, &res); err != nil {
		return Instrument{}, err
	}
	if len(res) == 0 {
		return Instrument{}, fmt.Errorf("instrument %s not found", instID)
	}

	raw := res[0]
	if raw.State != "" && raw.State != "live" {
		return Instrument{}, fmt.Errorf("instrument %s not live: state=%s", instID, raw.State)
	}

	parsePos := func(name, s string) (decimal.Decimal, error) {
		v, err := decimal.NewFromString(s)
		if err != nil || !v.IsPositive() {
			return decimal.Zero, fmt.Errorf("%s %s: bad value %q", instID, name, s)
		}
		return v, nil
	}

	inst := Instrument{InstID: raw.InstID}
	var err error
	if inst.LotSz, err = parsePos("lotSz", raw.LotSz); err != nil {
		return Instrument{}, err
	}
	if inst.MinSz, err = parsePos("minSz", raw.MinSz); err != nil {
		return Instrument{}, err
	}
	if inst.TickSz, err = parsePos("tickSz", raw.TickSz); err != nil {
		return Instrument{}, err
	}
	return inst, nil
}

// RoundSize опускает размер до кратного LotSz. Ниже MinSz: ноль.
func (i Instrument) RoundSize(size decimal.Decimal) decimal.Decimal {
	if i.LotSz.IsPositive() {
		size = size.Div(i.LotSz).Floor().Mul(i.LotSz)
	}
	if i.MinSz.IsPositive() && size.LessThan(i.MinSz) {
		return decimal.Zero
	}
	return size
}
