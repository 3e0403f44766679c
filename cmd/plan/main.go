package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"grid_bot/internal/exchange"
	"grid_bot/internal/models"
	"grid_bot/internal/modules/config"
	"grid_bot/internal/strategy"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

const defaultConfigFile = "configs/values_local.yaml"

type roundTrip struct {
	Position int             `json:"position" yaml:"position"`
	Trades   models.Trades   `json:"trades" yaml:"trades"`
	Base     decimal.Decimal `json:"base" yaml:"base"`
	Quote    decimal.Decimal `json:"quote" yaml:"quote"`
	Error    string          `json:"error,omitempty" yaml:"error,omitempty"`
}

type plan struct {
	Strategy   string           `json:"strategy" yaml:"strategy"`
	InstID     string           `json:"inst_id" yaml:"inst_id"`
	Positions  models.Positions `json:"positions" yaml:"positions"`
	RoundTrips []roundTrip      `json:"round_trips,omitempty" yaml:"round_trips,omitempty"`
}

func buildPlan(ctx context.Context, cfg *config.Config, withRoundTrip bool) (plan, error) {
	s, err := strategy.New(cfg.Strategy.Params())
	if err != nil {
		return plan{}, errors.Wrap(err, "build strategy")
	}

	p := plan{
		Strategy:  s.Name(),
		InstID:    cfg.Trader.InstID,
		Positions: s.AssignPositions(),
	}
	if !withRoundTrip {
		return p, nil
	}

	commission, err := decimal.NewFromString(cfg.Trader.Commission)
	if err != nil {
		return plan{}, errors.Wrapf(err, "trader.commission %q", cfg.Trader.Commission)
	}
	trader := exchange.NewPaperTrader(exchange.PaperConfig{Commission: commission})

	for i, pos := range p.Positions {
		rt := roundTrip{Position: i}
		trades, err := pos.Clone().MinimalRoundTrip(ctx, trader)
		if err != nil {
			rt.Error = err.Error()
		} else {
			rt.Trades = trades
			rt.Base, rt.Quote = models.Trades(trades).Profit()
		}
		p.RoundTrips = append(p.RoundTrips, rt)
	}
	return p, nil
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.String("config", defaultConfigFile, "yaml с секцией strategy")
	withRoundTrip := fs.Bool("roundtrip", false, "посчитать минимальный круг каждой позиции на paper-трейдере")
	format := fs.String("format", "yaml", "yaml или json")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	p, err := buildPlan(context.Background(), cfg, *withRoundTrip)
	if err != nil {
		return err
	}

	var bs []byte
	switch *format {
	case "yaml":
		bs, err = yaml.Marshal(p)
	case "json":
		bs, err = sonic.ConfigStd.MarshalIndent(p, "", "  ")
		bs = append(bs, '\n')
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
	if err != nil {
		return errors.Wrap(err, "marshal plan")
	}
	_, err = out.Write(bs)
	return err
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
