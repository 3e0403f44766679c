package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"grid_bot/internal/exchange"
	"grid_bot/internal/journal"
	"grid_bot/internal/models"
	"grid_bot/internal/modules/config"
	"grid_bot/internal/runner"
	"grid_bot/internal/storage/memory"
	"grid_bot/internal/strategy"
	"grid_bot/pkg/logger"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

type report struct {
	Strategy  string           `yaml:"strategy"`
	InstID    string           `yaml:"inst_id"`
	Ticks     int              `yaml:"ticks"`
	LastPrice decimal.Decimal  `yaml:"last_price"`
	Evaluate  models.Evaluate  `yaml:"evaluate"`
	Positions models.Positions `yaml:"positions"`
	// Equity: quote + base по последней цене.
	Equity decimal.Decimal `yaml:"equity"`
}

// readPrices читает по цене на строку. Допускается "ts,price": берётся
// последняя колонка. Пустые строки и # пропускаются.
func readPrices(r io.Reader) ([]decimal.Decimal, error) {
	var out []decimal.Decimal
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		if i := strings.LastIndexByte(s, ','); i >= 0 {
			s = strings.TrimSpace(s[i+1:])
		}
		p, err := decimal.NewFromString(s)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		out = append(out, p)
	}
	return out, sc.Err()
}

func backtest(ctx context.Context, cfg *config.Config, prices []decimal.Decimal) (report, error) {
	s, err := strategy.New(cfg.Strategy.Params())
	if err != nil {
		return report{}, errors.Wrap(err, "build strategy")
	}
	commission, err := decimal.NewFromString(cfg.Trader.Commission)
	if err != nil {
		return report{}, errors.Wrapf(err, "trader.commission %q", cfg.Trader.Commission)
	}

	trader := exchange.NewPaperTrader(exchange.PaperConfig{
		Commission:   commission,
		MaxFillParts: cfg.Trader.MaxFillParts,
	})
	r := runner.New(runner.Options{
		InstID:    cfg.Trader.InstID,
		Strategy:  s,
		Trader:    trader,
		Store:     memory.New(),
		Publisher: journal.Nop{},
	})
	if err := r.Restore(ctx); err != nil {
		return report{}, err
	}

	for i, p := range prices {
		if _, err := r.OnTick(ctx, p); err != nil {
			return report{}, errors.Wrapf(err, "tick %d @ %s", i, p)
		}
	}

	ps, ev, last := r.Snapshot()
	base, quote := ps.Totals()
	return report{
		Strategy:  s.Name(),
		InstID:    cfg.Trader.InstID,
		Ticks:     len(prices),
		LastPrice: last,
		Evaluate:  ev,
		Positions: ps,
		Equity:    quote.Add(base.Mul(last)),
	}, nil
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("backtest", flag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.String("config", "configs/values_local.yaml", "yaml с секциями strategy и trader")
	pricesPath := fs.String("prices", "", "файл цен, по одной на строку; - для stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *pricesPath == "" {
		return errors.New("-prices is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	var in io.Reader = os.Stdin
	if *pricesPath != "-" {
		f, err := os.Open(*pricesPath)
		if err != nil {
			return errors.Wrap(err, "open prices")
		}
		defer f.Close()
		in = f
	}
	prices, err := readPrices(in)
	if err != nil {
		return errors.Wrap(err, "read prices")
	}

	rep, err := backtest(context.Background(), cfg, prices)
	if err != nil {
		return err
	}
	bs, err := yaml.Marshal(rep)
	if err != nil {
		return errors.Wrap(err, "marshal report")
	}
	_, err = out.Write(bs)
	return err
}

func main() {
	if err := logger.Init("warn"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
