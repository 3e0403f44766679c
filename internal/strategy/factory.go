package strategy

import (
	"fmt"

	"grid_bot/internal/models"

	"github.com/shopspring/decimal"
)

// Params: параметры сетки как они приходят из конфига или CLI. Денежные
// величины строками, чтобы не терять точность до разбора.
type Params struct {
	Kind        string
	Investment  string
	Range       []string
	Copies      int
	Percent     string
	PercentLost string
}

// New собирает стратегию из параметров и проверяет их.
func New(cfg Params) (Strategy, error) {
	if len(cfg.Range) != 2 {
		return nil, fmt.Errorf("strategy: range must have 2 bounds, got %d", len(cfg.Range))
	}
	r, err := models.ParseRange(cfg.Range[0], cfg.Range[1])
	if err != nil {
		return nil, fmt.Errorf("strategy: %w", err)
	}
	investment, err := parseDecimal("investment", cfg.Investment)
	if err != nil {
		return nil, err
	}

	switch cfg.Kind {
	case KindGrid, "":
		g := NewGrid(investment, r, cfg.Copies)
		if err := g.Validate(); err != nil {
			return nil, fmt.Errorf("strategy grid: %w", err)
		}
		return g, nil

	case KindGridPercent:
		percent, err := parseDecimal("percent", cfg.Percent)
		if err != nil {
			return nil, err
		}
		lost, err := parseDecimal("percent_lost", cfg.PercentLost)
		if err != nil {
			return nil, err
		}
		g := NewGridPercent(investment, r, percent, lost)
		if err := g.Validate(); err != nil {
			return nil, fmt.Errorf("strategy grid_percent: %w", err)
		}
		return g, nil

	default:
		return nil, fmt.Errorf("strategy: unknown kind %q", cfg.Kind)
	}
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("strategy: %s %q: %w", field, s, err)
	}
	return v, nil
}
