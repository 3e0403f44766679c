package strategy

import (
	"grid_bot/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const ladderScale = 12

// GridPercent строит геометрическую лестницу цен с шагом Percent и режет её на
// непересекающиеся окна по 4 цены. PercentLost в (0, 1) добавляет стоп-лосс полосу.
type GridPercent struct {
	Investment  decimal.Decimal `json:"investment" yaml:"investment"`
	Range       models.Range    `json:"range" yaml:"range"`
	Percent     decimal.Decimal `json:"percent" yaml:"percent"`
	PercentLost decimal.Decimal `json:"percent_lost" yaml:"percent_lost"`
}

func NewGridPercent(investment decimal.Decimal, r models.Range, percent, percentLost decimal.Decimal) GridPercent {
	return GridPercent{Investment: investment, Range: r, Percent: percent, PercentLost: percentLost}
}

func (g GridPercent) Name() string { return KindGridPercent }

func (g GridPercent) Validate() error {
	if !g.Investment.IsPositive() {
		return errors.Wrapf(ErrInvalidInvestment, "got %s", g.Investment)
	}
	if !g.Percent.IsPositive() || g.PercentLost.IsNegative() || g.PercentLost.GreaterThanOrEqual(one) {
		return errors.Wrapf(ErrInvalidPercent, "percent %s, percent_lost %s", g.Percent, g.PercentLost)
	}
	return validateRange(g.Range)
}

// Ladder: цены от Min с шагом ×(1+Percent), усечение до 12 знаков,
// первая цена >= Max не входит.
func (g GridPercent) Ladder() []decimal.Decimal {
	lo, hi := g.Range.Min(), g.Range.Max()
	// без роста лестница не закончится
	if !g.Percent.IsPositive() || !lo.IsPositive() {
		return nil
	}

	step := one.Add(g.Percent)
	prices := []decimal.Decimal{lo}
	for {
		last := prices[len(prices)-1]
		next := last.Mul(step).Truncate(ladderScale)
		// шаг меньше 1e-12 после усечения: лестница стоит на месте
		if next.GreaterThanOrEqual(hi) || !next.GreaterThan(last) {
			break
		}
		prices = append(prices, next)
	}
	return prices
}

// AssignPositions: окно [p0 p1 p2 p3] даёт покупку [p0, p1] и продажу [p2, Max];
// p3 нужна только как признак полного окна. Следующее окно начинается с p4.
func (g GridPercent) AssignPositions() models.Positions {
	prices := g.Ladder()
	hi := g.Range.Max()
	keep := one.Sub(g.PercentLost)
	withStop := keep.IsPositive() && keep.LessThan(one)

	out := models.Positions{}
	for k := 0; k+3 < len(prices); k += 4 {
		sellLow := prices[k+2]

		selling := []models.Range{models.NewRange(sellLow, hi)}
		if withStop {
			selling = append(selling, models.NewRange(decimal.Zero, sellLow.Mul(keep)))
		}

		out = append(out, &models.Position{
			BuyingPrices:  []models.Range{models.NewRange(prices[k], prices[k+1])},
			SellingPrices: selling,
			BaseQuantity:  decimal.Zero,
			QuoteQuantity: g.Investment,
		})
	}
	return out
}
