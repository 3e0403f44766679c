package strategy

import (
	"grid_bot/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const gridScale = 6

// Grid делит диапазон на Copies+1 равных интервалов и даёт каждой копии
// равную долю инвестиции.
type Grid struct {
	Investment decimal.Decimal `json:"investment" yaml:"investment"`
	Range      models.Range    `json:"range" yaml:"range"`
	Copies     int             `json:"copies" yaml:"copies"`
}

func NewGrid(investment decimal.Decimal, r models.Range, copies int) Grid {
	return Grid{Investment: investment, Range: r, Copies: copies}
}

func (g Grid) Name() string { return KindGrid }

func (g Grid) Validate() error {
	if !g.Investment.IsPositive() {
		return errors.Wrapf(ErrInvalidInvestment, "got %s", g.Investment)
	}
	if g.Copies <= 0 {
		return errors.Wrapf(ErrInvalidCopies, "got %d", g.Copies)
	}
	return validateRange(g.Range)
}

// AssignPositions: позиция i покупает в [lo+i·iv, lo+i·iv+iv/2] и продаёт
// в [lo+(i+2)·iv−iv/2, hi]. Интервал и доля усечены до 6 знаков.
func (g Grid) AssignPositions() models.Positions {
	if g.Copies <= 0 {
		return models.Positions{}
	}

	copies := decimal.NewFromInt(int64(g.Copies))
	lo, hi := g.Range.Min(), g.Range.Max()

	interval := hi.Sub(lo).Div(copies.Add(one)).Truncate(gridScale)
	slice := g.Investment.Div(copies).Truncate(gridScale)
	half := interval.Div(two)

	out := make(models.Positions, 0, g.Copies)
	for i := 0; i < g.Copies; i++ {
		buying := lo.Add(interval.Mul(decimal.NewFromInt(int64(i))))
		selling := lo.Add(interval.Mul(decimal.NewFromInt(int64(i + 2))))

		out = append(out, &models.Position{
			BuyingPrices:  []models.Range{models.NewRange(buying, buying.Add(half))},
			SellingPrices: []models.Range{models.NewRange(selling.Sub(half), hi)},
			BaseQuantity:  decimal.Zero,
			QuoteQuantity: slice,
		})
	}
	return out
}
