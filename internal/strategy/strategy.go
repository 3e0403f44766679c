package strategy

import (
	"grid_bot/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	KindGrid        = "grid"
	KindGridPercent = "grid_percent"
)

var (
	ErrInvalidInvestment = errors.New("investment must be > 0")
	ErrInvalidRange      = errors.New("range must be non-empty with a positive lower bound")
	ErrInvalidCopies     = errors.New("copies must be > 0")
	ErrInvalidPercent    = errors.New("percent must be > 0 and percent_lost within [0, 1)")
)

// Strategy раскладывает инвестицию по позициям сетки.
type Strategy interface {
	Name() string
	AssignPositions() models.Positions
}

var (
	one = decimal.NewFromInt(1)
	two = decimal.NewFromInt(2)
)

func validateRange(r models.Range) error {
	if !r.Min().IsPositive() || !r.Min().LessThan(r.Max()) {
		return errors.Wrapf(ErrInvalidRange, "got %s", r)
	}
	return nil
}
