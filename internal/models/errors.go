package models

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrInvalidPrice    = errors.New("invalid price: must be > 0")
	ErrInvalidQuantity = errors.New("invalid quantity: must be >= 0")
	// ErrNoBand: у позиции нет ни одной полосы покупки или продажи.
	ErrNoBand      = errors.New("position has no buying or selling band")
	ErrUnknownSide = errors.New("unknown trade side")
)

// TraderError: непрозрачный отказ площадки (reject, сеть, лимиты).
type TraderError struct {
	Op  string
	Err error
}

func (e *TraderError) Error() string {
	return fmt.Sprintf("trader %s: %v", e.Op, e.Err)
}

func (e *TraderError) Unwrap() error { return e.Err }
