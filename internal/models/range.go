package models

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Range хранит пару границ без порядка, Min/Max вычисляются на лету.
type Range struct {
	A decimal.Decimal
	B decimal.Decimal
}

func NewRange(a, b decimal.Decimal) Range {
	return Range{A: a, B: b}
}

// ParseRange собирает Range из строк конфига.
func ParseRange(a, b string) (Range, error) {
	da, err := decimal.NewFromString(a)
	if err != nil {
		return Range{}, fmt.Errorf("range bound %q: %w", a, err)
	}
	db, err := decimal.NewFromString(b)
	if err != nil {
		return Range{}, fmt.Errorf("range bound %q: %w", b, err)
	}
	return NewRange(da, db), nil
}

func (r Range) Min() decimal.Decimal {
	return decimal.Min(r.A, r.B)
}

func (r Range) Max() decimal.Decimal {
	return decimal.Max(r.A, r.B)
}

// Contains проверяет Min <= v <= Max, обе границы включительно.
func (r Range) Contains(v decimal.Decimal) bool {
	return v.GreaterThanOrEqual(r.Min()) && v.LessThanOrEqual(r.Max())
}

func (r Range) Equal(o Range) bool {
	return r.A.Equal(o.A) && r.B.Equal(o.B)
}

func (r Range) String() string {
	return fmt.Sprintf("[%s, %s]", r.A, r.B)
}

// ContainsAny: попадает ли v хотя бы в одну полосу.
func ContainsAny(ranges []Range, v decimal.Decimal) bool {
	for _, r := range ranges {
		if r.Contains(v) {
			return true
		}
	}
	return false
}

func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]decimal.Decimal{r.A, r.B})
}

func (r *Range) UnmarshalJSON(data []byte) error {
	var pair []decimal.Decimal
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("range: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("range: expected 2 bounds, got %d", len(pair))
	}
	r.A, r.B = pair[0], pair[1]
	return nil
}

func (r Range) MarshalYAML() (interface{}, error) {
	return []string{r.A.String(), r.B.String()}, nil
}

func (r *Range) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var pair []decimal.Decimal
	if err := unmarshal(&pair); err != nil {
		return fmt.Errorf("range: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("range: expected 2 bounds, got %d", len(pair))
	}
	r.A, r.B = pair[0], pair[1]
	return nil
}
