package models

import (
	"github.com/shopspring/decimal"
)

// Rounder is the currency rounding policy shared by every money
// calculation in the system. Places is a deployment choice (0 for whole
// currency units, 2 for cents) and must be the same everywhere so
// intermediate roundings never drift.
type Rounder struct {
	Places int32
}

// DefaultRounder rounds to cents.
var DefaultRounder = Rounder{Places: 2}

// Round applies the configured precision with half-up rounding.
func (r Rounder) Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(r.Places)
}
