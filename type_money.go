package riskplan

import (
	"math"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money represents a monetary value, used to display simulated wealth.
//
// The simulation works in float64, Money is only built at the edge, for display and export.
type Money struct {
	value decimal.Decimal // as major unit value
	cur   string
	nan   bool // the float it was built from was not a number
}

// M returns the Money worth value in currency.
func M(value float64, currency string) Money {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Money{cur: currency, nan: true}
	}
	return Money{value: decimal.NewFromFloat(value), cur: currency}
}

// currency returns the money's currency
func (m Money) currency() money.Currency {
	// to get a never nil currency I need to call the Money constructor
	return *money.New(0, m.cur).Currency()
}

// String returns the value formatted the way the currency is usually written, rounded to its
// minor unit.
func (m Money) String() string {
	if m.nan {
		return "n/a"
	}
	cur := m.currency()
	dec := m.value.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(dec.IntPart())
}

func (m Money) Currency() string { return m.cur }
func (m Money) IsNaN() bool      { return m.nan }

// Float returns the value as a float64, NaN if it is not a number.
func (m Money) Float() float64 {
	if m.nan {
		return math.NaN()
	}
	return m.value.InexactFloat64()
}

func (m Money) MarshalJSON() ([]byte, error) {
	var w ObjectWriter
	w.Optional("currency", m.cur)
	if m.nan {
		w.Append("amount", nil)
		return w.MarshalJSON()
	}
	w.Append("amount", m.value.Round(int32(m.currency().Fraction)))
	return w.MarshalJSON()
}
