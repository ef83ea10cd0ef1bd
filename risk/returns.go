// Package risk computes market-risk indicators from daily price histories: returns, annualised
// volatility, value-at-risk, expected shortfall, Sharpe ratio, rolling volatility, drawdown and
// correlation.
//
// Every function is a pure computation over its inputs. Several instruments are always aligned
// on their common days (inner join) before being compared.
package risk

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/etnz/riskplan"
	"github.com/etnz/riskplan/date"
)

// TradingDays is the number of trading days per year used to annualise daily figures.
const TradingDays = 252

// Method selects how returns are computed from consecutive prices.
type Method int

const (
	Simple Method = iota // p[i+1]/p[i] - 1
	Log                  // ln(p[i+1]/p[i])
)

func (m Method) String() string {
	switch m {
	case Simple:
		return "simple"
	case Log:
		return "log"
	default:
		panic(fmt.Sprintf("unknown return method %d", m))
	}
}

// ParseMethod parses "simple" or "log".
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "simple", "":
		return Simple, nil
	case "log":
		return Log, nil
	default:
		return Simple, riskplan.Configf("method", s, "must be one of simple or log")
	}
}

// Series is a return series: Values[i] is the move from one price to the next, dated on the
// day of the second price.
type Series struct {
	Days   []date.Date
	Values []float64
}

// Len returns the number of returns.
func (s Series) Len() int { return len(s.Values) }

// Returns computes the return series of a price history. It has one point less than the
// history.
func Returns(prices *date.History[float64], method Method) (Series, error) {
	if prices == nil || prices.Len() < 2 {
		got := 0
		if prices != nil {
			got = prices.Len()
		}
		return Series{}, &riskplan.InsufficientDataError{What: "prices", Need: 2, Got: got}
	}
	var days []date.Date
	var values []float64
	for on, p := range prices.Values() {
		days = append(days, on)
		values = append(values, p)
	}
	return Series{Days: days[1:], Values: returns(values, method)}, nil
}

// returns computes the returns of a slice of prices.
func returns(prices []float64, method Method) []float64 {
	if len(prices) < 2 {
		return nil
	}
	res := make([]float64, len(prices)-1)
	for i := range res {
		ratio := prices[i+1] / prices[i]
		if method == Log {
			res[i] = math.Log(ratio)
		} else {
			res[i] = ratio - 1
		}
	}
	return res
}

// Frame holds the returns of several instruments aligned on the same days.
// Columns[j] is the return series of Instruments[j].
type Frame struct {
	Instruments []string
	Days        []date.Date
	Columns     [][]float64
}

// NewFrame aligns the price histories on their common days, dropping any day missing for at
// least one instrument, and computes the returns of each instrument over those days.
// Instruments are sorted by name.
func NewFrame(histories map[string]*date.History[float64], method Method) (*Frame, error) {
	if len(histories) == 0 {
		return nil, &riskplan.InsufficientDataError{What: "instruments", Need: 1, Got: 0}
	}
	instruments := make([]string, 0, len(histories))
	for ticker := range histories {
		instruments = append(instruments, ticker)
	}
	slices.Sort(instruments)

	list := make([]*date.History[float64], len(instruments))
	for i, ticker := range instruments {
		if histories[ticker] == nil {
			return nil, &riskplan.InsufficientDataError{What: "prices of " + ticker, Need: 2, Got: 0}
		}
		list[i] = histories[ticker]
	}
	days, prices := date.Join(list...)
	if len(days) < 2 {
		return nil, &riskplan.InsufficientDataError{What: "common days of " + strings.Join(instruments, ", "), Need: 2, Got: len(days)}
	}

	f := &Frame{
		Instruments: instruments,
		Days:        days[1:],
		Columns:     make([][]float64, len(instruments)),
	}
	for j := range instruments {
		f.Columns[j] = returns(prices[j], method)
	}
	return f, nil
}

// Len returns the number of aligned observations.
func (f *Frame) Len() int { return len(f.Days) }

// Column returns the returns of ticker, or nil.
func (f *Frame) Column(ticker string) []float64 {
	if j := slices.Index(f.Instruments, ticker); j >= 0 {
		return f.Columns[j]
	}
	return nil
}
