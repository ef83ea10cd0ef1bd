package risk

import (
	"fmt"
	"math"
	"slices"

	"github.com/etnz/riskplan/date"
)

// Options parameterise the metrics table.
type Options struct {
	Method       Method
	Confidences  []float64 // defaults to DefaultConfidences
	Windows      []int     // defaults to DefaultWindows
	RiskFreeRate float64   // annual
	TradingDays  int       // defaults to TradingDays
}

func (o Options) withDefaults() Options {
	if len(o.Confidences) == 0 {
		o.Confidences = DefaultConfidences
	}
	if len(o.Windows) == 0 {
		o.Windows = DefaultWindows
	}
	if o.TradingDays <= 0 {
		o.TradingDays = TradingDays
	}
	return o
}

// Metrics are the risk indicators of a single instrument.
//
// VaR slices are aligned with Confidences, rolling volatilities with Windows. A window longer
// than the series is reported as NaN.
type Metrics struct {
	Instrument           string
	Observations         int
	AnnualizedVolatility float64
	Confidences          []float64
	ParametricVaR        []float64
	HistoricalVaR        []float64
	ConditionalVaR       []float64
	SharpeRatio          float64
	MaxDrawdown          float64
	Windows              []int
	RollingVolatility    []float64 // latest value per window

	Err error // set when the instrument could not be measured, other fields are then zero
}

// Table computes the metrics of each instrument from its own price history.
//
// Instruments are measured independently: an instrument that fails carries its error in
// Metrics.Err, and does not prevent the others from being measured. Rows are sorted by
// instrument.
func Table(histories map[string]*date.History[float64], opts Options) []Metrics {
	opts = opts.withDefaults()
	tickers := make([]string, 0, len(histories))
	for ticker := range histories {
		tickers = append(tickers, ticker)
	}
	slices.Sort(tickers)

	table := make([]Metrics, 0, len(tickers))
	for _, ticker := range tickers {
		m, err := measure(histories[ticker], opts)
		if err != nil {
			m = Metrics{Err: fmt.Errorf("cannot measure %q: %w", ticker, err)}
		}
		m.Instrument = ticker
		table = append(table, m)
	}
	return table
}

// measure computes the metrics of a single price history.
func measure(prices *date.History[float64], opts Options) (Metrics, error) {
	s, err := Returns(prices, opts.Method)
	if err != nil {
		return Metrics{}, err
	}
	r := s.Values
	m := Metrics{
		Observations: len(r),
		Confidences:  opts.Confidences,
		Windows:      opts.Windows,
	}
	if m.AnnualizedVolatility, err = AnnualizedVolatility(r, opts.TradingDays); err != nil {
		return Metrics{}, err
	}
	for _, c := range opts.Confidences {
		p, err := ParametricVaR(r, c)
		if err != nil {
			return Metrics{}, err
		}
		h, err := HistoricalVaR(r, c)
		if err != nil {
			return Metrics{}, err
		}
		cvar, err := ConditionalVaR(r, c)
		if err != nil {
			return Metrics{}, err
		}
		m.ParametricVaR = append(m.ParametricVaR, p)
		m.HistoricalVaR = append(m.HistoricalVaR, h)
		m.ConditionalVaR = append(m.ConditionalVaR, cvar)
	}
	if m.SharpeRatio, err = SharpeRatio(r, opts.RiskFreeRate, opts.TradingDays); err != nil {
		return Metrics{}, err
	}
	if m.MaxDrawdown, err = MaxDrawdown(prices); err != nil {
		return Metrics{}, err
	}
	for _, w := range opts.Windows {
		vol, err := LatestRollingVolatility(r, w, opts.TradingDays)
		if err != nil {
			vol = math.NaN() // not enough history for that window
		}
		m.RollingVolatility = append(m.RollingVolatility, vol)
	}
	return m, nil
}
