package riskplan

import (
	"fmt"
	"slices"

	"github.com/etnz/riskplan/date"
)

// Market holds the daily closing prices of a set of instruments.
type Market struct {
	tickers []string // sorted
	prices  map[string]*date.History[float64]
}

// NewMarket returns a new empty market.
func NewMarket() *Market {
	return &Market{
		tickers: make([]string, 0),
		prices:  make(map[string]*date.History[float64]),
	}
}

// Has returns true if the market contains prices for ticker.
func (m *Market) Has(ticker string) bool {
	_, ok := m.prices[ticker]
	return ok
}

// Tickers returns the instruments of the market, sorted.
func (m *Market) Tickers() []string { return slices.Clone(m.tickers) }

// Prices returns the price history of ticker, or nil.
func (m *Market) Prices(ticker string) *date.History[float64] { return m.prices[ticker] }

// Append records the price of ticker on a given day.
func (m *Market) Append(ticker string, on date.Date, price float64) {
	h, ok := m.prices[ticker]
	if !ok {
		h = new(date.History[float64])
		m.prices[ticker] = h
		i, _ := slices.BinarySearch(m.tickers, ticker)
		m.tickers = slices.Insert(m.tickers, i, ticker)
	}
	h.Append(on, price)
}

// Latest returns the last day with a price for any instrument.
func (m *Market) Latest() date.Date {
	var latest date.Date
	for _, h := range m.prices {
		if on, _ := h.Latest(); on.After(latest) {
			latest = on
		}
	}
	return latest
}

// Select returns a market restricted to the given tickers, in that order.
// An empty list selects every instrument.
func (m *Market) Select(tickers ...string) (*Market, error) {
	if len(tickers) == 0 {
		return m, nil
	}
	sub := NewMarket()
	for _, ticker := range tickers {
		h, ok := m.prices[ticker]
		if !ok {
			return nil, fmt.Errorf("unknown ticker %q", ticker)
		}
		if sub.Has(ticker) {
			continue
		}
		sub.prices[ticker] = h
		sub.tickers = append(sub.tickers, ticker)
	}
	slices.Sort(sub.tickers)
	return sub, nil
}

// Window returns a market restricted to the days in r.
func (m *Market) Window(r date.Range) *Market {
	sub := NewMarket()
	for _, ticker := range m.tickers {
		sub.prices[ticker] = m.prices[ticker].Within(r)
		sub.tickers = append(sub.tickers, ticker)
	}
	return sub
}

// Lookback returns the market restricted to the lookback window ending on the latest day, as
// described by rel (e.g. "-6m").
func (m *Market) Lookback(rel string) (*Market, date.Range, error) {
	r, err := date.Lookback(m.Latest(), rel)
	if err != nil {
		return nil, r, Configf("lookback", rel, "%v", err)
	}
	return m.Window(r), r, nil
}

// Histories returns the price histories indexed by ticker.
func (m *Market) Histories() map[string]*date.History[float64] {
	res := make(map[string]*date.History[float64], len(m.prices))
	for ticker, h := range m.prices {
		res[ticker] = h
	}
	return res
}
