package riskplan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etnz/riskplan/date"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(filename, []byte(content), 0o644))
	return filename
}

func TestDecodeMarketJSONL(t *testing.T) {
	filename := writeFile(t, "prices.jsonl", `{"on":"2025-01-03","AAA":10.5,"BBB":20}
{"on":"2025-01-02","AAA":10,"BBB":null}

{"on":"2025-1-6","AAA":11,"BBB":21}
`)
	m, err := DecodeMarket(filename, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"AAA", "BBB"}, m.Tickers())
	assert.Equal(t, 3, m.Prices("AAA").Len())
	assert.Equal(t, 2, m.Prices("BBB").Len())
	assert.Equal(t, date.New(2025, 1, 6), m.Latest())

	first, price := m.Prices("AAA").First()
	assert.Equal(t, date.New(2025, 1, 2), first)
	assert.Equal(t, 10.0, price)
}

func TestDecodeMarketJSONPath(t *testing.T) {
	filename := writeFile(t, "prices.json", `{"meta":{"source":"test"},"data":[
		{"on":"2025-01-02","AAA":10},
		{"on":"2025-01-03","AAA":11}
	]}`)
	m, err := DecodeMarket(filename, "$.data")
	require.NoError(t, err)
	assert.Equal(t, 2, m.Prices("AAA").Len())

	_, err = DecodeMarket(filename, "$.meta")
	assert.Error(t, err)
}

func TestDecodeMarketErrors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"not json", `{"on":`},
		{"missing date", `{"AAA":10}`},
		{"invalid date", `{"on":"yesterday","AAA":10}`},
		{"string price", `{"on":"2025-01-02","AAA":"10"}`},
		{"negative price", `{"on":"2025-01-02","AAA":-1}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			filename := writeFile(t, "prices.jsonl", tc.content)
			if _, err := DecodeMarket(filename, ""); err == nil {
				t.Errorf("DecodeMarket(%q) expected an error", tc.content)
			}
		})
	}
}

func TestMarketLookback(t *testing.T) {
	m := NewMarket()
	for day := date.New(2025, 1, 1); day.Before(date.New(2025, 12, 31)); day = day.Add(1) {
		m.Append("AAA", day, 1)
	}
	m.Append("BBB", date.New(2025, 12, 31), 1)

	w, r, err := m.Lookback("-1m")
	require.NoError(t, err)
	// November 31st normalizes to December 1st.
	assert.Equal(t, date.NewRange(date.New(2025, 12, 1), date.New(2025, 12, 31)), r)
	assert.Equal(t, 30, w.Prices("AAA").Len()) // 2025-12-01 .. 2025-12-30
	assert.Equal(t, 1, w.Prices("BBB").Len())

	_, _, err = m.Lookback("a month")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestMarketSelect(t *testing.T) {
	m := NewMarket()
	m.Append("BBB", date.New(2025, 1, 2), 1)
	m.Append("AAA", date.New(2025, 1, 2), 1)
	m.Append("CCC", date.New(2025, 1, 2), 1)

	sub, err := m.Select("CCC", "AAA")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA", "CCC"}, sub.Tickers())

	_, err = m.Select("ZZZ")
	assert.Error(t, err)
}
