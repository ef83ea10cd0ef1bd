package renderer

import (
	"bytes"
	"fmt"

	md "github.com/nao1215/markdown"

	"github.com/etnz/riskplan/date"
	"github.com/etnz/riskplan/risk"
)

// RiskMarkdown renders the risk indicators of every instrument measured over period.
func RiskMarkdown(period date.Range, metrics []risk.Metrics) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Risk Indicators %s", period))

	// Columns come from the first instrument that could be measured.
	var confidences []float64
	var windows []int
	for _, m := range metrics {
		if m.Err == nil {
			confidences, windows = m.Confidences, m.Windows
			break
		}
	}

	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight},
		Header:    []string{"Instrument", "Annualized Volatility", "Sharpe Ratio"},
	}
	for _, c := range confidences {
		table.Alignment = append(table.Alignment, md.AlignRight, md.AlignRight, md.AlignRight)
		table.Header = append(table.Header,
			fmt.Sprintf("VaR %s", confidence(c)),
			fmt.Sprintf("Hist. VaR %s", confidence(c)),
			fmt.Sprintf("CVaR %s", confidence(c)),
		)
	}
	table.Alignment = append(table.Alignment, md.AlignRight)
	table.Header = append(table.Header, "Max Drawdown")

	var failed []string
	for _, m := range metrics {
		if m.Err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", md.Bold(m.Instrument), m.Err))
			continue
		}
		row := []string{m.Instrument, pct(m.AnnualizedVolatility), number(m.SharpeRatio)}
		for i := range m.Confidences {
			row = append(row,
				signedPct(m.ParametricVaR[i]),
				signedPct(m.HistoricalVaR[i]),
				signedPct(m.ConditionalVaR[i]),
			)
		}
		row = append(row, signedPct(m.MaxDrawdown))
		table.Rows = append(table.Rows, row)
	}
	if len(table.Rows) > 0 {
		doc.Table(table)
	}

	if len(windows) > 0 && len(table.Rows) > 0 {
		doc.H2("Rolling Volatility")
		rolling := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft},
			Header:    []string{"Instrument"},
		}
		for _, w := range windows {
			rolling.Alignment = append(rolling.Alignment, md.AlignRight)
			rolling.Header = append(rolling.Header, fmt.Sprintf("%d days", w))
		}
		for _, m := range metrics {
			if m.Err != nil {
				continue
			}
			row := []string{m.Instrument}
			for _, vol := range m.RollingVolatility {
				row = append(row, pct(vol))
			}
			rolling.Rows = append(rolling.Rows, row)
		}
		doc.Table(rolling)
	}

	if len(failed) > 0 {
		doc.H2("Not Measured")
		doc.BulletList(failed...)
	}
	return doc.String()
}

// CorrelationMarkdown renders the correlation matrix as a square table.
func CorrelationMarkdown(period date.Range, c risk.CorrelationMatrix) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Correlation %s", period))

	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft},
		Header:    []string{""},
	}
	for _, ticker := range c.Instruments {
		table.Alignment = append(table.Alignment, md.AlignRight)
		table.Header = append(table.Header, ticker)
	}
	for i, ticker := range c.Instruments {
		row := []string{md.Bold(ticker)}
		for j := range c.Instruments {
			row = append(row, number(c.At(i, j)))
		}
		table.Rows = append(table.Rows, row)
	}
	doc.Table(table)
	return doc.String()
}
