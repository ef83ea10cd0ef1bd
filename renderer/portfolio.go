package renderer

import (
	"bytes"
	"fmt"

	md "github.com/nao1215/markdown"

	"github.com/etnz/riskplan/portfolio"
)

// summaryTable is the expected return, volatility and Sharpe ratio of a portfolio.
func summaryTable(s portfolio.Summary) md.TableSet {
	return md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{md.Bold("Expected Return"), md.Bold(signedPct(s.ExpectedReturn))},
		Rows: [][]string{
			{"Volatility", pct(s.Volatility)},
			{"Sharpe Ratio", number(s.SharpeRatio)},
		},
	}
}

// SummaryMarkdown renders a portfolio and its summary.
func SummaryMarkdown(title string, instruments []string, w portfolio.Weights, s portfolio.Summary) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(title)
	doc.Table(summaryTable(s))

	doc.H2("Weights")
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{"Instrument", "Weight"},
		Rows:      weightRows(instruments, w),
	})
	return doc.String()
}

// OptimizeMarkdown renders the portfolio found for an objective.
func OptimizeMarkdown(objective portfolio.Objective, instruments []string, w portfolio.Weights, s portfolio.Summary) string {
	return SummaryMarkdown(fmt.Sprintf("Optimal Portfolio (%s)", objective), instruments, w, s)
}

// FrontierMarkdown renders the efficient frontier: one row per point, with the weights of every
// instrument.
func FrontierMarkdown(instruments []string, f *portfolio.Frontier) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Efficient Frontier")

	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight},
		Header:    []string{"Portfolio", "Return", "Volatility"},
		Rows: [][]string{
			{"Minimum Volatility", signedPct(f.MinVolatility.Return), pct(f.MinVolatility.Volatility)},
			{"Maximum Sharpe", signedPct(f.MaxSharpe.Return), pct(f.MaxSharpe.Volatility)},
		},
	})

	doc.H2("Points")
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignRight, md.AlignRight, md.AlignRight},
		Header:    []string{"#", "Return", "Volatility"},
	}
	for _, ticker := range instruments {
		table.Alignment = append(table.Alignment, md.AlignRight)
		table.Header = append(table.Header, ticker)
	}
	for i, p := range f.Points {
		row := []string{fmt.Sprint(i + 1), signedPct(p.Return), pct(p.Volatility)}
		for _, x := range p.Weights {
			row = append(row, pct(x))
		}
		table.Rows = append(table.Rows, row)
	}
	doc.Table(table)
	return doc.String()
}
