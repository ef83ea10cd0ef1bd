package renderer

import (
	"bytes"
	"fmt"
	"math"

	md "github.com/nao1215/markdown"

	"github.com/etnz/riskplan"
	"github.com/etnz/riskplan/retirement"
)

// SimulationMarkdown renders a retirement simulation, amounts are displayed in currency.
func SimulationMarkdown(res *retirement.Result, currency string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	p := res.Parameters
	m := func(v float64) string { return riskplan.M(v, currency).String() }

	doc.H1(fmt.Sprintf("Retirement Simulation (%d paths)", len(res.Paths)))

	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{md.Bold("Success Probability"), md.Bold(pct(res.SuccessProbability))},
		Rows: [][]string{
			{"Target Wealth", m(res.TargetWealth)},
			{"Ruin Probability", pct(res.RuinProbability)},
		},
	}
	if !math.IsNaN(res.EstimatedRequiredContribution) {
		table.Rows = append(table.Rows, []string{"Required Extra Contribution", m(res.EstimatedRequiredContribution)})
	}
	doc.Table(table)

	doc.H2("Plan")
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{"Parameter", "Value"},
		Rows: [][]string{
			{"Ages", fmt.Sprintf("%d → %d → %d", p.CurrentAge, p.RetirementAge, p.HorizonAge)},
			{"Initial Wealth", m(p.InitialWealth)},
			{"Income", m(p.Income)},
			{"Expenses", m(p.Expenses)},
			{"Extra Contribution", m(p.ExtraContribution)},
			{"Contribution Growth", pct(p.ContributionGrowth)},
			{"Withdrawal Rate", pct(p.WithdrawalRate)},
			{"Inflation", pct(p.Inflation)},
			{"Assumed Return", pct(p.AssumedReturn)},
			{"Assumed Volatility", pct(p.AssumedVolatility)},
		},
	})

	doc.H2("Final Wealth")
	final := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{"Percentile", "Wealth"},
	}
	for i, q := range retirement.FinalPercentiles {
		final.Rows = append(final.Rows, []string{fmt.Sprintf("P%g", q), m(res.FinalDistribution[i])})
	}
	doc.Table(final)

	doc.H2("Projection")
	fan := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignRight},
		Header:    []string{"Age"},
	}
	for _, q := range retirement.FanPercentiles {
		fan.Alignment = append(fan.Alignment, md.AlignRight)
		fan.Header = append(fan.Header, fmt.Sprintf("P%g", q))
	}
	for y, age := range res.Ages {
		row := []string{fmt.Sprint(age)}
		for i := range retirement.FanPercentiles {
			row = append(row, m(res.Fan[i][y]))
		}
		fan.Rows = append(fan.Rows, row)
	}
	doc.Table(fan)
	return doc.String()
}
