package renderer

import (
	"fmt"

	charts "github.com/vicanso/go-charts/v2"

	"github.com/etnz/riskplan/retirement"
)

// FanChart renders the wealth percentiles of a simulation as a PNG line chart, one line per
// percentile, with the age on the x axis.
func FanChart(res *retirement.Result) ([]byte, error) {
	if len(res.Ages) == 0 {
		return nil, fmt.Errorf("no simulated year to chart")
	}
	ages := make([]string, len(res.Ages))
	for i, age := range res.Ages {
		ages[i] = fmt.Sprint(age)
	}
	names := make([]string, len(retirement.FanPercentiles))
	for i, q := range retirement.FanPercentiles {
		names[i] = fmt.Sprintf("P%g", q)
	}

	split := len(ages) / 10
	if split < 3 {
		split = 3
	}
	p, err := charts.LineRender(
		res.Fan,
		charts.TitleTextOptionFunc("Projected Wealth", fmt.Sprintf("%d paths, success %s", len(res.Paths), pct(res.SuccessProbability))),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        ages,
			SplitNumber: split,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.LegendOptionFunc(charts.LegendOption{
			Data: names,
			Top:  charts.PositionTop,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1000),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render fan chart: %w", err)
	}
	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate fan chart bytes: %w", err)
	}
	return buf, nil
}
