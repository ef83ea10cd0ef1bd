package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/google/subcommands"

	"github.com/etnz/riskplan"
	"github.com/etnz/riskplan/config"
	"github.com/etnz/riskplan/date"
)

func TestParseWeights(t *testing.T) {
	testCases := []struct {
		input       string
		wantTickers []string
		wantRaw     []float64
		wantErr     bool
	}{
		{input: "AAA=2,BBB=1", wantTickers: []string{"AAA", "BBB"}, wantRaw: []float64{2, 1}},
		{input: " AAA = 0.5 , BBB=0.5,", wantTickers: []string{"AAA", "BBB"}, wantRaw: []float64{0.5, 0.5}},
		{input: "", wantErr: true},
		{input: "AAA", wantErr: true},
		{input: "=1", wantErr: true},
		{input: "AAA=x", wantErr: true},
		{input: "AAA=1,AAA=2", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			tickers, raw, err := parseWeights(tc.input)
			if tc.wantErr {
				if !errors.Is(err, riskplan.ErrConfiguration) {
					t.Errorf("parseWeights(%q) error = %v, want a configuration error", tc.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseWeights(%q) unexpected error: %v", tc.input, err)
			}
			if !slices.Equal(tickers, tc.wantTickers) || !slices.Equal(raw, tc.wantRaw) {
				t.Errorf("parseWeights(%q) = %v, %v, want %v, %v", tc.input, tickers, raw, tc.wantTickers, tc.wantRaw)
			}
		})
	}
}

func TestAlign(t *testing.T) {
	got := align([]string{"AAA", "BBB", "CCC"}, []string{"CCC", "AAA"}, []float64{3, 1})
	want := []float64{1, 0, 3}
	if !slices.Equal(got, want) {
		t.Errorf("align() = %v, want %v", got, want)
	}
}

func TestApplyPlanFlags(t *testing.T) {
	f := flag.NewFlagSet("simulate", flag.ContinueOnError)
	(&simulateCmd{}).SetFlags(f)
	if err := f.Parse([]string{"-current-age", "40", "-income", "80000", "-paths", "100", "-seed", "7", "-target-probability", "0.9"}); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	applyPlanFlags(cfg, f)

	p := cfg.Parameters()
	if p.CurrentAge != 40 || p.Income != 80000 || p.PathCount != 100 || p.Seed != 7 {
		t.Errorf("applyPlanFlags() = %+v, want current age 40, income 80000, 100 paths, seed 7", p)
	}
	if cfg.Simulation.Search.Target != 0.9 {
		t.Errorf("applyPlanFlags() target = %v, want 0.9", cfg.Simulation.Search.Target)
	}
	// flags that are not set keep the configuration.
	if want := config.Default().Planning.Expenses; p.Expenses != want {
		t.Errorf("applyPlanFlags() expenses = %v, want %v", p.Expenses, want)
	}
}

func TestStatus(t *testing.T) {
	if got := status("testing", riskplan.Configf("x", 1, "bad")); got != subcommands.ExitUsageError {
		t.Errorf("status(configuration error) = %v, want %v", got, subcommands.ExitUsageError)
	}
	if got := status("testing", &riskplan.InsufficientDataError{What: "prices", Need: 2}); got != subcommands.ExitFailure {
		t.Errorf("status(insufficient data) = %v, want %v", got, subcommands.ExitFailure)
	}
}

func TestCompletion(t *testing.T) {
	global := flag.NewFlagSet("rplan", flag.ContinueOnError)
	global.String("market-file", "", "")
	global.Bool("v", false, "")

	c := Completion(global, Commands...)
	for _, cmd := range Commands {
		if _, ok := c.Sub[cmd.Name()]; !ok {
			t.Errorf("Completion() has no %q command", cmd.Name())
		}
	}
	if _, ok := c.Flags["market-file"]; !ok {
		t.Errorf("Completion() has no -market-file flag")
	}
	if got := c.Sub["optimize"].Flags["objective"].Predict(""); !slices.Contains(got, "min-volatility") {
		t.Errorf("Completion() objective predictions = %v, want min-volatility", got)
	}
	if got := c.Sub["topic"].Args.Predict(""); !slices.Contains(got, "simulate") {
		t.Errorf("Completion() topic predictions = %v, want simulate", got)
	}
}

// writeMarket writes a JSONL market file of three random walks over 200 days.
func writeMarket(t *testing.T) string {
	t.Helper()
	rng := rand.New(rand.NewPCG(1, 2))
	prices := map[string]float64{"AAA": 100, "BBB": 50, "CCC": 20}
	drift := map[string]float64{"AAA": 0.002, "BBB": 0.001, "CCC": 0}
	vol := map[string]float64{"AAA": 0.02, "BBB": 0.01, "CCC": 0.015}

	var buf bytes.Buffer
	start := date.New(2025, 1, 1)
	for i := 0; i < 200; i++ {
		row := map[string]any{"on": start.Add(i).String()}
		for _, ticker := range []string{"AAA", "BBB", "CCC"} {
			prices[ticker] *= math.Exp(drift[ticker] + vol[ticker]*rng.NormFloat64())
			row[ticker] = prices[ticker]
		}
		line, err := json.Marshal(row)
		if err != nil {
			t.Fatal(err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	path := filepath.Join(t.TempDir(), "prices.jsonl")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, c subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatal(err)
	}
	return c.Execute(context.Background(), f)
}

func TestCommands(t *testing.T) {
	*marketFile = writeMarket(t)
	t.Cleanup(func() { *marketFile = "" })
	chart := filepath.Join(t.TempDir(), "fan.png")

	testCases := []struct {
		name string
		cmd  subcommands.Command
		args []string
		want subcommands.ExitStatus
	}{
		{name: "risk", cmd: &riskCmd{}, want: subcommands.ExitSuccess},
		{name: "risk json", cmd: &riskCmd{}, args: []string{"-json", "-lookback", "-3m"}, want: subcommands.ExitSuccess},
		{name: "risk bad method", cmd: &riskCmd{}, args: []string{"-method", "cubic"}, want: subcommands.ExitUsageError},
		{name: "risk bad lookback", cmd: &riskCmd{}, args: []string{"-lookback", "soon"}, want: subcommands.ExitUsageError},
		{name: "correlation", cmd: &correlationCmd{}, want: subcommands.ExitSuccess},
		{name: "summary", cmd: &summaryCmd{}, args: []string{"-w", "AAA=2,BBB=1"}, want: subcommands.ExitSuccess},
		{name: "summary unknown ticker", cmd: &summaryCmd{}, args: []string{"-w", "ZZZ=1"}, want: subcommands.ExitUsageError},
		{name: "optimize", cmd: &optimizeCmd{}, want: subcommands.ExitSuccess},
		{name: "optimize min volatility", cmd: &optimizeCmd{}, args: []string{"-objective", "min-volatility", "-json"}, want: subcommands.ExitSuccess},
		{name: "optimize bad objective", cmd: &optimizeCmd{}, args: []string{"-objective", "max-return"}, want: subcommands.ExitUsageError},
		{name: "frontier", cmd: &frontierCmd{}, args: []string{"-points", "5"}, want: subcommands.ExitSuccess},
		{name: "frontier one point", cmd: &frontierCmd{}, args: []string{"-points", "1"}, want: subcommands.ExitUsageError},
		{name: "simulate", cmd: &simulateCmd{}, args: []string{"-paths", "200", "-chart", chart}, want: subcommands.ExitSuccess},
		{name: "simulate from portfolio", cmd: &simulateCmd{}, args: []string{"-paths", "100", "-from-portfolio", "-no-search", "-json"}, want: subcommands.ExitSuccess},
		{name: "simulate bad ages", cmd: &simulateCmd{}, args: []string{"-retirement-age", "20"}, want: subcommands.ExitUsageError},
		{name: "topic", cmd: &topicCmd{}, args: []string{"risk"}, want: subcommands.ExitSuccess},
		{name: "topic index", cmd: &topicCmd{}, want: subcommands.ExitSuccess},
		{name: "topic list", cmd: &topicCmd{}, args: []string{"-list"}, want: subcommands.ExitSuccess},
		{name: "unknown topic", cmd: &topicCmd{}, args: []string{"nope"}, want: subcommands.ExitFailure},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := execute(t, tc.cmd, tc.args...); got != tc.want {
				t.Errorf("rplan %s %v = %v, want %v", tc.cmd.Name(), tc.args, got, tc.want)
			}
		})
	}

	png, err := os.ReadFile(chart)
	if err != nil {
		t.Fatalf("simulate -chart did not write the chart: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Errorf("simulate -chart did not write a PNG image")
	}
}

func TestMissingMarketFile(t *testing.T) {
	if got := execute(t, &riskCmd{}); got != subcommands.ExitUsageError {
		t.Errorf("rplan risk without market = %v, want %v", got, subcommands.ExitUsageError)
	}
}
