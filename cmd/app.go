// Package cmd implements the rplan command line application.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/etnz/riskplan"
	"github.com/etnz/riskplan/config"
	"github.com/etnz/riskplan/date"
	"github.com/etnz/riskplan/risk"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, cmd := range Commands {
		c.Register(cmd, groups[cmd.Name()])
	}
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")
}

// Commands are the rplan commands.
var Commands = []subcommands.Command{
	&riskCmd{},
	&correlationCmd{},
	&summaryCmd{},
	&optimizeCmd{},
	&frontierCmd{},
	&simulateCmd{},
	&topicCmd{},
}

var groups = map[string]string{
	"risk":        "risk",
	"correlation": "risk",
	"summary":     "portfolio",
	"optimize":    "portfolio",
	"frontier":    "portfolio",
	"simulate":    "planning",
	"topic":       "help",
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "", "Path to the YAML configuration file. RPLAN_* environment variables override it.")
var marketFile = flag.String("market-file", "", "Path to the daily prices file (JSONL, or JSON with -select)")
var selector = flag.String("select", "", "JSONPath selecting the array of daily prices in a JSON market file")
var verbose = flag.Bool("v", false, "Log solver and simulation details to stderr")

// loadConfig loads the configuration and applies the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return nil, err
	}
	if *marketFile != "" {
		cfg.Market.File = *marketFile
	}
	if *selector != "" {
		cfg.Market.Select = *selector
	}
	if *verbose {
		cfg.Log.Verbose = true
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *zap.Logger { return riskplan.NewLogger(cfg.Log.Verbose) }

// loadMarket decodes the market file and restricts it to the configured tickers and the
// lookback window.
func loadMarket(cfg *config.Config, lookback string) (*riskplan.Market, date.Range, error) {
	if cfg.Market.File == "" {
		return nil, date.Range{}, riskplan.Configf("market.file", "", "no market file, use -market-file")
	}
	m, err := riskplan.DecodeMarket(cfg.Market.File, cfg.Market.Select)
	if err != nil {
		return nil, date.Range{}, err
	}
	if m, err = m.Select(cfg.Market.Tickers...); err != nil {
		return nil, date.Range{}, riskplan.Configf("market.tickers", cfg.Market.Tickers, "%v", err)
	}
	if lookback == "" {
		lookback = cfg.Market.Lookback
	}
	return m.Lookback(lookback)
}

// frame aligns the returns of every instrument of the market.
func frame(cfg *config.Config, m *riskplan.Market) (*risk.Frame, error) {
	opts, err := cfg.RiskOptions()
	if err != nil {
		return nil, err
	}
	return risk.NewFrame(m.Histories(), opts.Method)
}

// status reports err on stderr and returns the exit status matching its kind.
func status(what string, err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error %s: %v\n", what, err)
	if errors.Is(err, riskplan.ErrConfiguration) {
		return subcommands.ExitUsageError
	}
	return subcommands.ExitFailure
}

// printMarkdown renders markdown for the terminal, or prints it raw when it cannot.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(160))
	if err != nil {
		fmt.Println(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Println(md)
		return
	}
	fmt.Print(out)
}

// printJSON writes a JSON document on stdout.
func printJSON(doc []byte, err error) subcommands.ExitStatus {
	if err != nil {
		return status("encoding json", err)
	}
	fmt.Println(string(doc))
	return subcommands.ExitSuccess
}
