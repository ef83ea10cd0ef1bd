package cmd

import (
	"flag"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"github.com/etnz/riskplan/docs"
)

// predictors of the flags whose values can be guessed, other flags accept anything.
var predictors = map[string]complete.Predictor{
	"config":      predict.Files("*.yaml"),
	"market-file": predict.Files("*.json*"),
	"chart":       predict.Files("*.png"),
	"objective":   predict.Set{"max-sharpe", "min-volatility"},
	"method":      predict.Set{"simple", "log"},
	"lookback":    predict.Set{"-1m", "-3m", "-6m", "-1y"},
}

// flagPredictors returns the completion of the flags of a flag set.
func flagPredictors(f *flag.FlagSet) map[string]complete.Predictor {
	flags := make(map[string]complete.Predictor)
	f.VisitAll(func(fl *flag.Flag) {
		switch p, ok := predictors[fl.Name]; {
		case ok:
			flags[fl.Name] = p
		case isBool(fl):
			flags[fl.Name] = predict.Nothing
		default:
			flags[fl.Name] = predict.Something
		}
	})
	return flags
}

func isBool(fl *flag.Flag) bool {
	b, ok := fl.Value.(interface{ IsBoolFlag() bool })
	return ok && b.IsBoolFlag()
}

// Completion returns the shell completion of the rplan command line: global flags, commands
// and their flags, and topic names.
func Completion(global *flag.FlagSet, commands ...subcommands.Command) *complete.Command {
	root := &complete.Command{
		Flags: flagPredictors(global),
		Sub:   make(map[string]*complete.Command),
	}
	for _, c := range commands {
		f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
		c.SetFlags(f)
		root.Sub[c.Name()] = &complete.Command{Flags: flagPredictors(f)}
	}
	if topic, ok := root.Sub["topic"]; ok {
		topics, _ := docs.Names()
		topic.Args = predict.Set(topics)
	}
	return root
}
