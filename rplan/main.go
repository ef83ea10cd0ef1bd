package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/etnz/riskplan/cmd"
)

func main() {
	// COMP_LINE is set by the shell when completing, Complete then exits.
	cmd.Completion(flag.CommandLine, cmd.Commands...).Complete(path.Base(os.Args[0]))

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
