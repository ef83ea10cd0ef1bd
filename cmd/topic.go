package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/etnz/riskplan/docs"
	"github.com/etnz/riskplan/renderer"
)

// topicCmd holds the flags for the 'topic' subcommand.
type topicCmd struct {
	list bool
}

func (*topicCmd) Name() string     { return "topic" }
func (*topicCmd) Synopsis() string { return "show documentation" }
func (*topicCmd) Usage() string {
	return `rplan topic [-list] [<topic>...]

  Show documentation for the given topics, '*' for all of them. Without topic, show the
  topic index, or the table of topics with -list.
`
}

func (c *topicCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.list, "list", false, "List the topics and their titles.")
}

func (c *topicCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.list {
		topics, err := docs.List()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing topics: %v\n", err)
			return subcommands.ExitFailure
		}
		printMarkdown(renderer.TopicsMarkdown(topics))
		return subcommands.ExitSuccess
	}

	var doc string
	var err error
	if topics := f.Args(); len(topics) > 0 {
		doc, err = docs.Get(topics...)
	} else {
		doc, err = docs.Index()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading doc: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(doc)

	return subcommands.ExitSuccess
}
