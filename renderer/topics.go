package renderer

import (
	"bytes"
	"fmt"

	md "github.com/nao1215/markdown"

	"github.com/etnz/riskplan/docs"
)

// TopicsMarkdown renders the list of documentation topics.
func TopicsMarkdown(topics []docs.Topic) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Topics")
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft},
		Header:    []string{"Topic", "Title"},
	}
	for _, t := range topics {
		table.Rows = append(table.Rows, []string{md.Code(t.Name), t.Title})
	}
	doc.Table(table)
	doc.PlainText(fmt.Sprintf("Run %s to read one.", md.Code("rplan topic <topic>")))
	return doc.String()
}
