// Package docs holds the help topics printed by 'rplan topic'.
package docs

import (
	"bufio"
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strings"
)

//go:embed *.md
var files embed.FS

// index is the topic listing the others, it is not a topic itself.
const index = "readme"

// Topic is a documentation topic.
type Topic struct {
	Name  string // as given to 'rplan topic'
	Title string // first heading of the topic
}

// Index returns the topic listing.
func Index() (string, error) { return read(index) }

// List returns the topics sorted by name.
func List() ([]Topic, error) {
	paths, err := fs.Glob(files, "*.md")
	if err != nil {
		return nil, err
	}
	var topics []Topic
	for _, path := range paths {
		name := strings.TrimSuffix(path, ".md")
		if name == index {
			continue
		}
		content, err := read(name)
		if err != nil {
			return nil, err
		}
		topics = append(topics, Topic{Name: name, Title: title(content)})
	}
	slices.SortFunc(topics, func(a, b Topic) int { return strings.Compare(a.Name, b.Name) })
	return topics, nil
}

// Names returns the names of the topics, sorted.
func Names() ([]string, error) {
	topics, err := List()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(topics))
	for i, t := range topics {
		names[i] = t.Name
	}
	return names, nil
}

// Get returns the content of the named topics, one after the other. The name "*" stands for
// every topic.
func Get(names ...string) (string, error) {
	var expanded []string
	for _, name := range names {
		if name != "*" {
			expanded = append(expanded, name)
			continue
		}
		all, err := Names()
		if err != nil {
			return "", err
		}
		expanded = append(expanded, all...)
	}

	var b strings.Builder
	for _, name := range expanded {
		content, err := read(name)
		if err != nil {
			return "", err
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func read(name string) (string, error) {
	content, err := files.ReadFile(name + ".md")
	if err != nil {
		return "", fmt.Errorf("topic %q not found: %w", name, err)
	}
	return string(content), nil
}

// title returns the text of the first level one heading of content.
func title(content string) string {
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		if t, ok := strings.CutPrefix(scanner.Text(), "# "); ok {
			return strings.TrimSpace(t)
		}
	}
	return ""
}
