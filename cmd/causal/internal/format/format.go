// Package format renders CLI output as tables or JSON.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/nfrund/causal/internal/domain"
	"github.com/nfrund/causal/internal/pubsub"
)

// Output formats accepted by --output.
const (
	Table = "table"
	JSON  = "json"
)

func checkFormat(format string) error {
	switch format {
	case Table, JSON:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want %s or %s)", format, Table, JSON)
	}
}

// Topics writes a topic listing.
func Topics(w io.Writer, format string, topics []*domain.Topic) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if format == JSON {
		if topics == nil {
			topics = []*domain.Topic{}
		}
		return encode(w, struct {
			Topics []*domain.Topic `json:"topics"`
			Count  int             `json:"count"`
		}{Topics: topics, Count: len(topics)})
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tTAGS\tCONTENT")
	fmt.Fprintln(tw, "--\t-----\t----\t-------")
	if len(topics) == 0 {
		fmt.Fprintln(tw, "No topics found")
	}
	for _, t := range topics {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n",
			t.ID,
			truncateString(t.Title, 40),
			truncateString(joinTags(t.Tags), 30),
			truncateString(singleLine(t.Content), 50))
	}
	return tw.Flush()
}

// Topic writes the details of one topic.
func Topic(w io.Writer, format string, t *domain.Topic) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if format == JSON {
		return encode(w, t)
	}

	fmt.Fprintf(w, "ID:      %d\n", t.ID)
	fmt.Fprintf(w, "Title:   %s\n", t.Title)
	fmt.Fprintf(w, "Tags:    %s\n", joinTags(t.Tags))
	fmt.Fprintf(w, "Content:\n%s\n", t.Content)
	return nil
}

// Events writes the event catalog.
func Events(w io.Writer, format string, events []pubsub.EventInfo) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if format == JSON {
		return encode(w, events)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDESCRIPTION")
	fmt.Fprintln(tw, "----\t-----------")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\n", e.Name, e.Description)
	}
	return tw.Flush()
}

func encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func joinTags(tags []string) string {
	if len(tags) == 0 {
		return "-"
	}
	return strings.Join(tags, ", ")
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateString shortens s to maxLen runes, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(r[:maxLen-3]) + "..."
}
