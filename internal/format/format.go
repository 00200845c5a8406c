// Package format renders items for the CLI: a compact table for humans,
// JSONL for piping into jq and friends.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/suvarnak/gop/internal/item"
)

// FormatTable writes items as a formatted table with columns ID, TYPE, NAME,
// DEVICE, AGE, and CONTENT (truncated). Returns the number of items written.
func FormatTable(w io.Writer, items []*item.Item) int {
	if len(items) == 0 {
		fmt.Fprintln(w, "No items found")
		return 0
	}

	fmt.Fprintf(w, "%-10s %-10s %-14s %-14s %-8s %s\n",
		"ID", "TYPE", "NAME", "DEVICE", "AGE", "CONTENT")
	fmt.Fprintf(w, "%-10s %-10s %-14s %-14s %-8s %s\n",
		"----------", "----------", "--------------", "--------------", "--------", "----------------------------------------")

	for _, i := range items {
		fmt.Fprintf(w, "%-10s %-10s %-14s %-14s %-8s %s\n",
			formatID(i.ID),
			i.Type,
			formatName(i.Name),
			formatName(i.Device),
			formatAge(i.CreatedAt),
			formatContent(i),
		)
	}

	noun := "item"
	if len(items) != 1 {
		noun = "items"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(items), noun)

	return len(items)
}

// FormatJSONL writes items as line-delimited JSON, one object per line.
func FormatJSONL(w io.Writer, items []*item.Item) error {
	for _, i := range items {
		data, err := json.Marshal(i)
		if err != nil {
			return fmt.Errorf("failed to marshal item to JSON: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}
	return nil
}

// FormatSingleJSON writes one value as pretty-printed JSON. Used by get mode
// to show complete item details.
func FormatSingleJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal to JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	fmt.Fprintln(w)
	return nil
}

// formatID truncates an item ID to its first 8 characters.
func formatID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatName truncates names and device labels for the table. Empty values
// render as "-". Truncation counts runes so multibyte names are not split
// mid-character.
func formatName(name string) string {
	if name == "" {
		return "-"
	}
	if r := []rune(name); len(r) > 14 {
		return string(r[:11]) + "..."
	}
	return name
}

// formatContent renders the item's content column: the path for file items,
// else the first non-empty content line truncated to 40 characters.
func formatContent(i *item.Item) string {
	if i.Type == item.TypeFile && i.Path != "" {
		return i.Path
	}
	if i.Content == "" {
		return "-"
	}

	var firstLine string
	for _, line := range strings.Split(i.Content, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			firstLine = trimmed
			break
		}
	}
	if firstLine == "" {
		return "-"
	}
	if r := []rune(firstLine); len(r) > 40 {
		return string(r[:37]) + "..."
	}
	return firstLine
}

// formatAge renders a creation time as relative age, "2m ago" style.
func formatAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	diff := time.Since(t)
	switch {
	case diff < time.Minute:
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
}
