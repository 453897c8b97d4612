package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pfrederiksen/fixtures-ics/internal/match"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

const kickoffLayout = "Mon 2006-01-02 15:04 -07:00"

func parseFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
	return format, nil
}

// OutputResult contains data to be output
type OutputResult struct {
	CheckedAt   time.Time     `json:"checked_at"`
	Subject     string        `json:"subject"`
	LastUpdated time.Time     `json:"last_updated"`
	Matches     []match.Match `json:"matches"`
	MatchCount  int           `json:"match_count"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	if result.Matches == nil {
		result.Matches = []match.Match{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	if result.MatchCount == 0 {
		fmt.Fprintf(w, "No matches found for %s.\n", result.Subject)
		return nil
	}

	fmt.Fprintf(w, "%s (%d matches):\n", result.Subject, result.MatchCount)
	for _, m := range result.Matches {
		fmt.Fprintf(w, "  %s  %s\n", m.Kickoff.Format(kickoffLayout), m.Title())
		if verbose {
			fmt.Fprintf(w, "       ID: %s\n", m.ID())
			fmt.Fprintf(w, "       UTC: %s\n", m.Kickoff.UTC().Format(time.RFC3339))
		}
	}

	fmt.Fprintf(w, "\nTotal: %d matches", result.MatchCount)
	if !result.LastUpdated.IsZero() {
		fmt.Fprintf(w, " (fetched %s)", result.LastUpdated.UTC().Format(time.RFC3339))
	}
	fmt.Fprintln(w)
	return nil
}
