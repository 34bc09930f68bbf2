// Package cli provides CLI output utilities for Kotae.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/kotae-ai/kotae/internal/models"
	"github.com/kotae-ai/kotae/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates an --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch s {
	case "text", "":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// WriteAnswer writes an answer and its sources to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteAnswer(w io.Writer, response *models.AnswerResponse, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	}
	fmt.Fprintf(w, "\n%s\n", response.Answer)
	if len(response.Sources) > 0 {
		fmt.Fprintf(w, "\n--- Sources (%d) ---\n", len(response.Sources))
		for i, src := range response.Sources {
			fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
			fmt.Fprintf(w, "[%d] Score: %.4f", i+1, src.Score)
			if src.Metadata.Title != "" {
				fmt.Fprintf(w, " | %s", src.Metadata.Title)
			}
			fmt.Fprintln(w)
			fmt.Fprintf(w, "%s\n", utils.Truncate(src.Text, 200))
		}
	}
	fmt.Fprintln(w)
	return nil
}

// WriteSummary writes a summary to w in the given format.
func WriteSummary(w io.Writer, response *models.SummarizeResponse, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	}
	fmt.Fprintf(w, "\n%s\n\n", response.Summary)
	return nil
}
