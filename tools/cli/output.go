package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/multimediallc/hunk-context/internal/app"
	"github.com/multimediallc/hunk-context/pkg/pycontext"
)

type OutputFormat string

const (
	FormatDefault OutputFormat = "default"
	FormatOneLine OutputFormat = "one-line"
	FormatJSON    OutputFormat = "json"
)

var allowedFormats = []string{string(FormatDefault), string(FormatOneLine), string(FormatJSON)}

func validateFormat(format string) (OutputFormat, error) {
	if !slices.Contains(allowedFormats, format) {
		return "", fmt.Errorf("invalid format %s. Must be one of %s", format, strings.Join(allowedFormats, ", "))
	}
	return OutputFormat(format), nil
}

func writeJSON(w io.Writer, v any) error {
	jsonData, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(jsonData))
	return err
}

func printContext(w io.Writer, ctx pycontext.Context, found bool, format OutputFormat) error {
	switch format {
	case FormatJSON:
		if !found {
			return writeJSON(w, nil)
		}
		return writeJSON(w, ctx)
	case FormatOneLine:
		if !found {
			_, err := fmt.Fprintln(w, "-")
			return err
		}
		_, err := fmt.Fprintf(w, "%s %s %d %d\n", ctx.Kind, ctx.Name, ctx.Start, ctx.End)
		return err
	default:
		if !found {
			_, err := fmt.Fprintln(w, "No enclosing function or class")
			return err
		}
		_, err := fmt.Fprintln(w, ctx)
		return err
	}
}

type dryRunEntry struct {
	File string `json:"file"`
	pycontext.DryRunResult
}

func printDryRuns(w io.Writer, entries []dryRunEntry, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, entries)
	}
	sep := "\n"
	if format == FormatOneLine {
		sep = ", "
	}
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Valid {
			lines = append(lines, fmt.Sprintf("%s: OK", entry.File))
		} else {
			lines = append(lines, fmt.Sprintf("%s: %s", entry.File, entry.Error))
		}
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, sep))
	return err
}

func printAnalysis(w io.Writer, analysis *app.Analysis, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, analysis)
	}
	first := true
	for _, file := range analysis.Files {
		if !first && format == FormatDefault {
			_, _ = fmt.Fprintln(w)
		}
		first = false
		if format == FormatDefault {
			_, _ = fmt.Fprintf(w, "%s:\n", file.FileName)
		}
		for _, hunk := range file.Hunks {
			describe := "-"
			if hunk.Context != nil {
				describe = hunk.Context.String()
			}
			if format == FormatOneLine {
				_, _ = fmt.Fprintf(w, "%s:%d-%d %s\n", file.FileName, hunk.Hunk.Start, hunk.Hunk.End, describe)
			} else {
				_, _ = fmt.Fprintf(w, "  %d-%d: %s\n", hunk.Hunk.Start, hunk.Hunk.End, describe)
			}
		}
	}
	for _, skipped := range analysis.Skipped {
		_, _ = fmt.Fprintf(w, "skipped %s: %s\n", skipped.FileName, skipped.Reason)
	}
	return nil
}
