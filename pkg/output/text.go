package output

import (
	"context"
	"fmt"
	"io"
)

// TextFormatter writes the plugin status line, optionally followed by
// per-file details.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(_ context.Context, report *Report, w io.Writer) error {
	if _, err := fmt.Fprintln(w, report.StatusLine()); err != nil {
		return err
	}
	if !f.opts.Verbose {
		return nil
	}

	for _, file := range report.Files {
		state := "skipped"
		if file.Processed {
			state = "processed"
		}
		fmt.Fprintf(w, "  %s: %d matches in %d lines, %s (%s)\n",
			file.Path, file.Matches, file.Lines, state, file.Reason)
	}
	fmt.Fprintf(w, "Files: %d processed of %d matching\n", report.Summary.FilesProcessed, report.Summary.Candidates)
	fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(1e6))
	return nil
}
