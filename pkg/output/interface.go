package output

import (
	"context"
	"fmt"
	"io"

	"github.com/ccollicutt/logwindow/pkg/config"
)

// Formatter renders check reports in a specific format.
type Formatter interface {
	// Format renders the report to the given writer.
	Format(ctx context.Context, report *Report, w io.Writer) error

	// Name returns the format name (text, json).
	Name() string
}

// FormatOptions controls formatter behavior.
type FormatOptions struct {
	// Verbose adds per-file details after the status line.
	Verbose bool
}

// NewFormatter returns the formatter registered under name.
func NewFormatter(name string, opts FormatOptions) (Formatter, error) {
	switch name {
	case "", config.OutputText:
		return NewTextFormatter(opts), nil
	case config.OutputJSON:
		return NewJSONFormatter(opts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (use text or json)", name)
	}
}
