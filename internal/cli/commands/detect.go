package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/logwindow/pkg/config"
	"github.com/ccollicutt/logwindow/pkg/detector"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	SampleSize  int
	ShowAll     bool
	WriteConfig string

	// Fs is the filesystem logs are read from and configs written to.
	// Defaults to the OS filesystem.
	Fs afero.Fs
}

// NewDetectCommand creates the detect command. The output format comes from
// the shared --output flag in check.
func NewDetectCommand(check *CheckOptions, opts *DetectOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect <log-file>",
		Short: "Detect timestamp format and position in a log file",
		Long: `Analyze a log file to suggest --timepattern and --timeposition.

Samples the newest lines of the file, the ones a check reads first, and tries
common timestamp formats at the first few word positions of each line.
Reports the best match with a confidence score and the flags to use.

Optionally generates a starter check definition with --write-config.

Supports:
  - ISO 8601 variants (with/without timezone, fractional seconds)
  - Syslog format (BSD and with year)
  - Apache/NGINX common log and error log formats
  - Unix timestamps (seconds)
  - Python/Java logging formats
  - Bracketed datetime formats

Example:
  logwindow detect /var/log/myapp.log
  logwindow detect --sample 500 /var/log/large.log
  logwindow detect --write-config myapp.yaml /var/log/app.log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args, check.Output, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", 100, "Number of lines to sample")
	cmd.Flags().BoolVar(&opts.ShowAll, "all", false, "Show all detected formats, not just the best match")
	cmd.Flags().StringVar(&opts.WriteConfig, "write-config", "", "Write starter config to file (will not overwrite)")

	return cmd
}

func runDetect(cmd *cobra.Command, args []string, format string, opts *DetectOptions) error {
	logFile := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	// Check file exists
	if ok, _ := afero.Exists(fs, logFile); !ok {
		return fmt.Errorf("log file not found: %s", logFile)
	}

	// Create detector
	d := detector.New(detector.WithSampleSize(opts.SampleSize), detector.WithFs(fs))

	// Run detection
	result, err := d.DetectFromFile(ctx, logFile)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	// Write config file if requested
	if opts.WriteConfig != "" {
		if err := writeStarterConfig(fs, out, result, logFile, opts.WriteConfig); err != nil {
			return err
		}
	}

	// Output results
	switch format {
	case config.OutputJSON:
		return outputDetectJSON(out, result, logFile, opts)
	default:
		return outputDetectText(out, result, logFile, opts)
	}
}

func outputDetectText(w io.Writer, result *detector.DetectionResult, logFile string, opts *DetectOptions) error {
	fmt.Fprintln(w, "=== Timestamp Format Detection ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: %s\n", logFile)
	fmt.Fprintf(w, "Lines sampled: %d\n", result.SampledLines)
	fmt.Fprintf(w, "Lines with timestamps: %d\n", result.ParsedLines)
	fmt.Fprintln(w)

	if !result.HasMatch() {
		fmt.Fprintln(w, "No timestamp format detected.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Tip: The file may use an uncommon format.")
		fmt.Fprintln(w, "Check the last few lines manually and pass --timepattern and --timeposition.")
		return nil
	}

	// Show best match
	best := result.BestMatch()
	fmt.Fprintf(w, "Detected Format: %s at word position %d\n", best.Format.Name, best.Position)
	fmt.Fprintf(w, "Confidence: %.1f%% (%d/%d lines matched)\n",
		best.Confidence*100, best.MatchCount, result.SampledLines)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Sample match:\n  %s\n", best.SampleLine)
	fmt.Fprintf(w, "Parsed as: %s\n", best.ParsedTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(w)

	if result.AmbiguityNote != "" {
		fmt.Fprintf(w, "Note: %s\n", result.AmbiguityNote)
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "--- Flags ---")
	fmt.Fprintf(w, "  %s\n", best.Flags())
	fmt.Fprintln(w)

	// YAML snippet
	fmt.Fprintln(w, "--- Configuration snippet (copy to your config file) ---")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "time_pattern: '%s'\n", best.Format.TimePattern)
	fmt.Fprintf(w, "time_position: %d\n", best.Position)
	fmt.Fprintln(w)

	// Show alternatives if requested
	if opts.ShowAll && len(result.Matches) > 1 {
		fmt.Fprintln(w, "--- Alternative formats detected ---")
		for i, m := range result.Matches[1:] {
			fmt.Fprintf(w, "%d. %s at position %d (%.1f%% confidence)\n", i+2, m.Format.Name, m.Position, m.Confidence*100)
			fmt.Fprintf(w, "   %s\n", m.Flags())
		}
		fmt.Fprintln(w)
	}

	return nil
}

// JSONMatch represents a format match in JSON output.
type JSONMatch struct {
	Name         string  `json:"name"`
	TimePattern  string  `json:"time_pattern"`
	TimePosition int     `json:"time_position"`
	Confidence   float64 `json:"confidence"`
	MatchCount   int     `json:"match_count"`
	SampleLine   string  `json:"sample_line"`
	Ambiguous    bool    `json:"ambiguous,omitempty"`
}

// JSONOutput represents the full JSON output.
type JSONOutput struct {
	File          string      `json:"file"`
	Matches       []JSONMatch `json:"matches"`
	SampledLines  int         `json:"sampled_lines"`
	ParsedLines   int         `json:"parsed_lines"`
	AmbiguityNote string      `json:"ambiguity_note,omitempty"`
}

func outputDetectJSON(w io.Writer, result *detector.DetectionResult, logFile string, opts *DetectOptions) error {
	output := JSONOutput{
		File:          logFile,
		SampledLines:  result.SampledLines,
		ParsedLines:   result.ParsedLines,
		AmbiguityNote: result.AmbiguityNote,
		Matches:       make([]JSONMatch, 0),
	}

	matches := result.Matches
	if !opts.ShowAll && len(matches) > 1 {
		matches = matches[:1] // Only show best match
	}

	for _, m := range matches {
		output.Matches = append(output.Matches, JSONMatch{
			Name:         m.Format.Name,
			TimePattern:  m.Format.TimePattern,
			TimePosition: m.Position,
			Confidence:   m.Confidence,
			MatchCount:   m.MatchCount,
			SampleLine:   m.SampleLine,
			Ambiguous:    m.Format.Ambiguous,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// writeStarterConfig generates a starter check definition with the detected format.
func writeStarterConfig(fs afero.Fs, w io.Writer, result *detector.DetectionResult, logFile, configPath string) error {
	// Check if file already exists
	if ok, _ := afero.Exists(fs, configPath); ok {
		return fmt.Errorf("config file already exists: %s (will not overwrite)", configPath)
	}

	// Need a detected format to generate config
	if !result.HasMatch() {
		return fmt.Errorf("cannot generate config: no timestamp format detected")
	}

	content := generateStarterConfig(logFile, result.BestMatch())

	// #nosec G306 - config file doesn't need restrictive permissions
	if err := afero.WriteFile(fs, configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(w, "Wrote starter config to: %s\n\n", configPath)
	return nil
}

// generateStarterConfig creates a YAML check definition template.
func generateStarterConfig(logFile string, match *detector.FormatMatch) string {
	// Get absolute path for log file if possible
	absLogFile := logFile
	if abs, err := filepath.Abs(logFile); err == nil {
		absLogFile = abs
	}

	return fmt.Sprintf(`# logwindow check definition
# Generated by: logwindow detect
# Detected format: %s (%.0f%% confidence)

# Every file matching <logfile>* and modified within the interval is checked,
# so rotated files such as %s.1 are included.
logfile: %s

# Regular expression to count. Replace with what you are looking for.
pattern: 'ERROR'

# Window length in minutes
interval: 5

# Matches needed for WARNING and CRITICAL. Critical is checked first.
warning: 1
critical: 1

time_pattern: '%s'
time_position: %d

# webhooks:
#   - name: alerts
#     url: https://example.com/hooks/logwindow
#     token: ${LOGWINDOW_WEBHOOK_TOKEN}
#     trigger: on_alert
#     timeout: 10s
`, match.Format.Name, match.Confidence*100,
		absLogFile,
		absLogFile,
		match.Format.TimePattern,
		match.Position)
}
