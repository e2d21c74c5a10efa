package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/logwindow/internal/logger"
	"github.com/ccollicutt/logwindow/pkg/checker"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(opts *CheckOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate a check definition",
		Long: `Validate the check flags and configuration file without scanning any log.

Checks:
  - Required settings (logfile, pattern, interval)
  - Threshold and time position ranges
  - Regex pattern validity
  - Time pattern validity
  - Webhook URLs
  - Which files match <logfile>* and which are recent enough to be scanned`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, opts)
		},
	}
}

func runValidate(cmd *cobra.Command, opts *CheckOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	cfg, err := opts.LoadConfig(ctx, cmd.Flags())
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	log := logger.New(logger.Options{Debug: cfg.Debug, Writer: cmd.ErrOrStderr()})
	c, err := checker.New(cfg, append([]checker.CheckerOption{checker.WithLogger(log)}, opts.CheckerOptions...)...)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	plan, err := c.Plan()
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	// Report what we found
	fmt.Fprintf(out, "Configuration valid!\n")
	fmt.Fprintf(out, "  Logfile:       %s*\n", cfg.Logfile)
	fmt.Fprintf(out, "  Pattern:       %s\n", cfg.Pattern)
	fmt.Fprintf(out, "  Interval:      %d minutes\n", cfg.Interval)
	fmt.Fprintf(out, "  Thresholds:    warning %d, critical %d\n", cfg.Warning, cfg.Critical)
	fmt.Fprintf(out, "  Time pattern:  %s (position %d)\n", cfg.TimePattern, cfg.TimePosition)
	fmt.Fprintf(out, "  Window start:  %s UTC, %s local\n",
		plan.Window.OldestUTCTime().Format("2006-01-02 15:04:05"),
		plan.Window.OldestLocalTime().Format("2006-01-02 15:04:05"))
	if len(cfg.Webhooks) > 0 {
		fmt.Fprintf(out, "  Webhooks:      %d\n", len(cfg.Webhooks))
	}

	// Files are informational only: a rotated-away log is not a config error
	if len(plan.Matched) == 0 {
		fmt.Fprintf(out, "\nWarning: No files match %s*\n", cfg.Logfile)
		return nil
	}

	fresh := make(map[string]bool, len(plan.Fresh))
	for _, cand := range plan.Fresh {
		fresh[cand.Path] = true
	}

	fmt.Fprintf(out, "\nLog files matched: %d (%d modified within the interval)\n", len(plan.Matched), len(plan.Fresh))
	for _, path := range plan.Matched {
		state := "too old, skipped"
		if fresh[path] {
			state = "will be scanned"
		}
		fmt.Fprintf(out, "  - %s (%s)\n", path, state)
	}

	return nil
}
