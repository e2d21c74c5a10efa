package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ccollicutt/logwindow/internal/logger"
	"github.com/ccollicutt/logwindow/pkg/checker"
	"github.com/ccollicutt/logwindow/pkg/config"
	"github.com/ccollicutt/logwindow/pkg/output"
	"github.com/ccollicutt/logwindow/pkg/webhook"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// CheckOptions holds the command-line options shared by the check and
// validate commands.
type CheckOptions struct {
	ConfigFile   string
	Logfile      string
	Pattern      string
	Interval     int
	Critical     int
	Warning      int
	TimePattern  string
	TimePosition int
	Debug        bool
	Verbose      bool
	Output       string

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string

	// CheckerOptions are appended to the options the commands build
	// themselves. Tests use them to swap the filesystem and clock.
	CheckerOptions []checker.CheckerOption

	// Now is the clock used for error reports. Defaults to time.Now.
	Now func() time.Time
}

func (o *CheckOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// BindCheckFlags registers the check flags on flags.
func BindCheckFlags(flags *pflag.FlagSet, opts *CheckOptions) {
	flags.StringVar(&opts.ConfigFile, "config", "", "Check definition file (YAML, or TOML with a .toml extension)")
	flags.StringVarP(&opts.Logfile, "logfile", "l", "", "Log file name; every file matching <logfile>* is checked")
	flags.StringVarP(&opts.Pattern, "pattern", "p", "", "Regular expression to count")
	flags.IntVarP(&opts.Interval, "interval", "i", 0, "Window length in minutes")
	flags.IntVarP(&opts.Critical, "critical", "c", config.DefaultCritical, "Matches needed for CRITICAL")
	flags.IntVarP(&opts.Warning, "warning", "w", config.DefaultWarning, "Matches needed for WARNING")
	flags.StringVar(&opts.TimePattern, "timepattern", config.DefaultTimePattern, "strftime pattern of the date in each line")
	flags.IntVar(&opts.TimePosition, "timeposition", config.DefaultTimePosition, "Zero-based word index where the date starts")
	flags.BoolVarP(&opts.Debug, "debug", "d", false, "Write debug logs to stderr")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Print matching lines and per-file details")
	flags.StringVarP(&opts.Output, "output", "o", config.DefaultOutput, "Output format (text|json)")

	// Webhook flags
	flags.StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	flags.StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	flags.StringVar(&opts.WebhookTrigger, "webhook-trigger", string(config.WebhookTriggerOnAlert), "When to fire webhook (on_alert|always|never)")
}

// LoadConfig builds the check definition: defaults, then the config file
// (or environment overrides when there is none), then every flag the user
// set explicitly. The returned config is validated. On error the partially
// built config is still returned so the error report can describe it.
func (o *CheckOptions) LoadConfig(ctx context.Context, flags *pflag.FlagSet) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if o.ConfigFile != "" {
		loaded, err := config.Load(ctx, o.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg.ApplyEnvironmentOverrides()
	}

	if flags.Changed("logfile") {
		cfg.Logfile = o.Logfile
	}
	if flags.Changed("pattern") {
		cfg.Pattern = o.Pattern
	}
	if flags.Changed("interval") {
		cfg.Interval = o.Interval
	}
	if flags.Changed("critical") {
		cfg.Critical = o.Critical
	}
	if flags.Changed("warning") {
		cfg.Warning = o.Warning
	}
	if flags.Changed("timepattern") {
		cfg.TimePattern = o.TimePattern
	}
	if flags.Changed("timeposition") {
		cfg.TimePosition = o.TimePosition
	}
	if flags.Changed("output") {
		cfg.Output = o.Output
	}
	cfg.Debug = cfg.Debug || o.Debug
	cfg.Verbose = cfg.Verbose || o.Verbose

	if o.WebhookURL != "" {
		cfg.Webhooks = append(cfg.Webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     o.WebhookURL,
			Token:   o.WebhookToken,
			Trigger: config.WebhookTrigger(o.WebhookTrigger),
		})
	}

	if err := config.Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// RunCheck runs the check and writes the report to the command's output.
// Check failures are reported as UNKNOWN and are not returned as errors;
// the returned error is only for output that could not be written.
func RunCheck(cmd *cobra.Command, opts *CheckOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	cfg, err := opts.LoadConfig(ctx, cmd.Flags())
	if err != nil {
		return reportError(ctx, out, cfg, err, opts.now())
	}

	// JSON consumers get JSON log events on stderr too
	log := logger.New(logger.Options{
		Debug:  cfg.Debug,
		Writer: cmd.ErrOrStderr(),
		JSON:   cfg.Output == config.OutputJSON,
	})

	checkerOpts := []checker.CheckerOption{checker.WithLogger(log)}
	if cfg.Verbose && cfg.Output == config.OutputText {
		checkerOpts = append(checkerOpts, checker.WithEcho(out))
	}
	checkerOpts = append(checkerOpts, opts.CheckerOptions...)

	c, err := checker.New(cfg, checkerOpts...)
	if err != nil {
		return reportError(ctx, out, cfg, err, opts.now())
	}

	var report *output.Report
	res, err := c.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("check failed")
		report = output.NewErrorReport(err, cfg, opts.now())
	} else {
		report = output.NewReport(res, cfg)
	}

	formatter, err := output.NewFormatter(cfg.Output, output.FormatOptions{
		Verbose: cfg.Verbose && res != nil,
	})
	if err != nil {
		return err
	}
	if err := formatter.Format(ctx, report, out); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	// Send webhooks (errors logged but don't change the result)
	webhook.NewClient().Dispatch(ctx, cfg.Webhooks, report, log)

	ExitCode = report.Status.ExitCode()
	return nil
}

// reportError writes an UNKNOWN report for a check that could not run.
func reportError(ctx context.Context, w io.Writer, cfg *config.Config, cause error, now time.Time) error {
	report := output.NewErrorReport(cause, cfg, now)

	name := config.OutputText
	if cfg != nil {
		name = cfg.Output
	}
	formatter, err := output.NewFormatter(name, output.FormatOptions{})
	if err != nil {
		formatter = output.NewTextFormatter(output.FormatOptions{})
	}

	ExitCode = report.Status.ExitCode()
	if err := formatter.Format(ctx, report, w); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}
	return nil
}
