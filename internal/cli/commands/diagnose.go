package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ccollicutt/logwindow/pkg/checker"
	"github.com/ccollicutt/logwindow/pkg/config"
	"github.com/ccollicutt/logwindow/pkg/dateparse"
	"github.com/ccollicutt/logwindow/pkg/detector"
	"github.com/ccollicutt/logwindow/pkg/evaluator"
	"github.com/ccollicutt/logwindow/pkg/mapfile"
	"github.com/ccollicutt/logwindow/pkg/scanner"
	"github.com/ccollicutt/logwindow/pkg/window"
)

// sampleLines is how many of the newest lines the timestamp test reads.
const sampleLines = 10

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	// Fs is the filesystem config and log files are read from.
	// Defaults to the OS filesystem.
	Fs afero.Fs

	// HTTPClient probes webhook endpoints in verbose mode.
	HTTPClient *http.Client
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand(check *CheckOptions, opts *DiagnoseOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose",
		Short: "Diagnose common check configuration issues",
		Long: `Diagnose common check configuration issues.

This command looks for the problems that make a check silently report OK:
- Config file syntax and required settings
- Log files matching <logfile>* and whether they are recent enough
- Binary or unreadable log files
- Time pattern and time position against the newest lines of the log
- Timestamps far ahead of the clock (usually a time zone mismatch)
- Webhook configuration (and connectivity with --verbose)

Example:
  logwindow diagnose --config app.yaml
  logwindow diagnose -l /var/log/messages -p sshd -i 5 --timepattern '%b %d %H:%M:%S'
  logwindow diagnose -v --config app.yaml  # verbose output`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			results := runDiagnose(ctx, cmd.Flags(), check, opts)
			printDiagnostics(cmd.OutOrStdout(), results, check.Verbose)
			return nil
		},
	}
}

func runDiagnose(ctx context.Context, flags *pflag.FlagSet, check *CheckOptions, opts *DiagnoseOptions) []DiagnosticResult {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	results := []DiagnosticResult{}

	// 1. Check config file existence
	if check.ConfigFile != "" {
		result := checkConfigExists(fs, check.ConfigFile)
		results = append(results, result)
		if result.Status == "error" {
			return results
		}
	}

	// 2. Build and validate the check definition
	cfg, result := checkConfigValid(ctx, flags, check)
	results = append(results, result)
	if result.Status == "error" {
		return results
	}

	c, err := checker.New(cfg, append([]checker.CheckerOption{checker.WithFs(fs)}, check.CheckerOptions...)...)
	if err != nil {
		return append(results, DiagnosticResult{Check: "Checker", Status: "error", Message: err.Error()})
	}
	plan, err := c.Plan()
	if err != nil {
		return append(results, DiagnosticResult{
			Check:    "Log Files",
			Status:   "error",
			Message:  err.Error(),
			Suggests: []string{"Glob metacharacters in --logfile must form a valid pattern"},
		})
	}

	// 3. Check log files
	results = append(results, checkLogFiles(fs, cfg, plan)...)

	// 4. Check time pattern and position against actual logs
	results = append(results, checkTimestampFormat(ctx, fs, cfg, plan, check.Verbose)...)

	// 5. Check webhooks configuration
	results = append(results, checkWebhooks(cfg, check.Verbose, opts.HTTPClient)...)

	return results
}

func checkConfigExists(fs afero.Fs, path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Config File",
	}

	info, err := fs.Stat(path)
	if os.IsNotExist(err) {
		result.Status = "error"
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{
			"Check the file path is correct",
			"Use 'logwindow detect --write-config check.yaml <log-file>' to generate a starter config",
		}
		return result
	}
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = "error"
		result.Message = "Path is a directory, not a file"
		return result
	}
	if info.Size() == 0 {
		result.Status = "warning"
		result.Message = "Config file is empty, only flags and defaults apply"
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkConfigValid(ctx context.Context, flags *pflag.FlagSet, check *CheckOptions) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Check Definition",
	}

	cfg, err := check.LoadConfig(ctx, flags)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Invalid check definition: %v", err)
		switch {
		case strings.Contains(err.Error(), "yaml"):
			result.Suggests = []string{"Check YAML syntax - ensure proper indentation (use spaces, not tabs)"}
		case strings.Contains(err.Error(), "toml"):
			result.Suggests = []string{"Check TOML syntax - strings need quotes"}
		case strings.Contains(err.Error(), "timepattern"):
			result.Suggests = []string{"Use 'logwindow detect <log-file>' to find a working time pattern"}
		}
		return nil, result
	}

	result.Status = "ok"
	result.Message = "Check definition is valid"
	result.Details = []string{
		fmt.Sprintf("Logfile: %s*", cfg.Logfile),
		fmt.Sprintf("Pattern: %s", cfg.Pattern),
		fmt.Sprintf("Interval: %d minutes", cfg.Interval),
		fmt.Sprintf("Thresholds: warning %d, critical %d", cfg.Warning, cfg.Critical),
	}
	if cfg.Warning > cfg.Critical {
		result.Status = "warning"
		result.Message = "Warning threshold is above critical, the check can never report WARNING"
	}
	return cfg, result
}

func checkLogFiles(fs afero.Fs, cfg *config.Config, plan *checker.Plan) []DiagnosticResult {
	result := DiagnosticResult{
		Check: fmt.Sprintf("Log Files: %s*", cfg.Logfile),
	}

	if len(plan.Matched) == 0 {
		result.Status = "error"
		result.Message = "No files match, the check will report UNKNOWN"
		result.Suggests = []string{
			"Check if the log file path is correct",
			"Pass the file name without wildcards, rotated siblings are matched automatically",
		}
		return []DiagnosticResult{result}
	}

	fresh := make(map[string]bool, len(plan.Fresh))
	for _, cand := range plan.Fresh {
		fresh[cand.Path] = true
	}

	for _, path := range plan.Matched {
		info, err := fs.Stat(path)
		switch {
		case err != nil:
			result.Details = append(result.Details, fmt.Sprintf("%s: cannot access: %v", path, err))
		case info.IsDir():
			result.Details = append(result.Details, fmt.Sprintf("%s: directory, skipped", path))
		case !fresh[path]:
			result.Details = append(result.Details, fmt.Sprintf("%s: not modified within %d minutes, skipped", path, cfg.Interval))
		default:
			result.Details = append(result.Details, fmt.Sprintf("%s: %d bytes, will be scanned", path, info.Size()))
		}
	}

	if len(plan.Fresh) == 0 {
		result.Status = "warning"
		result.Message = fmt.Sprintf("%d file(s) match but none was modified within %d minutes", len(plan.Matched), cfg.Interval)
		result.Suggests = []string{"The check will report UNKNOWN until the application writes to its log"}
		return []DiagnosticResult{result}
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Matches %d file(s), %d recent enough to scan", len(plan.Matched), len(plan.Fresh))
	return []DiagnosticResult{result}
}

func checkTimestampFormat(ctx context.Context, fs afero.Fs, cfg *config.Config, plan *checker.Plan, verbose bool) []DiagnosticResult {
	if len(plan.Fresh) == 0 && len(plan.Matched) == 0 {
		return nil
	}

	// Test the first file the check would scan, or any match
	logFile := ""
	if len(plan.Fresh) > 0 {
		logFile = plan.Fresh[0].Path
	} else {
		logFile = plan.Matched[0]
	}

	result := DiagnosticResult{
		Check: fmt.Sprintf("Time Pattern Test: %s", logFile),
	}

	lines, err := newestLines(fs, logFile, sampleLines)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot read file: %v", err)
		return []DiagnosticResult{result}
	}
	if len(lines) == 0 {
		result.Status = "warning"
		result.Message = "File has no text lines to test against"
		return []DiagnosticResult{result}
	}

	resolver := dateparse.NewResolver(cfg.Format(), plan.Window.PlaceholderYear(),
		dateparse.WithReference(plan.Window.Reference(cfg.Format().Zoned())))
	matchCount := 0
	var sampleMatch, sampleFail string
	var newest time.Time
	for _, line := range lines {
		field, ok := evaluator.DateField(line, cfg.TimePosition, cfg.Format().Fields())
		ts, parsed := time.Time{}, false
		if ok {
			ts, parsed = resolver.Resolve(field)
		}
		if !parsed {
			if sampleFail == "" {
				sampleFail = line
			}
			continue
		}
		matchCount++
		if sampleMatch == "" {
			sampleMatch = line
			newest = ts
		}
	}

	switch {
	case matchCount == 0:
		result.Status = "error"
		result.Message = fmt.Sprintf("No date found in the %d newest lines, every line will be ignored", len(lines))
		result.Details = []string{
			"Sample line that didn't match:",
			truncate(sampleFail, 80),
		}
		result.Suggests = []string{
			fmt.Sprintf("Time pattern %q at position %d does not match your log format", cfg.TimePattern, cfg.TimePosition),
			"Use 'logwindow detect " + logFile + "' to find the correct pattern",
		}

		// Auto-detect and suggest
		d := detector.New(detector.WithSampleSize(sampleLines), detector.WithFs(fs), detector.WithYear(plan.Window.PlaceholderYear()))
		if detResult, _ := d.DetectFromFile(ctx, logFile); detResult != nil && detResult.HasMatch() {
			best := detResult.BestMatch()
			result.Suggests = append(result.Suggests,
				fmt.Sprintf("Detected format: %s", best.Format.Name),
				fmt.Sprintf("Suggested flags: %s", best.Flags()),
			)
		}
		return []DiagnosticResult{result}
	case matchCount < len(lines)/2:
		result.Status = "warning"
		result.Message = fmt.Sprintf("Date found in only %d/%d sample lines", matchCount, len(lines))
		result.Details = []string{
			"Sample line that didn't match:",
			truncate(sampleFail, 80),
		}
	default:
		result.Status = "ok"
		result.Message = fmt.Sprintf("Date found in %d/%d sample lines", matchCount, len(lines))
		if verbose {
			result.Details = []string{
				"Sample match:",
				truncate(sampleMatch, 80),
			}
		}
	}

	return []DiagnosticResult{result, checkClock(cfg, plan.Window, newest)}
}

// checkClock compares the newest parsed stamp with the window. Stamps far in
// the future are the usual sign of UTC logs read as local time; such a check
// never stops early and counts old lines.
func checkClock(cfg *config.Config, w window.Window, newest time.Time) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Clock",
	}

	age := w.Reference(cfg.Format().Zoned()).Sub(newest).Truncate(time.Second)

	switch {
	case age < -time.Minute:
		result.Status = "warning"
		result.Message = fmt.Sprintf("Newest timestamp is %s ahead of the clock", -age)
		result.Suggests = []string{
			"The log may be written in a different time zone than this host",
			"Add %z to the time pattern if the log carries an offset",
		}
	case age > w.Interval:
		result.Status = "ok"
		result.Message = fmt.Sprintf("Newest timestamp is %s old, outside the %d minute window", age, cfg.Interval)
	default:
		result.Status = "ok"
		result.Message = fmt.Sprintf("Newest timestamp is %s old, inside the %d minute window", max(age, 0), cfg.Interval)
	}
	return result
}

// newestLines returns up to n non-empty text lines, newest first.
func newestLines(fs afero.Fs, path string, n int) ([]string, error) {
	mf, err := mapfile.Open(fs, path)
	if err != nil {
		return nil, err
	}
	defer mf.Close()

	var lines []string
	scanner.Each(mf.Bytes(), func(line []byte) bool {
		text := strings.TrimSpace(string(line))
		if text != "" && utf8.ValidString(text) {
			lines = append(lines, text)
		}
		return len(lines) < n
	})
	return lines, nil
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, verbose bool) {
	fmt.Fprintln(w, "=== logwindow Check Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		// Status icon
		var icon string
		switch r.Status {
		case "ok":
			icon = "PASS"
			okCount++
		case "warning":
			icon = "WARN"
			warnCount++
		case "error":
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if verbose || r.Status != "ok" {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	// Summary
	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nFix the errors above before relying on the check.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nCheck is usable but has warnings.")
	} else {
		fmt.Fprintln(w, "\nCheck looks good!")
	}
}

func checkWebhooks(cfg *config.Config, verbose bool, client *http.Client) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		// Webhooks are optional, just note they're not configured
		if verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  "ok",
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	// URLs, triggers and timeouts were checked by validation already
	for _, wh := range cfg.Webhooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		result := DiagnosticResult{
			Check: fmt.Sprintf("Webhook: %s", name),
		}

		// Check if token looks like an unexpanded env var
		if strings.HasPrefix(wh.Token, "$") {
			result.Status = "warning"
			result.Message = fmt.Sprintf("Token appears to be an unresolved env var: %s", wh.Token)
		} else {
			result.Status = "ok"
			result.Message = fmt.Sprintf("Trigger: %s", wh.Trigger)
			if verbose {
				result.Details = []string{
					fmt.Sprintf("URL: %s", wh.URL),
					fmt.Sprintf("Timeout: %s", wh.Timeout.Std()),
				}
				if wh.Token != "" {
					result.Details = append(result.Details, "Token: configured")
				}
			}
		}

		results = append(results, result)
	}

	// Optionally test webhook connectivity
	if verbose {
		if client == nil {
			client = &http.Client{Timeout: 5 * time.Second}
		}
		for _, wh := range cfg.Webhooks {
			name := wh.Name
			if name == "" {
				name = wh.URL
			}

			result := checkWebhookConnectivity(client, wh)
			result.Check = fmt.Sprintf("Webhook Connectivity: %s", name)
			results = append(results, result)
		}
	}

	return results
}

func checkWebhookConnectivity(client *http.Client, wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	// Just do a HEAD request to check if the endpoint is reachable
	req, err := http.NewRequest(http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}

	if wh.Token != "" {
		req.Header.Set("Authorization", "Bearer "+wh.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
		return result
	}
	defer resp.Body.Close()

	// Any response (even 4xx/5xx) means the server is reachable
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Status = "ok"
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{
			"The endpoint may require POST method (will work during actual webhook send)",
			"Check authentication if using a token",
		}
	}

	return result
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
