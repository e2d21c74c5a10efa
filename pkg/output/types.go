// Package output turns check results into monitoring statuses and reports.
package output

import (
	"fmt"
	"time"

	"github.com/ccollicutt/logwindow/pkg/checker"
	"github.com/ccollicutt/logwindow/pkg/config"
)

// Status is a monitoring plugin status. Its value is the process exit code.
type Status int

const (
	StatusOK       Status = 0
	StatusWarning  Status = 1
	StatusCritical Status = 2
	StatusUnknown  Status = 3
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusWarning:
		return "WARNING"
	case StatusCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ExitCode returns the process exit code for the status.
func (s Status) ExitCode() int {
	if s < StatusOK || s > StatusUnknown {
		return int(StatusUnknown)
	}
	return int(s)
}

// MarshalText renders the status name in reports.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText reads a status name.
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "OK":
		*s = StatusOK
	case "WARNING":
		*s = StatusWarning
	case "CRITICAL":
		*s = StatusCritical
	case "UNKNOWN":
		*s = StatusUnknown
	default:
		return fmt.Errorf("unknown status %q", text)
	}
	return nil
}

// Evaluate maps a run's totals to a status. Critical is checked before
// warning, and a run that processed no file is unknown unless a threshold
// was already met.
func Evaluate(matches, filesProcessed, warning, critical int) Status {
	switch {
	case matches >= critical:
		return StatusCritical
	case matches >= warning:
		return StatusWarning
	case filesProcessed == 0:
		return StatusUnknown
	default:
		return StatusOK
	}
}

// Report is the complete check output.
type Report struct {
	Status  Status `json:"status"`
	Message string `json:"message"`

	Check    Check                `json:"check"`
	Summary  Summary              `json:"summary"`
	Files    []checker.FileResult `json:"files,omitempty"`
	Metadata Metadata             `json:"metadata"`
}

// Check echoes the parameters the run was made with.
type Check struct {
	Logfile      string `json:"logfile"`
	Pattern      string `json:"pattern"`
	Interval     int    `json:"interval_minutes"`
	Warning      int    `json:"warning"`
	Critical     int    `json:"critical"`
	TimePattern  string `json:"time_pattern"`
	TimePosition int    `json:"time_position"`
}

// Summary provides aggregate statistics.
type Summary struct {
	TotalMatches   int `json:"total_matches"`
	FilesProcessed int `json:"files_processed"`
	Candidates     int `json:"candidates"`
}

// Metadata provides context about the check run.
type Metadata struct {
	CheckedAt   time.Time     `json:"checked_at"`
	OldestLocal time.Time     `json:"oldest_local"`
	Duration    time.Duration `json:"duration_ns"`
}

func checkOf(cfg *config.Config) Check {
	return Check{
		Logfile:      cfg.Logfile,
		Pattern:      cfg.Pattern,
		Interval:     cfg.Interval,
		Warning:      cfg.Warning,
		Critical:     cfg.Critical,
		TimePattern:  cfg.TimePattern,
		TimePosition: cfg.TimePosition,
	}
}

// NewReport creates a Report from a run result.
func NewReport(res *checker.RunResult, cfg *config.Config) *Report {
	r := &Report{
		Status: Evaluate(res.TotalMatches, res.FilesProcessed, cfg.Warning, cfg.Critical),
		Check:  checkOf(cfg),
		Summary: Summary{
			TotalMatches:   res.TotalMatches,
			FilesProcessed: res.FilesProcessed,
			Candidates:     res.Candidates,
		},
		Files: res.Files,
		Metadata: Metadata{
			CheckedAt:   res.StartedAt,
			OldestLocal: res.Window.OldestLocalTime(),
			Duration:    res.Duration,
		},
	}
	r.Message = r.describe()
	return r
}

// NewErrorReport creates an UNKNOWN report for a check that could not run.
// cfg may be nil when the configuration itself failed to load.
func NewErrorReport(err error, cfg *config.Config, now time.Time) *Report {
	r := &Report{
		Status:   StatusUnknown,
		Message:  err.Error(),
		Metadata: Metadata{CheckedAt: now},
	}
	if cfg != nil {
		r.Check = checkOf(cfg)
	}
	return r
}

func (r *Report) describe() string {
	n, p, m := r.Summary.TotalMatches, r.Check.Pattern, r.Check.Interval
	switch r.Status {
	case StatusCritical, StatusWarning:
		return fmt.Sprintf("There are %d instances of \"%s\" in the last %d minutes", n, p, m)
	case StatusUnknown:
		return fmt.Sprintf("There were no files matching the passed filename: \"%s\"", r.Check.Logfile)
	default:
		return fmt.Sprintf("There are only %d instances of \"%s\" in the last %d minutes - Warning threshold is %d", n, p, m, r.Check.Warning)
	}
}

// StatusLine is the single line monitoring systems read.
func (r *Report) StatusLine() string {
	return r.Status.String() + " - " + r.Message
}

// Alerting reports whether the status needs attention.
func (r *Report) Alerting() bool {
	return r.Status != StatusOK
}
