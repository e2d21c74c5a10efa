// Package checker runs a log window check over a set of rotated log files.
package checker

import (
	"fmt"
	"time"

	"github.com/ccollicutt/logwindow/pkg/window"
)

// StopReason is why the scan of a file ended.
type StopReason int

const (
	// ReasonEOF: every line was evaluated.
	ReasonEOF StopReason = iota
	ReasonNotFile
	ReasonEmpty
	ReasonNotUTF8
	// ReasonTooOld: a line older than the window ended the scan.
	ReasonTooOld
)

func (r StopReason) String() string {
	switch r {
	case ReasonEOF:
		return "end of file"
	case ReasonNotFile:
		return "not a file"
	case ReasonEmpty:
		return "file empty"
	case ReasonNotUTF8:
		return "file not utf8"
	case ReasonTooOld:
		return "timestamp in line too old"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// MarshalText renders the reason for reports.
func (r StopReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText reads a reason written by MarshalText.
func (r *StopReason) UnmarshalText(text []byte) error {
	for _, candidate := range []StopReason{ReasonEOF, ReasonNotFile, ReasonEmpty, ReasonNotUTF8, ReasonTooOld} {
		if candidate.String() == string(text) {
			*r = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown stop reason %q", text)
}

// FileResult is the outcome of scanning one file.
type FileResult struct {
	Path string `json:"path"`

	// Matches is the number of matching lines inside the window.
	Matches int `json:"matches"`

	// Processed is true when the scan reached a conclusive end: the window
	// boundary or the start of the file.
	Processed bool `json:"processed"`

	Reason StopReason `json:"reason"`

	// Lines is the number of lines evaluated.
	Lines int `json:"lines"`
}

// RunResult aggregates a whole check run.
type RunResult struct {
	TotalMatches   int `json:"total_matches"`
	FilesProcessed int `json:"files_processed"`

	// Candidates is the number of paths the glob matched, before age filtering.
	Candidates int `json:"candidates"`

	Files []FileResult `json:"files"`

	Window    window.Window `json:"-"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
}
