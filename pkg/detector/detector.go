// Package detector suggests a time pattern and time position for a log file.
package detector

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/afero"

	"github.com/ccollicutt/logwindow/pkg/dateparse"
	"github.com/ccollicutt/logwindow/pkg/evaluator"
	"github.com/ccollicutt/logwindow/pkg/mapfile"
	"github.com/ccollicutt/logwindow/pkg/scanner"
)

// Plausible range for epoch stamps, 2001-09-09 to 2100-01-01. Smaller
// numbers are far more likely to be counters or pids.
const (
	minEpoch = 1_000_000_000
	maxEpoch = 4_102_444_800
)

// DetectionResult holds the result of analyzing a log file.
type DetectionResult struct {
	Matches       []FormatMatch // Format and position pairs that matched, best first
	SampledLines  int           // Number of lines sampled
	ParsedLines   int           // Number of lines with detected timestamps
	AmbiguityNote string        // Warning about date ordering if applicable
}

// FormatMatch represents a format found at a word position.
type FormatMatch struct {
	Format     *TimestampFormat
	Position   int       // Word offset for --timeposition
	Confidence float64   // 0.0 to 1.0 (share of sampled lines matched)
	MatchCount int       // Number of lines that matched
	SampleLine string    // Example line that matched
	ParsedTime time.Time // Parsed timestamp from sample
}

// Flags renders the command-line flags selecting this match.
func (m *FormatMatch) Flags() string {
	return fmt.Sprintf("--timepattern %q --timeposition %d", m.Format.TimePattern, m.Position)
}

// Detector samples the newest lines of a file and tries every known format
// at every word position up to a limit.
type Detector struct {
	formats     []*TimestampFormat
	sampleSize  int
	maxPosition int
	year        int
	fs          afero.Fs
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets the number of lines to sample (default 100).
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// WithMaxPosition sets the highest word offset tried (default 5).
func WithMaxPosition(n int) Option {
	return func(d *Detector) {
		if n >= 0 {
			d.maxPosition = n
		}
	}
}

// WithFs reads files through fsys instead of the OS filesystem.
func WithFs(fsys afero.Fs) Option {
	return func(d *Detector) {
		d.fs = fsys
	}
}

// WithYear sets the year assumed for formats without one.
func WithYear(year int) Option {
	return func(d *Detector) {
		d.year = year
	}
}

// New creates a new Detector with default formats.
func New(opts ...Option) *Detector {
	d := &Detector{
		formats:     DefaultFormats(),
		sampleSize:  100,
		maxPosition: 5,
		year:        time.Now().Year(),
		fs:          afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectFromFile analyzes the newest lines of a log file.
func (d *Detector) DetectFromFile(ctx context.Context, path string) (*DetectionResult, error) {
	lines, err := d.sampleFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return d.DetectFromLines(lines), nil
}

type candidate struct {
	format   *TimestampFormat
	position int
}

// DetectFromLines analyzes a slice of log lines. Empty lines and lines
// starting with '#' are ignored.
func (d *Detector) DetectFromLines(lines []string) *DetectionResult {
	result := &DetectionResult{}

	type formatStats struct {
		matchCount int
		sampleLine string
		parsedTime time.Time
	}
	stats := make(map[candidate]*formatStats)
	var order []candidate

	resolvers := make(map[*TimestampFormat]*dateparse.Resolver, len(d.formats))
	for _, f := range d.formats {
		resolvers[f] = dateparse.NewResolver(f.Format, d.year)
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		result.SampledLines++

		for _, f := range d.formats {
			for pos := 0; pos <= d.maxPosition; pos++ {
				field, ok := evaluator.DateField(line, pos, f.Format.Fields())
				if !ok {
					break
				}
				ts, ok := resolvers[f].Resolve(field)
				if !ok || (f.Epoch && (ts.Unix() < minEpoch || ts.Unix() > maxEpoch)) {
					continue
				}

				key := candidate{format: f, position: pos}
				if stats[key] == nil {
					stats[key] = &formatStats{sampleLine: line, parsedTime: ts}
					order = append(order, key)
				}
				stats[key].matchCount++
			}
		}
	}

	if result.SampledLines == 0 {
		return result
	}

	for _, key := range order {
		s := stats[key]
		result.Matches = append(result.Matches, FormatMatch{
			Format:     key.format,
			Position:   key.position,
			Confidence: float64(s.matchCount) / float64(result.SampledLines),
			MatchCount: s.matchCount,
			SampleLine: s.sampleLine,
			ParsedTime: s.parsedTime,
		})
	}

	// Sort by confidence descending, then longer patterns (more specific),
	// then earlier positions.
	sort.SliceStable(result.Matches, func(i, j int) bool {
		a, b := result.Matches[i], result.Matches[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if len(a.Format.TimePattern) != len(b.Format.TimePattern) {
			return len(a.Format.TimePattern) > len(b.Format.TimePattern)
		}
		return a.Position < b.Position
	})

	if len(result.Matches) > 0 {
		result.ParsedLines = result.Matches[0].MatchCount
	}

	if len(result.Matches) > 0 && result.Matches[0].Format.Ambiguous {
		result.AmbiguityNote = "This format has date ordering ambiguity (MM/DD vs DD/MM). " +
			"Verify the pattern matches your log format. " +
			"For European format (DD/MM/YYYY), use --timepattern \"%d/%m/%Y %H:%M:%S\""
	}

	return result
}

// sampleFile collects up to sampleSize non-empty text lines, newest first,
// the same lines a check would look at first.
func (d *Detector) sampleFile(_ context.Context, path string) ([]string, error) {
	mf, err := mapfile.Open(d.fs, path)
	if err != nil {
		return nil, err
	}
	defer mf.Close()

	var lines []string
	scanner.Each(mf.Bytes(), func(line []byte) bool {
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) > 0 && trimmed[0] != '#' && utf8.Valid(trimmed) {
			lines = append(lines, string(line))
		}
		return len(lines) < d.sampleSize
	})

	return lines, nil
}

// BestMatch returns the highest confidence match, or nil if none found.
func (r *DetectionResult) BestMatch() *FormatMatch {
	if len(r.Matches) == 0 {
		return nil
	}
	return &r.Matches[0]
}

// HasMatch returns true if at least one format matched.
func (r *DetectionResult) HasMatch() bool {
	return len(r.Matches) > 0
}
