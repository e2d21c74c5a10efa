// Package evaluator decides what a single log line means for a check.
package evaluator

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ccollicutt/logwindow/pkg/dateparse"
	"github.com/ccollicutt/logwindow/pkg/window"
)

// Outcome is the verdict for one line.
type Outcome int

const (
	// NoMatch: the line is in the window (or empty) but does not match.
	NoMatch Outcome = iota
	// Match: the line is in the window and matches the pattern.
	Match
	// NoDate: no usable date at the configured position. Scanning continues.
	NoDate
	// NotUTF8: the line is not text. Scanning of the file stops.
	NotUTF8
	// TooOld: the line predates the window. Scanning of the file stops.
	TooOld
)

func (o Outcome) String() string {
	switch o {
	case NoMatch:
		return "no match"
	case Match:
		return "match"
	case NoDate:
		return "no date"
	case NotUTF8:
		return "not utf8"
	case TooOld:
		return "too old"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Stops reports whether the outcome ends the scan of the current file.
func (o Outcome) Stops() bool {
	return o == NotUTF8 || o == TooOld
}

// Evaluator applies one check's pattern, date position and window to lines.
type Evaluator struct {
	pattern  *regexp.Regexp
	resolver *dateparse.Resolver
	offset   int
	window   window.Window
	echo     io.Writer
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithEcho writes every matched line to w.
func WithEcho(w io.Writer) Option {
	return func(e *Evaluator) {
		e.echo = w
	}
}

// New creates an Evaluator. offset is the word index the date starts at.
func New(pattern *regexp.Regexp, resolver *dateparse.Resolver, offset int, w window.Window, opts ...Option) *Evaluator {
	e := &Evaluator{
		pattern:  pattern,
		resolver: resolver,
		offset:   offset,
		window:   w,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate classifies line.
func (e *Evaluator) Evaluate(line []byte) Outcome {
	outcome, _ := e.Inspect(line)
	return outcome
}

// Inspect classifies line and also returns the timestamp it resolved, which
// is the zero time for NoMatch on empty lines, NoDate and NotUTF8.
func (e *Evaluator) Inspect(line []byte) (Outcome, time.Time) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return NoMatch, time.Time{}
	}
	if !utf8.Valid(line) {
		return NotUTF8, time.Time{}
	}
	text := string(line)

	field, ok := DateField(text, e.offset, e.resolver.Format().Fields())
	if !ok {
		return NoDate, time.Time{}
	}
	ts, ok := e.resolver.Resolve(field)
	if !ok {
		return NoDate, time.Time{}
	}
	if e.window.TooOld(ts, e.resolver.Format().Zoned()) {
		return TooOld, ts
	}

	if !e.pattern.MatchString(text) {
		return NoMatch, ts
	}
	if e.echo != nil {
		fmt.Fprintln(e.echo, text)
	}
	return Match, ts
}

// DateField returns the n whitespace separated words of text starting at
// word offset, joined by single spaces. ok is false when the line is too
// short.
func DateField(text string, offset, n int) (string, bool) {
	words := strings.Fields(text)
	if offset < 0 || n < 1 || offset+n > len(words) {
		return "", false
	}
	return strings.Join(words[offset:offset+n], " "), true
}
