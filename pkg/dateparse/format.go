// Package dateparse resolves timestamps embedded in log lines.
//
// Formats are written in strftime notation (the notation monitoring plugins
// have always used for -timepattern) and compiled once into a Go time layout.
// Resolution is best effort: a Resolver tries a fixed list of strategies and
// reports "unparseable" instead of failing when none of them succeeds.
package dateparse

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultFormat is the time pattern used when none is configured.
const DefaultFormat = "%Y-%m-%d %H:%M:%S"

// ErrTrailingInput reports text left over after the format was fully consumed.
var ErrTrailingInput = errors.New("trailing input")

// ErrIncomplete reports a format that cannot pin down an instant on its own,
// typically because it has no year.
var ErrIncomplete = errors.New("not enough fields to build a timestamp")

type component uint16

const (
	hasYear component = 1 << iota
	hasMonth
	hasDay
	hasYearDay
	hasHour
	hasMinute
	hasZone
)

type directive struct {
	layout string
	sets   component
}

// Numeric directives map to the unpadded Go layout elements, which also
// accept zero padded input. That keeps "Aug 8" and "Aug 08" equally valid.
var directives = map[byte]directive{
	'Y': {"2006", hasYear},
	'y': {"06", hasYear},
	'm': {"1", hasMonth},
	'b': {"Jan", hasMonth},
	'h': {"Jan", hasMonth},
	'B': {"January", hasMonth},
	'd': {"2", hasDay},
	'e': {"2", hasDay},
	'j': {"002", hasYearDay},
	'H': {"15", hasHour},
	'k': {"15", hasHour},
	'I': {"3", hasHour},
	'l': {"3", hasHour},
	'M': {"4", hasMinute},
	'S': {"5", 0},
	'p': {"PM", 0},
	'P': {"pm", 0},
	'a': {"Mon", 0},
	'A': {"Monday", 0},
	'z': {"-0700", hasZone},
	'Z': {"MST", hasZone},
	'T': {"15:4:5", hasHour | hasMinute},
	'R': {"15:4", hasHour | hasMinute},
	'F': {"2006-1-2", hasYear | hasMonth | hasDay},
	'D': {"1/2/06", hasYear | hasMonth | hasDay},
	'n': {" ", 0},
	't': {" ", 0},
	'%': {"%", 0},
}

// Format is a compiled time pattern.
type Format struct {
	raw    string
	layout string
	fields int
	epoch  bool
	has    component

	// withYear is the same pattern prefixed with "%Y ", set only when the
	// pattern itself carries no year.
	withYear *Format
}

// Compile translates a strftime style pattern into a Format. A pattern
// without any '%' directive is taken verbatim as a Go time layout.
func Compile(pattern string) (*Format, error) {
	f, err := compile(pattern)
	if err != nil {
		return nil, err
	}
	if !f.epoch && f.has&hasYear == 0 && strings.Contains(pattern, "%") {
		wy, err := compile("%Y " + pattern)
		if err != nil {
			return nil, err
		}
		f.withYear = wy
	}
	return f, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string) *Format {
	f, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return f
}

func compile(pattern string) (*Format, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, errors.New("time pattern is empty")
	}

	f := &Format{
		raw:    pattern,
		fields: len(strings.Fields(pattern)),
	}

	if strings.TrimSpace(pattern) == "%s" {
		f.epoch = true
		return f, nil
	}

	if !strings.Contains(pattern, "%") {
		f.layout = pattern
		f.has = hasYear | hasMonth | hasDay | hasHour | hasMinute
		for _, zone := range []string{"MST", "-07", "Z07"} {
			if strings.Contains(pattern, zone) {
				f.has |= hasZone
			}
		}
		return f, nil
	}

	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(pattern) {
			return nil, fmt.Errorf("time pattern %q ends with a lone %%", pattern)
		}
		i++
		switch d := pattern[i]; d {
		case ':':
			if i+1 >= len(pattern) || pattern[i+1] != 'z' {
				return nil, fmt.Errorf("time pattern %q: unsupported directive %%:", pattern)
			}
			i++
			b.WriteString("-07:00")
			f.has |= hasZone
		case 'f':
			prev := b.String()
			if prev == "" || (prev[len(prev)-1] != '.' && prev[len(prev)-1] != ',') {
				return nil, fmt.Errorf("time pattern %q: %%f must follow '.' or ','", pattern)
			}
			b.WriteString("999999999")
		case 's':
			return nil, fmt.Errorf("time pattern %q: %%s must be the whole pattern", pattern)
		default:
			dir, ok := directives[d]
			if !ok {
				return nil, fmt.Errorf("time pattern %q: unsupported directive %%%c", pattern, d)
			}
			b.WriteString(dir.layout)
			f.has |= dir.sets
		}
	}
	f.layout = b.String()
	return f, nil
}

// String returns the pattern the format was compiled from.
func (f *Format) String() string { return f.raw }

// Layout returns the Go time layout, empty for epoch formats.
func (f *Format) Layout() string { return f.layout }

// Fields returns the number of whitespace separated tokens the pattern spans.
func (f *Format) Fields() int { return f.fields }

// Zoned reports whether parsed timestamps carry their own zone, either
// through a zone directive or because they are epoch seconds.
func (f *Format) Zoned() bool { return f.epoch || f.has&hasZone != 0 }

// HasYear reports whether the pattern contains a year.
func (f *Format) HasYear() bool { return f.epoch || f.has&hasYear != 0 }

// Complete reports whether the pattern alone identifies an instant.
func (f *Format) Complete() bool {
	if f.epoch {
		return true
	}
	date := f.has&hasYearDay != 0 || (f.has&hasMonth != 0 && f.has&hasDay != 0)
	return f.has&hasYear != 0 && date && f.has&hasHour != 0 && f.has&hasMinute != 0
}

// parse matches text strictly against the format.
func (f *Format) parse(text string) (time.Time, error) {
	if f.epoch {
		return parseEpoch(text)
	}

	ts, err := time.Parse(f.layout, text)
	if err != nil {
		var pe *time.ParseError
		if errors.As(err, &pe) && strings.HasPrefix(pe.Message, ": extra text") {
			return time.Time{}, fmt.Errorf("%w: %v", ErrTrailingInput, err)
		}
		return time.Time{}, err
	}
	if !f.Complete() {
		return time.Time{}, ErrIncomplete
	}
	return ts, nil
}

func parseEpoch(text string) (time.Time, error) {
	end := 0
	if end < len(text) && (text[end] == '-' || text[end] == '+') {
		end++
	}
	for end < len(text) && text[end] >= '0' && text[end] <= '9' {
		end++
	}
	secs, err := strconv.ParseInt(text[:end], 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing epoch seconds %q: %w", text, err)
	}
	if end < len(text) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrTrailingInput, text[end:])
	}
	return time.Unix(secs, 0).UTC(), nil
}
