package dateparse

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var errNotApplicable = errors.New("strategy does not apply")

// Strategy is one way of turning date text into a timestamp. Strategies are
// pure: they see only the text, the format and the placeholder year.
type Strategy func(text string, f *Format, year int) (time.Time, error)

// DefaultStrategies is the order a Resolver tries strategies in.
var DefaultStrategies = []Strategy{Direct, TrailingInput, MissingYear}

// Direct parses text strictly against the format.
func Direct(text string, f *Format, _ int) (time.Time, error) {
	return f.parse(text)
}

// TrailingInput handles fractional or other suffixes the format does not
// model, such as "00:01:51,079". It applies only when a strict parse fails
// on leftover input; the text is cut at the first comma and resolved again.
func TrailingInput(text string, f *Format, year int) (time.Time, error) {
	_, err := f.parse(text)
	if !errors.Is(err, ErrTrailingInput) {
		return time.Time{}, errNotApplicable
	}
	cut := text
	if i := strings.IndexByte(text, ','); i >= 0 {
		cut = text[:i]
	}
	if len(cut) == len(text) {
		return time.Time{}, err
	}
	return firstSuccess(cut, f, year, Direct, MissingYear)
}

// MissingYear handles formats without a year, common in syslog style
// stamps, by prefixing the placeholder year to both text and format.
func MissingYear(text string, f *Format, year int) (time.Time, error) {
	if f.withYear == nil {
		return time.Time{}, errNotApplicable
	}
	return f.withYear.parse(fmt.Sprintf("%04d %s", year, text))
}

func firstSuccess(text string, f *Format, year int, strategies ...Strategy) (time.Time, error) {
	err := errNotApplicable
	for _, s := range strategies {
		var ts time.Time
		ts, err = s(text, f, year)
		if err == nil {
			return ts, nil
		}
	}
	return time.Time{}, err
}

// rolloverSlack is how far past the reference a yearless stamp may land
// before it is taken to belong to the previous year.
const rolloverSlack = 24 * time.Hour

// Resolver resolves date fields against one format.
type Resolver struct {
	format     *Format
	year       int
	reference  time.Time
	strategies []Strategy
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithReference sets the current time yearless stamps are checked against.
// A stamp that would resolve more than a day after ref is resolved again
// with the previous year, so December lines read in January stay in the
// past. ref must be expressed the way the format's stamps parse: a zone-less
// wall clock reading in UTC for formats without a zone.
func WithReference(ref time.Time) ResolverOption {
	return func(r *Resolver) {
		r.reference = ref
	}
}

// NewResolver creates a Resolver. placeholderYear is injected into dates
// whose format carries no year.
func NewResolver(format *Format, placeholderYear int, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		format:     format,
		year:       placeholderYear,
		strategies: DefaultStrategies,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Format returns the format the resolver parses with.
func (r *Resolver) Format() *Format {
	return r.format
}

// Resolve returns the timestamp in field, truncated to whole seconds.
// It returns false when no strategy can make sense of the text; that is
// not an error, the line simply has no usable date.
func (r *Resolver) Resolve(field string) (time.Time, bool) {
	ts, err := firstSuccess(field, r.format, r.year, r.strategies...)
	if err != nil {
		return time.Time{}, false
	}
	if r.rollsOver(ts) {
		if prev, err := firstSuccess(field, r.format, r.year-1, r.strategies...); err == nil {
			ts = prev
		}
	}
	return ts.Truncate(time.Second), true
}

func (r *Resolver) rollsOver(ts time.Time) bool {
	if r.reference.IsZero() || r.format.HasYear() {
		return false
	}
	return ts.Sub(r.reference) > rolloverSlack
}
