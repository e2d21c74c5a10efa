package checker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/ccollicutt/logwindow/pkg/config"
	"github.com/ccollicutt/logwindow/pkg/dateparse"
	"github.com/ccollicutt/logwindow/pkg/evaluator"
	"github.com/ccollicutt/logwindow/pkg/mapfile"
	"github.com/ccollicutt/logwindow/pkg/window"
)

// Checker runs one validated check definition.
type Checker struct {
	cfg *config.Config

	// Options
	fs     afero.Fs
	now    func() time.Time
	offset func(time.Time) int
	year   int // 0 means the local year of now
	log    zerolog.Logger
	echo   io.Writer
	open   openFunc
}

// CheckerOption configures checker behavior.
type CheckerOption func(*Checker)

// WithFs reads log files through fsys instead of the OS filesystem.
func WithFs(fsys afero.Fs) CheckerOption {
	return func(c *Checker) {
		c.fs = fsys
	}
}

// WithNow sets the clock the window is computed from.
func WithNow(now func() time.Time) CheckerOption {
	return func(c *Checker) {
		c.now = now
	}
}

// WithOffset fixes the local UTC offset in seconds instead of reading it
// from the configured zone.
func WithOffset(seconds int) CheckerOption {
	return func(c *Checker) {
		c.offset = func(time.Time) int { return seconds }
	}
}

// WithPlaceholderYear sets the year given to dates whose format has none.
func WithPlaceholderYear(year int) CheckerOption {
	return func(c *Checker) {
		c.year = year
	}
}

// WithLogger sets the logger for skip reasons and scan details.
func WithLogger(log zerolog.Logger) CheckerOption {
	return func(c *Checker) {
		c.log = log
	}
}

// WithEcho writes matched lines to w.
func WithEcho(w io.Writer) CheckerOption {
	return func(c *Checker) {
		c.echo = w
	}
}

// New creates a Checker. cfg must have passed config.Validate.
func New(cfg *config.Config, opts ...CheckerOption) (*Checker, error) {
	if cfg.CompiledPattern() == nil || cfg.Format() == nil {
		return nil, errors.New("checker: configuration has not been validated")
	}

	c := &Checker{
		cfg:    cfg,
		fs:     afero.NewOsFs(),
		now:    time.Now,
		offset: window.LocalOffset,
		log:    zerolog.Nop(),
		open:   mapfile.Open,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Window computes the window a run starting now would use.
func (c *Checker) Window() window.Window {
	now := c.now()
	return window.New(now, c.cfg.IntervalDuration(), c.offset(now))
}

// Plan is the set of files a run would look at.
type Plan struct {
	Window window.Window

	// Matched holds every path matching Logfile+"*", sorted.
	Matched []string

	// Fresh holds the matched files modified within the interval.
	Fresh []Candidate
}

// Plan globs and age-filters the candidate files without opening them.
func (c *Checker) Plan() (*Plan, error) {
	w := c.Window()
	paths, err := Expand(c.fs, c.cfg.Logfile)
	if err != nil {
		return nil, err
	}
	return &Plan{
		Window:  w,
		Matched: paths,
		Fresh:   SelectFresh(c.fs, paths, w, c.log),
	}, nil
}

// Run globs Logfile+"*", drops files not modified within the interval and
// scans the rest one after another, newest line first.
//
// Files that cannot be opened are logged and skipped. A file too large to
// map, an invalid glob or a cancelled context end the run with an error.
func (c *Checker) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()
	plan, err := c.Plan()
	if err != nil {
		return nil, err
	}
	w := plan.Window

	year := c.year
	if year == 0 {
		year = w.PlaceholderYear()
	}
	resolver := dateparse.NewResolver(c.cfg.Format(), year,
		dateparse.WithReference(w.Reference(c.cfg.Format().Zoned())))

	var evalOpts []evaluator.Option
	if c.echo != nil {
		evalOpts = append(evalOpts, evaluator.WithEcho(c.echo))
	}
	eval := evaluator.New(c.cfg.CompiledPattern(), resolver, c.cfg.TimePosition, w, evalOpts...)

	proc := NewProcessor(c.fs, eval, c.log)
	proc.open = c.open

	c.log.Debug().
		Str("glob", c.cfg.Logfile+"*").
		Time("now", w.Now).
		Int("offset", w.Offset).
		Time("oldest_utc", w.OldestUTCTime()).
		Time("oldest_local", w.OldestLocalTime()).
		Str("time_pattern", c.cfg.Format().String()).
		Str("layout", c.cfg.Format().Layout()).
		Msg("starting check")

	res := &RunResult{
		Candidates: len(plan.Matched),
		Files:      []FileResult{},
		Window:     w,
		StartedAt:  w.Now,
	}

	for _, cand := range plan.Fresh {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("check cancelled: %w", err)
		}

		fr, err := proc.Process(cand.Path)
		if errors.Is(err, mapfile.ErrTooLarge) {
			return nil, err
		}
		if err != nil {
			c.log.Warn().Err(err).Str("file", cand.Path).Msg("skipping file")
			continue
		}

		c.log.Debug().
			Str("file", fr.Path).
			Int("matches", fr.Matches).
			Int("lines", fr.Lines).
			Bool("processed", fr.Processed).
			Stringer("reason", fr.Reason).
			Msg("scanned file")

		res.Files = append(res.Files, fr)
		res.TotalMatches += fr.Matches
		if fr.Processed {
			res.FilesProcessed++
		}
	}

	res.Duration = time.Since(start)
	return res, nil
}
