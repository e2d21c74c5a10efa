package checker

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/ccollicutt/logwindow/pkg/window"
)

// Candidate is a glob hit recent enough to hold lines inside the window.
type Candidate struct {
	Path    string
	ModTime time.Time
}

// Expand returns every path matching base+"*", sorted. Rotated siblings such
// as app.log.1 or app.log-20180913 are included.
func Expand(fsys afero.Fs, base string) ([]string, error) {
	pattern := base + "*"
	// afero.Glob reports nothing for a malformed pattern whose directory
	// does not exist, so the syntax is checked up front
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}
	matches, err := afero.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// SelectFresh stats each path and keeps those modified within the window.
// Paths that cannot be stat'ed are logged and dropped.
func SelectFresh(fsys afero.Fs, paths []string, w window.Window, log zerolog.Logger) []Candidate {
	var fresh []Candidate
	for _, path := range paths {
		info, err := fsys.Stat(path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("skipping file, cannot read metadata")
			continue
		}
		if !w.Fresh(info.ModTime()) {
			log.Debug().Str("file", path).Time("modified", info.ModTime()).Msg("skipping file, not modified within interval")
			continue
		}
		fresh = append(fresh, Candidate{Path: path, ModTime: info.ModTime()})
	}
	return fresh
}
