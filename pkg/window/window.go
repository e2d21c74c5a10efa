// Package window computes the trailing time window a check covers.
package window

import "time"

// Window is the interval (now - interval, now] a log line must fall into.
// It is computed once per run and never changes afterwards.
type Window struct {
	// Now is the reference time of the run.
	Now time.Time

	// Interval is how far back the window reaches.
	Interval time.Duration

	// Offset is the local UTC offset in seconds the window was built with.
	Offset int

	// OldestUTC is the oldest allowed instant in seconds since the epoch.
	OldestUTC int64

	// OldestLocal is OldestUTC re-read as local wall clock time. Log lines
	// stamped in local time without a zone compare against this value.
	OldestLocal int64
}

// New builds the window ending at now. offset is the local UTC offset in
// seconds (east positive) and should come from LocalOffset.
func New(now time.Time, interval time.Duration, offset int) Window {
	oldest := now.Unix() - int64(interval/time.Second)
	if oldest < 0 {
		oldest = 0
	}
	local := oldest + int64(offset)
	if local < 0 {
		local = 0
	}
	return Window{
		Now:         now,
		Interval:    interval,
		Offset:      offset,
		OldestUTC:   oldest,
		OldestLocal: local,
	}
}

// ForMinutes builds the window for an interval given in minutes.
func ForMinutes(now time.Time, minutes int, offset int) Window {
	return New(now, time.Duration(minutes)*time.Minute, offset)
}

// LocalOffset returns the UTC offset of the process's configured zone at t.
func LocalOffset(t time.Time) int {
	_, offset := t.In(time.Local).Zone()
	return offset
}

// TooOld reports whether ts lies before the window. Zone-less stamps are
// wall clock readings and compare against OldestLocal; zoned ones are real
// instants and compare against OldestUTC.
func (w Window) TooOld(ts time.Time, zoned bool) bool {
	if zoned {
		return w.OldestUTC > ts.Unix()
	}
	return w.OldestLocal > ts.Unix()
}

// Fresh reports whether a file modified at mtime may hold lines inside the
// window. Modification times in the future count as fresh.
func (w Window) Fresh(mtime time.Time) bool {
	age := w.Now.Sub(mtime)
	if age < 0 {
		return true
	}
	return age.Truncate(time.Second) <= w.Interval
}

// PlaceholderYear is the local year of Now, used for yearless stamps.
func (w Window) PlaceholderYear() int {
	return w.WallClock().Year()
}

// WallClock returns Now as a zone-less local wall clock reading, the form
// stamps without a zone are parsed into.
func (w Window) WallClock() time.Time {
	return w.Now.UTC().Add(time.Duration(w.Offset) * time.Second)
}

// Reference is the current time to compare a stamp against: Now for zoned
// formats, the wall clock otherwise.
func (w Window) Reference(zoned bool) time.Time {
	if zoned {
		return w.Now
	}
	return w.WallClock()
}

// OldestUTCTime returns OldestUTC as a time in UTC.
func (w Window) OldestUTCTime() time.Time {
	return time.Unix(w.OldestUTC, 0).UTC()
}

// OldestLocalTime returns the local boundary as a zone-less wall clock time.
func (w Window) OldestLocalTime() time.Time {
	return time.Unix(w.OldestLocal, 0).UTC()
}
