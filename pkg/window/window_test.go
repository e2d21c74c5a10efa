package window

import (
	"testing"
	"time"
)

var fixedNow = time.Date(2018, 9, 13, 12, 0, 0, 0, time.UTC)

func TestNew_OldestUTC(t *testing.T) {
	w := ForMinutes(fixedNow, 1, 0)

	want := fixedNow.Unix() - 60
	if w.OldestUTC != want {
		t.Errorf("OldestUTC = %d, want %d", w.OldestUTC, want)
	}
	if w.OldestLocal != want {
		t.Errorf("OldestLocal = %d, want %d with zero offset", w.OldestLocal, want)
	}
}

func TestNew_OldestLocalAdjustedToOffset(t *testing.T) {
	// America/Los_Angeles in September: UTC-7.
	offset := -7 * 60 * 60
	w := ForMinutes(fixedNow, 13, offset)

	want := fixedNow.Unix() - 13*60 - 7*60*60
	if w.OldestLocal != want {
		t.Errorf("OldestLocal = %d, want %d", w.OldestLocal, want)
	}
}

func TestNew_FloorsAtZero(t *testing.T) {
	now := time.Unix(30, 0)
	w := ForMinutes(now, 5, -3600)

	if w.OldestUTC != 0 {
		t.Errorf("OldestUTC = %d, want 0", w.OldestUTC)
	}
	if w.OldestLocal != 0 {
		t.Errorf("OldestLocal = %d, want 0", w.OldestLocal)
	}
}

func TestLocalOffset(t *testing.T) {
	original := time.Local
	defer func() { time.Local = original }()

	time.Local = time.FixedZone("TEST", 5*3600+1800)
	if got := LocalOffset(fixedNow); got != 5*3600+1800 {
		t.Errorf("LocalOffset() = %d, want %d", got, 5*3600+1800)
	}

	time.Local = time.UTC
	if got := LocalOffset(fixedNow); got != 0 {
		t.Errorf("LocalOffset() = %d, want 0", got)
	}
}

func TestTooOld(t *testing.T) {
	offset := 2 * 60 * 60
	w := ForMinutes(fixedNow, 5, offset)
	wall := fixedNow.Add(time.Duration(offset) * time.Second)

	tests := []struct {
		name  string
		ts    time.Time
		zoned bool
		want  bool
	}{
		{name: "local now", ts: wall, want: false},
		{name: "local on boundary", ts: wall.Add(-5 * time.Minute), want: false},
		{name: "local one second past boundary", ts: wall.Add(-5*time.Minute - time.Second), want: true},
		{name: "utc stamp read as local", ts: fixedNow, want: true},
		{name: "zoned now", ts: fixedNow, zoned: true, want: false},
		{name: "zoned before window", ts: fixedNow.Add(-6 * time.Minute), zoned: true, want: true},
		{name: "future", ts: wall.Add(time.Hour), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.TooOld(tt.ts, tt.zoned); got != tt.want {
				t.Errorf("TooOld(%v, %v) = %v, want %v", tt.ts, tt.zoned, got, tt.want)
			}
		})
	}
}

func TestFresh(t *testing.T) {
	w := ForMinutes(fixedNow, 5, 0)

	tests := []struct {
		name  string
		mtime time.Time
		want  bool
	}{
		{name: "just modified", mtime: fixedNow, want: true},
		{name: "exactly interval old", mtime: fixedNow.Add(-5 * time.Minute), want: true},
		{name: "older than interval", mtime: fixedNow.Add(-5*time.Minute - time.Second), want: false},
		{name: "years old", mtime: time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC), want: false},
		{name: "future", mtime: fixedNow.Add(time.Minute), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Fresh(tt.mtime); got != tt.want {
				t.Errorf("Fresh(%v) = %v, want %v", tt.mtime, got, tt.want)
			}
		})
	}
}

func TestPlaceholderYear(t *testing.T) {
	newYearUTC := time.Date(2018, 12, 31, 23, 30, 0, 0, time.UTC)

	if got := ForMinutes(newYearUTC, 1, 0).PlaceholderYear(); got != 2018 {
		t.Errorf("PlaceholderYear() = %d, want 2018", got)
	}
	if got := ForMinutes(newYearUTC, 1, 3600).PlaceholderYear(); got != 2019 {
		t.Errorf("PlaceholderYear() = %d, want 2019 one hour east of UTC", got)
	}
}

func TestReference(t *testing.T) {
	w := ForMinutes(fixedNow, 1, -3600)

	if !w.Reference(true).Equal(fixedNow) {
		t.Errorf("Reference(true) = %v, want %v", w.Reference(true), fixedNow)
	}
	want := time.Date(2018, 9, 13, 11, 0, 0, 0, time.UTC)
	if got := w.Reference(false); !got.Equal(want) {
		t.Errorf("Reference(false) = %v, want %v", got, want)
	}
	if !w.WallClock().Equal(want) {
		t.Errorf("WallClock() = %v, want %v", w.WallClock(), want)
	}
}

func TestBoundaryTimes(t *testing.T) {
	w := ForMinutes(fixedNow, 10, 3600)

	if !w.OldestUTCTime().Equal(fixedNow.Add(-10 * time.Minute)) {
		t.Errorf("OldestUTCTime() = %v", w.OldestUTCTime())
	}
	if !w.OldestLocalTime().Equal(fixedNow.Add(50 * time.Minute)) {
		t.Errorf("OldestLocalTime() = %v", w.OldestLocalTime())
	}
}
