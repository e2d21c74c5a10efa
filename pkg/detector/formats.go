package detector

import "github.com/ccollicutt/logwindow/pkg/dateparse"

// TimestampFormat represents a known timestamp format for detection.
type TimestampFormat struct {
	Name        string            // Human-readable name
	TimePattern string            // strftime pattern (or Go layout) for --timepattern
	Format      *dateparse.Format // Compiled pattern (set during init)
	Examples    []string          // Example timestamps
	Ambiguous   bool              // True if format has date ordering ambiguity (MM/DD vs DD/MM)
	Epoch       bool              // Seconds since the epoch, range checked during detection
}

// DefaultFormats returns the built-in timestamp formats to detect.
// Formats are ordered roughly by specificity (more specific patterns first).
// Fractional seconds after the last field are accepted by every format, so
// Python and Log4j style stamps need no entry of their own.
func DefaultFormats() []*TimestampFormat {
	formats := []*TimestampFormat{
		{
			Name:        "ISO 8601 with timezone",
			TimePattern: "2006-01-02T15:04:05Z07:00",
			Examples:    []string{"2024-01-15T10:30:00+00:00", "2024-01-15T10:30:00.123Z"},
		},
		{
			Name:        "ISO 8601",
			TimePattern: "%Y-%m-%dT%H:%M:%S",
			Examples:    []string{"2024-01-15T10:30:00", "2024-01-15T10:30:00.123"},
		},
		{
			Name:        "Bracketed datetime",
			TimePattern: "[%Y-%m-%d %H:%M:%S]",
			Examples:    []string{"[2024-01-15 10:30:00]"},
		},
		{
			Name:        "Datetime (space-separated)",
			TimePattern: "%Y-%m-%d %H:%M:%S",
			Examples:    []string{"2024-01-15 10:30:00", "2024-01-15 10:30:00,123"},
		},
		{
			Name:        "Syslog with year",
			TimePattern: "%b %d %Y %H:%M:%S",
			Examples:    []string{"Jun 14 2024 15:16:01"},
		},
		{
			Name:        "Syslog (BSD)",
			TimePattern: "%b %d %H:%M:%S",
			Examples:    []string{"Jun 14 15:16:01", "Jan  5 09:30:00"},
		},
		{
			Name:        "Apache/NGINX CLF",
			TimePattern: "[%d/%b/%Y:%H:%M:%S %z]",
			Examples:    []string{"[15/Jun/2024:10:30:00 +0000]"},
		},
		{
			Name:        "Apache error log",
			TimePattern: "[%a %b %d %H:%M:%S %Y]",
			Examples:    []string{"[Sun Dec 04 04:47:44 2005]"},
		},
		{
			Name:        "Spark/Hadoop short date",
			TimePattern: "%y/%m/%d %H:%M:%S",
			Examples:    []string{"17/06/09 20:10:40"},
		},
		{
			Name:        "HDFS compact",
			TimePattern: "%y%m%d %H%M%S",
			Examples:    []string{"081109 203615"},
		},
		{
			Name:        "Unix timestamp (seconds)",
			TimePattern: "%s",
			Examples:    []string{"1705315800"},
			Epoch:       true,
		},
		{
			Name:        "US date format (MM/DD/YYYY)",
			TimePattern: "%m/%d/%Y %H:%M:%S",
			Examples:    []string{"01/15/2024 10:30:00"},
			Ambiguous:   true,
		},
	}

	for _, f := range formats {
		f.Format = dateparse.MustCompile(f.TimePattern)
	}

	return formats
}
