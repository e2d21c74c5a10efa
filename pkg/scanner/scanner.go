// Package scanner walks a byte buffer backward, newest line first.
package scanner

// ReverseScanner yields the lines of an immutable buffer from last to first.
// Lines are views into the buffer, not copies, and exclude the newline.
//
// The buffer is treated as an arena bounded by synthetic boundaries at -1
// and len(buf): every '\n' is a boundary and each call to Next returns the
// bytes strictly between the current boundary and the previous (higher) one.
// A buffer with k newlines therefore yields k+1 lines; a trailing newline
// produces an empty last line.
type ReverseScanner struct {
	buf    []byte
	cursor int // index of the next byte to inspect, -1 when exhausted
	end    int // exclusive end of the line being collected
	done   bool
}

// New creates a ReverseScanner over buf. The buffer must not change while
// the scanner is in use.
func New(buf []byte) *ReverseScanner {
	return &ReverseScanner{
		buf:    buf,
		cursor: len(buf) - 1,
		end:    len(buf),
	}
}

// Next returns the next line walking toward the start of the buffer.
// ok is false once the first line of the buffer has been returned.
func (s *ReverseScanner) Next() (line []byte, ok bool) {
	if s.done {
		return nil, false
	}
	for ; s.cursor >= 0; s.cursor-- {
		if s.buf[s.cursor] == '\n' {
			line = s.buf[s.cursor+1 : s.end]
			s.end = s.cursor
			s.cursor--
			return line, true
		}
	}
	s.done = true
	return s.buf[:s.end], true
}

// Each calls fn for every line from last to first until fn returns false.
func Each(buf []byte, fn func(line []byte) bool) {
	s := New(buf)
	for {
		line, ok := s.Next()
		if !ok || !fn(line) {
			return
		}
	}
}
