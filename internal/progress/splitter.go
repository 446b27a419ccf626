package progress

import "bytes"

// DefaultMaxLineLength bounds how much of an unterminated line is buffered.
const DefaultMaxLineLength = 64 * 1024

// LineSplitter reassembles newline-terminated lines from arbitrary chunks.
// A trailing carriage return is stripped from each line. The zero value is
// ready to use.
type LineSplitter struct {
	// MaxLineLength forces out a partial line once it grows past this many
	// bytes. Zero means DefaultMaxLineLength.
	MaxLineLength int

	partial []byte
}

// Write consumes a chunk and returns the lines it completed, in order.
func (s *LineSplitter) Write(chunk []byte) []string {
	var lines []string
	for len(chunk) > 0 {
		i := bytes.IndexByte(chunk, '\n')
		if i < 0 {
			s.partial = append(s.partial, chunk...)
			if len(s.partial) > s.maxLen() {
				lines = append(lines, s.take())
			}
			break
		}
		s.partial = append(s.partial, chunk[:i]...)
		lines = append(lines, s.take())
		chunk = chunk[i+1:]
	}
	return lines
}

// Flush returns the buffered unterminated line, if any. Call it at EOF.
func (s *LineSplitter) Flush() (string, bool) {
	if len(s.partial) == 0 {
		return "", false
	}
	return s.take(), true
}

func (s *LineSplitter) take() string {
	line := string(bytes.TrimSuffix(s.partial, []byte{'\r'}))
	s.partial = s.partial[:0]
	return line
}

func (s *LineSplitter) maxLen() int {
	if s.MaxLineLength > 0 {
		return s.MaxLineLength
	}
	return DefaultMaxLineLength
}
