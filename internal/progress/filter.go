package progress

import (
	"strings"

	"github.com/autofx/autofx/internal/events"
)

// Stream identifies which pipe a Filter reads.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

// String returns "stdout" or "stderr".
func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}
	return "stdout"
}

// Filter converts one stream of one process into viewer messages.
// It is not safe for concurrent use; each reader goroutine owns its Filter.
type Filter struct {
	processID string
	stream    Stream
	splitter  LineSplitter
}

// NewFilter creates a Filter for a process stream.
func NewFilter(processID string, stream Stream) *Filter {
	return &Filter{processID: processID, stream: stream}
}

// Write consumes a raw chunk. Consecutive log lines are joined into a single
// message; progress and folder messages keep their position relative to them.
func (f *Filter) Write(chunk []byte) []events.Message {
	return f.messages(f.splitter.Write(chunk))
}

// Flush emits whatever the unterminated last line produces. Call it at EOF.
func (f *Filter) Flush() []events.Message {
	line, ok := f.splitter.Flush()
	if !ok {
		return nil
	}
	return f.messages([]string{line})
}

func (f *Filter) messages(lines []string) []events.Message {
	var out []events.Message
	var pending []string

	flush := func() {
		if len(pending) == 0 {
			return
		}
		out = append(out, f.logMessage(strings.Join(pending, "\n")))
		pending = pending[:0]
	}

	for _, line := range lines {
		res := ParseLine(line)
		if res.Progress != nil {
			flush()
			out = append(out, events.Progress(f.processID, res.Progress.Profile, res.Progress.Current, res.Progress.Total))
		}
		if res.Log != "" {
			pending = append(pending, res.Log)
		}
		if res.Folder != "" {
			flush()
			out = append(out, events.OutputFolder(f.processID, res.Folder))
		}
	}
	flush()
	return out
}

func (f *Filter) logMessage(text string) events.Message {
	if f.stream == Stderr {
		return events.Stderr(f.processID, text)
	}
	return events.Stdout(f.processID, text)
}
