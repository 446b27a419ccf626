// Package client reconstructs a readable console from the viewer message stream.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/autofx/autofx/internal/events"
)

// ErrUnknownEvent is returned by Decode for event types it does not know.
var ErrUnknownEvent = errors.New("unknown event type")

// Counts is the latest progress reported for one profile.
type Counts struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// Percent returns Current/Total as a percentage, or 0 without a total.
func (c Counts) Percent() float64 {
	if c.Total <= 0 {
		return 0
	}
	return float64(c.Current) * 100 / float64(c.Total)
}

// ProgressState maps a profile to its most recent progress. It is rebuilt
// from progress messages and forgotten when the process closes.
type ProgressState map[string]Counts

// Profiles returns the profile names, sorted.
func (p ProgressState) Profiles() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Decode parses one SSE payload according to its event type.
func Decode(eventType string, data []byte) (events.Message, error) {
	var (
		msg events.Message
		err error
	)
	switch eventType {
	case events.KindStdout:
		var ev events.StdoutEvent
		err = json.Unmarshal(data, &ev)
		msg = ev
	case events.KindStderr:
		var ev events.StderrEvent
		err = json.Unmarshal(data, &ev)
		msg = ev
	case events.KindProgress:
		var ev events.ProgressEvent
		err = json.Unmarshal(data, &ev)
		msg = ev
	case events.KindClose:
		var ev events.CloseEvent
		err = json.Unmarshal(data, &ev)
		msg = ev
	case events.KindInfo:
		var ev events.InfoEvent
		err = json.Unmarshal(data, &ev)
		msg = ev
	case events.KindOutputFolder:
		var ev events.OutputFolderEvent
		err = json.Unmarshal(data, &ev)
		msg = ev
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, eventType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s event: %w", eventType, err)
	}
	return msg, nil
}

// DispatcherOptions configures a Dispatcher.
type DispatcherOptions struct {
	// ProcessID limits output to one process. Process-less messages such as
	// the connection greeting are still shown.
	ProcessID string
	// Prefix tags each printed line with its process id.
	Prefix bool
	// ShowProgress prints a line for every progress update.
	ShowProgress bool

	// Callbacks run in message order with the Dispatcher locked; they must
	// not call back into it.
	OnProgress     func(processID string, state ProgressState)
	OnClose        func(processID string, code int)
	OnOutputFolder func(processID, path string)
}

// Dispatcher folds viewer messages into console lines and per-process state.
// It is safe for concurrent use and implements the supervisor's Broadcaster.
type Dispatcher struct {
	out  io.Writer
	opts DispatcherOptions

	mu       sync.Mutex
	progress map[string]ProgressState
	folders  map[string]string
	codes    map[string]int
	done     chan struct{}
	doneOnce sync.Once
}

// NewDispatcher creates a Dispatcher printing to out.
func NewDispatcher(out io.Writer, opts DispatcherOptions) *Dispatcher {
	return &Dispatcher{
		out:      out,
		opts:     opts,
		progress: make(map[string]ProgressState),
		folders:  make(map[string]string),
		codes:    make(map[string]int),
		done:     make(chan struct{}),
	}
}

// Broadcast implements process.Broadcaster.
func (d *Dispatcher) Broadcast(msg events.Message) { d.Handle(msg) }

// Handle applies one message. It reports false for messages the process
// filter skipped, which includes everything after the filtered process closed.
func (d *Dispatcher) Handle(msg events.Message) bool {
	if msg == nil {
		return false
	}
	id := msg.Process()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.opts.ProcessID != "" {
		if id != "" && id != d.opts.ProcessID {
			return false
		}
		select {
		case <-d.done:
			return false
		default:
		}
	}

	switch m := msg.(type) {
	case events.StdoutEvent:
		d.printLines(id, m.Output)
	case events.StderrEvent:
		d.printLines(id, m.Output)
	case events.InfoEvent:
		d.printLines(id, m.Message)
	case events.ProgressEvent:
		state, ok := d.progress[id]
		if !ok {
			state = make(ProgressState)
			d.progress[id] = state
		}
		counts := Counts{Current: m.Current, Total: m.Total}
		state[m.Profile] = counts
		if d.opts.ShowProgress {
			d.printLines(id, fmt.Sprintf("Progress %s: %d/%d (%.0f%%)", m.Profile, m.Current, m.Total, counts.Percent()))
		}
		if d.opts.OnProgress != nil {
			d.opts.OnProgress(id, copyState(state))
		}
	case events.OutputFolderEvent:
		d.folders[id] = m.Path
		d.printLines(id, "Output folder: "+m.Path)
		if d.opts.OnOutputFolder != nil {
			d.opts.OnOutputFolder(id, m.Path)
		}
	case events.CloseEvent:
		delete(d.progress, id)
		d.codes[id] = m.Code
		d.printLines(id, fmt.Sprintf("Process finished with code %d", m.Code))
		if d.opts.OnClose != nil {
			d.opts.OnClose(id, m.Code)
		}
		if d.opts.ProcessID != "" && id == d.opts.ProcessID {
			d.doneOnce.Do(func() { close(d.done) })
		}
	}
	return true
}

// printLines writes text line by line. Caller holds mu.
func (d *Dispatcher) printLines(id, text string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			continue
		}
		if d.opts.Prefix && id != "" {
			fmt.Fprintf(d.out, "[%s] %s\n", id, line)
		} else {
			fmt.Fprintln(d.out, line)
		}
	}
}

func copyState(state ProgressState) ProgressState {
	out := make(ProgressState, len(state))
	for k, v := range state {
		out[k] = v
	}
	return out
}

// Progress returns the progress of a process that has not closed yet.
func (d *Dispatcher) Progress(processID string) ProgressState {
	d.mu.Lock()
	defer d.mu.Unlock()
	state, ok := d.progress[processID]
	if !ok {
		return nil
	}
	return copyState(state)
}

// OutputFolder returns the latest output folder announced by a process.
func (d *Dispatcher) OutputFolder(processID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	path, ok := d.folders[processID]
	return path, ok
}

// ExitCode returns the exit code of a closed process.
func (d *Dispatcher) ExitCode(processID string) (int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	code, ok := d.codes[processID]
	return code, ok
}

// Done is closed when the filtered process closes. Without a filter it is
// never closed.
func (d *Dispatcher) Done() <-chan struct{} { return d.done }
