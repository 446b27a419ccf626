package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/autofx/autofx/internal/events"
	"github.com/autofx/autofx/internal/metrics"
	"github.com/autofx/autofx/internal/progress"
	"github.com/google/uuid"
)

// StoppedByUser is the Info message broadcast when Stop succeeds.
const StoppedByUser = "Process stopped by user"

// handle tracks one launched script.
type handle struct {
	id        string
	script    string
	state     State
	startedAt time.Time
	proc      *Process // nil until launched
	stopped   bool     // Stop was requested
	launched  chan struct{}
}

// Supervisor launches scripts, relays their output and tracks them by id.
type Supervisor struct {
	opts   Options
	logger *slog.Logger

	mu       sync.Mutex
	handles  map[string]*handle // registered: visible to Stop, SendInput, List
	stopping map[string]*handle // stopped but not yet exited
	closed   bool
	wg       sync.WaitGroup
}

// NewSupervisor creates a new supervisor.
func NewSupervisor(opts Options) *Supervisor {
	if opts.Resolver == nil || opts.Broadcaster == nil {
		panic("process: Options with Resolver and Broadcaster is required")
	}
	if opts.StopGrace <= 0 {
		opts.StopGrace = DefaultStopGrace
	}
	if opts.InputTimeout <= 0 {
		opts.InputTimeout = DefaultInputTimeout
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Supervisor{
		opts:     opts,
		logger:   logger,
		handles:  make(map[string]*handle),
		stopping: make(map[string]*handle),
	}
}

// Start registers id and launches script in the background. It returns as
// soon as the process is registered; launch failures are reported as a
// stderr message followed by a close with code -1. An empty id is replaced
// by a generated one, which is returned.
func (s *Supervisor) Start(script, input, id string) (string, error) {
	script = strings.TrimSpace(script)
	if script == "" {
		return "", NewError(CodeInvalidParams, "script is required", nil)
	}

	command, err := s.opts.Resolver.Resolve(script, input)
	if err != nil {
		var domainErr *Error
		if errors.As(err, &domainErr) {
			return "", domainErr
		}
		return "", NewError(CodeScriptNotFound, fmt.Sprintf("cannot resolve script %q", script), err)
	}

	if id == "" {
		id = script + "_" + uuid.NewString()
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrClosed
	}
	if _, exists := s.handles[id]; exists {
		s.mu.Unlock()
		return "", NewError(CodeExists, fmt.Sprintf("process %s already running", id), nil)
	}
	if _, exists := s.stopping[id]; exists {
		s.mu.Unlock()
		return "", NewError(CodeExists, fmt.Sprintf("process %s is still shutting down", id), nil)
	}

	h := &handle{
		id:        id,
		script:    script,
		state:     StateStarting,
		startedAt: time.Now(),
		launched:  make(chan struct{}),
	}
	s.handles[id] = h
	s.wg.Add(1)
	s.mu.Unlock()

	s.notifyStateChange(h, StateIdle, StateStarting)

	go func() {
		defer s.wg.Done()
		s.run(h, command)
	}()

	return id, nil
}

// run launches the child, pumps its output and reports its exit.
func (s *Supervisor) run(h *handle, command Command) {
	logger := s.logger.With("process_id", h.id, "script", h.script)

	proc, err := Launch(h.id, command, logger)
	if err != nil {
		close(h.launched)
		logger.Error("Failed to start process", "error", err, "command", command.String())
		metrics.ProcessLaunchFailed(h.script)
		s.opts.Broadcaster.Broadcast(events.Stderr(h.id, fmt.Sprintf("Failed to start %s: %v", h.script, err)))
		s.finish(h, -1)
		return
	}

	s.mu.Lock()
	h.proc = proc
	stopRequested := h.stopped
	oldState := h.state
	if !stopRequested {
		h.state = StateRunning
	}
	s.mu.Unlock()
	close(h.launched)

	metrics.ProcessStarted(h.script)
	if stopRequested {
		s.terminate(h, proc)
	} else {
		s.notifyStateChange(h, oldState, StateRunning)
	}

	s.pump(h, proc)
	<-proc.Done()

	code := proc.ExitCode()
	elapsed := time.Since(h.startedAt)
	metrics.ProcessExited(h.script, code, elapsed.Seconds())
	logger.Info("Process exited", "exit_code", code, "duration", elapsed.Round(time.Millisecond))

	s.finish(h, code)
}

// pump filters the child's output into viewer messages until the output is closed.
func (s *Supervisor) pump(h *handle, proc *Process) {
	filters := map[progress.Stream]*progress.Filter{
		progress.Stdout: progress.NewFilter(h.id, progress.Stdout),
		progress.Stderr: progress.NewFilter(h.id, progress.Stderr),
	}

	for chunk := range proc.Output() {
		if s.opts.ScriptLogger != nil {
			s.opts.ScriptLogger.Debug(strings.TrimRight(string(chunk.Data), "\r\n"),
				"process_id", h.id, "stream", chunk.Stream.String())
		}
		for _, msg := range filters[chunk.Stream].Write(chunk.Data) {
			s.opts.Broadcaster.Broadcast(msg)
		}
	}

	for _, stream := range []progress.Stream{progress.Stdout, progress.Stderr} {
		for _, msg := range filters[stream].Flush() {
			s.opts.Broadcaster.Broadcast(msg)
		}
	}
}

// finish deregisters h and broadcasts its single close message.
func (s *Supervisor) finish(h *handle, code int) {
	s.mu.Lock()
	if s.handles[h.id] == h {
		delete(s.handles, h.id)
	}
	if s.stopping[h.id] == h {
		delete(s.stopping, h.id)
	}
	oldState := h.state
	h.state = StateExited
	// Under mu so a concurrent Stop's notice cannot follow the close.
	s.opts.Broadcaster.Broadcast(events.Close(h.id, code))
	s.mu.Unlock()

	s.notifyStateChange(h, oldState, StateExited)
}

// Stop deregisters id immediately, broadcasts the stop notice and asks the
// process to exit. A process that ignores the request for the grace period is
// killed. The close message still follows when the process actually exits,
// and never precedes the notice.
func (s *Supervisor) Stop(id string) error {
	s.mu.Lock()
	h, exists := s.handles[id]
	if !exists {
		s.mu.Unlock()
		return NewError(CodeNotFound, fmt.Sprintf("process %s not found", id), nil)
	}
	delete(s.handles, id)
	s.stopping[id] = h
	h.stopped = true
	oldState := h.state
	h.state = StateStopping
	proc := h.proc
	s.opts.Broadcaster.Broadcast(events.Info(id, StoppedByUser))
	s.mu.Unlock()

	s.notifyStateChange(h, oldState, StateStopping)
	s.logger.Info("Stopping process", "process_id", id, "script", h.script)

	// A nil proc means the launch is still in progress; run terminates it once launched.
	if proc != nil {
		s.terminate(h, proc)
	}
	return nil
}

// terminate sends SIGTERM and schedules SIGKILL after the grace period.
func (s *Supervisor) terminate(h *handle, proc *Process) {
	select {
	case <-proc.Done():
		return
	default:
	}

	if err := proc.Terminate(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		s.logger.Warn("Failed to send termination signal", "process_id", h.id, "error", err)
	}

	// Ends once the process exits, which run waits for.
	go func() {
		timer := time.NewTimer(s.opts.StopGrace)
		defer timer.Stop()

		select {
		case <-proc.Done():
		case <-timer.C:
			s.logger.Warn("Graceful stop timeout, forcing kill", "process_id", h.id, "grace", s.opts.StopGrace)
			if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				s.logger.Error("Failed to kill process", "process_id", h.id, "error", err)
			}
		}
	}()
}

// SendInput writes text and a newline to the stdin of id.
func (s *Supervisor) SendInput(ctx context.Context, id, text string) error {
	s.mu.Lock()
	h, exists := s.handles[id]
	s.mu.Unlock()
	if !exists {
		return NewError(CodeNotFound, fmt.Sprintf("process %s not found", id), nil)
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.InputTimeout)
	defer cancel()

	select {
	case <-h.launched:
	case <-ctx.Done():
		metrics.InputWritten(false)
		return NewError(CodeInputFailed, "process is still starting", ctx.Err())
	}

	s.mu.Lock()
	proc := h.proc
	s.mu.Unlock()
	if proc == nil {
		metrics.InputWritten(false)
		return NewError(CodeInputFailed, "process failed to start", nil)
	}

	if err := proc.WriteInput(ctx, text); err != nil {
		metrics.InputWritten(false)
		s.logger.Warn("Failed to write input", "process_id", id, "error", err)
		return NewError(CodeInputFailed, "failed to write input", err)
	}
	metrics.InputWritten(true)
	return nil
}

// Get returns info for a registered process.
func (s *Supervisor) Get(id string) (Info, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, exists := s.handles[id]
	if !exists {
		return Info{ID: id, State: StateIdle}, false
	}
	return h.info(), true
}

// List returns every registered process, oldest first.
func (s *Supervisor) List() []Info {
	s.mu.Lock()
	list := make([]Info, 0, len(s.handles))
	for _, h := range s.handles {
		list = append(list, h.info())
	}
	s.mu.Unlock()

	sort.Slice(list, func(i, j int) bool {
		if list[i].StartedAt.Equal(list[j].StartedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].StartedAt.Before(list[j].StartedAt)
	})
	return list
}

// info snapshots h. Caller holds the supervisor mutex.
func (h *handle) info() Info {
	info := Info{
		ID:        h.id,
		Script:    h.script,
		State:     h.state,
		StartedAt: h.startedAt,
	}
	if h.proc != nil {
		info.PID = h.proc.PID()
	}
	return info
}

// StopAll rejects new starts, stops every registered process and waits for
// all of them to exit.
func (s *Supervisor) StopAll() {
	s.logger.Info("Stopping all processes")

	s.mu.Lock()
	s.closed = true
	ids := make([]string, 0, len(s.handles))
	for id := range s.handles {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		_ = s.Stop(id)
	}

	s.wg.Wait()
	s.logger.Info("All processes stopped")
}

// notifyStateChange invokes the OnStateChange callback if configured.
func (s *Supervisor) notifyStateChange(h *handle, oldState, newState State) {
	if s.opts.OnStateChange != nil {
		s.opts.OnStateChange(h.id, h.script, oldState, newState)
	}
}
