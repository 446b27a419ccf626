package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/autofx/autofx/internal/progress"
)

// outputBuffer is the number of chunks buffered between the pipe copiers and the consumer.
const outputBuffer = 64

// waitDelay bounds how long Wait keeps the pipes open after the child exits,
// for grandchildren that inherited them.
const waitDelay = 2 * time.Second

// Chunk is a piece of raw output read from one of the child's pipes.
type Chunk struct {
	Stream progress.Stream
	Data   []byte
}

// Process is a running child with captured output.
type Process struct {
	id     string
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	logger *slog.Logger

	inputMu sync.Mutex

	output   chan Chunk
	done     chan struct{}
	reaped   atomic.Bool
	exitCode int
	exitErr  error
}

// chunkWriter forwards everything exec copies from a pipe into the output channel.
type chunkWriter struct {
	stream progress.Stream
	ch     chan<- Chunk
}

func (w chunkWriter) Write(p []byte) (int, error) {
	data := make([]byte, len(p))
	copy(data, p)
	w.ch <- Chunk{Stream: w.stream, Data: data}
	return len(p), nil
}

// Launch starts command and begins capturing its output. The caller must
// drain Output until it is closed; Done is closed after that.
func Launch(id string, command Command, logger *slog.Logger) (*Process, error) {
	if command.Path == "" {
		return nil, errors.New("empty command")
	}

	cmd := exec.Command(command.Path, command.Args...)
	cmd.Dir = command.Dir
	cmd.Env = append(os.Environ(), command.Env...)
	cmd.WaitDelay = waitDelay
	setupProcessAttributes(cmd)

	p := &Process{
		id:     id,
		cmd:    cmd,
		logger: logger,
		output: make(chan Chunk, outputBuffer),
		done:   make(chan struct{}),
	}

	cmd.Stdout = chunkWriter{stream: progress.Stdout, ch: p.output}
	cmd.Stderr = chunkWriter{stream: progress.Stderr, ch: p.output}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	p.stdin = stdin

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	logger.Info("Process started", "pid", cmd.Process.Pid, "command", command.String())

	go p.wait()
	return p, nil
}

// wait reaps the child. exec returns from Wait only after both pipe copiers
// finished, so the output channel can be closed safely here.
func (p *Process) wait() {
	err := p.cmd.Wait()
	p.reaped.Store(true)
	if errors.Is(err, exec.ErrWaitDelay) {
		p.logger.Debug("Output pipes held open after exit, closed them")
		err = nil
	}
	p.exitErr = err
	p.exitCode = exitCodeFromError(err)

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		p.logger.Warn("Process wait failed", "error", err)
	}
	close(p.output)
	close(p.done)
}

// ID returns the process identifier.
func (p *Process) ID() string { return p.id }

// PID returns the OS process id.
func (p *Process) PID() int { return p.cmd.Process.Pid }

// Output returns the chunk stream. It is closed after the child exited and
// every byte it wrote was delivered.
func (p *Process) Output() <-chan Chunk { return p.output }

// Done is closed once the exit code is available.
func (p *Process) Done() <-chan struct{} { return p.done }

// ExitCode returns the exit code. Valid after Done is closed.
// A child killed by a signal reports -1.
func (p *Process) ExitCode() int { return p.exitCode }

// Err returns the error Wait reported, nil for a clean exit. Valid after Done is closed.
func (p *Process) Err() error { return p.exitErr }

// Terminate asks the process group to exit. Once the child is reaped its
// group id may belong to another process, so it returns os.ErrProcessDone
// without signalling.
func (p *Process) Terminate() error {
	if p.reaped.Load() {
		return os.ErrProcessDone
	}
	return sendTerminationSignal(p.cmd.Process)
}

// Kill force-kills the process group. Like Terminate it never signals a
// reaped child.
func (p *Process) Kill() error {
	if p.reaped.Load() {
		return os.ErrProcessDone
	}
	return sendKillSignal(p.cmd.Process)
}

// WriteInput writes text plus a newline to the child's stdin. It returns
// ctx.Err() if the write does not complete in time; the write itself may
// still land later, and concurrent writers are serialized.
func (p *Process) WriteInput(ctx context.Context, text string) error {
	select {
	case <-p.done:
		return os.ErrProcessDone
	default:
	}

	result := make(chan error, 1)
	go func() {
		p.inputMu.Lock()
		defer p.inputMu.Unlock()
		_, err := io.WriteString(p.stdin, text+"\n")
		result <- err
	}()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// exitCodeFromError extracts exit code from process error.
// Returns 0 for nil error, the exit code for ExitError, or 1 for other errors.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}
