package process

import (
	"log/slog"
	"time"

	"github.com/autofx/autofx/internal/events"
)

// Default timings.
const (
	DefaultStopGrace    = 5 * time.Second
	DefaultInputTimeout = 5 * time.Second
)

// Resolver maps a script name and its raw input to a launchable command.
// Unknown scripts should be reported as ErrScriptNotFound.
type Resolver interface {
	Resolve(script, input string) (Command, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(script, input string) (Command, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(script, input string) (Command, error) { return f(script, input) }

// Broadcaster receives every viewer message the supervisor produces.
type Broadcaster interface {
	Broadcast(msg events.Message)
}

// StateChangeCallback is called when a process state changes.
// Used for domain-specific reactions (e.g., events, metrics).
type StateChangeCallback func(id, script string, oldState, newState State)

// Options configures a new Supervisor.
type Options struct {
	// Resolver turns Start requests into commands (required).
	Resolver Resolver

	// Broadcaster receives output, progress and lifecycle messages (required).
	Broadcaster Broadcaster

	// StopGrace is how long a stopped process may ignore SIGTERM before it is killed.
	StopGrace time.Duration

	// InputTimeout bounds a single SendInput write.
	InputTimeout time.Duration

	// OnStateChange is called when process state transitions (optional).
	OnStateChange StateChangeCallback

	// Logger for supervisor operations. If nil, uses slog.Default().
	Logger *slog.Logger

	// ScriptLogger mirrors child output at debug level. If nil, output is not logged.
	ScriptLogger *slog.Logger
}
