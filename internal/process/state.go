package process

import "time"

// State represents the lifecycle state of a supervised process.
type State string

// Process states.
const (
	StateIdle     State = "idle"     // Not registered
	StateStarting State = "starting" // Registered, launch in progress
	StateRunning  State = "running"  // Launched
	StateStopping State = "stopping" // Stop requested, deregistered, waiting for exit
	StateExited   State = "exited"   // Exit observed, close broadcast
)

// Info describes a registered process.
type Info struct {
	ID        string    `json:"processId"`
	Script    string    `json:"script"`
	State     State     `json:"state"`
	PID       int       `json:"pid,omitempty"`
	StartedAt time.Time `json:"startedAt"`
}
