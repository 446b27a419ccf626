// Package process launches scripts as child processes and relays what they print.
//
// Process wraps os/exec for a single child: stdout and stderr are captured as
// raw chunks, stdin accepts newline-terminated input, and the whole process
// group can be terminated or killed.
//
// Supervisor tracks children by a caller-chosen id:
//   - Start resolves a script name to a Command and launches it in the background
//   - Output is split into lines, progress markers become progress messages,
//     and the rest is forwarded as log output through a Broadcaster
//   - Stop sends SIGTERM and escalates to SIGKILL after a grace period
//   - Every launched id produces exactly one close message, always its last
//   - StopAll refuses new work and waits for every child to exit
//
// Example:
//
//	sup := process.NewSupervisor(process.Options{
//	    Resolver:    catalog,
//	    Broadcaster: hub,
//	})
//	id, err := sup.Start("profile_generator", "alice", "")
//	defer sup.StopAll()
package process
