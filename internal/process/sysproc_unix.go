//go:build !windows

package process

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// setupProcessAttributes puts the child in its own process group so that
// signals reach every process the script spawned.
func setupProcessAttributes(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// sendTerminationSignal sends SIGTERM to the process group.
func sendTerminationSignal(p *os.Process) error {
	return signalGroup(p, syscall.SIGTERM)
}

// sendKillSignal sends SIGKILL to the process group.
func sendKillSignal(p *os.Process) error {
	return signalGroup(p, syscall.SIGKILL)
}

func signalGroup(p *os.Process, sig syscall.Signal) error {
	err := syscall.Kill(-p.Pid, sig)
	if errors.Is(err, syscall.ESRCH) {
		return os.ErrProcessDone
	}
	return err
}
