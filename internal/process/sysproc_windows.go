//go:build windows

package process

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

const ctrlBreakEvent = 1

// setupProcessAttributes isolates the child in a new process group so
// CTRL_BREAK can be delivered to it without reaching the supervisor.
func setupProcessAttributes(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

// sendTerminationSignal sends CTRL_BREAK to the child's process group.
func sendTerminationSignal(p *os.Process) error {
	dll, err := syscall.LoadDLL("kernel32.dll")
	if err != nil {
		return fmt.Errorf("failed to load kernel32.dll: %w", err)
	}
	defer dll.Release()

	proc, err := dll.FindProc("GenerateConsoleCtrlEvent")
	if err != nil {
		return fmt.Errorf("failed to find GenerateConsoleCtrlEvent: %w", err)
	}
	if r, _, callErr := proc.Call(ctrlBreakEvent, uintptr(p.Pid)); r == 0 {
		return fmt.Errorf("GenerateConsoleCtrlEvent failed: %w", callErr)
	}
	return nil
}

// sendKillSignal terminates the child.
func sendKillSignal(p *os.Process) error {
	return p.Kill()
}
