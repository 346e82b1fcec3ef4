//go:build windows

package procgroup

import (
	"errors"
	"os"
	"syscall"
)

func SysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}

// Terminate cannot deliver a catchable signal on Windows, so it degrades to
// Kill.
func Terminate(p *os.Process) error {
	return Kill(p)
}

// Kill ends the process itself; descendants are not tracked.
func Kill(p *os.Process) error {
	err := p.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

// Alive always reports false: group membership is not observable here.
func Alive(*os.Process) bool {
	return false
}
