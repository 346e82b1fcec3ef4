//go:build !windows

package procgroup

import (
	"errors"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// SysProcAttr makes the child the leader of a new process group.
func SysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// signal delivers sig to the process group led by p. A group with no members
// left is not an error.
func signal(p *os.Process, sig syscall.Signal) error {
	err := unix.Kill(-p.Pid, sig)
	if errors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}

// Terminate asks every member of the group to exit.
func Terminate(p *os.Process) error {
	return signal(p, unix.SIGTERM)
}

// Kill ends every member of the group.
func Kill(p *os.Process) error {
	return signal(p, unix.SIGKILL)
}

// Alive reports whether any member of the group still exists. It stays true
// for members that have exited but not yet been reaped.
func Alive(p *os.Process) bool {
	err := unix.Kill(-p.Pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
