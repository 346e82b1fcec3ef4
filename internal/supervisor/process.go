package supervisor

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/Iron-Ham/devstrap/internal/config"
	"github.com/Iron-Ham/devstrap/internal/console"
	"github.com/Iron-Ham/devstrap/internal/errors"
	"github.com/Iron-Ham/devstrap/internal/logging"
	"github.com/Iron-Ham/devstrap/internal/procgroup"
)

const (
	// DefaultStopTimeout is used when a Spec leaves StopTimeout at zero.
	DefaultStopTimeout = 5 * time.Second

	defaultProbeTimeout  = 30 * time.Second
	defaultProbeInterval = 250 * time.Millisecond

	groupPollInterval = 20 * time.Millisecond

	// maxLineBytes bounds a single logged output line.
	maxLineBytes = 256 * 1024
)

// Spec describes one long-running process.
type Spec struct {
	Name    string
	Command []string
	Dir     string
	// Env entries (KEY=value) are appended to the inherited environment.
	Env []string

	GracePeriod time.Duration
	StopTimeout time.Duration

	// Probe is optional; nil keeps the single liveness check.
	Probe         Probe
	ProbeTimeout  time.Duration
	ProbeInterval time.Duration

	// URL is informational, shown in summaries.
	URL string
}

// SpecFromConfig builds a Spec for a configured process running in dir.
func SpecFromConfig(pc config.ProcessConfig, dir string) Spec {
	return Spec{
		Name:          pc.Name,
		Command:       pc.Command,
		Dir:           dir,
		GracePeriod:   pc.GracePeriod(),
		StopTimeout:   pc.StopTimeout(),
		Probe:         ProbeFromConfig(pc.Probe),
		ProbeTimeout:  pc.Probe.Timeout(),
		ProbeInterval: pc.Probe.Interval(),
		URL:           pc.URL,
	}
}

// CommandLine returns the argv joined with spaces.
func (s Spec) CommandLine() string {
	return strings.Join(s.Command, " ")
}

// ManagedProcess is a child process owned by a Supervisor.
// All accessors are safe for concurrent use.
type ManagedProcess struct {
	spec    Spec
	logger  *logging.Logger
	printer *console.Printer

	mu        sync.Mutex
	state     State
	cmd       *exec.Cmd
	exitCode  int
	startedAt time.Time
	exitedAt  time.Time
	forced    bool

	done  chan struct{}
	pumps conc.WaitGroup
}

func newManagedProcess(spec Spec, printer *console.Printer, logger *logging.Logger) *ManagedProcess {
	if spec.StopTimeout <= 0 {
		spec.StopTimeout = DefaultStopTimeout
	}
	if spec.ProbeTimeout <= 0 {
		spec.ProbeTimeout = defaultProbeTimeout
	}
	if spec.ProbeInterval <= 0 {
		spec.ProbeInterval = defaultProbeInterval
	}
	return &ManagedProcess{
		spec:     spec,
		logger:   logger.WithProcess(spec.Name),
		printer:  printer,
		exitCode: -1,
		done:     make(chan struct{}),
	}
}

// Name returns the process name.
func (p *ManagedProcess) Name() string { return p.spec.Name }

// State returns the current lifecycle state.
func (p *ManagedProcess) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// ExitCode returns the exit status, or -1 while running or when the process
// was ended by a signal.
func (p *ManagedProcess) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

// PID returns the OS process id, or 0 before spawn.
func (p *ManagedProcess) PID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil || p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// StartedAt returns when the process was spawned.
func (p *ManagedProcess) StartedAt() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.startedAt
}

// ExitedAt returns when the process was reaped, or the zero time.
func (p *ManagedProcess) ExitedAt() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitedAt
}

// Forced reports whether termination had to escalate to a kill.
func (p *ManagedProcess) Forced() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.forced
}

// Done is closed once the process has been reaped.
func (p *ManagedProcess) Done() <-chan struct{} {
	return p.done
}

func (p *ManagedProcess) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// spawn starts the OS process and its output pumps. It does not block.
func (p *ManagedProcess) spawn() error {
	if len(p.spec.Command) == 0 {
		return errors.NewLaunchError(p.spec.Name, errors.Wrap(errors.ErrInvalidInput, "empty command"))
	}

	path, err := exec.LookPath(p.spec.Command[0])
	if err != nil {
		return errors.NewLaunchError(p.spec.Name, errors.Wrapf(errors.ErrCommandNotFound, "%s", p.spec.Command[0]))
	}

	cmd := exec.Command(path, p.spec.Command[1:]...)
	cmd.Dir = p.spec.Dir
	if len(p.spec.Env) > 0 {
		cmd.Env = append(os.Environ(), p.spec.Env...)
	}
	cmd.SysProcAttr = procgroup.SysProcAttr()

	// Plain os.Pipe ends keep Wait independent of the readers: a grandchild
	// holding the write end open cannot delay reaping.
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return errors.NewLaunchError(p.spec.Name, errors.Join(errors.ErrCommandStart, err))
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		_ = stdoutR.Close()
		_ = stdoutW.Close()
		return errors.NewLaunchError(p.spec.Name, errors.Join(errors.ErrCommandStart, err))
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	startErr := cmd.Start()
	_ = stdoutW.Close()
	_ = stderrW.Close()
	if startErr != nil {
		_ = stdoutR.Close()
		_ = stderrR.Close()
		return errors.NewLaunchError(p.spec.Name, errors.Join(errors.ErrCommandStart, startErr))
	}

	p.mu.Lock()
	p.cmd = cmd
	p.state = StateStarting
	p.startedAt = time.Now()
	p.mu.Unlock()

	p.logger.Info("process spawned", "pid", cmd.Process.Pid, "command", p.spec.CommandLine(), "dir", p.spec.Dir)

	p.pumps.Go(func() { p.pump(stdoutR, "stdout") })
	p.pumps.Go(func() { p.pump(stderrR, "stderr") })
	go p.reap()

	return nil
}

// pump logs r line by line until EOF.
func (p *ManagedProcess) pump(r io.ReadCloser, stream string) {
	defer r.Close()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	prefix := fmt.Sprintf("%s %s> ", p.spec.Name, stream)
	for scanner.Scan() {
		p.logger.Info(prefix + scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		p.logger.Warn("output pump stopped", "stream", stream, "error", err.Error())
	}
}

// reap waits for the process and records its exit.
func (p *ManagedProcess) reap() {
	waitErr := p.cmd.Wait()

	p.mu.Lock()
	prev := p.state
	p.state = StateExited
	p.exitCode = p.cmd.ProcessState.ExitCode()
	p.exitedAt = time.Now()
	code := p.exitCode
	p.mu.Unlock()
	close(p.done)

	switch prev {
	case StateRunning:
		// No restart policy: report and move on.
		p.logger.Warn("process exited unexpectedly", "exit_code", code)
		p.printer.Warning("%s exited unexpectedly (exit %d)", p.spec.Name, code)
	case StateTerminating:
		p.logger.Info("process stopped", "exit_code", code)
	default:
		p.logger.Info("process exited", "exit_code", code, "state", prev.String())
	}

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		p.logger.Error("wait failed", "error", waitErr.Error())
	}

	p.pumps.Wait()
}

// markRunning moves Starting to Running. It returns false when the process
// left Starting in the meantime.
func (p *ManagedProcess) markRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateStarting {
		return false
	}
	p.state = StateRunning
	return true
}

// sweepGroup waits for the rest of the group after the leader has exited and
// kills whatever is left when deadline fires.
func (p *ManagedProcess) sweepGroup(proc *os.Process, deadline <-chan time.Time) {
	ticker := time.NewTicker(groupPollInterval)
	defer ticker.Stop()
	for procgroup.Alive(proc) {
		select {
		case <-deadline:
			p.logger.Warn("group members outlived the leader, killing", "pgid", proc.Pid)
			if err := procgroup.Kill(proc); err != nil {
				p.logger.Warn("group kill failed", "error", err.Error())
			}
			return
		case <-ticker.C:
		}
	}
}

// Terminate stops the process: SIGTERM to its process group, then SIGKILL if
// it is still alive after the stop timeout. Group members that outlive the
// leader get the same SIGKILL when the stop timeout elapses. It is valid only
// from Starting or Running and returns once the process has been reaped.
func (p *ManagedProcess) Terminate() error {
	p.mu.Lock()
	if !p.state.Active() {
		state := p.state
		p.mu.Unlock()
		return errors.Wrapf(errors.ErrInvalidTransition, "terminate %s while %s", p.spec.Name, state)
	}
	p.state = StateTerminating
	proc := p.cmd.Process
	p.mu.Unlock()

	p.logger.Info("sending terminate", "pid", proc.Pid, "stop_timeout_ms", p.spec.StopTimeout.Milliseconds())
	if err := procgroup.Terminate(proc); err != nil && !p.exited() {
		p.logger.Warn("terminate signal failed", "error", err.Error())
	}

	timer := time.NewTimer(p.spec.StopTimeout)
	defer timer.Stop()
	select {
	case <-p.done:
		p.sweepGroup(proc, timer.C)
		return nil
	case <-timer.C:
	}

	p.mu.Lock()
	p.forced = true
	p.mu.Unlock()

	p.logger.Warn("stop timeout elapsed, killing", "pid", proc.Pid)
	if err := procgroup.Kill(proc); err != nil && !p.exited() {
		return errors.Wrapf(err, "kill %s", p.spec.Name)
	}

	select {
	case <-p.done:
		return nil
	case <-time.After(p.spec.StopTimeout):
		return fmt.Errorf("%s did not exit after kill", p.spec.Name)
	}
}
