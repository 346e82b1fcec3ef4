// Package supervisor launches long-running development processes, confirms
// they survive startup, and stops them on shutdown.
//
// A process counts as started when it is still alive after its grace period
// and, if a readiness probe is configured, the probe succeeds before its
// timeout. There is no restart policy. TerminateAll stops processes in reverse
// start order.
package supervisor

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Iron-Ham/devstrap/internal/console"
	"github.com/Iron-Ham/devstrap/internal/errors"
	"github.com/Iron-Ham/devstrap/internal/logging"
)

// Supervisor owns every ManagedProcess it starts.
type Supervisor struct {
	printer *console.Printer
	logger  *logging.Logger

	mu    sync.Mutex
	procs []*ManagedProcess
}

// New creates an empty Supervisor.
func New(printer *console.Printer, logger *logging.Logger) *Supervisor {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Supervisor{
		printer: printer,
		logger:  logger.With("component", "supervisor"),
	}
}

// Start spawns spec and blocks for its startup check.
//
// On success the process is Running. If it exits during the grace window the
// returned error is a *errors.LaunchError carrying the exit code and the
// process is Exited. If the context is cancelled, or a probe never succeeds,
// the process is left Starting for TerminateAll to clean up. The returned
// process is nil only when spawning itself failed.
func (s *Supervisor) Start(ctx context.Context, spec Spec) (*ManagedProcess, error) {
	p := newManagedProcess(spec, s.printer, s.logger)

	s.printer.Progress("Starting %s: %s", spec.Name, spec.CommandLine())
	if err := p.spawn(); err != nil {
		s.printer.Error("Could not start %s", spec.Name)
		s.logger.Error("spawn failed", "process", spec.Name, "error", err.Error())
		return nil, err
	}

	s.mu.Lock()
	s.procs = append(s.procs, p)
	s.mu.Unlock()

	if err := sleepCtx(ctx, p.spec.GracePeriod); err != nil {
		return p, err
	}

	if p.exited() {
		return p, s.launchFailed(p, errors.ErrProcessExited)
	}

	if p.spec.Probe != nil {
		if err := s.awaitProbe(ctx, p); err != nil {
			return p, err
		}
	}

	if !p.markRunning() {
		// Exited between the check above and now.
		return p, s.launchFailed(p, errors.ErrProcessExited)
	}

	s.logger.Info("process running", "process", spec.Name, "pid", p.PID())
	s.printer.Success("%s started (pid %d)", spec.Name, p.PID())
	return p, nil
}

func (s *Supervisor) awaitProbe(ctx context.Context, p *ManagedProcess) error {
	probe := p.spec.Probe
	deadline := time.Now().Add(p.spec.ProbeTimeout)
	s.printer.Progress("Waiting for %s to become ready (%s)...", p.Name(), probe)

	for {
		if p.exited() {
			return s.launchFailed(p, errors.ErrProcessExited)
		}

		checkCtx, cancel := context.WithDeadline(ctx, deadline)
		err := probe.Check(checkCtx)
		cancel()
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !time.Now().Before(deadline) {
			s.logger.Warn("readiness probe timed out", "process", p.Name(), "probe", probe.String(), "error", err.Error())
			s.printer.Error("%s did not become ready within %s", p.Name(), p.spec.ProbeTimeout)
			return errors.NewLaunchError(p.Name(), errors.Join(errors.ErrProcessNotReady, err))
		}

		if err := sleepCtx(ctx, min(p.spec.ProbeInterval, time.Until(deadline))); err != nil {
			return err
		}
	}
}

func (s *Supervisor) launchFailed(p *ManagedProcess, cause error) error {
	code := p.ExitCode()
	s.logger.Error("process exited during startup", "process", p.Name(), "exit_code", code)
	s.printer.Error("%s exited during startup (exit %d)", p.Name(), code)
	return errors.NewLaunchError(p.Name(), cause).WithExitCode(code)
}

// Processes returns every started process in start order.
func (s *Supervisor) Processes() []*ManagedProcess {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.procs)
}

// TerminateAll stops every Starting or Running process, most recently
// started first, one at a time. Processes in other states are skipped.
func (s *Supervisor) TerminateAll() []error {
	procs := s.Processes()
	slices.Reverse(procs)

	var errs []error
	for _, p := range procs {
		if !p.State().Active() {
			continue
		}
		s.printer.Progress("Stopping %s...", p.Name())
		if err := p.Terminate(); err != nil {
			if errors.Is(err, errors.ErrInvalidTransition) {
				// Exited on its own since the state check.
				continue
			}
			s.printer.Error("Failed to stop %s: %v", p.Name(), err)
			errs = append(errs, err)
			continue
		}
		if p.Forced() {
			s.printer.Warning("%s did not stop within %s and was killed", p.Name(), p.spec.StopTimeout)
		} else {
			s.printer.Success("%s stopped", p.Name())
		}
	}
	return errs
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
