// Package command runs external programs to completion and captures their output.
package command

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/Iron-Ham/devstrap/internal/console"
	"github.com/Iron-Ham/devstrap/internal/errors"
	"github.com/Iron-Ham/devstrap/internal/logging"
	"github.com/Iron-Ham/devstrap/internal/procgroup"
)

// cancelWaitDelay bounds how long Run waits for output pipes after the
// context is done or the command has exited.
const cancelWaitDelay = 2 * time.Second

var (
	// ErrNotFound is returned when the executable cannot be resolved.
	ErrNotFound = errors.ErrCommandNotFound
	// ErrStartFailed is returned when the OS refuses to create the process.
	ErrStartFailed = errors.ErrCommandStart
)

// Command is a single program invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Env entries (KEY=value) are appended to the inherited environment.
	Env []string
	// Quiet suppresses console lines; the debug log still records the run.
	Quiet bool
}

// String returns the command line as typed in a shell.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Result is the outcome of a finished command. A non-zero exit is a normal
// Result, not an error.
type Result struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Success reports whether the command exited 0.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// Executor is what the checker, installer and bootstrapper depend on.
type Executor interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
	Lookup(name string) (string, error)
}

// Runner executes commands one at a time, reporting progress to the console
// and the debug log.
type Runner struct {
	printer  *console.Printer
	logger   *logging.Logger
	lookPath func(string) (string, error)
}

// NewRunner creates a Runner. A nil logger disables debug logging.
func NewRunner(printer *console.Printer, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Runner{
		printer:  printer,
		logger:   logger.With("component", "command"),
		lookPath: exec.LookPath,
	}
}

// Lookup resolves name on PATH.
func (r *Runner) Lookup(name string) (string, error) {
	path, err := r.lookPath(name)
	if err != nil {
		return "", errors.NewCommandError("executable not found", ErrNotFound).WithCommand(name)
	}
	return path, nil
}

// Run executes cmd and waits for it to exit.
func (r *Runner) Run(ctx context.Context, cmd Command) (*Result, error) {
	line := cmd.String()
	printer := r.printer
	if cmd.Quiet {
		printer = console.Discard()
	}
	if cmd.Dir != "" {
		printer.Progress("Running: %s in %s", line, cmd.Dir)
	} else {
		printer.Progress("Running: %s", line)
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrapf(err, "%s not started", cmd.Name)
	}

	path, err := r.Lookup(cmd.Name)
	if err != nil {
		printer.Error("Command not found: %s", cmd.Name)
		r.logger.Warn("executable not found", "command", line)
		return nil, err
	}

	c := exec.CommandContext(ctx, path, cmd.Args...)
	c.Dir = cmd.Dir
	// Cancellation signals the whole process group.
	c.SysProcAttr = procgroup.SysProcAttr()
	c.Cancel = func() error { return procgroup.Terminate(c.Process) }
	c.WaitDelay = cancelWaitDelay
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	start := time.Now()
	if err := c.Start(); err != nil {
		printer.Error("Could not start %s: %v", cmd.Name, err)
		r.logger.Error("process creation failed", "command", line, "error", err.Error())
		return nil, errors.NewCommandError("could not start process", errors.Join(ErrStartFailed, err)).WithCommand(line)
	}

	waitErr := c.Wait()
	result := &Result{
		Command:  line,
		ExitCode: c.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if err := procgroup.Kill(c.Process); err != nil {
			r.logger.Warn("group kill failed", "command", line, "error", err.Error())
		}
		r.logger.Info("command cancelled", "command", line, "duration_ms", result.Duration.Milliseconds())
		return result, errors.Wrapf(ctxErr, "%s cancelled", cmd.Name)
	}

	var exitErr *exec.ExitError
	if errors.Is(waitErr, exec.ErrWaitDelay) {
		r.logger.Warn("output still open after exit", "command", line, "wait_delay_ms", cancelWaitDelay.Milliseconds())
	} else if waitErr != nil && !errors.As(waitErr, &exitErr) {
		r.logger.Error("wait failed", "command", line, "error", waitErr.Error())
		return result, errors.NewCommandError("wait failed", waitErr).WithCommand(line)
	}

	r.logger.Info("command finished",
		"command", line,
		"dir", cmd.Dir,
		"exit_code", result.ExitCode,
		"duration_ms", result.Duration.Milliseconds(),
	)
	if result.Success() {
		printer.Success("Command completed successfully")
	} else {
		printer.Error("Command failed (exit %d)", result.ExitCode)
		if tail := Tail(result.Stderr, 10); tail != "" {
			printer.Block(strings.Split(tail, "\n"))
		}
		r.logger.Debug("command stderr", "command", line, "stderr", Tail(result.Stderr, 50))
	}
	return result, nil
}

// Tail returns the last n lines of s, ignoring trailing newlines.
func Tail(s string, n int) string {
	s = strings.TrimRight(s, "\r\n")
	if s == "" || n <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
