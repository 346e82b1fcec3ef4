// Package install runs the project's package-manager install once.
package install

import (
	"context"
	"strings"
	"time"

	"github.com/Iron-Ham/devstrap/internal/command"
	"github.com/Iron-Ham/devstrap/internal/console"
	"github.com/Iron-Ham/devstrap/internal/errors"
	"github.com/Iron-Ham/devstrap/internal/logging"
)

// DefaultCommand is used when no install command is configured.
var DefaultCommand = []string{"npm", "install"}

// Installer runs the install command in a project directory. There is no
// retry: a failed install fails the run.
type Installer struct {
	exec    command.Executor
	printer *console.Printer
	logger  *logging.Logger
	argv    []string
	timeout time.Duration

	err error
}

// New creates an Installer. An empty argv means DefaultCommand and a zero
// timeout means no bound.
func New(exec command.Executor, printer *console.Printer, logger *logging.Logger, argv []string, timeout time.Duration) *Installer {
	if len(argv) == 0 {
		argv = DefaultCommand
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Installer{
		exec:    exec,
		printer: printer,
		logger:  logger.WithStep("install"),
		argv:    argv,
		timeout: timeout,
	}
}

// Install returns true when the install command exits 0.
func (i *Installer) Install(ctx context.Context, projectDir string) bool {
	i.err = nil
	i.printer.Info("Installing dependencies (this can take a few minutes)...")

	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	cmd := command.Command{Name: i.argv[0], Args: i.argv[1:], Dir: projectDir}
	res, err := i.exec.Run(ctx, cmd)
	if err != nil {
		i.logger.Error("install could not run", "command", cmd.String(), "error", err.Error())
		i.err = err
		return false
	}
	if !res.Success() {
		i.logger.Error("install failed", "command", res.Command, "exit_code", res.ExitCode)
		i.err = errors.NewCommandError("dependency install failed", errors.ErrCommandFailed).
			WithCommand(res.Command).
			WithExitCode(res.ExitCode).
			WithStderr(command.Tail(res.Stderr, 5))
		return false
	}

	i.logger.Info("dependencies installed", "duration_ms", res.Duration.Milliseconds())
	i.printer.Success("Dependencies installed successfully")
	return true
}

// Err returns the cause of the last failed Install, or nil.
func (i *Installer) Err() error {
	return i.err
}

// CommandLine returns the install command as a display string.
func (i *Installer) CommandLine() string {
	return strings.Join(i.argv, " ")
}
