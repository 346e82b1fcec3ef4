// Package bootstrap runs the devstrap setup pipeline.
//
// The pipeline is a fixed, fail-fast sequence: check prerequisites, scaffold
// the project, write its .env, install dependencies, launch each configured
// process, run best-effort post-launch actions, then idle until the context is
// cancelled. Whatever happens, every process that was started is offered a
// termination exactly once before Run returns.
//
// The Bootstrapper is the only place where failures become user-visible
// status lines; the components it drives just return errors.
package bootstrap

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/Iron-Ham/devstrap/internal/command"
	"github.com/Iron-Ham/devstrap/internal/config"
	"github.com/Iron-Ham/devstrap/internal/console"
	"github.com/Iron-Ham/devstrap/internal/errors"
	"github.com/Iron-Ham/devstrap/internal/install"
	"github.com/Iron-Ham/devstrap/internal/logging"
	"github.com/Iron-Ham/devstrap/internal/prereq"
	"github.com/Iron-Ham/devstrap/internal/scaffold"
	"github.com/Iron-Ham/devstrap/internal/supervisor"
)

// PrerequisiteChecker verifies the external toolchain.
type PrerequisiteChecker interface {
	Check(ctx context.Context) bool
	Err() error
}

// ProjectScaffolder materializes files on disk.
type ProjectScaffolder interface {
	Apply(spec scaffold.Spec) error
	WriteFile(root, rel string, data []byte) error
}

// DependencyInstaller installs project dependencies.
type DependencyInstaller interface {
	Install(ctx context.Context, projectDir string) bool
	Err() error
}

// ProcessSupervisor starts and stops long-running processes.
type ProcessSupervisor interface {
	Start(ctx context.Context, spec supervisor.Spec) (*supervisor.ManagedProcess, error)
	TerminateAll() []error
}

// Option configures a Bootstrapper.
type Option func(*Bootstrapper)

// WithPrerequisiteChecker replaces the default checker.
func WithPrerequisiteChecker(c PrerequisiteChecker) Option {
	return func(b *Bootstrapper) { b.prereq = c }
}

// WithScaffolder replaces the default OS-backed scaffolder.
func WithScaffolder(s ProjectScaffolder) Option {
	return func(b *Bootstrapper) { b.scaffolder = s }
}

// WithInstaller replaces the default installer.
func WithInstaller(i DependencyInstaller) Option {
	return func(b *Bootstrapper) { b.installer = i }
}

// WithSupervisor replaces the default supervisor.
func WithSupervisor(s ProcessSupervisor) Option {
	return func(b *Bootstrapper) { b.supervisor = s }
}

// WithBrowserOpener replaces the platform browser launcher.
func WithBrowserOpener(fn BrowserOpener) Option {
	return func(b *Bootstrapper) { b.openBrowser = fn }
}

// Bootstrapper owns the project root and the supervisor for one run.
type Bootstrapper struct {
	cfg     *config.Config
	root    string
	printer *console.Printer
	logger  *logging.Logger

	prereq      PrerequisiteChecker
	scaffolder  ProjectScaffolder
	installer   DependencyInstaller
	supervisor  ProcessSupervisor
	openBrowser BrowserOpener

	steps       []Step
	results     []StepResult
	launched    []supervisor.Spec
	cleanupOnce sync.Once
}

// New assembles the pipeline for cfg with the project rooted at root.
// Components not supplied through options are built from cfg.
func New(cfg *config.Config, root string, printer *console.Printer, logger *logging.Logger, opts ...Option) *Bootstrapper {
	if logger == nil {
		logger = logging.NopLogger()
	}
	b := &Bootstrapper{
		cfg:     cfg,
		root:    root,
		printer: printer,
		logger:  logger.With("component", "bootstrap"),
	}
	for _, opt := range opts {
		opt(b)
	}

	runner := command.NewRunner(printer, logger)
	if b.prereq == nil {
		b.prereq = prereq.NewChecker(runner, printer, logger, prereq.ToolsFromConfig(cfg.Runtime.Tools))
	}
	if b.scaffolder == nil {
		b.scaffolder = scaffold.New(afero.NewOsFs(), printer, logger)
	}
	if b.installer == nil {
		b.installer = install.New(runner, printer, logger, cfg.Install.Command, cfg.Install.Timeout())
	}
	if b.supervisor == nil {
		b.supervisor = supervisor.New(printer, logger)
	}
	if b.openBrowser == nil {
		b.openBrowser = NewBrowserOpener(runner)
	}

	b.steps = b.buildSteps()
	b.results = make([]StepResult, len(b.steps))
	for i, s := range b.steps {
		b.results[i] = StepResult{Name: s.Name, Status: StepPending}
	}
	return b
}

// StepResults returns a snapshot of every step's outcome in pipeline order.
func (b *Bootstrapper) StepResults() []StepResult {
	out := make([]StepResult, len(b.results))
	copy(out, b.results)
	return out
}

// Run executes the pipeline. It returns nil when the run ends because ctx was
// cancelled (the operator interrupted) and a *PipelineError when a step
// failed. Cleanup has always completed by the time Run returns.
func (b *Bootstrapper) Run(ctx context.Context) (err error) {
	defer b.cleanup()
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("pipeline panicked", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			uerr := errors.NewUnexpectedError("pipeline", fmt.Errorf("%w: %v", errors.ErrPanic, r))
			b.report("pipeline", uerr)
			err = &PipelineError{Step: "pipeline", Err: uerr}
		}
	}()

	b.printer.Banner(b.cfg.Project.Name,
		"Automated project setup",
		"Dependency installation",
		fmt.Sprintf("Variant: %s", b.cfg.Project.Variant),
	)
	b.logger.Info("pipeline started", "root", b.root, "variant", b.cfg.Project.Variant, "steps", len(b.steps))

	for i, step := range b.steps {
		if ctx.Err() != nil {
			b.skipFrom(i)
			b.interrupted(step.Name)
			return nil
		}

		stepErr := b.runStep(ctx, i)
		if stepErr == nil {
			continue
		}

		if ctx.Err() != nil {
			b.skipFrom(i + 1)
			b.interrupted(step.Name)
			return nil
		}

		if step.ContinueOnFailure {
			b.printer.Warning("%s failed, continuing: %v", step.Name, stepErr)
			continue
		}

		b.skipFrom(i + 1)
		b.report(step.Name, stepErr)
		return &PipelineError{Step: step.Name, Err: stepErr}
	}

	b.logger.Info("pipeline finished")
	return nil
}

// runStep executes one step, converting a panic into an UnexpectedError.
func (b *Bootstrapper) runStep(ctx context.Context, i int) (err error) {
	step := b.steps[i]
	logger := b.logger.WithStep(step.Name)
	start := time.Now()
	b.results[i].Status = StepRunning

	defer func() {
		if r := recover(); r != nil {
			logger.Error("step panicked", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			err = errors.NewUnexpectedError(step.Name, fmt.Errorf("%w: %v", errors.ErrPanic, r))
		}

		res := &b.results[i]
		res.Duration = time.Since(start)
		res.Err = err
		if err != nil {
			res.Status = StepFailed
			logger.Error("step failed", "error", err.Error(), "duration_ms", res.Duration.Milliseconds())
		} else {
			res.Status = StepDone
			logger.Info("step completed", "duration_ms", res.Duration.Milliseconds())
		}
	}()

	logger.Info("step started")
	return step.Action(ctx)
}

func (b *Bootstrapper) skipFrom(i int) {
	for ; i < len(b.results); i++ {
		if b.results[i].Status == StepPending {
			b.results[i].Status = StepSkipped
		}
	}
}

func (b *Bootstrapper) interrupted(step string) {
	b.logger.Warn("interrupted", "step", step)
	b.printer.Warning("Interrupt received during %s, shutting down...", step)
}

// report prints the categorized status line for a fatal failure.
func (b *Bootstrapper) report(step string, err error) {
	category := errors.CategoryOf(err)
	b.logger.Error("pipeline aborted",
		"step", step,
		"category", category.String(),
		"severity", errors.GetSeverity(err).String(),
		"error", err.Error(),
	)
	b.printer.Error("Setup failed at %s [%s]: %v", step, category, err)
	if path := b.logger.Path(); path != "" {
		b.printer.Info("Details in %s", path)
	}
}

// cleanup terminates every started process. It runs once per Bootstrapper.
func (b *Bootstrapper) cleanup() {
	b.cleanupOnce.Do(func() {
		b.logger.Info("cleanup started")
		errs := b.supervisor.TerminateAll()
		for _, err := range errs {
			b.logger.Error("terminate failed", "error", err.Error())
		}
		b.logger.Info("cleanup finished", "errors", len(errs))
	})
}
