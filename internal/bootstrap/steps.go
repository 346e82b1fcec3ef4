package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/Iron-Ham/devstrap/internal/config"
	"github.com/Iron-Ham/devstrap/internal/console"
	"github.com/Iron-Ham/devstrap/internal/errors"
	"github.com/Iron-Ham/devstrap/internal/payload"
	"github.com/Iron-Ham/devstrap/internal/supervisor"
)

// Step names. Launch steps are named "launch:<process>".
const (
	StepPrerequisites = "prerequisites"
	StepScaffold      = "scaffold"
	StepConfigure     = "configure"
	StepInstall       = "install"
	StepPostLaunch    = "post-launch"
	StepIdle          = "idle"

	launchPrefix = "launch:"
)

func (b *Bootstrapper) buildSteps() []Step {
	steps := []Step{
		{Name: StepPrerequisites, Action: b.checkPrerequisites},
		{Name: StepScaffold, Action: b.scaffoldProject},
		{Name: StepConfigure, Action: b.writeEnv},
		{Name: StepInstall, Action: b.installDependencies},
	}
	for _, pc := range b.cfg.ProcessesFor(b.cfg.Project.Variant) {
		spec := supervisor.SpecFromConfig(pc, b.root)
		steps = append(steps, Step{
			Name:   LaunchStepName(pc.Name),
			Action: func(ctx context.Context) error { return b.launch(ctx, spec) },
		})
	}
	return append(steps,
		Step{Name: StepPostLaunch, Action: b.postLaunch},
		Step{Name: StepIdle, Action: b.idle},
	)
}

func (b *Bootstrapper) checkPrerequisites(ctx context.Context) error {
	if b.prereq.Check(ctx) {
		return nil
	}
	if err := b.prereq.Err(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.NewPrerequisiteError("toolchain").WithCause(errors.ErrToolMissing)
}

func (b *Bootstrapper) scaffoldProject(ctx context.Context) error {
	spec, err := payload.Spec(b.root, b.cfg.Project.Variant)
	if err != nil {
		return err
	}
	return b.scaffolder.Apply(spec)
}

func (b *Bootstrapper) writeEnv(ctx context.Context) error {
	data, err := payload.Env(b.cfg.Env, b.cfg.Project.Variant)
	if err != nil {
		return err
	}
	if err := b.scaffolder.WriteFile(b.root, payload.EnvFile, data); err != nil {
		return err
	}
	b.printer.Success("Environment file %s written", payload.EnvFile)
	return nil
}

func (b *Bootstrapper) installDependencies(ctx context.Context) error {
	if b.installer.Install(ctx, b.root) {
		return nil
	}
	if err := b.installer.Err(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.NewCommandError("dependency install failed", errors.ErrCommandFailed)
}

func (b *Bootstrapper) launch(ctx context.Context, spec supervisor.Spec) error {
	if _, err := b.supervisor.Start(ctx, spec); err != nil {
		return err
	}
	b.launched = append(b.launched, spec)
	return nil
}

// postLaunch opens the browser and prints the summary. Nothing here is fatal.
func (b *Bootstrapper) postLaunch(ctx context.Context) error {
	if b.cfg.Browser.Enabled && b.cfg.Browser.URL != "" {
		if err := sleepCtx(ctx, b.cfg.Browser.Delay()); err != nil {
			return err
		}
		if err := b.openBrowser(ctx, b.cfg.Browser.URL); err != nil {
			b.logger.Warn("browser launch failed", "url", b.cfg.Browser.URL, "error", err.Error())
			b.printer.Warning("Could not open the browser: %v", err)
			b.printer.Info("Open manually: %s", b.cfg.Browser.URL)
		} else {
			b.printer.Success("Browser opened at %s", b.cfg.Browser.URL)
		}
	}

	b.printSummary()
	return nil
}

func (b *Bootstrapper) printSummary() {
	rows := []console.Row{
		{Label: "Directory", Value: b.root},
		{Label: "Variant", Value: b.cfg.Project.Variant},
	}
	for _, spec := range b.launched {
		value := spec.CommandLine()
		if spec.URL != "" {
			value = spec.URL
		}
		rows = append(rows, console.Row{Label: spec.Name, Value: value})
	}
	if path := b.logger.Path(); path != "" {
		rows = append(rows, console.Row{Label: "Debug log", Value: path})
	}

	notes := []string{
		"cd " + filepath.Base(b.root),
		"npm run dev       # start the dev server",
		"npm run build     # production build",
		"npm run preview   # preview the build",
		"npm run lint      # lint the code",
	}
	if b.cfg.Project.Variant == config.VariantExtended {
		notes = append(notes, "npm run server    # start the API server")
	}
	notes = append(notes, "", "Press Ctrl+C to stop the servers")

	b.printer.Summary("Project ready", rows, notes)
}

// idle blocks until ctx is cancelled.
func (b *Bootstrapper) idle(ctx context.Context) error {
	interval := b.cfg.Idle.PollInterval()
	if interval <= 0 {
		interval = time.Second
	}
	b.logger.Info("idling", "poll_interval_ms", interval.Milliseconds())

	for ctx.Err() == nil {
		// A cancelled sleep just ends the loop.
		_ = sleepCtx(ctx, interval)
	}
	b.printer.Warning("Interrupt received, shutting down...")
	return nil
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

// LaunchStepName returns the pipeline step name for a process.
func LaunchStepName(process string) string {
	return fmt.Sprintf("%s%s", launchPrefix, process)
}
