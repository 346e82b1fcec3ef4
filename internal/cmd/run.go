package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/devstrap/internal/bootstrap"
	"github.com/Iron-Ham/devstrap/internal/config"
	"github.com/Iron-Ham/devstrap/internal/console"
	"github.com/Iron-Ham/devstrap/internal/logging"
)

func runBootstrap(cmd *cobra.Command, args []string) error {
	if configReadErr != nil {
		return configReadErr
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}
	if noBrowser, _ := cmd.Flags().GetBool("no-browser"); noBrowser {
		cfg.Browser.Enabled = false
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	printer := console.New(cmd.OutOrStdout())
	logger := openLogger(cfg.Logging, printer)
	defer func() { _ = logger.Close() }()

	ctx, stop := interruptContext(cmd.Context())
	defer stop()

	b := bootstrap.New(cfg, cfg.ProjectDir(cwd), printer, logger)
	return b.Run(ctx)
}

// openLogger returns the debug logger, or a no-op logger when logging is
// disabled or the log file cannot be opened.
func openLogger(lc config.LoggingConfig, printer *console.Printer) *logging.Logger {
	if !lc.Enabled {
		return logging.NopLogger()
	}
	rotation := logging.RotationConfig{MaxSizeMB: lc.MaxSizeMB, MaxBackups: lc.MaxBackups}
	logger, err := logging.NewLogger(lc.ResolveLogDir(), lc.Level, rotation)
	if err != nil {
		printer.Warning("Debug log disabled: %v", err)
		return logging.NopLogger()
	}
	return logger
}

// interruptContext is cancelled on SIGINT or SIGTERM. The registration is
// released after the first signal, so a second one gets the default OS
// behavior while cleanup is still running.
func interruptContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
	}()
	return ctx, stop
}
