package bootstrap

import (
	"context"
	"runtime"
	"time"

	"github.com/Iron-Ham/devstrap/internal/command"
	"github.com/Iron-Ham/devstrap/internal/errors"
)

// BrowserOpener opens url in the user's browser.
type BrowserOpener func(ctx context.Context, url string) error

const browserTimeout = 10 * time.Second

// BrowserCommand returns the argv that opens url on goos.
func BrowserCommand(goos, url string) []string {
	switch goos {
	case "darwin":
		return []string{"open", url}
	case "windows":
		return []string{"rundll32", "url.dll,FileProtocolHandler", url}
	default:
		return []string{"xdg-open", url}
	}
}

// NewBrowserOpener returns a BrowserOpener that runs the platform launcher
// through exec.
func NewBrowserOpener(exec command.Executor) BrowserOpener {
	return newBrowserOpener(exec, runtime.GOOS)
}

func newBrowserOpener(exec command.Executor, goos string) BrowserOpener {
	return func(ctx context.Context, url string) error {
		ctx, cancel := context.WithTimeout(ctx, browserTimeout)
		defer cancel()

		argv := BrowserCommand(goos, url)
		res, err := exec.Run(ctx, command.Command{Name: argv[0], Args: argv[1:], Quiet: true})
		if err != nil {
			return err
		}
		if !res.Success() {
			return errors.NewCommandError("browser launcher failed", errors.ErrCommandFailed).
				WithCommand(res.Command).
				WithExitCode(res.ExitCode).
				WithStderr(command.Tail(res.Stderr, 3)).
				WithSeverity(errors.SeverityWarning)
		}
		return nil
	}
}
