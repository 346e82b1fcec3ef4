package command

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Iron-Ham/devstrap/internal/console"
	"github.com/Iron-Ham/devstrap/internal/errors"
	"github.com/Iron-Ham/devstrap/internal/testutil"
)

func newTestRunner() (*Runner, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewRunner(console.Plain(&buf), nil), &buf
}

func TestCommand_String(t *testing.T) {
	cmd := Command{Name: "npm", Args: []string{"run", "dev"}}
	if got := cmd.String(); got != "npm run dev" {
		t.Errorf("String() = %q, want %q", got, "npm run dev")
	}
}

func TestRunner_Run_Success(t *testing.T) {
	testutil.SkipIfNoShell(t)
	r, out := newTestRunner()

	res, err := r.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo hello; echo oops >&2"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.Success() || res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
	if res.Stdout != "hello\n" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "hello\n")
	}
	if res.Stderr != "oops\n" {
		t.Errorf("Stderr = %q, want %q", res.Stderr, "oops\n")
	}
	if !strings.Contains(out.String(), "↻ Running: sh -c") {
		t.Errorf("missing progress line in %q", out.String())
	}
	if !strings.Contains(out.String(), "✓ Command completed successfully") {
		t.Errorf("missing success line in %q", out.String())
	}
}

func TestRunner_Run_NonZeroExitIsNotAnError(t *testing.T) {
	testutil.SkipIfNoShell(t)
	r, out := newTestRunner()

	res, err := r.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo broken >&2; exit 3"}})
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	if res.Success() || res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
	if !strings.Contains(out.String(), "✗ Command failed (exit 3)") {
		t.Errorf("missing error line in %q", out.String())
	}
	if !strings.Contains(out.String(), "  broken") {
		t.Errorf("stderr tail not printed: %q", out.String())
	}
}

func TestRunner_Run_WorkingDirAndEnv(t *testing.T) {
	testutil.SkipIfNoShell(t)
	r, out := newTestRunner()
	dir := t.TempDir()

	res, err := r.Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", `pwd; echo "$DEVSTRAP_TEST_VALUE"`},
		Dir:  dir,
		Env:  []string{"DEVSTRAP_TEST_VALUE=42"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(res.Stdout), "\n")
	if len(lines) != 2 {
		t.Fatalf("Stdout = %q", res.Stdout)
	}
	// macOS temp dirs live behind a /private symlink
	gotDir, _ := filepath.EvalSymlinks(lines[0])
	wantDir, _ := filepath.EvalSymlinks(dir)
	if gotDir != wantDir {
		t.Errorf("pwd = %q, want %q", gotDir, wantDir)
	}
	if lines[1] != "42" {
		t.Errorf("env value = %q, want 42", lines[1])
	}
	if !strings.Contains(out.String(), " in "+dir) {
		t.Errorf("progress line should name the directory: %q", out.String())
	}
}

func TestRunner_Run_NotFound(t *testing.T) {
	r, out := newTestRunner()

	res, err := r.Run(context.Background(), Command{Name: "devstrap-no-such-binary-xyz"})
	if err == nil {
		t.Fatal("Run() should fail for a missing executable")
	}
	if res != nil {
		t.Errorf("Result = %+v, want nil", res)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("errors.Is(err, ErrNotFound) = false for %v", err)
	}
	if errors.CategoryOf(err) != errors.CategoryCommand {
		t.Errorf("CategoryOf = %v, want CategoryCommand", errors.CategoryOf(err))
	}
	if !strings.Contains(out.String(), "✗ Command not found: devstrap-no-such-binary-xyz") {
		t.Errorf("missing not-found line in %q", out.String())
	}
}

func TestRunner_Run_StartFailed(t *testing.T) {
	testutil.SkipIfNoShell(t)
	r, _ := newTestRunner()

	_, err := r.Run(context.Background(), Command{Name: "sh", Dir: filepath.Join(t.TempDir(), "missing")})
	if err == nil {
		t.Fatal("Run() should fail when the working directory does not exist")
	}
	if !errors.Is(err, ErrStartFailed) {
		t.Errorf("errors.Is(err, ErrStartFailed) = false for %v", err)
	}
}

func TestRunner_Run_CancelledContext(t *testing.T) {
	testutil.SkipIfNoShell(t)
	r, _ := newTestRunner()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, Command{Name: "sh", Args: []string{"-c", "sleep 5"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestRunner_Run_DeadlineStopsChildren(t *testing.T) {
	testutil.SkipIfNoShell(t)

	tests := []struct {
		name   string
		script string
		within time.Duration
	}{
		{
			name:   "child holding output",
			script: "sleep 4; echo done",
			within: time.Second,
		},
		{
			name:   "grandchild ignoring SIGTERM",
			script: `(trap "" TERM; sleep 4) & wait`,
			within: cancelWaitDelay + time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRunner()
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()

			start := time.Now()
			_, err := r.Run(ctx, Command{Name: "sh", Args: []string{"-c", tt.script}})
			elapsed := time.Since(start)

			if !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("Run() error = %v, want context.DeadlineExceeded", err)
			}
			if elapsed > tt.within {
				t.Errorf("Run() returned after %v, want within %v", elapsed, tt.within)
			}
		})
	}
}

func TestRunner_Lookup(t *testing.T) {
	r, _ := newTestRunner()
	r.lookPath = func(name string) (string, error) {
		if name == "node" {
			return "/usr/bin/node", nil
		}
		return "", exec.ErrNotFound
	}

	if path, err := r.Lookup("node"); err != nil || path != "/usr/bin/node" {
		t.Errorf("Lookup(node) = %q, %v", path, err)
	}
	if _, err := r.Lookup("npm"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup(npm) error = %v, want ErrNotFound", err)
	}
}

func TestTail(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"empty", "", 3, ""},
		{"fewer lines", "a\nb\n", 3, "a\nb"},
		{"truncates", "a\nb\nc\nd\n", 2, "c\nd"},
		{"crlf trailing", "a\r\n", 1, "a"},
		{"zero", "a\nb", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Tail(tt.in, tt.n); got != tt.want {
				t.Errorf("Tail(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
		})
	}
}

func TestRunner_Run_Quiet(t *testing.T) {
	testutil.SkipIfNoShell(t)
	r, out := newTestRunner()

	res, err := r.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "exit 2"}, Quiet: true})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.ExitCode != 2 {
		t.Errorf("ExitCode = %d, want 2", res.ExitCode)
	}
	if out.Len() != 0 {
		t.Errorf("quiet run printed %q", out.String())
	}
}
