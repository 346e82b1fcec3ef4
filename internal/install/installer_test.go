package install

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Iron-Ham/devstrap/internal/command"
	"github.com/Iron-Ham/devstrap/internal/console"
	"github.com/Iron-Ham/devstrap/internal/errors"
)

type fakeExec struct {
	result   *command.Result
	err      error
	got      command.Command
	deadline bool
}

func (f *fakeExec) Lookup(name string) (string, error) { return "/usr/bin/" + name, nil }

func (f *fakeExec) Run(ctx context.Context, cmd command.Command) (*command.Result, error) {
	f.got = cmd
	_, f.deadline = ctx.Deadline()
	return f.result, f.err
}

func TestInstaller_Success(t *testing.T) {
	exec := &fakeExec{result: &command.Result{Command: "npm install", ExitCode: 0}}
	var out bytes.Buffer
	inst := New(exec, console.Plain(&out), nil, nil, 0)

	if !inst.Install(context.Background(), "/work/app") {
		t.Fatal("Install() = false, want true")
	}
	if exec.got.Name != "npm" || strings.Join(exec.got.Args, " ") != "install" {
		t.Errorf("ran %s, want npm install", exec.got.String())
	}
	if exec.got.Dir != "/work/app" {
		t.Errorf("Dir = %q, want /work/app", exec.got.Dir)
	}
	if exec.deadline {
		t.Error("zero timeout should not set a deadline")
	}
	if inst.Err() != nil {
		t.Errorf("Err() = %v", inst.Err())
	}
	if !strings.Contains(out.String(), "✓ Dependencies installed successfully") {
		t.Errorf("missing success line: %s", out.String())
	}
}

func TestInstaller_NonZeroExit(t *testing.T) {
	exec := &fakeExec{result: &command.Result{
		Command:  "npm install",
		ExitCode: 1,
		Stderr:   "npm ERR! code E404\nnpm ERR! 404 Not Found\n",
	}}
	inst := New(exec, console.Discard(), nil, nil, 0)

	if inst.Install(context.Background(), "/work/app") {
		t.Fatal("Install() = true, want false")
	}

	var cerr *errors.CommandError
	if !errors.As(inst.Err(), &cerr) {
		t.Fatalf("Err() = %T, want *CommandError", inst.Err())
	}
	if cerr.ExitCode != 1 || cerr.Command != "npm install" {
		t.Errorf("CommandError = %+v", cerr)
	}
	if !strings.Contains(cerr.Stderr, "404 Not Found") {
		t.Errorf("Stderr = %q", cerr.Stderr)
	}
	if !errors.Is(inst.Err(), errors.ErrCommandFailed) {
		t.Error("Err() should match ErrCommandFailed")
	}
}

func TestInstaller_RunnerError(t *testing.T) {
	notFound := errors.NewCommandError("executable not found", command.ErrNotFound).WithCommand("npm")
	exec := &fakeExec{err: notFound}
	inst := New(exec, console.Discard(), nil, nil, 0)

	if inst.Install(context.Background(), "/work/app") {
		t.Fatal("Install() = true, want false")
	}
	if !errors.Is(inst.Err(), command.ErrNotFound) {
		t.Errorf("Err() = %v, want ErrNotFound", inst.Err())
	}
}

func TestInstaller_CustomCommandAndTimeout(t *testing.T) {
	exec := &fakeExec{result: &command.Result{ExitCode: 0}}
	inst := New(exec, console.Discard(), nil, []string{"pnpm", "install", "--frozen-lockfile"}, time.Minute)

	if !inst.Install(context.Background(), "/p") {
		t.Fatal("Install() = false")
	}
	if exec.got.String() != "pnpm install --frozen-lockfile" {
		t.Errorf("ran %q", exec.got.String())
	}
	if !exec.deadline {
		t.Error("timeout should set a context deadline")
	}
	if inst.CommandLine() != "pnpm install --frozen-lockfile" {
		t.Errorf("CommandLine() = %q", inst.CommandLine())
	}
}
