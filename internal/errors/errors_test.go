package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "prerequisite",
			err:  NewPrerequisiteError("node"),
			want: "prerequisite error [tool=node]: required tool missing",
		},
		{
			name: "filesystem",
			err:  NewFileSystemError("write", "/tmp/x", errors.New("disk full")),
			want: "filesystem error [path=/tmp/x]: write failed: disk full",
		},
		{
			name: "command with exit code",
			err:  NewCommandError("install failed", ErrCommandFailed).WithCommand("npm install").WithExitCode(1),
			want: "command error [cmd=npm install, exit=1]: install failed: command exited with non-zero status",
		},
		{
			name: "command with stderr",
			err:  NewCommandError("install failed", nil).WithStderr("ERR!"),
			want: "command error: install failed\nstderr: ERR!",
		},
		{
			name: "launch",
			err:  NewLaunchError("backend", ErrProcessExited).WithExitCode(1),
			want: "launch error [process=backend, exit=1]: health check failed: process exited during grace window",
		},
		{
			name: "unexpected",
			err:  NewUnexpectedError("scaffold", ErrPanic),
			want: "unexpected error [step=scaffold]: unexpected failure: panic",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"prerequisite", NewPrerequisiteError("npm"), CategoryPrerequisite},
		{"filesystem", NewFileSystemError("mkdir", "/x", nil), CategoryFileSystem},
		{"command", NewCommandError("x", nil), CategoryCommand},
		{"launch", NewLaunchError("frontend", nil), CategoryLaunch},
		{"unexpected", NewUnexpectedError("", nil), CategoryUnexpected},
		{"plain", errors.New("boom"), CategoryUnexpected},
		{"wrapped launch", fmt.Errorf("step launch:backend: %w", NewLaunchError("backend", nil)), CategoryLaunch},
		{"nil", nil, CategoryUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CategoryOf(tt.err); got != tt.want {
				t.Errorf("CategoryOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIs(t *testing.T) {
	launch := fmt.Errorf("wrapped: %w", NewLaunchError("backend", ErrProcessExited))
	if !Is(launch, ErrProcessExited) {
		t.Error("Is(ErrProcessExited) = false, want true")
	}
	if !Is(launch, &LaunchError{}) {
		t.Error("Is(&LaunchError{}) = false, want true")
	}
	if Is(launch, &CommandError{}) {
		t.Error("Is(&CommandError{}) = true, want false")
	}

	if !Is(NewPrerequisiteError("node"), ErrToolMissing) {
		t.Error("PrerequisiteError should match ErrToolMissing")
	}

	notFound := NewCommandError("cannot run", ErrCommandNotFound)
	if !Is(notFound, ErrCommandNotFound) {
		t.Error("Is(ErrCommandNotFound) = false, want true")
	}
	if Is(notFound, ErrCommandFailed) {
		t.Error("not-found command error must not match ErrCommandFailed")
	}
}

func TestClassificationHelpers(t *testing.T) {
	if IsUserFacing(errors.New("x")) {
		t.Error("plain errors are not user facing")
	}
	if !IsUserFacing(NewLaunchError("backend", nil)) {
		t.Error("LaunchError should be user facing")
	}
	if IsUserFacing(NewUnexpectedError("", nil)) {
		t.Error("UnexpectedError should not be user facing")
	}
	if got := GetSeverity(nil); got != SeverityDebug {
		t.Errorf("GetSeverity(nil) = %v, want debug", got)
	}
	if got := GetSeverity(errors.New("x")); got != SeverityError {
		t.Errorf("GetSeverity(plain) = %v, want error", got)
	}
	if got := GetSeverity(NewUnexpectedError("", nil)); got != SeverityCritical {
		t.Errorf("GetSeverity(unexpected) = %v, want critical", got)
	}
	if got := GetSeverity(NewCommandError("", nil).WithSeverity(SeverityWarning)); got != SeverityWarning {
		t.Errorf("GetSeverity(command warning) = %v, want warning", got)
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "x") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	base := NewFileSystemError("mkdir", "/a", nil)
	err := Wrapf(base, "step %s", "scaffold")
	if err.Error() != "step scaffold: filesystem error [path=/a]: mkdir failed" {
		t.Errorf("Wrapf() = %q", err.Error())
	}
	var fsErr *FileSystemError
	if !As(err, &fsErr) {
		t.Fatal("As(*FileSystemError) failed through Wrapf")
	}
	if fsErr.Op != "mkdir" {
		t.Errorf("Op = %q, want mkdir", fsErr.Op)
	}
}
