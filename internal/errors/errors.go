// Package errors provides centralized error definitions and error handling utilities
// for devstrap. It defines the failure taxonomy of the bootstrap pipeline, error
// constructors with context wrapping, and classification helpers.
//
// # Error Types
//
// Every fatal condition the pipeline can hit maps onto one of five categories:
//   - PrerequisiteError: a required external tool could not be resolved
//   - FileSystemError: a directory or file write failed while scaffolding
//   - CommandError: a shell-level step exited non-zero or could not run
//   - LaunchError: a managed process died inside its grace window
//   - UnexpectedError: anything else, including recovered panics
//
// # Usage
//
//	err := errors.NewCommandError("dependency install failed", errors.ErrCommandFailed).
//	    WithCommand("npm install").
//	    WithExitCode(1)
//
//	if errors.Is(err, errors.ErrCommandFailed) { ... }
//
//	switch errors.CategoryOf(err) {
//	case errors.CategoryLaunch:
//	    ...
//	}
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Category is the pipeline failure taxonomy.
type Category int

const (
	// CategoryUnexpected covers any condition not otherwise classified.
	CategoryUnexpected Category = iota
	// CategoryPrerequisite means a required external tool is missing.
	CategoryPrerequisite
	// CategoryFileSystem means scaffolding could not write to disk.
	CategoryFileSystem
	// CategoryCommand means an external command failed.
	CategoryCommand
	// CategoryLaunch means a managed process failed its health check.
	CategoryLaunch
)

// String returns the label used in status lines.
func (c Category) String() string {
	switch c {
	case CategoryPrerequisite:
		return "prerequisite missing"
	case CategoryFileSystem:
		return "filesystem error"
	case CategoryCommand:
		return "command failure"
	case CategoryLaunch:
		return "process launch failure"
	default:
		return "unexpected error"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Command-related sentinel errors
var (
	// ErrCommandNotFound indicates the executable could not be located on the search path.
	ErrCommandNotFound = New("executable not found")
	// ErrCommandStart indicates the operating system refused to create the process.
	ErrCommandStart = New("process creation failed")
	// ErrCommandFailed indicates the command ran and exited non-zero.
	ErrCommandFailed = New("command exited with non-zero status")
)

// Process-related sentinel errors
var (
	// ErrProcessExited indicates a managed process exited during its grace window.
	ErrProcessExited = New("process exited during grace window")
	// ErrProcessNotReady indicates a readiness probe never succeeded.
	ErrProcessNotReady = New("process did not become ready")
	// ErrInvalidTransition indicates a lifecycle operation invalid for the current state.
	ErrInvalidTransition = New("invalid process state transition")
)

// General sentinel errors
var (
	// ErrToolMissing indicates a required prerequisite is missing.
	ErrToolMissing = New("required tool missing")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
	// ErrPanic indicates a recovered panic.
	ErrPanic = New("panic")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// BootstrapError is the base interface for all devstrap errors.
type BootstrapError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Severity returns the severity level of this error.
	Severity() Severity

	// Category returns the pipeline failure category.
	Category() Category

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	userFacing bool
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

func (e *baseError) format(prefix string, parts []string) string {
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", prefix, strings.Join(parts, ", "))
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// -----------------------------------------------------------------------------
// Domain Errors
// -----------------------------------------------------------------------------

// PrerequisiteError reports a missing external tool.
//
// Example:
//
//	err := errors.NewPrerequisiteError("node").WithRemediation(true)
//	fmt.Println(err) // "prerequisite error [tool=node]: required tool missing"
type PrerequisiteError struct {
	baseError
	Tool           string
	HasRemediation bool
}

// NewPrerequisiteError creates a new PrerequisiteError for the named tool.
func NewPrerequisiteError(tool string) *PrerequisiteError {
	return &PrerequisiteError{
		baseError: baseError{
			message:    "required tool missing",
			severity:   SeverityError,
			userFacing: true,
		},
		Tool: tool,
	}
}

// WithCause adds a cause to the error.
func (e *PrerequisiteError) WithCause(cause error) *PrerequisiteError {
	e.cause = cause
	return e
}

// WithRemediation records whether install instructions were shown.
func (e *PrerequisiteError) WithRemediation(shown bool) *PrerequisiteError {
	e.HasRemediation = shown
	return e
}

// Error returns the formatted error message.
func (e *PrerequisiteError) Error() string {
	var parts []string
	if e.Tool != "" {
		parts = append(parts, fmt.Sprintf("tool=%s", e.Tool))
	}
	return e.format("prerequisite error", parts)
}

// Category returns CategoryPrerequisite.
func (e *PrerequisiteError) Category() Category { return CategoryPrerequisite }

// Is checks if this error matches the target.
func (e *PrerequisiteError) Is(target error) bool {
	if _, ok := target.(*PrerequisiteError); ok {
		return true
	}
	if target == ErrToolMissing {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// FileSystemError reports a failed directory or file operation.
//
// Example:
//
//	err := errors.NewFileSystemError("write", "/tmp/app/package.json", cause)
type FileSystemError struct {
	baseError
	Op   string
	Path string
}

// NewFileSystemError creates a new FileSystemError.
func NewFileSystemError(op, path string, cause error) *FileSystemError {
	return &FileSystemError{
		baseError: baseError{
			message:    fmt.Sprintf("%s failed", op),
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
		Op:   op,
		Path: path,
	}
}

// Error returns the formatted error message.
func (e *FileSystemError) Error() string {
	var parts []string
	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("path=%s", e.Path))
	}
	return e.format("filesystem error", parts)
}

// Category returns CategoryFileSystem.
func (e *FileSystemError) Category() Category { return CategoryFileSystem }

// Is checks if this error matches the target.
func (e *FileSystemError) Is(target error) bool {
	if _, ok := target.(*FileSystemError); ok {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// CommandError reports an external command that could not run or exited non-zero.
//
// Example:
//
//	err := errors.NewCommandError("install failed", errors.ErrCommandFailed).
//	    WithCommand("npm install").WithExitCode(1).WithStderr("ERR! network")
type CommandError struct {
	baseError
	Command  string
	ExitCode int
	Stderr   string
}

// NewCommandError creates a new CommandError.
func NewCommandError(message string, cause error) *CommandError {
	return &CommandError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
		ExitCode: -1,
	}
}

// WithCommand adds the command line to the error context.
func (e *CommandError) WithCommand(cmd string) *CommandError {
	e.Command = cmd
	return e
}

// WithExitCode adds the exit status to the error context.
func (e *CommandError) WithExitCode(code int) *CommandError {
	e.ExitCode = code
	return e
}

// WithStderr attaches captured stderr output.
func (e *CommandError) WithStderr(stderr string) *CommandError {
	e.Stderr = stderr
	return e
}

// WithSeverity sets the error severity.
func (e *CommandError) WithSeverity(s Severity) *CommandError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *CommandError) Error() string {
	var parts []string
	if e.Command != "" {
		parts = append(parts, fmt.Sprintf("cmd=%s", e.Command))
	}
	if e.ExitCode >= 0 {
		parts = append(parts, fmt.Sprintf("exit=%d", e.ExitCode))
	}
	msg := e.format("command error", parts)
	if e.Stderr != "" {
		msg = fmt.Sprintf("%s\nstderr: %s", msg, e.Stderr)
	}
	return msg
}

// Category returns CategoryCommand.
func (e *CommandError) Category() Category { return CategoryCommand }

// Is checks if this error matches the target.
func (e *CommandError) Is(target error) bool {
	if _, ok := target.(*CommandError); ok {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// LaunchError reports a managed process that failed its startup health check.
//
// Example:
//
//	err := errors.NewLaunchError("backend", errors.ErrProcessExited).WithExitCode(1)
//	fmt.Println(err) // "launch error [process=backend, exit=1]: health check failed: process exited during grace window"
type LaunchError struct {
	baseError
	Process  string
	ExitCode int
}

// NewLaunchError creates a new LaunchError.
func NewLaunchError(process string, cause error) *LaunchError {
	return &LaunchError{
		baseError: baseError{
			message:    "health check failed",
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
		Process:  process,
		ExitCode: -1,
	}
}

// WithExitCode adds the exit status to the error context.
func (e *LaunchError) WithExitCode(code int) *LaunchError {
	e.ExitCode = code
	return e
}

// Error returns the formatted error message.
func (e *LaunchError) Error() string {
	var parts []string
	if e.Process != "" {
		parts = append(parts, fmt.Sprintf("process=%s", e.Process))
	}
	if e.ExitCode >= 0 {
		parts = append(parts, fmt.Sprintf("exit=%d", e.ExitCode))
	}
	return e.format("launch error", parts)
}

// Category returns CategoryLaunch.
func (e *LaunchError) Category() Category { return CategoryLaunch }

// Is checks if this error matches the target.
func (e *LaunchError) Is(target error) bool {
	if _, ok := target.(*LaunchError); ok {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// UnexpectedError wraps any condition the pipeline did not anticipate.
type UnexpectedError struct {
	baseError
	Step string
}

// NewUnexpectedError creates a new UnexpectedError.
func NewUnexpectedError(step string, cause error) *UnexpectedError {
	return &UnexpectedError{
		baseError: baseError{
			message:    "unexpected failure",
			cause:      cause,
			severity:   SeverityCritical,
			userFacing: false,
		},
		Step: step,
	}
}

// Error returns the formatted error message.
func (e *UnexpectedError) Error() string {
	var parts []string
	if e.Step != "" {
		parts = append(parts, fmt.Sprintf("step=%s", e.Step))
	}
	return e.format("unexpected error", parts)
}

// Category returns CategoryUnexpected.
func (e *UnexpectedError) Category() Category { return CategoryUnexpected }

// Is checks if this error matches the target.
func (e *UnexpectedError) Is(target error) bool {
	if _, ok := target.(*UnexpectedError); ok {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// CategoryOf returns the pipeline category for err.
// Errors that don't implement BootstrapError are CategoryUnexpected.
func CategoryOf(err error) Category {
	if err == nil {
		return CategoryUnexpected
	}
	var be BootstrapError
	if As(err, &be) {
		return be.Category()
	}
	return CategoryUnexpected
}

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	var be BootstrapError
	if As(err, &be) {
		return be.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement BootstrapError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}
	var be BootstrapError
	if As(err, &be) {
		return be.Severity()
	}
	return SeverityError
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
