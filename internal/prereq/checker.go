// Package prereq verifies that the external toolchain is installed before
// anything touches the filesystem.
package prereq

import (
	"context"
	"regexp"
	"runtime"
	"strings"

	"github.com/Iron-Ham/devstrap/internal/command"
	"github.com/Iron-Ham/devstrap/internal/config"
	"github.com/Iron-Ham/devstrap/internal/console"
	"github.com/Iron-Ham/devstrap/internal/errors"
	"github.com/Iron-Ham/devstrap/internal/logging"
)

// Tool is an executable that must (or should) be on PATH.
type Tool struct {
	Name        string
	Command     string
	VersionArgs []string
	Required    bool
	// Primary marks the runtime whose absence prints install instructions.
	Primary bool
	// MinVersion is shown to the operator but never compared.
	MinVersion string
}

// ToolsFromConfig converts configured tools, defaulting VersionArgs to --version.
func ToolsFromConfig(cfgs []config.ToolConfig) []Tool {
	tools := make([]Tool, 0, len(cfgs))
	for _, c := range cfgs {
		args := c.VersionArgs
		if len(args) == 0 {
			args = []string{"--version"}
		}
		name := c.Name
		if name == "" {
			name = c.Command
		}
		tools = append(tools, Tool{
			Name:        name,
			Command:     c.Command,
			VersionArgs: args,
			Required:    c.Required,
			Primary:     c.Primary,
			MinVersion:  c.MinVersion,
		})
	}
	return tools
}

// Result records the outcome of checking one tool.
type Result struct {
	Tool    Tool
	Found   bool
	Version string
}

// Checker runs the tool checks in order.
type Checker struct {
	exec    command.Executor
	printer *console.Printer
	logger  *logging.Logger
	tools   []Tool
	goos    string

	results []Result
	err     error
}

// NewChecker creates a Checker for tools.
func NewChecker(exec command.Executor, printer *console.Printer, logger *logging.Logger, tools []Tool) *Checker {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Checker{
		exec:    exec,
		printer: printer,
		logger:  logger.WithStep("prerequisites"),
		tools:   tools,
		goos:    runtime.GOOS,
	}
}

// Check returns true when every required tool is present. It stops at the
// first missing required tool; optional tools only produce a warning.
func (c *Checker) Check(ctx context.Context) bool {
	c.results = c.results[:0]
	c.err = nil

	c.printer.Info("Checking prerequisites...")

	for _, tool := range c.tools {
		version, err := c.probe(ctx, tool)
		if err != nil && ctx.Err() != nil {
			// Interrupted, not missing.
			c.logger.Info("check interrupted", "tool", tool.Command)
			c.err = errors.Wrapf(ctx.Err(), "checking %s", tool.Name)
			return false
		}
		found := err == nil
		c.results = append(c.results, Result{Tool: tool, Found: found, Version: version})

		switch {
		case found:
			if tool.MinVersion != "" {
				c.printer.Success("%s found: v%s (recommended >= %s)", tool.Name, version, tool.MinVersion)
			} else {
				c.printer.Success("%s found: v%s", tool.Name, version)
			}
			c.logger.Info("tool found", "tool", tool.Command, "version", version)

		case !tool.Required:
			c.printer.Warning("%s not found (optional)", tool.Name)
			c.logger.Warn("optional tool missing", "tool", tool.Command, "error", err.Error())

		default:
			c.printer.Error("%s not found!", tool.Name)
			c.logger.Error("required tool missing", "tool", tool.Command, "error", err.Error())
			perr := errors.NewPrerequisiteError(tool.Name).WithCause(err)
			if tool.Primary {
				c.printer.Warning("%s is required. Install it with the instructions below:", tool.Name)
				c.printer.Block(Remediation(c.goos))
				perr = perr.WithRemediation(true)
			}
			c.err = perr
			return false
		}
	}

	return true
}

// Results returns the per-tool outcomes of the last Check.
func (c *Checker) Results() []Result {
	return c.results
}

// Err returns the PrerequisiteError behind a failed Check, or nil.
func (c *Checker) Err() error {
	return c.err
}

func (c *Checker) probe(ctx context.Context, tool Tool) (string, error) {
	if _, err := c.exec.Lookup(tool.Command); err != nil {
		return "", err
	}
	res, err := c.exec.Run(ctx, command.Command{Name: tool.Command, Args: tool.VersionArgs, Quiet: true})
	if err != nil {
		return "", err
	}
	if !res.Success() {
		return "", errors.NewCommandError("version check failed", errors.ErrCommandFailed).
			WithCommand(res.Command).
			WithExitCode(res.ExitCode)
	}
	version := ParseVersion(res.Stdout)
	if version == "" {
		return "", errors.NewCommandError("empty version output", errors.ErrCommandFailed).
			WithCommand(res.Command)
	}
	return version, nil
}

var versionPattern = regexp.MustCompile(`\d+(?:\.\d+)+`)

// ParseVersion extracts a dotted version from tool output such as "v18.19.0"
// or "git version 2.43.0". Output without one is returned trimmed.
func ParseVersion(out string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	line = strings.TrimSpace(line)
	if v := versionPattern.FindString(line); v != "" {
		return v
	}
	return strings.TrimPrefix(line, "v")
}

// Remediation returns install instructions for the Node.js runtime on goos.
func Remediation(goos string) []string {
	switch goos {
	case "windows":
		return []string{
			"Windows:",
			"1. Download the installer from https://nodejs.org/",
			"2. Run the .msi installer",
			"3. Restart your terminal",
		}
	case "darwin":
		return []string{
			"macOS:",
			"brew install node",
		}
	default:
		return []string{
			"Linux (Ubuntu/Debian):",
			"curl -fsSL https://deb.nodesource.com/setup_18.x | sudo -E bash -",
			"sudo apt-get install -y nodejs",
			"",
			"Linux (CentOS/RHEL):",
			"curl -fsSL https://rpm.nodesource.com/setup_18.x | sudo bash -",
			"sudo yum install -y nodejs",
		}
	}
}
