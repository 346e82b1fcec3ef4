package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "processes[0].grace_period_ms")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// projectNameRegex keeps the project name a single path segment
var projectNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidVariants returns the list of payload variants
func ValidVariants() []string {
	return []string{VariantBasic, VariantExtended}
}

// ValidProbeTypes returns the accepted readiness probe types. The empty
// string means no probe.
func ValidProbeTypes() []string {
	return []string{"", "tcp", "http"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateProject()...)
	errors = append(errors, c.validateRuntime()...)
	errors = append(errors, c.validateInstall()...)
	errors = append(errors, c.validateProcesses()...)
	errors = append(errors, c.validateBrowser()...)
	errors = append(errors, c.validateIdle()...)
	errors = append(errors, c.validateEnv()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateProject() []ValidationError {
	var errors []ValidationError

	if c.Project.Name == "" {
		errors = append(errors, ValidationError{
			Field:   "project.name",
			Value:   c.Project.Name,
			Message: "must not be empty",
		})
	} else if !projectNameRegex.MatchString(c.Project.Name) || c.Project.Name == "." || c.Project.Name == ".." {
		errors = append(errors, ValidationError{
			Field:   "project.name",
			Value:   c.Project.Name,
			Message: "must be a single directory name (letters, digits, '.', '_' and '-')",
		})
	}

	if !slices.Contains(ValidVariants(), c.Project.Variant) {
		errors = append(errors, ValidationError{
			Field:   "project.variant",
			Value:   c.Project.Variant,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidVariants(), ", ")),
		})
	}

	return errors
}

func (c *Config) validateRuntime() []ValidationError {
	var errors []ValidationError

	for i, tool := range c.Runtime.Tools {
		if tool.Command == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("runtime.tools[%d].command", i),
				Value:   tool.Command,
				Message: "must not be empty",
			})
		}
	}

	return errors
}

func (c *Config) validateInstall() []ValidationError {
	var errors []ValidationError

	if len(c.Install.Command) == 0 || c.Install.Command[0] == "" {
		errors = append(errors, ValidationError{
			Field:   "install.command",
			Value:   c.Install.Command,
			Message: "must name an executable",
		})
	}
	if c.Install.TimeoutMinutes < 0 {
		errors = append(errors, ValidationError{
			Field:   "install.timeout_minutes",
			Value:   c.Install.TimeoutMinutes,
			Message: "must be non-negative (0 disables the timeout)",
		})
	}

	return errors
}

func (c *Config) validateProcesses() []ValidationError {
	var errors []ValidationError

	if len(c.Processes) == 0 {
		return append(errors, ValidationError{
			Field:   "processes",
			Value:   len(c.Processes),
			Message: "at least one process is required",
		})
	}

	seen := make(map[string]bool, len(c.Processes))
	for i, p := range c.Processes {
		field := fmt.Sprintf("processes[%d]", i)

		switch {
		case p.Name == "":
			errors = append(errors, ValidationError{
				Field:   field + ".name",
				Value:   p.Name,
				Message: "must not be empty",
			})
		case seen[p.Name]:
			errors = append(errors, ValidationError{
				Field:   field + ".name",
				Value:   p.Name,
				Message: "duplicate process name",
			})
		}
		seen[p.Name] = true

		if len(p.Command) == 0 || p.Command[0] == "" {
			errors = append(errors, ValidationError{
				Field:   field + ".command",
				Value:   p.Command,
				Message: "must name an executable",
			})
		}
		if p.GracePeriodMs < 0 {
			errors = append(errors, ValidationError{
				Field:   field + ".grace_period_ms",
				Value:   p.GracePeriodMs,
				Message: "must be non-negative",
			})
		}
		if p.StopTimeoutMs < 0 {
			errors = append(errors, ValidationError{
				Field:   field + ".stop_timeout_ms",
				Value:   p.StopTimeoutMs,
				Message: "must be non-negative",
			})
		}

		for j, v := range p.Variants {
			if !slices.Contains(ValidVariants(), v) {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("%s.variants[%d]", field, j),
					Value:   v,
					Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidVariants(), ", ")),
				})
			}
		}

		errors = append(errors, validateProbe(field+".probe", p.Probe)...)
	}

	if len(c.ProcessesFor(c.Project.Variant)) == 0 {
		errors = append(errors, ValidationError{
			Field:   "processes",
			Value:   c.Project.Variant,
			Message: "no process applies to the selected variant",
		})
	}

	return errors
}

func validateProbe(field string, p ProbeConfig) []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidProbeTypes(), p.Type) {
		return append(errors, ValidationError{
			Field:   field + ".type",
			Value:   p.Type,
			Message: "must be one of: tcp, http (or empty for none)",
		})
	}

	switch p.Type {
	case "tcp":
		if p.Address == "" {
			errors = append(errors, ValidationError{
				Field:   field + ".address",
				Value:   p.Address,
				Message: "is required for tcp probes",
			})
		}
	case "http":
		if !strings.HasPrefix(p.URL, "http://") && !strings.HasPrefix(p.URL, "https://") {
			errors = append(errors, ValidationError{
				Field:   field + ".url",
				Value:   p.URL,
				Message: "must be an http(s) URL for http probes",
			})
		}
	}

	if p.TimeoutMs < 0 {
		errors = append(errors, ValidationError{
			Field:   field + ".timeout_ms",
			Value:   p.TimeoutMs,
			Message: "must be non-negative",
		})
	}
	if p.IntervalMs < 0 {
		errors = append(errors, ValidationError{
			Field:   field + ".interval_ms",
			Value:   p.IntervalMs,
			Message: "must be non-negative",
		})
	}

	return errors
}

func (c *Config) validateBrowser() []ValidationError {
	var errors []ValidationError

	if c.Browser.DelayMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "browser.delay_ms",
			Value:   c.Browser.DelayMs,
			Message: "must be non-negative",
		})
	}
	if c.Browser.Enabled && c.Browser.URL == "" {
		errors = append(errors, ValidationError{
			Field:   "browser.url",
			Value:   c.Browser.URL,
			Message: "is required when the browser is enabled",
		})
	}

	return errors
}

func (c *Config) validateIdle() []ValidationError {
	var errors []ValidationError

	// A zero interval would spin the idle loop.
	const minPollInterval = 10
	if c.Idle.PollIntervalMs < minPollInterval {
		errors = append(errors, ValidationError{
			Field:   "idle.poll_interval_ms",
			Value:   c.Idle.PollIntervalMs,
			Message: fmt.Sprintf("must be at least %dms", minPollInterval),
		})
	}

	return errors
}

func (c *Config) validateEnv() []ValidationError {
	var errors []ValidationError

	ports := []struct {
		field string
		value int
	}{
		{"env.frontend_port", c.Env.FrontendPort},
		{"env.backend_port", c.Env.BackendPort},
	}
	for _, p := range ports {
		if p.value < 1 || p.value > 65535 {
			errors = append(errors, ValidationError{
				Field:   p.field,
				Value:   p.value,
				Message: "must be between 1 and 65535",
			})
		}
	}
	if c.Env.FrontendPort == c.Env.BackendPort {
		errors = append(errors, ValidationError{
			Field:   "env.backend_port",
			Value:   c.Env.BackendPort,
			Message: "must differ from env.frontend_port",
		})
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}
	if c.Logging.MaxSizeMB < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be non-negative (0 disables rotation)",
		})
	}
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
