package config

import (
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete devstrap configuration
type Config struct {
	Project   ProjectConfig   `mapstructure:"project" yaml:"project"`
	Runtime   RuntimeConfig   `mapstructure:"runtime" yaml:"runtime"`
	Install   InstallConfig   `mapstructure:"install" yaml:"install"`
	Processes []ProcessConfig `mapstructure:"processes" yaml:"processes"`
	Browser   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	Idle      IdleConfig      `mapstructure:"idle" yaml:"idle"`
	Env       EnvConfig       `mapstructure:"env" yaml:"env"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// ProjectConfig controls what gets scaffolded and where
type ProjectConfig struct {
	// Name is the directory created under the working directory (default: "whatsapp-ai-integration").
	// An existing directory with this name is removed and recreated on every run.
	Name string `mapstructure:"name" yaml:"name"`
	// Variant selects the payload: "basic" (frontend only) or "extended" (frontend, server and migrations)
	Variant string `mapstructure:"variant" yaml:"variant"`
}

// RuntimeConfig lists the external tools checked before anything touches disk
type RuntimeConfig struct {
	Tools []ToolConfig `mapstructure:"tools" yaml:"tools"`
}

// ToolConfig describes one prerequisite executable
type ToolConfig struct {
	// Name is the display name (e.g. "Node.js")
	Name string `mapstructure:"name" yaml:"name"`
	// Command is the executable looked up on PATH
	Command string `mapstructure:"command" yaml:"command"`
	// VersionArgs are passed to Command to print its version (default: ["--version"])
	VersionArgs []string `mapstructure:"version_args" yaml:"version_args"`
	// Required tools stop the pipeline when missing; optional ones only warn
	Required bool `mapstructure:"required" yaml:"required"`
	// Primary marks the runtime whose absence prints install instructions
	Primary bool `mapstructure:"primary" yaml:"primary"`
	// MinVersion is informational only; it is displayed but never compared
	MinVersion string `mapstructure:"min_version" yaml:"min_version"`
}

// InstallConfig controls the dependency install step
type InstallConfig struct {
	// Command is the install argv run inside the project directory (default: ["npm", "install"])
	Command []string `mapstructure:"command" yaml:"command"`
	// TimeoutMinutes bounds the install; 0 disables the bound
	TimeoutMinutes int `mapstructure:"timeout_minutes" yaml:"timeout_minutes"`
}

// ProcessConfig describes one supervised dev process. Processes are launched
// in list order and terminated in reverse order.
type ProcessConfig struct {
	Name    string   `mapstructure:"name" yaml:"name"`
	Command []string `mapstructure:"command" yaml:"command"`
	// URL is shown in the post-launch summary
	URL string `mapstructure:"url" yaml:"url"`
	// GracePeriodMs is the delay before the single liveness check
	GracePeriodMs int `mapstructure:"grace_period_ms" yaml:"grace_period_ms"`
	// StopTimeoutMs is how long to wait after SIGTERM before SIGKILL
	StopTimeoutMs int         `mapstructure:"stop_timeout_ms" yaml:"stop_timeout_ms"`
	Probe         ProbeConfig `mapstructure:"probe" yaml:"probe"`
	// Variants limits the process to these payload variants; empty means all
	Variants []string `mapstructure:"variants" yaml:"variants,omitempty"`
}

// ProbeConfig is an optional readiness check polled after the grace period
type ProbeConfig struct {
	// Type is "", "tcp" or "http". Empty keeps the plain liveness heuristic.
	Type string `mapstructure:"type" yaml:"type"`
	// Address is host:port for tcp probes
	Address string `mapstructure:"address" yaml:"address"`
	// URL is the endpoint for http probes
	URL        string `mapstructure:"url" yaml:"url"`
	TimeoutMs  int    `mapstructure:"timeout_ms" yaml:"timeout_ms"`
	IntervalMs int    `mapstructure:"interval_ms" yaml:"interval_ms"`
}

// BrowserConfig controls the best-effort browser launch after startup
type BrowserConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	URL     string `mapstructure:"url" yaml:"url"`
	DelayMs int    `mapstructure:"delay_ms" yaml:"delay_ms"`
}

// IdleConfig controls the wait loop that keeps devstrap alive
type IdleConfig struct {
	PollIntervalMs int `mapstructure:"poll_interval_ms" yaml:"poll_interval_ms"`
}

// EnvConfig feeds the generated .env file
type EnvConfig struct {
	FrontendPort int `mapstructure:"frontend_port" yaml:"frontend_port"`
	BackendPort  int `mapstructure:"backend_port" yaml:"backend_port"`
	// AIProvider is the default provider selector written to the .env (default: "pollinations")
	AIProvider string `mapstructure:"ai_provider" yaml:"ai_provider"`
}

// LoggingConfig controls the JSON debug log
type LoggingConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Level   string `mapstructure:"level" yaml:"level"`
	// Dir overrides the log directory (default: <user cache dir>/devstrap/logs)
	Dir        string `mapstructure:"dir" yaml:"dir"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
}

// Payload variants
const (
	VariantBasic    = "basic"
	VariantExtended = "extended"
)

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Project: ProjectConfig{
			Name:    "whatsapp-ai-integration",
			Variant: VariantExtended,
		},
		Runtime: RuntimeConfig{
			Tools: []ToolConfig{
				{Name: "Node.js", Command: "node", VersionArgs: []string{"--version"}, Required: true, Primary: true, MinVersion: "18.0.0"},
				{Name: "npm", Command: "npm", VersionArgs: []string{"--version"}, Required: true, MinVersion: "9.0.0"},
				{Name: "Git", Command: "git", VersionArgs: []string{"--version"}, Required: false},
			},
		},
		Install: InstallConfig{
			Command:        []string{"npm", "install"},
			TimeoutMinutes: 0,
		},
		Processes: []ProcessConfig{
			{
				Name:          "backend",
				Command:       []string{"npm", "run", "server"},
				URL:           "http://localhost:5000/api/health",
				GracePeriodMs: 5000, // socket and database bring-up
				StopTimeoutMs: 5000,
				Variants:      []string{VariantExtended},
			},
			{
				Name:          "frontend",
				Command:       []string{"npm", "run", "dev"},
				URL:           "http://localhost:3000",
				GracePeriodMs: 3000,
				StopTimeoutMs: 5000,
			},
		},
		Browser: BrowserConfig{
			Enabled: true,
			URL:     "http://localhost:3000",
			DelayMs: 2000,
		},
		Idle: IdleConfig{
			PollIntervalMs: 1000,
		},
		Env: EnvConfig{
			FrontendPort: 3000,
			BackendPort:  5000,
			AIProvider:   "pollinations",
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			Dir:        "",
			MaxSizeMB:  5,
			MaxBackups: 2,
		},
	}
}

// GracePeriod returns the grace window as a time.Duration
func (p *ProcessConfig) GracePeriod() time.Duration {
	return time.Duration(p.GracePeriodMs) * time.Millisecond
}

// StopTimeout returns the graceful stop timeout as a time.Duration
func (p *ProcessConfig) StopTimeout() time.Duration {
	return time.Duration(p.StopTimeoutMs) * time.Millisecond
}

// Timeout returns the probe deadline as a time.Duration
func (p *ProbeConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutMs) * time.Millisecond
}

// Interval returns the probe poll interval as a time.Duration
func (p *ProbeConfig) Interval() time.Duration {
	return time.Duration(p.IntervalMs) * time.Millisecond
}

// Delay returns the pause before opening the browser
func (b *BrowserConfig) Delay() time.Duration {
	return time.Duration(b.DelayMs) * time.Millisecond
}

// PollInterval returns the idle loop tick
func (i *IdleConfig) PollInterval() time.Duration {
	return time.Duration(i.PollIntervalMs) * time.Millisecond
}

// Timeout returns the install deadline (0 means none)
func (i *InstallConfig) Timeout() time.Duration {
	return time.Duration(i.TimeoutMinutes) * time.Minute
}

// ProcessesFor returns the configured processes that apply to variant, in order.
func (c *Config) ProcessesFor(variant string) []ProcessConfig {
	var out []ProcessConfig
	for _, p := range c.Processes {
		if len(p.Variants) == 0 || slices.Contains(p.Variants, variant) {
			out = append(out, p)
		}
	}
	return out
}

// ProjectDir returns the absolute project root for the given working directory
func (c *Config) ProjectDir(cwd string) string {
	return filepath.Join(cwd, c.Project.Name)
}

// ResolveLogDir returns the directory the debug log is written to.
func (l *LoggingConfig) ResolveLogDir() string {
	if l.Dir != "" {
		return l.Dir
	}
	cache, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "devstrap", "logs")
	}
	return filepath.Join(cache, "devstrap", "logs")
}

// SetDefaults registers default values with the global viper instance
func SetDefaults() {
	SetDefaultsOn(viper.GetViper())
}

// SetDefaultsOn registers default values with v
func SetDefaultsOn(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("project.name", defaults.Project.Name)
	v.SetDefault("project.variant", defaults.Project.Variant)

	v.SetDefault("runtime.tools", defaults.Runtime.Tools)

	v.SetDefault("install.command", defaults.Install.Command)
	v.SetDefault("install.timeout_minutes", defaults.Install.TimeoutMinutes)

	v.SetDefault("processes", defaults.Processes)

	v.SetDefault("browser.enabled", defaults.Browser.Enabled)
	v.SetDefault("browser.url", defaults.Browser.URL)
	v.SetDefault("browser.delay_ms", defaults.Browser.DelayMs)

	v.SetDefault("idle.poll_interval_ms", defaults.Idle.PollIntervalMs)

	v.SetDefault("env.frontend_port", defaults.Env.FrontendPort)
	v.SetDefault("env.backend_port", defaults.Env.BackendPort)
	v.SetDefault("env.ai_provider", defaults.Env.AIProvider)

	v.SetDefault("logging.enabled", defaults.Logging.Enabled)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.dir", defaults.Logging.Dir)
	v.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom is Load against an explicit viper instance.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "devstrap")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".devstrap"
	}
	return filepath.Join(home, ".config", "devstrap")
}

// ConfigFile returns the path to the user-level config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "devstrap.yaml")
}
