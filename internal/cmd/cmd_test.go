package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/devstrap/internal/config"
	"github.com/Iron-Ham/devstrap/internal/console"
)

// executeCommand runs a cobra command with args and returns captured output
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err = root.Execute()
	return buf.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "devstrap.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "devstrap" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "devstrap")
	}

	cmdMap := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		cmdMap[c.Name()] = true
	}
	for _, expected := range []string{"config", "version"} {
		if !cmdMap[expected] {
			t.Errorf("expected subcommand %q not found", expected)
		}
	}

	for _, flag := range []string{"project-name", "variant", "no-browser"} {
		if rootCmd.Flags().Lookup(flag) == nil {
			t.Errorf("flag --%s not registered", flag)
		}
	}
	for _, flag := range []string{"config", "log-level"} {
		if rootCmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag --%s not registered", flag)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	output, err := executeCommand(rootCmd, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(output, "devstrap "+Version) {
		t.Errorf("output = %q", output)
	}
}

func TestConfigShowCommand(t *testing.T) {
	path := writeConfig(t, `
project:
  name: demo-app
  variant: basic
`)

	output, err := executeCommand(rootCmd, "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(output, "# Config file: "+path) {
		t.Errorf("output missing config file line:\n%s", output)
	}

	// Everything after the header comment is the YAML document.
	var cfg config.Config
	if err := yaml.Unmarshal([]byte(output), &cfg); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, output)
	}
	if cfg.Project.Name != "demo-app" || cfg.Project.Variant != config.VariantBasic {
		t.Errorf("project = %+v", cfg.Project)
	}
	if len(cfg.Processes) != 2 {
		t.Errorf("processes = %d, want defaults (2)", len(cfg.Processes))
	}
}

func TestConfigShowCommand_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr string
	}{
		{
			name:    "missing explicit file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") },
			wantErr: "failed to read config",
		},
		{
			name: "invalid values",
			path: func(t *testing.T) string {
				return writeConfig(t, "project:\n  variant: deluxe\n")
			},
			wantErr: "invalid configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(rootCmd, "--config", tt.path(t), "config", "show")
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigPathCommand(t *testing.T) {
	path := writeConfig(t, "project:\n  name: demo\n")

	output, err := executeCommand(rootCmd, "--config", path, "config", "path")
	if err != nil {
		t.Fatalf("config path failed: %v", err)
	}
	if !strings.Contains(output, "Active config: "+path) {
		t.Errorf("output = %q", output)
	}
	if !strings.Contains(output, "DEVSTRAP_") {
		t.Errorf("output should mention the env prefix: %q", output)
	}
}

func TestConfigInitCommand(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	path := writeConfig(t, "project:\n  name: demo\n")
	want := filepath.Join(xdg, "devstrap", "devstrap.yaml")

	output, err := executeCommand(rootCmd, "--config", path, "config", "init")
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(output, want) {
		t.Errorf("output = %q", output)
	}

	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("written config is not YAML: %v", err)
	}
	if cfg.Project.Name != config.Default().Project.Name {
		t.Errorf("project name = %q", cfg.Project.Name)
	}

	if _, err := executeCommand(rootCmd, "--config", path, "config", "init"); err == nil {
		t.Error("second init without --force should fail")
	}
	if _, err := executeCommand(rootCmd, "--config", path, "config", "init", "--force"); err != nil {
		t.Errorf("init --force failed: %v", err)
	}
	configInitForce = false
}

func TestOpenLogger(t *testing.T) {
	var out bytes.Buffer
	printer := console.Plain(&out)

	disabled := openLogger(config.LoggingConfig{Enabled: false}, printer)
	if disabled.Path() != "" {
		t.Errorf("disabled logger path = %q", disabled.Path())
	}

	dir := t.TempDir()
	enabled := openLogger(config.LoggingConfig{Enabled: true, Level: "debug", Dir: dir, MaxSizeMB: 1, MaxBackups: 1}, printer)
	defer enabled.Close()
	if enabled.Path() == "" || !strings.HasPrefix(enabled.Path(), dir) {
		t.Errorf("enabled logger path = %q, want under %s", enabled.Path(), dir)
	}
	if out.Len() != 0 {
		t.Errorf("unexpected warning: %s", out.String())
	}
}

func TestInterruptContext_ParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := interruptContext(parent)
	defer stop()

	cancel()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled with its parent")
	}
}
