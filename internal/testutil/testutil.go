// Package testutil provides testing utilities for devstrap tests.
package testutil

import (
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/Iron-Ham/devstrap/internal/config"
)

// SkipIfNoShell skips the test unless a POSIX sh and process signals are
// available.
func SkipIfNoShell(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh and POSIX signals, skipping test")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found in PATH, skipping test")
	}
}

// Shell returns the argv that runs script with sh.
func Shell(script string) []string {
	return []string{"sh", "-c", script}
}

// WriteFile writes content to dir/rel, creating parent directories, and
// returns the full path.
func WriteFile(t *testing.T, dir, rel, content string) string {
	t.Helper()

	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file %s: %v", rel, err)
	}
	return path
}

// ClosedAddress returns a loopback address nothing is listening on.
func ClosedAddress(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve a port: %v", err)
	}
	addr := ln.Addr().String()
	if err := ln.Close(); err != nil {
		t.Fatalf("failed to release port: %v", err)
	}
	return addr
}

// ShellConfig returns a config whose every external command is a shell stub:
// the toolchain is sh itself, install exits 0 and both processes sleep until
// terminated. The browser is disabled and grace periods are short.
func ShellConfig() *config.Config {
	cfg := config.Default()
	cfg.Runtime.Tools = []config.ToolConfig{
		{Name: "sh", Command: "sh", VersionArgs: []string{"-c", "echo 1.0.0"}, Required: true, Primary: true},
	}
	cfg.Install.Command = Shell("exit 0")
	for i := range cfg.Processes {
		cfg.Processes[i].Command = Shell("sleep 30")
		cfg.Processes[i].GracePeriodMs = 100
		cfg.Processes[i].StopTimeoutMs = 2000
	}
	cfg.Browser.Enabled = false
	cfg.Idle.PollIntervalMs = 10
	cfg.Logging.Enabled = false
	return cfg
}
