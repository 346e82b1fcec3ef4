package cmd

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/Iron-Ham/devstrap/internal/logging"
	"github.com/Iron-Ham/devstrap/internal/testutil"
)

const sampleLog = `{"time":"2026-10-19T10:00:00.000Z","level":"INFO","msg":"step started","step":"install"}
{"time":"2026-10-19T10:00:01.000Z","level":"INFO","msg":"frontend stdout> VITE ready","process":"frontend"}
not json at all
{"time":"2026-10-19T10:00:02.000Z","level":"WARN","msg":"process exited unexpectedly","process":"backend","exit_code":1}
{"time":"2026-10-19T10:00:03.000Z","level":"ERROR","msg":"pipeline aborted","step":"launch:backend","category":"process launch failure"}
`

func TestReadLogEntries(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		grep    string
		process string
		tail    int
		want    []string
	}{
		{
			name: "everything",
			want: []string{"step started", "VITE ready", "not json at all", "exited unexpectedly", "pipeline aborted"},
		},
		{
			name: "tail",
			tail: 2,
			want: []string{"exited unexpectedly", "pipeline aborted"},
		},
		{
			name:  "minimum level",
			level: "warn",
			want:  []string{"not json at all", "exited unexpectedly", "pipeline aborted"},
		},
		{
			name:    "process",
			process: "backend",
			want:    []string{"not json at all", "exited unexpectedly"},
		},
		{
			name: "grep extra fields",
			grep: "launch failure",
			want: []string{"not json at all", "pipeline aborted"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := newLogFilter(tt.level, "", tt.grep, tt.process)
			if err != nil {
				t.Fatal(err)
			}
			got, err := readLogEntries(strings.NewReader(sampleLog), f, tt.tail, false)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d entries, want %d:\n%s", len(got), len(tt.want), strings.Join(got, "\n"))
			}
			for i, w := range tt.want {
				if !strings.Contains(got[i], w) {
					t.Errorf("entry %d = %q, want it to contain %q", i, got[i], w)
				}
			}
		})
	}
}

func TestFormatLogEntry(t *testing.T) {
	line := `{"time":"2026-10-19T10:00:02.000Z","level":"WARN","msg":"process exited unexpectedly","process":"backend","exit_code":1,"component":"supervisor"}`
	got, ok := formatLine(line, logFilter{minLevel: -1}, false)
	if !ok {
		t.Fatal("entry should pass an empty filter")
	}
	want := "[WARN] process exited unexpectedly process=backend component=supervisor exit_code=1"
	if !strings.HasSuffix(got, want) {
		t.Errorf("formatLine() = %q, want suffix %q", got, want)
	}
}

func TestNewLogFilter_Errors(t *testing.T) {
	tests := []struct {
		name  string
		level string
		since string
		grep  string
	}{
		{name: "level", level: "loud"},
		{name: "since", since: "yesterday"},
		{name: "grep", grep: "("},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := newLogFilter(tt.level, tt.since, tt.grep, ""); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLogsCommand(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, logging.LogFileName, sampleLog)
	cfgPath := testutil.WriteFile(t, t.TempDir(), "devstrap.yaml", "logging:\n  dir: "+filepath.ToSlash(dir)+"\n")

	output, err := executeCommand(rootCmd, "--config", cfgPath, "logs", "--process", "frontend")
	if err != nil {
		t.Fatalf("logs failed: %v", err)
	}
	if !strings.Contains(output, "VITE ready") || strings.Contains(output, "step started") {
		t.Errorf("unexpected output:\n%s", output)
	}
	logsProcess = ""

	empty := t.TempDir()
	cfgPath = testutil.WriteFile(t, t.TempDir(), "devstrap.yaml", "logging:\n  dir: "+filepath.ToSlash(empty)+"\n")
	output, err = executeCommand(rootCmd, "--config", cfgPath, "logs")
	if err != nil {
		t.Fatalf("logs failed: %v", err)
	}
	if !strings.Contains(output, "No debug log yet.") {
		t.Errorf("unexpected output:\n%s", output)
	}
}
