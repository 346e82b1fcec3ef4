package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/devstrap/internal/config"
	"github.com/Iron-Ham/devstrap/internal/console"
	"github.com/Iron-Ham/devstrap/internal/logging"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View the debug log",
	Long: `View and filter the devstrap debug log.

Examples:
  # Show the last 50 entries
  devstrap logs

  # Only the frontend's output and lifecycle
  devstrap logs --process frontend

  # Warnings and errors from the last hour
  devstrap logs --level warn --since 1h

  # Follow the log while devstrap runs in another terminal
  devstrap logs -f`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

var (
	logsTail    int
	logsFollow  bool
	logsLevel   string
	logsSince   string
	logsGrep    string
	logsProcess string
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of entries to show (0 for all)")
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output (like tail -f)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Filter by minimum level (debug/info/warn/error)")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show entries since duration ago (e.g., 1h, 30m)")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "Filter entries matching pattern (regex)")
	logsCmd.Flags().StringVar(&logsProcess, "process", "", "Only entries for this managed process")
}

// logEntry is one parsed JSON log line.
type logEntry struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"`
	Msg     string         `json:"msg"`
	Step    string         `json:"step,omitempty"`
	Process string         `json:"process,omitempty"`
	Extra   map[string]any `json:"-"`
}

// UnmarshalJSON keeps unknown attributes in Extra.
func (e *logEntry) UnmarshalJSON(data []byte) error {
	type alias logEntry
	if err := json.Unmarshal(data, (*alias)(e)); err != nil {
		return err
	}

	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, known := range []string{"time", "level", "msg", "step", "process"} {
		delete(all, known)
	}
	if len(all) > 0 {
		e.Extra = all
	}
	return nil
}

// logFilter selects entries for display. Zero values match everything.
type logFilter struct {
	minLevel int
	since    time.Time
	grep     *regexp.Regexp
	process  string
}

func newLogFilter(level, since, grep, process string) (logFilter, error) {
	f := logFilter{minLevel: -1, process: process}

	if level != "" {
		upper := strings.ToUpper(level)
		if !slices.Contains(logging.ValidLevels(), upper) {
			return f, fmt.Errorf("invalid level %q (valid: %s)", level, strings.Join(logging.ValidLevels(), ", "))
		}
		f.minLevel = levelPriority(upper)
	}
	if since != "" {
		d, err := time.ParseDuration(since)
		if err != nil {
			return f, fmt.Errorf("invalid duration format: %w", err)
		}
		f.since = time.Now().Add(-d)
	}
	if grep != "" {
		re, err := regexp.Compile(grep)
		if err != nil {
			return f, fmt.Errorf("invalid grep pattern: %w", err)
		}
		f.grep = re
	}
	return f, nil
}

func (f logFilter) match(e *logEntry) bool {
	if f.minLevel >= 0 && levelPriority(e.Level) < f.minLevel {
		return false
	}
	if !f.since.IsZero() && e.Time.Before(f.since) {
		return false
	}
	if f.process != "" && e.Process != f.process {
		return false
	}
	if f.grep != nil {
		text := e.Msg
		for _, v := range e.Extra {
			text += " " + fmt.Sprint(v)
		}
		if !f.grep.MatchString(text) {
			return false
		}
	}
	return true
}

func levelPriority(level string) int {
	switch strings.ToUpper(level) {
	case logging.LevelDebug:
		return 0
	case logging.LevelInfo:
		return 1
	case logging.LevelWarn:
		return 2
	case logging.LevelError:
		return 3
	default:
		return -1
	}
}

var (
	logTimeStyle  = lipgloss.NewStyle().Foreground(console.MutedColor)
	logFieldStyle = lipgloss.NewStyle().Foreground(console.CyanColor)
	logLevelStyle = map[string]lipgloss.Style{
		logging.LevelDebug: lipgloss.NewStyle().Foreground(console.MutedColor),
		logging.LevelInfo:  lipgloss.NewStyle().Foreground(console.BlueColor),
		logging.LevelWarn:  lipgloss.NewStyle().Foreground(console.WarningColor),
		logging.LevelError: lipgloss.NewStyle().Foreground(console.ErrorColor),
	}
)

// formatLogEntry renders an entry on one line. Extra attributes are sorted
// by key so output is stable.
func formatLogEntry(e *logEntry, styled bool) string {
	render := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	level := strings.ToUpper(e.Level)
	parts := []string{
		render(logTimeStyle, "["+e.Time.Format("15:04:05.000")+"]"),
		render(logLevelStyle[level], "["+level+"]"),
		e.Msg,
	}
	if e.Step != "" {
		parts = append(parts, render(logFieldStyle, "step=")+e.Step)
	}
	if e.Process != "" {
		parts = append(parts, render(logFieldStyle, "process=")+e.Process)
	}

	keys := make([]string, 0, len(e.Extra))
	for k := range e.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, render(logFieldStyle, k+"=")+fmt.Sprint(e.Extra[k]))
	}
	return strings.Join(parts, " ")
}

// formatLine returns the rendered line and whether it passed the filter.
// Lines that are not JSON are passed through unfiltered.
func formatLine(line string, f logFilter, styled bool) (string, bool) {
	var e logEntry
	if err := json.Unmarshal([]byte(line), &e); err != nil {
		return line, true
	}
	if !f.match(&e) {
		return "", false
	}
	return formatLogEntry(&e, styled), true
}

// readLogEntries returns the last tail matching entries from r (all when
// tail <= 0).
func readLogEntries(r io.Reader, f logFilter, tail int, styled bool) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if rendered, ok := formatLine(line, f, styled); ok {
			out = append(out, rendered)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading log file: %w", err)
	}
	if tail > 0 && len(out) > tail {
		out = out[len(out)-tail:]
	}
	return out, nil
}

func runLogs(cmd *cobra.Command, args []string) error {
	if configReadErr != nil {
		return configReadErr
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	filter, err := newLogFilter(logsLevel, logsSince, logsGrep, logsProcess)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	styled := console.New(out).Styled()
	logPath := filepath.Join(cfg.Logging.ResolveLogDir(), logging.LogFileName)

	file, err := os.Open(logPath)
	if os.IsNotExist(err) {
		fmt.Fprintln(out, "No debug log yet.")
		fmt.Fprintln(out, "Logs are stored at:", logPath)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	if logsFollow {
		ctx, stop := interruptContext(cmd.Context())
		defer stop()
		return followLog(ctx, file, out, filter, styled)
	}

	entries, err := readLogEntries(file, filter, logsTail, styled)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintln(out, e)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No matching log entries found.")
	}
	return nil
}

// followLog prints entries appended to file until ctx is cancelled.
func followLog(ctx context.Context, file *os.File, out io.Writer, f logFilter, styled bool) error {
	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end: %w", err)
	}
	fmt.Fprintf(out, "Following %s... (Ctrl+C to stop)\n\n", file.Name())

	reader := bufio.NewReader(file)
	var partial string
	for {
		chunk, err := reader.ReadString('\n')
		partial += chunk
		if err == io.EOF {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("error reading log file: %w", err)
		}

		line := strings.TrimSpace(partial)
		partial = ""
		if line == "" {
			continue
		}
		if rendered, ok := formatLine(line, f, styled); ok {
			fmt.Fprintln(out, rendered)
		}
	}
}
