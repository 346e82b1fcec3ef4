// Package console renders categorized status lines for the operator.
//
// Every line is prefixed with an icon for its status. When the writer is a
// terminal the line is colored with lipgloss; otherwise plain text is written
// so redirected output stays grep-friendly.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Status classifies a console line.
type Status int

const (
	StatusInfo Status = iota
	StatusSuccess
	StatusWarning
	StatusError
	StatusProgress
)

// Icon returns the line prefix for the status.
func (s Status) Icon() string {
	switch s {
	case StatusSuccess:
		return "✓"
	case StatusWarning:
		return "⚠"
	case StatusError:
		return "✗"
	case StatusProgress:
		return "↻"
	default:
		return "ℹ"
	}
}

func (s Status) style() lipgloss.Style {
	switch s {
	case StatusSuccess:
		return successStyle
	case StatusWarning:
		return warningStyle
	case StatusError:
		return errorStyle
	case StatusProgress:
		return progressStyle
	default:
		return infoStyle
	}
}

// Row is a labelled value in a summary box.
type Row struct {
	Label string
	Value string
}

// Printer writes status lines. It is safe for concurrent use.
type Printer struct {
	mu     sync.Mutex
	out    io.Writer
	styled bool
}

// New returns a Printer for w. Styling is enabled only when w is a terminal
// and NO_COLOR is unset.
func New(w io.Writer) *Printer {
	return &Printer{out: w, styled: isTerminal(w) && os.Getenv("NO_COLOR") == ""}
}

// Plain returns a Printer that never styles its output.
func Plain(w io.Writer) *Printer {
	return &Printer{out: w}
}

// Discard returns a Printer that drops everything.
func Discard() *Printer {
	return Plain(io.Discard)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Styled reports whether output is colored.
func (p *Printer) Styled() bool {
	return p.styled
}

// Status writes one line with the status icon.
func (p *Printer) Status(s Status, format string, args ...any) {
	line := s.Icon() + " " + fmt.Sprintf(format, args...)
	if p.styled {
		line = s.style().Render(line)
	}
	p.writeln(line)
}

// Info writes an informational line.
func (p *Printer) Info(format string, args ...any) { p.Status(StatusInfo, format, args...) }

// Success writes a success line.
func (p *Printer) Success(format string, args ...any) { p.Status(StatusSuccess, format, args...) }

// Warning writes a warning line.
func (p *Printer) Warning(format string, args ...any) { p.Status(StatusWarning, format, args...) }

// Error writes an error line.
func (p *Printer) Error(format string, args ...any) { p.Status(StatusError, format, args...) }

// Progress writes an in-progress line.
func (p *Printer) Progress(format string, args ...any) { p.Status(StatusProgress, format, args...) }

// Println writes text without an icon, muted when styled.
func (p *Printer) Println(text string) {
	if p.styled {
		text = mutedStyle.Render(text)
	}
	p.writeln(text)
}

// Block writes preformatted lines indented by two spaces.
func (p *Printer) Block(lines []string) {
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString("  ")
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	p.write(sb.String())
}

// Banner writes a bordered title with optional subtitle lines.
func (p *Printer) Banner(title string, lines ...string) {
	if !p.styled {
		var sb strings.Builder
		sb.WriteString("== " + title + " ==\n")
		for _, l := range lines {
			sb.WriteString("   " + l + "\n")
		}
		p.write(sb.String())
		return
	}
	body := strings.Join(append([]string{title}, lines...), "\n")
	p.writeln(bannerStyle.Render(body))
}

// Summary writes a titled key/value box followed by free-form notes.
func (p *Printer) Summary(title string, rows []Row, notes []string) {
	if !p.styled {
		var sb strings.Builder
		sb.WriteString(title + "\n")
		width := 0
		for _, r := range rows {
			width = max(width, len(r.Label)+1)
		}
		for _, r := range rows {
			fmt.Fprintf(&sb, "  %-*s  %s\n", width, r.Label+":", r.Value)
		}
		for _, n := range notes {
			sb.WriteString("  " + n + "\n")
		}
		p.write(sb.String())
		return
	}

	lines := []string{summaryTitle.Render(title), ""}
	for _, r := range rows {
		lines = append(lines, summaryKey.Render(r.Label)+" "+r.Value)
	}
	if len(notes) > 0 {
		lines = append(lines, "")
		for _, n := range notes {
			lines = append(lines, mutedStyle.Render(n))
		}
	}
	p.writeln(summaryBox.Render(strings.Join(lines, "\n")))
}

func (p *Printer) writeln(line string) {
	p.write(line + "\n")
}

func (p *Printer) write(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.out, s)
}
