package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Logo is printed above interactive prompts
const Logo = `
  ┌─────────────────────────────────────┐
  │  p a r l e r   ·   api client       │
  └─────────────────────────────────────┘
`

var (
	accent  = lipgloss.Color("#D94B2B")
	cyan    = lipgloss.Color("#00B7C3")
	yellow  = lipgloss.Color("#E5C07B")
	red     = lipgloss.Color("#E06C75")
	green   = lipgloss.Color("#98C379")
	dimGray = lipgloss.Color("#7F848E")

	logoStyle      = lipgloss.NewStyle().Foreground(accent).Bold(true)
	labelStyle     = lipgloss.NewStyle().Foreground(cyan).Bold(true)
	valueStyle     = lipgloss.NewStyle().Foreground(yellow)
	errorStyle     = lipgloss.NewStyle().Foreground(red).Bold(true)
	successStyle   = lipgloss.NewStyle().Foreground(green).Bold(true)
	warningStyle   = lipgloss.NewStyle().Foreground(yellow)
	highlightStyle = lipgloss.NewStyle().Foreground(accent)
	dimStyle       = lipgloss.NewStyle().Foreground(dimGray)
	headerStyle    = lipgloss.NewStyle().Foreground(cyan).Bold(true).Underline(true)
)

// Terminal writes payloads to Out and status messages to Err.
type Terminal struct {
	Out io.Writer
	Err io.Writer
}

// NewTerminal writes to the process's stdout and stderr.
func NewTerminal() *Terminal {
	return &Terminal{Out: os.Stdout, Err: os.Stderr}
}

// Logo prints the banner.
func (t *Terminal) Logo() {
	fmt.Fprint(t.Err, logoStyle.Render(Logo))
	fmt.Fprintln(t.Err)
}

// Error prints an error message, optionally followed by its cause.
func (t *Terminal) Error(msg string, err error) {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	fmt.Fprintln(t.Err, errorStyle.Render("✗ "+msg))
}

// Success prints a success message.
func (t *Terminal) Success(msg string) {
	fmt.Fprintln(t.Err, successStyle.Render("✓ "+msg))
}

// Warning prints a warning message.
func (t *Terminal) Warning(msg string) {
	fmt.Fprintln(t.Err, warningStyle.Render("! "+msg))
}

// Info prints a labelled value.
func (t *Terminal) Info(label, value string) {
	fmt.Fprintf(t.Err, "%s %s\n", labelStyle.Render(label+":"), valueStyle.Render(value))
}

// Highlight prints an emphasised line.
func (t *Terminal) Highlight(msg string) {
	fmt.Fprintln(t.Err, highlightStyle.Render(msg))
}

// Hint prints a dimmed line.
func (t *Terminal) Hint(msg string) {
	fmt.Fprintln(t.Err, dimStyle.Render(msg))
}

// JSON prints v as indented JSON on Out. Payloads stay unstyled so they can
// be piped.
func (t *Terminal) JSON(v interface{}) error {
	enc := json.NewEncoder(t.Out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

// Table prints rows under headers in aligned columns.
func (t *Terminal) Table(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = headerStyle.Render(pad(h, widths[i]))
	}
	fmt.Fprintln(t.Err, strings.Join(cells, "  "))

	for _, row := range rows {
		cells = cells[:0]
		for i := 0; i < len(row) && i < len(widths); i++ {
			cells = append(cells, pad(row[i], widths[i]))
		}
		fmt.Fprintln(t.Err, strings.TrimRight(strings.Join(cells, "  "), " "))
	}
}

func pad(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
