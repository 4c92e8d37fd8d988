// Package display provides terminal output for the postdoc CLI.
// It visually separates postdoc's own messages, model replies and
// verification reports.
package display

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/daydemir/postdoc/internal/types"
)

// Display handles all CLI output with visual hierarchy
type Display struct {
	out       io.Writer
	theme     *Theme
	termWidth int
	noColor   bool
	renderer  *glamour.TermRenderer
	now       func() time.Time
}

// New creates a Display writing to stdout
func New() *Display {
	return NewWithOptions(os.Stdout, false)
}

// NewWithOptions creates a Display writing to out
func NewWithOptions(out io.Writer, noColor bool) *Display {
	d := &Display{
		out:       out,
		termWidth: getTerminalWidth(out),
		noColor:   noColor,
		now:       time.Now,
	}
	if noColor {
		d.theme = NoColorTheme()
	} else {
		d.theme = DefaultTheme()
		// Markdown rendering is best effort; plain text is the fallback
		d.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(d.termWidth-4),
		)
	}
	return d
}

// getTerminalWidth returns the terminal width, defaulting to 80
func getTerminalWidth(out io.Writer) int {
	f, ok := out.(*os.File)
	if !ok {
		return 80
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width < 40 {
		return 80
	}
	if width > 120 {
		return 120 // Cap at 120 for readability
	}
	return width
}

func (d *Display) printf(format string, a ...interface{}) {
	fmt.Fprintf(d.out, format, a...)
}

func (d *Display) println(a ...interface{}) {
	fmt.Fprintln(d.out, a...)
}

func (d *Display) timestamp() string {
	return d.now().Format("[15:04:05]")
}

// Banner prints a boxed message titled POSTDOC
func (d *Display) Banner(lines ...string) {
	d.Box("POSTDOC", lines...)
}

// Box prints a boxed message with a custom title
func (d *Display) Box(title string, lines ...string) {
	if len(lines) == 0 {
		return
	}

	width := d.termWidth - 2
	titleLen := len(title) + 4 // "─ TITLE "
	remainingWidth := width - titleLen
	if remainingWidth < 0 {
		remainingWidth = 0
	}

	topLine := BoxTopLeft + BoxHorizontal + " " + title + " " + strings.Repeat(BoxHorizontal, remainingWidth) + BoxTopRight
	d.println(d.theme.Border(topLine))

	for _, line := range lines {
		paddedLine := padRight(line, width-2)
		d.println(d.theme.Border(BoxVertical) + " " + d.theme.Text(paddedLine) + " " + d.theme.Border(BoxVertical))
	}

	bottomLine := BoxBottomLeft + strings.Repeat(BoxHorizontal, width) + BoxBottomRight
	d.println(d.theme.Border(bottomLine))
}

// Status prints a single-line status message (no box)
func (d *Display) Status(symbol, message string) {
	d.printf("%s %s %s\n",
		d.theme.Border(d.timestamp()),
		symbol,
		d.theme.Text(message))
}

// Success prints a success message with green checkmark
func (d *Display) Success(message string) {
	d.Status(d.theme.Success(SymbolSuccess), message)
}

// Error prints an error message with red X
func (d *Display) Error(message string) {
	d.Status(d.theme.Error(SymbolError), message)
}

// Warning prints a warning message with yellow triangle
func (d *Display) Warning(message string) {
	d.Status(d.theme.Warning(SymbolWarning), message)
}

// Info prints a labelled info message
func (d *Display) Info(label, message string) {
	d.Status(d.theme.Info(label+":"), message)
}

// Resume prints a message for a reset or resumed session
func (d *Display) Resume(message string) {
	d.Status(d.theme.Info(SymbolResume), message)
}

// PhaseBadge renders a phase as [phase]
func (d *Display) PhaseBadge(p types.Phase) string {
	return "[" + d.theme.Phase(p) + "]"
}

// Prompt prints the REPL prompt for the current phase
func (d *Display) Prompt(p types.Phase) {
	d.printf("%s %s ", d.PhaseBadge(p), d.theme.Bold(">"))
}

// Thinking prints a dim line while the model is working
func (d *Display) Thinking(model string) {
	d.printf("%s%s %s Sending to %s...\n",
		Indent,
		d.theme.Dim(d.timestamp()),
		d.theme.ModelGutter(GutterModel),
		model)
}

// Assistant prints a model reply, rendered as markdown when colors are on
func (d *Display) Assistant(content string) {
	if d.renderer != nil {
		if rendered, err := d.renderer.Render(content); err == nil {
			d.printf("%s", rendered)
			return
		}
	}
	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		d.printf("%s%s %s\n", Indent, d.theme.ModelGutter(GutterModel), d.theme.ModelText(line))
	}
	d.println()
}

// Handler prints a verification report produced by handler
func (d *Display) Handler(handler, content string) {
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	for i, line := range lines {
		if i == 0 {
			d.printf("%s%s %s %s\n", Indent, d.theme.HandlerGutter(GutterHandler),
				d.theme.Dim("("+handler+")"), d.theme.HandlerText(line))
		} else {
			d.printf("%s%s %s\n", Indent, d.theme.HandlerGutter(GutterDot), d.theme.HandlerText(line))
		}
	}
}

// Transition prints a one-line phase change
func (d *Display) Transition(from, to types.Phase, iteration int) {
	if from == to {
		return
	}
	d.printf("%s%s %s %s %s\n",
		Indent,
		d.theme.Dim(fmt.Sprintf("#%d", iteration)),
		d.PhaseBadge(from),
		d.theme.Dim("→"),
		d.PhaseBadge(to))
}

// Code prints the final script between separators
func (d *Display) Code(code string) {
	d.SectionBreak()
	d.println(strings.TrimRight(code, "\n"))
	d.SectionBreak()
}

// SectionBreak prints a horizontal separator
func (d *Display) SectionBreak() {
	d.println(d.theme.Separator(strings.Repeat(SectionBreak, d.termWidth)))
}

// Duration prints execution duration
func (d *Display) Duration(dur time.Duration) {
	d.printf("   Duration: %s\n", dur.Round(time.Millisecond))
}

// Theme returns the current theme for external use
func (d *Display) Theme() *Theme {
	return d.theme
}

// padRight pads a string to the specified width
func padRight(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if len(s) >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

// Truncate truncates text to max length with ellipsis
func Truncate(s string, max int) string {
	s = CleanText(s)
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// CleanText removes newlines and collapses spaces
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return strings.TrimSpace(s)
}
