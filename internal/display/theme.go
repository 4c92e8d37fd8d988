package display

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/daydemir/postdoc/internal/types"
)

// Box drawing characters
const (
	BoxTopLeft     = "┌"
	BoxTopRight    = "┐"
	BoxBottomLeft  = "└"
	BoxBottomRight = "┘"
	BoxHorizontal  = "─"
	BoxVertical    = "│"
	SectionBreak   = "━"
)

// Status symbols
const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "⚠"
	SymbolResume  = "↻"
	SymbolPending = "○"
)

// Gutters mark who produced a line
const (
	GutterModel   = "▌"
	GutterHandler = "▸"
	GutterDot     = "·"
)

// Indent is the indentation for model and handler output
const Indent = "  "

// Theme holds all color functions for consistent styling
type Theme struct {
	// postdoc itself (prominent)
	Border func(a ...interface{}) string
	Label  func(a ...interface{}) string
	Text   func(a ...interface{}) string

	// Model output (subdued)
	ModelGutter func(a ...interface{}) string
	ModelText   func(a ...interface{}) string

	// Verification handlers
	HandlerGutter func(a ...interface{}) string
	HandlerText   func(a ...interface{}) string

	// Status indicators
	Success func(a ...interface{}) string
	Error   func(a ...interface{}) string
	Warning func(a ...interface{}) string
	Info    func(a ...interface{}) string

	// Structural elements
	Bold      func(a ...interface{}) string
	Dim       func(a ...interface{}) string
	Separator func(a ...interface{}) string

	phases map[types.Phase]func(a ...interface{}) string
}

// DefaultTheme creates the default color theme
func DefaultTheme() *Theme {
	return &Theme{
		Border: color.New(color.FgCyan).SprintFunc(),
		Label:  color.New(color.FgCyan, color.Bold).SprintFunc(),
		Text:   color.New(color.FgWhite).SprintFunc(),

		ModelGutter: color.New(color.FgHiBlack).SprintFunc(),
		ModelText:   color.New(color.FgWhite).SprintFunc(),

		HandlerGutter: color.New(color.FgMagenta).SprintFunc(),
		HandlerText:   color.New(color.FgHiMagenta).SprintFunc(),

		Success: color.New(color.FgGreen).SprintFunc(),
		Error:   color.New(color.FgRed).SprintFunc(),
		Warning: color.New(color.FgYellow).SprintFunc(),
		Info:    color.New(color.FgCyan).SprintFunc(),

		Bold:      color.New(color.Bold).SprintFunc(),
		Dim:       color.New(color.FgHiBlack).SprintFunc(),
		Separator: color.New(color.FgCyan).SprintFunc(),

		phases: map[types.Phase]func(a ...interface{}) string{
			types.PhasePlanning:       color.New(color.FgBlue, color.Bold).SprintFunc(),
			types.PhaseCodeGeneration: color.New(color.FgYellow, color.Bold).SprintFunc(),
			types.PhaseImportCheck:    color.New(color.FgMagenta, color.Bold).SprintFunc(),
			types.PhaseTesting:        color.New(color.FgMagenta, color.Bold).SprintFunc(),
			types.PhaseComplete:       color.New(color.FgGreen, color.Bold).SprintFunc(),
		},
	}
}

// NoColorTheme creates a theme without colors (for --no-color flag or non-TTY)
func NoColorTheme() *Theme {
	identity := func(a ...interface{}) string {
		return fmt.Sprint(a...)
	}
	return &Theme{
		Border:        identity,
		Label:         identity,
		Text:          identity,
		ModelGutter:   identity,
		ModelText:     identity,
		HandlerGutter: identity,
		HandlerText:   identity,
		Success:       identity,
		Error:         identity,
		Warning:       identity,
		Info:          identity,
		Bold:          identity,
		Dim:           identity,
		Separator:     identity,
	}
}

// Phase colors a phase name, falling back to Info
func (t *Theme) Phase(p types.Phase) string {
	if fn, ok := t.phases[p]; ok {
		return fn(string(p))
	}
	return t.Info(string(p))
}
