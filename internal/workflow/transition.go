// Package workflow drives a session through planning, code generation, import
// checking and syntax testing, one user turn at a time.
package workflow

import (
	"github.com/daydemir/postdoc/internal/types"
)

// Outcome is what a phase handler produced. Only the fields relevant to the
// phase that ran are read.
type Outcome struct {
	Result   string          // short label for logs and metrics
	Messages []types.Message // appended to the transcript, in order

	// planning
	Ready        bool
	Requirements *types.Requirements

	// code_generation
	GeneratedCode string
	CodeReady     bool // recorded only; does not gate the transition

	// import_check
	ImportsOK     bool
	ImportResults *types.ImportResults

	// testing
	SyntaxValid bool
	TestResults *types.TestResults
}

// NextPhase is the transition table. It is total over all phases; an unknown
// phase restarts at planning.
func NextPhase(from types.Phase, o Outcome) types.Phase {
	switch from {
	case types.PhasePlanning:
		if o.Ready {
			return types.PhaseCodeGeneration
		}
		return types.PhasePlanning
	case types.PhaseCodeGeneration:
		return types.PhaseImportCheck
	case types.PhaseImportCheck:
		if o.ImportsOK {
			return types.PhaseTesting
		}
		return types.PhaseCodeGeneration
	case types.PhaseTesting:
		if o.SyntaxValid {
			return types.PhaseComplete
		}
		return types.PhaseCodeGeneration
	case types.PhaseComplete:
		return types.PhaseComplete
	default:
		return types.PhasePlanning
	}
}

// Transition applies a handler outcome to a copy of state: messages are
// appended, phase-specific results recorded, the phase advanced and the
// iteration counter incremented. The input state is never modified.
func Transition(state *types.SessionState, o Outcome) *types.SessionState {
	next := state.Clone()
	next.Messages = append(next.Messages, o.Messages...)

	switch state.Phase {
	case types.PhasePlanning:
		if o.Requirements != nil {
			r := *o.Requirements
			next.Requirements = &r
		}
	case types.PhaseCodeGeneration:
		next.GeneratedCode = o.GeneratedCode
	case types.PhaseImportCheck:
		if o.ImportResults != nil {
			next.ImportResults = o.ImportResults.Clone()
		}
	case types.PhaseTesting:
		if o.TestResults != nil {
			t := *o.TestResults
			next.TestResults = &t
		}
	}

	next.Phase = NextPhase(state.Phase, o)
	next.IterationCount++
	return next
}

// chains reports whether a turn continues into the next handler without
// waiting for user input
func chains(from, to types.Phase) bool {
	switch {
	case from == types.PhaseCodeGeneration && to == types.PhaseImportCheck:
		return true
	case from == types.PhaseImportCheck && to == types.PhaseTesting:
		return true
	}
	return false
}
