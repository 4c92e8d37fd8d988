package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/daydemir/postdoc/internal/types"
)

func TestNextPhaseTable(t *testing.T) {
	tests := []struct {
		from    types.Phase
		outcome Outcome
		want    types.Phase
	}{
		{types.PhasePlanning, Outcome{}, types.PhasePlanning},
		{types.PhasePlanning, Outcome{Ready: true}, types.PhaseCodeGeneration},
		{types.PhaseCodeGeneration, Outcome{}, types.PhaseImportCheck},
		{types.PhaseCodeGeneration, Outcome{CodeReady: true}, types.PhaseImportCheck},
		{types.PhaseImportCheck, Outcome{ImportsOK: true}, types.PhaseTesting},
		{types.PhaseImportCheck, Outcome{}, types.PhaseCodeGeneration},
		{types.PhaseTesting, Outcome{SyntaxValid: true}, types.PhaseComplete},
		{types.PhaseTesting, Outcome{}, types.PhaseCodeGeneration},
		{types.PhaseComplete, Outcome{}, types.PhaseComplete},
		{types.Phase("bogus"), Outcome{}, types.PhasePlanning},
	}
	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			assert.Equal(t, tt.want, NextPhase(tt.from, tt.outcome))
		})
	}
}

func TestNextPhaseIsTotal(t *testing.T) {
	for _, p := range types.AllPhases() {
		for _, o := range []Outcome{{}, {Ready: true, ImportsOK: true, SyntaxValid: true}} {
			assert.True(t, NextPhase(p, o).IsValid(), "phase %s", p)
		}
	}
}

func TestTransitionDoesNotMutateInput(t *testing.T) {
	state := types.NewSessionState("s")
	state.Phase = types.PhaseCodeGeneration
	state.GeneratedCode = "old"

	next := Transition(state, Outcome{
		Messages:      []types.Message{types.NewMessage(types.RoleAssistant, "```python\nx=1\n```")},
		GeneratedCode: "x=1",
	})

	assert.Equal(t, types.PhaseCodeGeneration, state.Phase)
	assert.Equal(t, "old", state.GeneratedCode)
	assert.Empty(t, state.Messages)
	assert.Equal(t, 0, state.IterationCount)

	assert.Equal(t, types.PhaseImportCheck, next.Phase)
	assert.Equal(t, "x=1", next.GeneratedCode)
	assert.Len(t, next.Messages, 1)
	assert.Equal(t, 1, next.IterationCount)
}

func TestTransitionRecordsPhaseResults(t *testing.T) {
	state := types.NewSessionState("s")
	next := Transition(state, Outcome{Ready: true, Requirements: &types.Requirements{Summary: "sum"}})
	assert.Equal(t, "sum", next.Requirements.Summary)

	state.Phase = types.PhaseImportCheck
	next = Transition(state, Outcome{ImportResults: &types.ImportResults{Missing: []string{"x"}}})
	assert.Equal(t, []string{"x"}, next.ImportResults.Missing)
	assert.Equal(t, types.PhaseCodeGeneration, next.Phase)

	state.Phase = types.PhaseTesting
	next = Transition(state, Outcome{})
	assert.Nil(t, next.TestResults, "empty-code testing leaves results untouched")
	assert.Equal(t, types.PhaseCodeGeneration, next.Phase)
}

func TestChains(t *testing.T) {
	assert.True(t, chains(types.PhaseCodeGeneration, types.PhaseImportCheck))
	assert.True(t, chains(types.PhaseImportCheck, types.PhaseTesting))
	assert.False(t, chains(types.PhaseImportCheck, types.PhaseCodeGeneration))
	assert.False(t, chains(types.PhasePlanning, types.PhaseCodeGeneration))
	assert.False(t, chains(types.PhaseTesting, types.PhaseComplete))
}
