package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedPromptsExist(t *testing.T) {
	for _, name := range Names() {
		content, err := Get(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, strings.TrimSpace(content), name)
	}
	_, err := Get("nope")
	assert.Error(t, err)
}

func TestSentinelsInPrompts(t *testing.T) {
	planning, err := Get(Planning)
	require.NoError(t, err)
	assert.Contains(t, planning, "READY_TO_CODE")

	codegen, err := Get(Codegen)
	require.NoError(t, err)
	assert.Contains(t, codegen, "CODE_READY")
}

func TestWorkspaceOverride(t *testing.T) {
	ws := t.TempDir()
	dir := filepath.Join(ws, ".postdoc", "prompts")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "planning.md"), []byte("custom planning"), 0644))

	got, err := GetForWorkspace(ws, Planning)
	require.NoError(t, err)
	assert.Equal(t, "custom planning", got)

	// Non-overridden prompts fall back to embedded
	got, err = GetForWorkspace(ws, Base)
	require.NoError(t, err)
	assert.Contains(t, got, "particle physics")
}

func TestBuilderCodeGeneration(t *testing.T) {
	ws := t.TempDir()
	exDir := filepath.Join(ws, "examples", "hints")
	require.NoError(t, os.MkdirAll(exDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(exDir, "uproot.md"), []byte("```python\nimport uproot\n```"), 0644))

	b := NewBuilder(ws, ExamplesOptions{Enabled: true, Dir: "examples/hints", MaxChars: 20000}, nil)
	prompt, err := b.CodeGeneration()
	require.NoError(t, err)

	base := strings.Index(prompt, "particle physics analysis agent")
	ex := strings.Index(prompt, "## Code Examples and Patterns")
	gen := strings.Index(prompt, "CODE GENERATION mode")
	require.True(t, base >= 0 && ex > base && gen > ex, "sections out of order")
	assert.Contains(t, prompt, "## uproot")

	disabled := NewBuilder(ws, ExamplesOptions{Enabled: false, Dir: "examples/hints"}, nil)
	prompt, err = disabled.CodeGeneration()
	require.NoError(t, err)
	assert.NotContains(t, prompt, "Code Examples and Patterns")
}

func TestBuilderPlanning(t *testing.T) {
	b := NewBuilder("", ExamplesOptions{}, nil)
	prompt, err := b.Planning()
	require.NoError(t, err)
	assert.Contains(t, prompt, "PLANNING mode")
}
