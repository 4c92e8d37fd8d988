package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daydemir/postdoc/internal/types"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ".postdoc", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir, "")
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Backend)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 12, cfg.Workflow.PlanningContext)
	assert.Equal(t, 10, cfg.Workflow.CodegenContext)
	assert.Equal(t, 0, cfg.Workflow.MaxIterations)
	assert.True(t, cfg.Examples.Enabled)
	assert.Equal(t, "examples/hep-programming-hints", cfg.Examples.Dir)
	assert.Equal(t, 20000, cfg.Examples.MaxChars)
	assert.Equal(t, 10*time.Second, cfg.Verify.ImportTimeout)
	assert.Equal(t, "auto", cfg.Verify.SyntaxMode)
	assert.Equal(t, "memory", cfg.Sessions.Backend)
}

func TestLoadFromWorkspaceFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
llm:
  backend: claude
  model: sonnet
workflow:
  max_iterations: 8
verify:
  import_timeout: 3s
sessions:
  backend: sqlite
`)

	cfg, err := Load(dir, "")
	require.NoError(t, err)

	assert.Equal(t, "claude", cfg.LLM.Backend)
	assert.Equal(t, "sonnet", cfg.LLM.Model)
	assert.Equal(t, 8, cfg.Workflow.MaxIterations)
	assert.Equal(t, 3*time.Second, cfg.Verify.ImportTimeout)
	assert.Equal(t, filepath.Join(dir, ".postdoc", "sessions.db"), cfg.Sessions.Path)
}

func TestLoadExplicitPathMissing(t *testing.T) {
	_, err := Load(t.TempDir(), "/nonexistent/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("POSTDOC_LLM_MODEL", "gpt-4o-mini")
	t.Setenv("POSTDOC_WORKFLOW_MAX_ITERATIONS", "5")

	cfg, err := Load(t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 5, cfg.Workflow.MaxIterations)
}

func TestLegacyExampleEnv(t *testing.T) {
	t.Setenv("HEP_EXAMPLES_DIR", "/opt/hints")
	t.Setenv("HEP_EXAMPLES_MAX_CHARS", "500")

	cfg, err := Load(t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, "/opt/hints", cfg.Examples.Dir)
	assert.Equal(t, 500, cfg.Examples.MaxChars)
}

func TestUseExamplesFlag(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"0", false},
		{"false", false},
		{"False", false},
		{"no", false},
		{"NO", false},
		{"1", true},
		{"yes", true},
		{"anything", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("HEP_USE_EXAMPLES", tt.value)
			cfg, err := Load(t.TempDir(), "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Examples.Enabled)
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Backend = "mistral"
	cfg.Verify.SyntaxMode = "regex"
	cfg.Sessions.Backend = "redis"
	cfg.Workflow.MaxIterations = -1

	err := cfg.Validate()
	require.Error(t, err)

	var verrs *types.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs.Errors, 4)
	assert.Contains(t, verrs.Details(), "llm.backend")
}

func TestValidateRequiresPathForPersistentStores(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sessions.Backend = "file"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sessions.path")
}

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}
