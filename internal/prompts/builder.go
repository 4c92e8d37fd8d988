package prompts

import (
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/daydemir/postdoc/internal/examples"
)

// ExamplesOptions controls the examples section of the code-generation prompt
type ExamplesOptions struct {
	Enabled  bool
	Dir      string
	MaxChars int
}

// Builder assembles the per-phase system prompts. Prompt files and examples
// are re-read on every call so edits apply to the next turn.
type Builder struct {
	workspaceDir string
	examples     ExamplesOptions
	logger       *zap.Logger
}

// NewBuilder creates a builder rooted at workspaceDir ("" means embedded only)
func NewBuilder(workspaceDir string, ex ExamplesOptions, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{workspaceDir: workspaceDir, examples: ex, logger: logger}
}

// Planning returns the requirement-gathering system prompt
func (b *Builder) Planning() (string, error) {
	return GetForWorkspace(b.workspaceDir, Planning)
}

// CodeGeneration returns the base rules, the examples section and the
// code-generation instructions, in that order
func (b *Builder) CodeGeneration() (string, error) {
	base, err := GetForWorkspace(b.workspaceDir, Base)
	if err != nil {
		return "", err
	}
	instructions, err := GetForWorkspace(b.workspaceDir, Codegen)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(strings.TrimRight(base, "\n"))
	sb.WriteString("\n")
	sb.WriteString(b.ExamplesSection())
	sb.WriteString("\n")
	sb.WriteString(instructions)
	return sb.String(), nil
}

// ExamplesSection loads and formats the examples, or returns "" when disabled
func (b *Builder) ExamplesSection() string {
	if !b.examples.Enabled {
		return ""
	}
	content, manifest := examples.Load(b.examplesDir(), b.examples.MaxChars)
	b.logger.Debug("Loaded examples",
		zap.String("dir", manifest.Directory),
		zap.Int("files", len(manifest.Files)),
		zap.Int("chars", manifest.TotalCharsLoaded),
		zap.Int("approx_tokens", examples.EstimateTokens(content)),
		zap.Bool("stopped_early", manifest.StoppedEarly))
	return examples.FormatForPrompt(content)
}

// examplesDir resolves a relative examples dir against the workspace
func (b *Builder) examplesDir() string {
	dir := b.examples.Dir
	if dir == "" {
		dir = examples.DefaultDir
	}
	if b.workspaceDir != "" && !filepath.IsAbs(dir) {
		return filepath.Join(b.workspaceDir, dir)
	}
	return dir
}
