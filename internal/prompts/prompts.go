package prompts

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//go:embed templates/*.md
var embeddedPrompts embed.FS

// Prompt names shipped in templates/
const (
	Base     = "base"
	Planning = "planning"
	Codegen  = "codegen"
)

// Names lists every embedded prompt
func Names() []string {
	return []string{Base, Planning, Codegen}
}

// Get returns the embedded prompt content
func Get(name string) (string, error) {
	// Normalize name
	if !strings.HasSuffix(name, ".md") {
		name = name + ".md"
	}

	content, err := embeddedPrompts.ReadFile("templates/" + name)
	if err != nil {
		return "", fmt.Errorf("prompt %s not found: %w", name, err)
	}
	return string(content), nil
}

// GetForWorkspace returns prompt content, checking .postdoc/prompts/ in the
// workspace first and falling back to the embedded copy
func GetForWorkspace(workspaceDir, name string) (string, error) {
	if !strings.HasSuffix(name, ".md") {
		name = name + ".md"
	}

	if workspaceDir != "" {
		localPath := filepath.Join(workspaceDir, ".postdoc", "prompts", name)
		if content, err := os.ReadFile(localPath); err == nil {
			return string(content), nil
		}
	}

	return Get(name)
}
