package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/daydemir/postdoc/internal/prompts"
)

// Init creates a new postdoc workspace in dir and returns its .postdoc path
func Init(dir string, force bool) (string, error) {
	wsPath := Path(dir)

	// Check if workspace already exists
	if _, err := os.Stat(wsPath); err == nil {
		if !force {
			return "", ErrWorkspaceExists
		}
		// Remove existing workspace if force
		if err := os.RemoveAll(wsPath); err != nil {
			return "", fmt.Errorf("failed to remove existing workspace: %w", err)
		}
	}

	dirs := []string{
		wsPath,
		PromptsDir(dir),
		SessionsDir(dir),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory %s: %w", d, err)
		}
	}

	if err := writeFile(ConfigPath(dir), defaultConfig); err != nil {
		return "", err
	}

	if err := copyPrompts(PromptsDir(dir)); err != nil {
		return "", err
	}

	return wsPath, nil
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func copyPrompts(promptsDir string) error {
	for _, name := range prompts.Names() {
		content, err := prompts.Get(name)
		if err != nil {
			return fmt.Errorf("failed to get embedded prompt %s: %w", name, err)
		}
		path := filepath.Join(promptsDir, name+".md")
		if err := writeFile(path, content); err != nil {
			return err
		}
	}
	return nil
}

const defaultConfig = `# postdoc configuration
llm:
  backend: openai          # openai | claude
  model: gpt-4o
  temperature: 0.2
  base_url: ""             # OpenAI-compatible endpoint, empty for api.openai.com
  api_key_env: OPENAI_API_KEY
  structured_output: false # ask for a JSON reply carrying the phase signal

claude:
  binary: claude           # Path to Claude Code CLI

workflow:
  planning_context: 12     # Messages sent to the model while planning
  codegen_context: 10      # Messages sent to the model while generating code
  max_iterations: 0        # 0 = unlimited

examples:
  enabled: true
  dir: examples/hep-programming-hints
  max_chars: 20000

verify:
  python: python3
  import_timeout: 10s
  exec_timeout: 30s
  syntax_mode: auto        # auto | interpreter | treesitter (treesitter misses Python 2 print statements)

sessions:
  backend: file            # memory | file | sqlite
  ttl: 0s
  max_entries: 0

log:
  level: info
  file: .postdoc/logs/postdoc.log
`
