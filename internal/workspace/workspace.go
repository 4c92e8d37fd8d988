package workspace

import (
	"errors"
	"os"
	"path/filepath"
)

const Dir = ".postdoc"

var ErrNoWorkspace = errors.New("no postdoc workspace found (run 'postdoc init' first)")
var ErrWorkspaceExists = errors.New("postdoc workspace already exists (use --force to overwrite)")

// Find walks up from cwd looking for a .postdoc/ directory
func Find() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return FindFrom(dir)
}

// FindFrom walks up from start looking for a .postdoc/ directory
func FindFrom(start string) (string, error) {
	dir := start
	for {
		wsPath := filepath.Join(dir, Dir)
		if info, err := os.Stat(wsPath); err == nil && info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoWorkspace
		}
		dir = parent
	}
}

// Path returns the .postdoc directory path for a workspace
func Path(workspaceDir string) string {
	return filepath.Join(workspaceDir, Dir)
}

// ConfigPath returns the config.yaml path
func ConfigPath(workspaceDir string) string {
	return filepath.Join(workspaceDir, Dir, "config.yaml")
}

// PromptsDir returns the directory holding prompt overrides
func PromptsDir(workspaceDir string) string {
	return filepath.Join(workspaceDir, Dir, "prompts")
}

// SessionsDir returns the directory used by the file session store
func SessionsDir(workspaceDir string) string {
	return filepath.Join(workspaceDir, Dir, "sessions")
}

// LogPath returns the default log file path
func LogPath(workspaceDir string) string {
	return filepath.Join(workspaceDir, Dir, "logs", "postdoc.log")
}

// TranscriptsDir returns the directory exported transcripts are written to
func TranscriptsDir(workspaceDir string) string {
	return filepath.Join(workspaceDir, Dir, "transcripts")
}
