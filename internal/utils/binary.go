package utils

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ResolveBinaryPath finds a binary, checking PATH and then the given fallback locations.
// A leading "~" in either is expanded to the home directory.
func ResolveBinaryPath(binaryPath string, fallbacks ...string) string {
	// If it's an absolute path, use it directly
	if filepath.IsAbs(binaryPath) {
		return binaryPath
	}

	// Check if it's in PATH
	if path, err := exec.LookPath(binaryPath); err == nil {
		return path
	}

	home, homeErr := os.UserHomeDir()

	// Handle tilde prefix
	if strings.HasPrefix(binaryPath, "~") && homeErr == nil {
		return filepath.Join(home, binaryPath[1:])
	}

	for _, p := range fallbacks {
		if strings.HasPrefix(p, "~") {
			if homeErr != nil {
				continue
			}
			p = filepath.Join(home, p[1:])
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	// Return original, will fail with helpful error later
	return binaryPath
}

// BinaryAvailable reports whether the binary resolves to an executable file
func BinaryAvailable(binaryPath string, fallbacks ...string) bool {
	resolved := ResolveBinaryPath(binaryPath, fallbacks...)
	info, err := os.Stat(resolved)
	if err != nil {
		_, err = exec.LookPath(resolved)
		return err == nil
	}
	return !info.IsDir()
}

// ClaudeFallbacks lists the usual install locations of the Claude Code CLI
func ClaudeFallbacks() []string {
	return []string{
		"~/.claude/local/claude",
		"/usr/local/bin/claude",
		"/opt/homebrew/bin/claude",
	}
}

// PythonFallbacks lists the usual install locations of a Python 3 interpreter
func PythonFallbacks() []string {
	return []string{
		"/usr/local/bin/python3",
		"/opt/homebrew/bin/python3",
		"/usr/bin/python3",
	}
}

// BinaryNotFoundError returns a helpful error message when a configured binary is missing
func BinaryNotFoundError(name, configKey string) error {
	return fmt.Errorf(`%s not found in PATH

Either install it, add its directory to PATH, or set the full path
in .postdoc/config.yaml:
  %s: /path/to/%s`, name, configKey, name)
}
