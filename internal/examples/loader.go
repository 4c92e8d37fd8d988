// Package examples loads markdown reference snippets that are injected into
// the code-generation prompt, under a character budget.
package examples

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

// DefaultDir and DefaultMaxChars mirror the shipped configuration
const (
	DefaultDir      = "examples/hep-programming-hints"
	DefaultMaxChars = 20000
)

// minTruncateSpace is the least remaining budget worth a truncated file
const minTruncateSpace = 1000

const truncationMarker = "\n\n... (truncated)"

// File statuses recorded in the manifest
const (
	StatusIncluded  = "included"
	StatusTruncated = "truncated"
	StatusSkipped   = "skipped"
	StatusError     = "error"
)

// FileEntry describes what happened to one example file
type FileEntry struct {
	File        string `json:"file" yaml:"file"`
	Status      string `json:"status" yaml:"status"`
	CharsLoaded int    `json:"chars_loaded" yaml:"chars_loaded"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Manifest records which files were loaded for a given budget
type Manifest struct {
	Directory        string      `json:"directory" yaml:"directory"`
	MaxChars         int         `json:"max_chars" yaml:"max_chars"`
	TotalCharsLoaded int         `json:"total_chars_loaded" yaml:"total_chars_loaded"`
	Files            []FileEntry `json:"files" yaml:"files"`
	StoppedEarly     bool        `json:"stopped_early" yaml:"stopped_early"`
}

// Load concatenates *.md files from dir in name order, each under a
// "## <stem>" header, until maxChars is reached. The file that would overflow
// the budget is truncated when enough room remains, and loading stops there.
// Budgets count characters, not bytes, and truncation never splits one.
// A missing directory yields empty content and an empty manifest.
func Load(dir string, maxChars int) (string, Manifest) {
	manifest := Manifest{
		Directory: dir,
		MaxChars:  maxChars,
		Files:     []FileEntry{},
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil || len(matches) == 0 {
		return "", manifest
	}
	sort.Strings(matches)

	var blocks []string
	total := 0

	for _, path := range matches {
		name := filepath.Base(path)
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		entry := FileEntry{File: name, Status: StatusSkipped}

		data, err := os.ReadFile(path)
		if err != nil {
			entry.Status = StatusError
			entry.Error = err.Error()
			manifest.Files = append(manifest.Files, entry)
			continue
		}
		content := string(data)
		block := fmt.Sprintf("\n\n## %s\n\n%s\n", stem, content)

		size := utf8.RuneCountInString(block)
		if total+size > maxChars {
			remaining := maxChars - total
			if remaining > minTruncateSpace {
				runes := []rune(content)
				cut := remaining - 100
				if cut > len(runes) {
					cut = len(runes)
				}
				block = fmt.Sprintf("\n\n## %s\n\n%s%s\n", stem, string(runes[:cut]), truncationMarker)
				size = utf8.RuneCountInString(block)
				blocks = append(blocks, block)
				total += size
				entry.Status = StatusTruncated
				entry.CharsLoaded = size
			}
			manifest.Files = append(manifest.Files, entry)
			manifest.StoppedEarly = true
			break
		}

		blocks = append(blocks, block)
		total += size
		entry.Status = StatusIncluded
		entry.CharsLoaded = size
		manifest.Files = append(manifest.Files, entry)
	}

	manifest.TotalCharsLoaded = total
	return strings.Join(blocks, "\n"), manifest
}

// FormatForPrompt wraps loaded examples in the prompt section that introduces
// them. Blank content yields "".
func FormatForPrompt(content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	return fmt.Sprintf(`
## Code Examples and Patterns

The following examples demonstrate preferred code structure and patterns:

%s

Use these examples as reference when providing coding advice. Follow similar patterns, structure, and best practices shown in the examples.
`, content)
}

// FormatManifest pretty-prints a manifest for humans
func FormatManifest(m Manifest) string {
	var lines []string
	lines = append(lines,
		fmt.Sprintf("Examples directory: %s", m.Directory),
		fmt.Sprintf("Max chars: %d", m.MaxChars),
		fmt.Sprintf("Loaded chars: %d", m.TotalCharsLoaded),
		fmt.Sprintf("Stopped early: %t", m.StoppedEarly),
		"",
		"Files:",
	)
	for _, f := range m.Files {
		if f.Status == StatusError {
			lines = append(lines, fmt.Sprintf("- %s: ERROR (%s)", f.File, f.Error))
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: %s (%d chars)", f.File, f.Status, f.CharsLoaded))
	}
	return strings.Join(lines, "\n")
}

// EstimateTokens is a rough count at four characters per token
func EstimateTokens(text string) int {
	return len(text) / 4
}
