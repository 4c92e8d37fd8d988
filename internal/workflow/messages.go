package workflow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/daydemir/postdoc/internal/types"
)

// Fixed assistant messages
const (
	MsgImportsPassed = "✅ Import check passed (all imported modules are available)."
	MsgSyntaxPassed  = "✅ Syntax check passed (no execution performed)."
	MsgNoCode        = "No code found in the response. Please generate code."
)

// FormatImportReport renders import results as the assistant message shown to the user
func FormatImportReport(r *types.ImportResults) string {
	if r == nil || r.Success {
		return MsgImportsPassed
	}

	lines := []string{"❌ Import check failed."}

	if missing := sortedUnique(r.Missing); len(missing) > 0 {
		lines = append(lines, "", "Missing modules (ModuleNotFoundError):")
		for _, m := range missing {
			lines = append(lines, "- "+m)
		}
	}

	if len(r.Failed) > 0 {
		names := make([]string, 0, len(r.Failed))
		for m := range r.Failed {
			names = append(names, m)
		}
		sort.Strings(names)

		lines = append(lines, "", "Modules that raised an error during import:")
		for _, m := range names {
			lines = append(lines, fmt.Sprintf("- %s: %s", m, firstLine(r.Failed[m])))
		}
	}

	lines = append(lines, "", "Install missing modules, or ask me to regenerate code using only available packages.")
	return strings.Join(lines, "\n")
}

// FormatSyntaxFailure renders a failed syntax check
func FormatSyntaxFailure(errText string) string {
	if errText == "" {
		errText = "Unknown syntax error"
	}
	return "❌ Syntax check failed:\n\n" + errText
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown error"
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

func sortedUnique(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
