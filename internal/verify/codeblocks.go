package verify

import (
	"strings"
)

const fence = "```"

// DefaultLanguages are the fence info strings treated as target-language code
var DefaultLanguages = []string{"python", "py", "python3"}

// Extractor pulls fenced code blocks out of free-form model output.
// Blocks tagged with a target language and untagged blocks are kept; blocks
// tagged with any other language are skipped.
type Extractor struct {
	languages map[string]bool
}

// NewExtractor creates an extractor for the given languages (DefaultLanguages when empty)
func NewExtractor(languages ...string) *Extractor {
	if len(languages) == 0 {
		languages = DefaultLanguages
	}
	e := &Extractor{languages: make(map[string]bool, len(languages))}
	for _, l := range languages {
		e.languages[strings.ToLower(strings.TrimSpace(l))] = true
	}
	return e
}

// Extract returns the bodies of all accepted blocks in first-seen order,
// trimmed, with empty bodies dropped. A block whose body exactly repeats an
// earlier one is dropped too, so a script restated in a reply is not joined
// into GeneratedCode twice; a plain regex scan would keep both copies. An
// opening fence may follow prose on the same line when it carries a target
// language tag. An unterminated final block runs to the end of the text.
func (e *Extractor) Extract(text string) []string {
	blocks := []string{}
	seen := make(map[string]bool)

	var body strings.Builder
	inBlock := false
	capture := false

	flush := func() {
		if !capture {
			return
		}
		code := strings.TrimSpace(body.String())
		if code == "" || seen[code] {
			return
		}
		seen[code] = true
		blocks = append(blocks, code)
	}

	for _, line := range strings.Split(text, "\n") {
		if !inBlock {
			trimmed := strings.TrimSpace(line)
			idx := strings.Index(trimmed, fence)
			if idx < 0 {
				continue
			}
			info := strings.TrimSpace(strings.TrimLeft(trimmed[idx:], "`"))
			// Single-line ```code``` spans are inline, not blocks
			if strings.Contains(info, fence) {
				continue
			}
			// After prose, only a fence tagged with a target language opens a block
			if idx > 0 && (info == "" || !e.accepts(info)) {
				continue
			}
			inBlock = true
			capture = e.accepts(info)
			body.Reset()
			continue
		}

		// Closing fence, possibly glued to the last code line
		if idx := strings.Index(line, fence); idx >= 0 {
			body.WriteString(line[:idx])
			flush()
			inBlock = false
			continue
		}
		body.WriteString(line)
		body.WriteString("\n")
	}

	if inBlock {
		flush()
	}
	return blocks
}

// accepts reports whether a fence info string selects a target-language block
func (e *Extractor) accepts(info string) bool {
	fields := strings.Fields(info)
	if len(fields) == 0 {
		return true
	}
	return e.languages[strings.ToLower(fields[0])]
}

// JoinBlocks concatenates extracted blocks with a blank line between them
func JoinBlocks(blocks []string) string {
	return strings.Join(blocks, "\n\n")
}
