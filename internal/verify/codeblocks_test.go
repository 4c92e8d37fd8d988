package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "python block",
			text: "Here you go:\n```python\nimport numpy\nprint(1)\n```\nDone.",
			want: []string{"import numpy\nprint(1)"},
		},
		{
			name: "untagged block accepted",
			text: "```\nx = 1\n```",
			want: []string{"x = 1"},
		},
		{
			name: "other language skipped",
			text: "```bash\npip install uproot\n```\n```py\nimport uproot\n```",
			want: []string{"import uproot"},
		},
		{
			name: "duplicates dropped, order kept",
			text: "```python\na = 1\n```\n```python\nb = 2\n```\n```python\na = 1\n```",
			want: []string{"a = 1", "b = 2"},
		},
		{
			name: "empty block dropped",
			text: "```python\n\n```",
			want: []string{},
		},
		{
			name: "unterminated final block",
			text: "```python\nimport awkward\nx = 2",
			want: []string{"import awkward\nx = 2"},
		},
		{
			name: "no blocks",
			text: "Let me ask a clarifying question first.",
			want: []string{},
		},
		{
			name: "inline span ignored",
			text: "Use ```x = 1``` inline.\n```python\ny = 2\n```",
			want: []string{"y = 2"},
		},
		{
			name: "closing fence glued to code",
			text: "```python\nz = 3```",
			want: []string{"z = 3"},
		},
		{
			name: "fence after prose on the same line",
			text: "Here it is: ```python\nprint(1)\n```",
			want: []string{"print(1)"},
		},
		{
			name: "untagged fence after prose is not a block",
			text: "Wrap code in ```\nlike this.",
			want: []string{},
		},
		{
			name: "other language after prose is not a block",
			text: "Run this ```bash\npip install hist",
			want: []string{},
		},
		{
			name: "info string with attributes",
			text: "```Python title=\"a.py\"\nw = 4\n```",
			want: []string{"w = 4"},
		},
	}

	e := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Extract(tt.text))
		})
	}
}

func TestExtractCustomLanguages(t *testing.T) {
	e := NewExtractor("bash")
	got := e.Extract("```python\nx = 1\n```\n```bash\nls\n```")
	assert.Equal(t, []string{"ls"}, got)
}

func TestJoinBlocks(t *testing.T) {
	assert.Equal(t, "a\n\nb", JoinBlocks([]string{"a", "b"}))
	assert.Equal(t, "", JoinBlocks(nil))
}
