package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlattenMarkdownStripsDecoration(t *testing.T) {
	in := "# Shopping\n\nBuy **milk** and *eggs*.\n\n- bread\n- [jam](https://example.com)\n"
	out := flattenMarkdown(in)
	require.Contains(t, out, "Shopping")
	require.Contains(t, out, "Buy milk and eggs.")
	require.Contains(t, out, "bread")
	require.Contains(t, out, "jam")
	require.NotContains(t, out, "**")
	require.NotContains(t, out, "#")
	require.NotContains(t, out, "example.com")
}

func TestFlattenMarkdownKeepsCodeFences(t *testing.T) {
	in := "run this:\n\n```bash\ngrep -r passport ~/docs\n```\n"
	out := flattenMarkdown(in)
	require.Contains(t, out, "run this:")
	require.Contains(t, out, "grep -r passport ~/docs")
	require.NotContains(t, out, "```")
}

func TestFlattenMarkdownKeepsParagraphBreaks(t *testing.T) {
	out := flattenMarkdown("first paragraph\n\nsecond paragraph")
	require.Equal(t, "first paragraph\n\nsecond paragraph", out)
}

func TestFlattenMarkdownPlainText(t *testing.T) {
	require.Equal(t, "just a sentence", flattenMarkdown("  just a sentence "))
	require.Equal(t, "", flattenMarkdown("   "))
}
