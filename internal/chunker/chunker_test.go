package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitEmptyInput(t *testing.T) {
	c := New(100, 20)
	require.Empty(t, c.Split(""))
	require.Empty(t, c.Split("   \n\t  \n"))
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	c := New(100, 20)
	chunks := c.Split("  hello world  ")
	require.Len(t, chunks, 1)
	require.Equal(t, "hello world", chunks[0].Content)
	require.Equal(t, 0, chunks[0].Index)
	require.Equal(t, 0, chunks[0].StartOffset)
}

func TestSplitExactSizeSingleChunk(t *testing.T) {
	c := New(10, 3)
	text := "0123456789"
	chunks := c.Split(text)
	require.Len(t, chunks, 1)
	require.Equal(t, text, chunks[0].Content)
}

func TestSplitIndexesContiguousOffsetsMonotone(t *testing.T) {
	c := New(80, 20)
	text := strings.Repeat("lorem ipsum dolor sit amet consectetur. ", 30)
	chunks := c.Split(text)
	require.Greater(t, len(chunks), 1)
	for i, ch := range chunks {
		require.Equal(t, i, ch.Index)
		require.NotEmpty(t, strings.TrimSpace(ch.Content))
		if i > 0 {
			require.GreaterOrEqual(t, ch.StartOffset, chunks[i-1].StartOffset)
		}
	}
}

func TestSplitCoversWholeText(t *testing.T) {
	c := New(100, 25)
	text := strings.Repeat("abcdefghi ", 100)
	chunks := c.Split(text)
	require.Greater(t, len(chunks), 1)
	// With overlap < size, consecutive windows must leave no gap: each
	// chunk has to start at or before the previous window's end.
	prevEnd := 0
	for _, ch := range chunks {
		require.LessOrEqual(t, ch.StartOffset, prevEnd)
		end := ch.StartOffset + len(ch.Content)
		if end > prevEnd {
			prevEnd = end
		}
	}
	require.GreaterOrEqual(t, prevEnd, len(strings.TrimRight(text, " ")))
}

func TestSplitPrefersParagraphBoundary(t *testing.T) {
	// Paragraph break sits in the second half of the first window, so the
	// first chunk must stop right behind it.
	first := strings.Repeat("a", 70)
	second := strings.Repeat("b", 100)
	text := first + "\n\n" + second
	c := New(100, 10)
	chunks := c.Split(text)
	require.Greater(t, len(chunks), 1)
	require.Equal(t, first, chunks[0].Content)
	require.NotContains(t, chunks[0].Content, "b")
}

func TestSplitIgnoresParagraphBoundaryBeforeMidpoint(t *testing.T) {
	// The only break is inside the first half of the window; a cut there
	// would produce a pathologically small chunk, so it is skipped.
	text := strings.Repeat("a", 20) + "\n\n" + strings.Repeat("b", 200)
	c := New(100, 10)
	chunks := c.Split(text)
	require.Greater(t, len(chunks), 1)
	require.Greater(t, len(chunks[0].Content), 50)
}

func TestSplitFallsBackToSentenceBoundary(t *testing.T) {
	first := strings.Repeat("w", 60) + "."
	text := first + " " + strings.Repeat("x", 100)
	c := New(100, 10)
	chunks := c.Split(text)
	require.Greater(t, len(chunks), 1)
	require.Equal(t, first, chunks[0].Content)
}

func TestSplitHardCutWithoutBoundary(t *testing.T) {
	text := strings.Repeat("z", 250)
	c := New(100, 10)
	chunks := c.Split(text)
	require.Greater(t, len(chunks), 1)
	require.Len(t, chunks[0].Content, 100)
	require.Equal(t, 0, chunks[0].StartOffset)
	require.Equal(t, 90, chunks[1].StartOffset)
}

func TestSplitTerminatesWithOverlapAtLeastSize(t *testing.T) {
	text := strings.Repeat("q", 500)
	for _, overlap := range []int{50, 99, 100, 150} {
		c := New(100, overlap)
		chunks := c.Split(text)
		require.NotEmpty(t, chunks, "overlap=%d", overlap)
		require.LessOrEqual(t, len(chunks), len(text), "overlap=%d", overlap)
		for i := 1; i < len(chunks); i++ {
			require.Greater(t, chunks[i].StartOffset, chunks[i-1].StartOffset, "overlap=%d", overlap)
		}
	}
}

func TestSplitTinyWindow(t *testing.T) {
	c := New(1, 0)
	chunks := c.Split("ab")
	require.Len(t, chunks, 2)
	require.Equal(t, "a", chunks[0].Content)
	require.Equal(t, "b", chunks[1].Content)
}

// The hard-cut path can leave a final chunk shorter than the overlap when a
// window has neither break. Intended behavior, pinned here.
func TestSplitShortTrailingChunk(t *testing.T) {
	text := strings.Repeat("m", 105)
	c := New(100, 10)
	chunks := c.Split(text)
	require.Len(t, chunks, 2)
	require.Equal(t, 90, chunks[1].StartOffset)
	require.Len(t, chunks[1].Content, 15)
}

func TestSplitDropsWhitespaceOnlyTrailingChunk(t *testing.T) {
	text := strings.Repeat("n", 100) + strings.Repeat(" ", 30)
	c := New(100, 10)
	chunks := c.Split(text)
	for _, ch := range chunks {
		require.NotEmpty(t, strings.TrimSpace(ch.Content))
	}
}
