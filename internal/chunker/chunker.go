package chunker

import (
	"strings"

	"github.com/hearthlabs/hearth/internal/model"
)

const (
	DefaultSize    = 1000
	DefaultOverlap = 150
)

// Chunker splits extracted text into overlapping windows, preferring
// paragraph and sentence boundaries over hard cuts. Both knobs come from
// config so stores and tests can run with different settings.
type Chunker struct {
	size    int
	overlap int
}

func New(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split carves text into chunks of at most size bytes. Indexes are contiguous
// from 0 and offsets never decrease. Whitespace-only input yields nothing;
// input no longer than one window yields exactly one trimmed chunk at offset
// 0. Chunks that trim to empty are dropped.
func (c *Chunker) Split(text string) []model.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if len(text) <= c.size {
		return []model.Chunk{{Content: strings.TrimSpace(text), Index: 0, StartOffset: 0}}
	}

	var chunks []model.Chunk
	index := 0
	start := 0
	for start < len(text) {
		end := start + c.size
		if end >= len(text) {
			end = len(text)
		} else {
			end = c.findBoundary(text, start, end)
		}
		content := strings.TrimSpace(text[start:end])
		if content != "" {
			chunks = append(chunks, model.Chunk{Content: content, Index: index, StartOffset: start})
			index++
		}
		if end == len(text) {
			break
		}
		next := end - c.overlap
		// Never move the window backwards; with overlap >= size or a
		// collapsed boundary the overlap step would loop forever. end is
		// always past start, so stepping to it guarantees progress.
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// findBoundary pulls the window end back to the nearest natural break, but
// never before the window midpoint so an early break cannot produce a
// pathologically small chunk. Preference order: paragraph break, then
// sentence terminator followed by whitespace, then the hard size cut.
func (c *Chunker) findBoundary(text string, start, end int) int {
	mid := start + c.size/2
	if mid >= end {
		return end
	}
	if idx := strings.LastIndex(text[start:end], "\n\n"); idx >= 0 {
		abs := start + idx
		if abs > mid {
			return abs + 2
		}
	}
	half := text[mid:end]
	for i := len(half) - 2; i >= 0; i-- {
		ch := half[i]
		if (ch == '.' || ch == '!' || ch == '?') && isSpace(half[i+1]) {
			return mid + i + 2
		}
	}
	return end
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
