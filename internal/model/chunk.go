package model

// Chunk is a bounded slice of extracted text. Index is contiguous from 0
// within one extraction; StartOffset points into the source text and never
// decreases across the sequence.
type Chunk struct {
	Content     string `json:"content"`
	Index       int    `json:"index"`
	StartOffset int    `json:"start_offset"`
}
