package model

type SourceType string

const (
	SourceTypeMessage   SourceType = "message"
	SourceTypeFileChunk SourceType = "file_chunk"
)

// EmbeddingRecord is one indexed chunk. Records for source_type=message carry
// the owning conversation id; records for source_type=file_chunk reference the
// file via SourceID and may have no conversation at all.
type EmbeddingRecord struct {
	ID             int64      `json:"id"`
	UserID         string     `json:"user_id"`
	ConversationID string     `json:"conversation_id,omitempty"`
	SourceType     SourceType `json:"source_type"`
	SourceID       string     `json:"source_id"`
	ChunkIndex     int        `json:"chunk_index"`
	Content        string     `json:"content"`
	Embedding      []float32  `json:"embedding"`
	Ctime          int64      `json:"ctime"`
}

// SearchScope bounds a similarity search. An empty scope means the whole
// corpus of the querying user.
type SearchScope struct {
	ConversationID string   `json:"conversation_id,omitempty"`
	FileIDs        []string `json:"file_ids,omitempty"`
}

func (s SearchScope) IsEmpty() bool {
	return s.ConversationID == "" && len(s.FileIDs) == 0
}

type SearchMatch struct {
	ID             int64      `json:"id"`
	ConversationID string     `json:"conversation_id,omitempty"`
	SourceType     SourceType `json:"source_type"`
	SourceID       string     `json:"source_id"`
	ChunkIndex     int        `json:"chunk_index"`
	Content        string     `json:"content"`
	Distance       float64    `json:"distance"`
}
