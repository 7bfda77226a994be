package model

// ExtractResult is the plain-text rendering of one uploaded file. Metadata is
// extractor specific (page count, sheet names, parser warnings) and only has
// to be serializable.
type ExtractResult struct {
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
