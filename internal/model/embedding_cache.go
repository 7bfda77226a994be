package model

// EmbeddingCache is one persisted provider response, keyed by the sha256 of
// the embedded text plus the model and task type that produced it. Re-ingested
// content hits this row instead of the provider.
type EmbeddingCache struct {
	ModelName   string    `json:"model_name"`
	TaskType    string    `json:"task_type"`
	ContentHash string    `json:"content_hash"`
	Embedding   []float32 `json:"embedding"`
	Ctime       int64     `json:"ctime"`
}
