package model

type ExtractStatus string

const (
	ExtractStatusPending ExtractStatus = "pending"
	ExtractStatusDone    ExtractStatus = "done"
	ExtractStatusFailed  ExtractStatus = "failed"
)

// File is one uploaded file and its extraction state. The status only moves
// forward: pending -> done or pending -> failed. Re-ingesting the same bytes
// means creating a new File record.
type File struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	Name          string        `json:"name"`
	ContentType   string        `json:"content_type"`
	Size          int64         `json:"size"`
	FileKey       string        `json:"file_key"`
	TextKey       string        `json:"text_key,omitempty"`
	ExtractStatus ExtractStatus `json:"extract_status"`
	ExtractError  string        `json:"extract_error,omitempty"`
	Ctime         int64         `json:"ctime"`
	Mtime         int64         `json:"mtime"`
}
