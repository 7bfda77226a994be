package extract

import (
	"context"
	"strings"

	"github.com/hearthlabs/hearth/internal/model"
)

var plainTextExts = map[string]struct{}{
	"txt": {}, "text": {}, "md": {}, "markdown": {}, "rst": {},
	"csv": {}, "tsv": {}, "log": {},
	"json": {}, "xml": {}, "yaml": {}, "yml": {}, "toml": {}, "ini": {}, "conf": {}, "cfg": {}, "env": {},
	"go": {}, "py": {}, "js": {}, "ts": {}, "jsx": {}, "tsx": {},
	"java": {}, "c": {}, "h": {}, "cpp": {}, "hpp": {}, "cs": {},
	"rb": {}, "rs": {}, "php": {}, "swift": {}, "kt": {}, "scala": {},
	"sh": {}, "bash": {}, "zsh": {}, "ps1": {}, "bat": {},
	"sql": {}, "graphql": {}, "proto": {},
}

var plainTextMimes = map[string]struct{}{
	"application/json":       {},
	"application/xml":        {},
	"application/javascript": {},
}

// plainTextExtractor is the catch-all at the end of the registry order.
type plainTextExtractor struct{}

func (e *plainTextExtractor) Name() string {
	return "plaintext"
}

func (e *plainTextExtractor) CanHandle(mime string, ext string) bool {
	if strings.HasPrefix(mime, "text/") {
		return true
	}
	if _, ok := plainTextMimes[mime]; ok {
		return true
	}
	_, ok := plainTextExts[ext]
	return ok
}

func (e *plainTextExtractor) Extract(ctx context.Context, data []byte, mime, filename string) (*model.ExtractResult, error) {
	// Invalid UTF-8 sequences are replaced rather than rejected.
	text := strings.ToValidUTF8(string(data), string('�'))
	return &model.ExtractResult{
		Text:     text,
		Metadata: map[string]interface{}{"bytes": len(data)},
	}, nil
}
