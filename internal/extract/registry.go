package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/hearthlabs/hearth/internal/model"
	appErr "github.com/hearthlabs/hearth/internal/pkg/errors"
)

// Extractor turns the raw bytes of one file format into plain text.
type Extractor interface {
	Name() string
	CanHandle(mime string, ext string) bool
	Extract(ctx context.Context, data []byte, mime string, filename string) (*model.ExtractResult, error)
}

// Registry holds the closed, ordered set of extractors. Selection is first
// match wins, so the richer format extractors must stay registered before the
// plain text catch-all or they would never be picked for overlapping MIME
// families.
type Registry struct {
	extractors []Extractor
}

func NewRegistry() *Registry {
	return &Registry{
		extractors: []Extractor{
			&htmlExtractor{},
			&pdfExtractor{},
			&spreadsheetExtractor{},
			&documentExtractor{},
			&plainTextExtractor{},
		},
	}
}

func (r *Registry) CanExtract(mime, filename string) bool {
	return r.match(mime, filename) != nil
}

func (r *Registry) Extract(ctx context.Context, data []byte, mime, filename string) (*model.ExtractResult, error) {
	ex := r.match(mime, filename)
	if ex == nil {
		return nil, fmt.Errorf("%w: mime=%s file=%s", appErr.ErrNoExtractor, mime, filename)
	}
	// The per-file extraction deadline must hold even for extractors that
	// never block on IO.
	if err := ctx.Err(); err != nil {
		return nil, appErr.NewExtractionError(filename, err)
	}
	logutil.GetLogger(ctx).Debug("extractor selected",
		zap.String("extractor", ex.Name()),
		zap.String("mime", mime),
		zap.String("file", filename),
	)
	res, err := ex.Extract(ctx, data, mime, filename)
	if err != nil {
		if appErr.IsExtractionError(err) {
			return nil, err
		}
		return nil, appErr.NewExtractionError(filename, err)
	}
	return res, nil
}

func (r *Registry) match(mime, filename string) Extractor {
	ext := fileExt(filename)
	mime = normalizeMime(mime)
	for _, ex := range r.extractors {
		if ex.CanHandle(mime, ext) {
			return ex
		}
	}
	return nil
}

// fileExt is the lowercased substring after the final dot, empty when the
// name has none.
func fileExt(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}

func normalizeMime(mime string) string {
	mime = strings.TrimSpace(strings.ToLower(mime))
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	return mime
}
