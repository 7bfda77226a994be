package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/hearthlabs/hearth/internal/model"
	appErr "github.com/hearthlabs/hearth/internal/pkg/errors"
)

type pdfExtractor struct{}

func (e *pdfExtractor) Name() string {
	return "pdf"
}

func (e *pdfExtractor) CanHandle(mime string, ext string) bool {
	return mime == "application/pdf" || ext == "pdf"
}

// Extract reads the PDF text layer page by page. A page that fails to decode
// is skipped, not fatal; scanned documents with no text layer legitimately
// yield empty text and downstream chunking produces zero chunks. The pdf
// package panics on some truncated inputs, so the whole walk runs under a
// recover that converts the panic into an ExtractionError.
func (e *pdfExtractor) Extract(ctx context.Context, data []byte, mime, filename string) (result *model.ExtractResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = appErr.NewExtractionError(filename, fmt.Errorf("pdf parser panic: %v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, appErr.NewExtractionError(filename, err)
	}

	logger := logutil.GetLogger(ctx).With(zap.String("file", filename))
	total := reader.NumPage()
	failed := 0
	var sb strings.Builder
	for i := 1; i <= total; i++ {
		if cerr := ctx.Err(); cerr != nil {
			return nil, appErr.NewExtractionError(filename, cerr)
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			failed++
			continue
		}
		text, perr := page.GetPlainText(nil)
		if perr != nil {
			failed++
			logger.Warn("pdf page not extractable", zap.Int("page", i), zap.Error(perr))
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	meta := map[string]interface{}{
		"pages": total,
	}
	if failed > 0 {
		meta["pages_failed"] = failed
	}
	return &model.ExtractResult{
		Text:     strings.TrimSpace(sb.String()),
		Metadata: meta,
	}, nil
}
