package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hearthlabs/hearth/internal/model"
	appErr "github.com/hearthlabs/hearth/internal/pkg/errors"
)

type spreadsheetExtractor struct{}

func (e *spreadsheetExtractor) Name() string {
	return "spreadsheet"
}

func (e *spreadsheetExtractor) CanHandle(mime string, ext string) bool {
	switch mime {
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.ms-excel":
		return true
	}
	switch ext {
	case "xlsx", "xls":
		return true
	}
	return false
}

// Extract renders every sheet as CSV, prefixed with a sheet marker so the
// chunker keeps rows attributable to their sheet. Fully blank rows are
// dropped.
func (e *spreadsheetExtractor) Extract(ctx context.Context, data []byte, mime, filename string) (*model.ExtractResult, error) {
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, appErr.NewExtractionError(filename, err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	var sections []string
	for _, name := range sheets {
		if cerr := ctx.Err(); cerr != nil {
			return nil, appErr.NewExtractionError(filename, cerr)
		}
		rows, err := book.GetRows(name)
		if err != nil {
			return nil, appErr.NewExtractionError(filename, err)
		}
		text := renderSheetCSV(rows)
		if text == "" {
			continue
		}
		sections = append(sections, "--- Sheet: "+name+" ---\n"+text)
	}
	return &model.ExtractResult{
		Text: strings.Join(sections, "\n\n"),
		Metadata: map[string]interface{}{
			"sheets":      sheets,
			"sheet_count": len(sheets),
		},
	}, nil
}

func renderSheetCSV(rows [][]string) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	for _, row := range rows {
		if isBlankRow(row) {
			continue
		}
		_ = w.Write(row)
	}
	w.Flush()
	return strings.TrimSpace(sb.String())
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
