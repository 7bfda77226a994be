package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/hearthlabs/hearth/internal/model"
	appErr "github.com/hearthlabs/hearth/internal/pkg/errors"
)

type documentExtractor struct{}

func (e *documentExtractor) Name() string {
	return "document"
}

func (e *documentExtractor) CanHandle(mime string, ext string) bool {
	return mime == "application/vnd.openxmlformats-officedocument.wordprocessingml.document" ||
		ext == "docx"
}

// Extract pulls the raw text of the document body. A docx file is a zip
// archive whose word/document.xml holds the body; text lives in w:t elements,
// paragraph and line break elements become newlines. Anything odd but
// non-fatal lands in the warnings metadata instead of failing the file.
func (e *documentExtractor) Extract(ctx context.Context, data []byte, mime, filename string) (*model.ExtractResult, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, appErr.NewExtractionError(filename, fmt.Errorf("open docx archive: %w", err))
	}
	var body *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			body = f
			break
		}
	}
	if body == nil {
		return nil, appErr.NewExtractionError(filename, fmt.Errorf("docx has no word/document.xml"))
	}
	rc, err := body.Open()
	if err != nil {
		return nil, appErr.NewExtractionError(filename, err)
	}
	defer rc.Close()

	text, warnings, err := decodeDocumentBody(rc)
	if err != nil {
		return nil, appErr.NewExtractionError(filename, err)
	}
	meta := map[string]interface{}{}
	if len(warnings) > 0 {
		meta["warnings"] = warnings
	}
	return &model.ExtractResult{Text: text, Metadata: meta}, nil
}

func decodeDocumentBody(r io.Reader) (string, []string, error) {
	dec := xml.NewDecoder(r)
	var sb strings.Builder
	var warnings []string
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A syntax error after some text was already decoded is a
			// warning; with no text at all it is a hard failure.
			if sb.Len() > 0 {
				warnings = append(warnings, fmt.Sprintf("body truncated: %v", err))
				break
			}
			return "", nil, fmt.Errorf("decode document body: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "br", "cr":
				sb.WriteString("\n")
			case "tab":
				sb.WriteString("\t")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return strings.TrimSpace(sb.String()), warnings, nil
}
