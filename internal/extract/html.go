package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/hearthlabs/hearth/internal/model"
)

var (
	scriptRe   = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	styleRe    = regexp.MustCompile(`(?is)<style\b.*?</style>`)
	commentRe  = regexp.MustCompile(`(?s)<!--.*?-->`)
	newlineRe  = regexp.MustCompile(`(?i)</(?:p|div|h[1-6]|li|ul|ol|tr|table|blockquote|pre|section|article|header|footer)>|<br\s*/?>`)
	anyTagRe   = regexp.MustCompile(`<[^>]*>`)
	entityRepl = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
		"&amp;", "&",
	)
)

type htmlExtractor struct{}

func (e *htmlExtractor) Name() string {
	return "html"
}

func (e *htmlExtractor) CanHandle(mime string, ext string) bool {
	switch mime {
	case "text/html", "application/xhtml+xml":
		return true
	}
	switch ext {
	case "html", "htm", "xhtml":
		return true
	}
	return false
}

func (e *htmlExtractor) Extract(ctx context.Context, data []byte, mime, filename string) (*model.ExtractResult, error) {
	text := string(data)
	text = scriptRe.ReplaceAllString(text, "")
	text = styleRe.ReplaceAllString(text, "")
	text = commentRe.ReplaceAllString(text, "")
	text = newlineRe.ReplaceAllString(text, "\n")
	text = anyTagRe.ReplaceAllString(text, "")
	text = entityRepl.Replace(text)

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return &model.ExtractResult{
		Text:     strings.Join(lines, "\n"),
		Metadata: map[string]interface{}{"lines": len(lines)},
	}, nil
}
