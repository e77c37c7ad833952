package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"ragserver/internal/domain"
)

// pageDocument extracts text from PDFs page by page. Pages that yield no text
// are skipped; page texts are joined with a blank line.
type pageDocument struct{}

func (pageDocument) Extract(_ string, data []byte) (res domain.ExtractionResult) {
	// The PDF library panics on some malformed files; contain it here.
	defer func() {
		if r := recover(); r != nil {
			res = failure("pdf", fmt.Errorf("%v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return failure("pdf", err)
	}
	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) != "" {
			pages = append(pages, text)
		}
	}
	return domain.ExtractionResult{Text: Normalize(strings.Join(pages, "\n\n"))}
}
