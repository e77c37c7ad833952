package extract

import (
	"encoding/csv"
	"strings"

	"ragserver/internal/domain"
)

// tabular handles delimited text. Fields within a row are joined with " | ",
// rows with newlines, so a row stays one retrievable line after chunking.
type tabular struct{}

func (tabular) Extract(_ string, data []byte) domain.ExtractionResult {
	r := csv.NewReader(strings.NewReader(decodeText(data)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return failure("csv", err)
	}
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, strings.Join(row, " | "))
	}
	return domain.ExtractionResult{Text: Normalize(strings.Join(lines, "\n"))}
}
