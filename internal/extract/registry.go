// Package extract converts uploaded files of different formats into
// canonical-normalized plain text. Extractors are selected by filename
// extension and never let a parse failure escape: every error becomes an
// empty text with an explanatory note.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"ragserver/internal/domain"
)

// Registry maps a lower-cased filename extension to the extractor variant
// responsible for it. Resolution happens once at startup; requests only look
// extensions up.
type Registry struct {
	byExt map[string]domain.Extractor
}

// NewRegistry builds the default registry covering every supported format.
func NewRegistry() *Registry {
	return &Registry{byExt: map[string]domain.Extractor{
		".txt":  plainText{},
		".md":   plainText{},
		".csv":  tabular{},
		".json": structured{},
		".pdf":  pageDocument{},
		".docx": paragraphDocument{},
		".rtf":  richText{},
		".pptx": slideDeck{},
	}}
}

// Supports reports whether the registry has an extractor for the extension.
func (r *Registry) Supports(ext string) bool {
	_, ok := r.byExt[strings.ToLower(ext)]
	return ok
}

// Extract runs the extractor selected by the file's extension. Unknown
// extensions yield an empty text with a "format not supported" note.
func (r *Registry) Extract(filename string, data []byte) domain.ExtractionResult {
	ex, ok := r.byExt[Ext(filename)]
	if !ok {
		return domain.ExtractionResult{Note: "format not supported"}
	}
	return ex.Extract(filename, data)
}

// Ext returns the lower-cased extension of a filename, dot included.
func Ext(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// failure converts an extractor error into the uniform failed outcome.
func failure(format string, err error) domain.ExtractionResult {
	return domain.ExtractionResult{Note: fmt.Sprintf("error: %s: %v", format, err)}
}
