package extract

import (
	"regexp"

	"ragserver/internal/domain"
)

var (
	fencedCodeRe = regexp.MustCompile("(?s)`{1,3}.*?`{1,3}")
	mdLinkRe     = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	mdHeadingRe  = regexp.MustCompile(`#{1,6}\s*`)
)

// plainText handles .txt and .md uploads. Markdown markup is only lightly
// stripped: fenced code is dropped, links keep their label, heading markers
// are removed.
type plainText struct{}

func (plainText) Extract(_ string, data []byte) domain.ExtractionResult {
	s := decodeText(data)
	s = fencedCodeRe.ReplaceAllString(s, " ")
	s = mdLinkRe.ReplaceAllString(s, "$1")
	s = mdHeadingRe.ReplaceAllString(s, "")
	return domain.ExtractionResult{Text: Normalize(s)}
}
