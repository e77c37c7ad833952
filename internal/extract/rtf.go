package extract

import (
	"regexp"

	"ragserver/internal/domain"
)

var rtfControlRe = regexp.MustCompile(`(?i)\\[a-z]+-?\d* ?|\{\\[^}]*\}|[{}]`)

// richText handles RTF uploads with a naive control-sequence stripper:
// backslash control words and brace groups are removed by regex. The result
// always carries a note flagging the simplified parsing strategy.
type richText struct{}

func (richText) Extract(_ string, data []byte) domain.ExtractionResult {
	s := rtfControlRe.ReplaceAllString(decodeText(data), " ")
	return domain.ExtractionResult{
		Text: Normalize(s),
		Note: "simplified RTF parser",
	}
}
