package extract

import (
	"strings"
	"unicode/utf8"
)

// decodeText turns raw bytes into a string without ever failing: valid UTF-8
// is taken as is, invalid sequences are dropped, and if nothing survives the
// bytes are read as Latin-1.
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	s := strings.ToValidUTF8(string(data), "")
	if s != "" || len(data) == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		b.WriteRune(rune(c))
	}
	return b.String()
}
