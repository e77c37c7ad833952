package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"ragserver/internal/domain"
)

// structured flattens nested JSON into "path: scalar" lines. Keys accumulate
// with "." and list indices with "[i]"; object key order is preserved by
// walking the token stream instead of decoding into maps.
type structured struct{}

func (structured) Extract(_ string, data []byte) domain.ExtractionResult {
	dec := json.NewDecoder(strings.NewReader(decodeText(data)))
	dec.UseNumber()
	var lines []string
	if err := flattenValue(dec, "", &lines); err != nil {
		return failure("json", err)
	}
	// Trailing garbage after the first document is a malformed upload.
	if _, err := dec.Token(); err == nil {
		return failure("json", fmt.Errorf("unexpected trailing data"))
	}
	return domain.ExtractionResult{Text: Normalize(strings.Join(lines, "\n"))}
}

func flattenValue(dec *json.Decoder, prefix string, lines *[]string) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		*lines = append(*lines, prefix+": "+scalarString(tok))
		return nil
	}
	switch delim {
	case '{':
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return err
			}
			key := fmt.Sprint(keyTok)
			p := key
			if prefix != "" {
				p = prefix + "." + key
			}
			if err := flattenValue(dec, p, lines); err != nil {
				return err
			}
		}
	case '[':
		for i := 0; dec.More(); i++ {
			if err := flattenValue(dec, fmt.Sprintf("%s[%d]", prefix, i), lines); err != nil {
				return err
			}
		}
	}
	_, err = dec.Token() // closing delimiter
	return err
}

func scalarString(tok json.Token) string {
	switch t := tok.(type) {
	case nil:
		return "null"
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
