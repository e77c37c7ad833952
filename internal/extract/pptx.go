package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"ragserver/internal/domain"
)

var (
	slideNameRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
	notesNameRe = regexp.MustCompile(`^ppt/notesSlides/notesSlide(\d+)\.xml$`)
)

// slideDeck extracts PPTX uploads slide by slide: shape texts and table rows
// in shape order, then the slide's notes prefixed with a [Notes] tag.
type slideDeck struct{}

func (slideDeck) Extract(_ string, data []byte) domain.ExtractionResult {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return failure("pptx", err)
	}
	slides := map[int]*zip.File{}
	notes := map[int]*zip.File{}
	var order []int
	for _, f := range zr.File {
		if m := slideNameRe.FindStringSubmatch(f.Name); m != nil {
			n, _ := strconv.Atoi(m[1])
			slides[n] = f
			order = append(order, n)
		} else if m := notesNameRe.FindStringSubmatch(f.Name); m != nil {
			n, _ := strconv.Atoi(m[1])
			notes[n] = f
		}
	}
	sort.Ints(order)

	var parts []string
	for _, n := range order {
		slideParts, err := walkSlide(slides[n])
		if err != nil {
			return failure("pptx", err)
		}
		parts = append(parts, slideParts...)
		if nf, ok := notes[n]; ok {
			noteParts, err := walkSlide(nf)
			if err != nil {
				continue // notes are best effort
			}
			if note := strings.Join(noteParts, "\n"); strings.TrimSpace(note) != "" {
				parts = append(parts, "[Notes] "+note)
			}
		}
	}
	return domain.ExtractionResult{Text: Normalize(strings.Join(parts, "\n"))}
}

// walkSlide collects text frame contents and table rows from one slide part
// in document order.
func walkSlide(f *zip.File) ([]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	var (
		parts    []string
		tblDepth int
		shape    strings.Builder
		inShape  bool
		cell     strings.Builder
		inCell   bool
		inText   bool
		rowCells []string
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tblDepth++
			case "tr":
				if tblDepth > 0 {
					rowCells = nil
				}
			case "tc":
				if tblDepth > 0 {
					inCell = true
					cell.Reset()
				}
			case "txBody":
				if tblDepth == 0 {
					inShape = true
					shape.Reset()
				}
			case "t":
				inText = true
			}
		case xml.CharData:
			if inText {
				if inCell {
					cell.Write(t)
				} else if inShape {
					shape.Write(t)
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if inCell && cell.Len() > 0 {
					cell.WriteByte(' ')
				} else if inShape {
					shape.WriteByte('\n')
				}
			case "txBody":
				if tblDepth == 0 && inShape {
					if s := strings.TrimSpace(shape.String()); s != "" {
						parts = append(parts, s)
					}
					inShape = false
				}
			case "tc":
				if tblDepth > 0 {
					rowCells = append(rowCells, strings.TrimSpace(cell.String()))
					inCell = false
				}
			case "tr":
				if tblDepth > 0 {
					row := strings.Join(rowCells, " | ")
					if strings.TrimSpace(row) != "" {
						parts = append(parts, row)
					}
				}
			case "tbl":
				tblDepth--
			}
		}
	}
	return parts, nil
}
