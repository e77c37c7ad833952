package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"ragserver/internal/domain"
)

// paragraphDocument extracts DOCX uploads: body paragraphs first, then table
// rows with cells joined by " | ". OOXML is a zip of XML parts, so the walk
// is a plain token stream over word/document.xml.
type paragraphDocument struct{}

func (paragraphDocument) Extract(_ string, data []byte) domain.ExtractionResult {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return failure("docx", err)
	}
	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return failure("docx", errors.New("word/document.xml missing"))
	}
	rc, err := doc.Open()
	if err != nil {
		return failure("docx", err)
	}
	defer rc.Close()

	paras, rows, err := walkWordBody(rc)
	if err != nil {
		return failure("docx", err)
	}
	parts := append(paras, rows...)
	return domain.ExtractionResult{Text: Normalize(strings.Join(parts, "\n"))}
}

// walkWordBody collects body-level paragraph texts and table rows in document
// order. Paragraphs inside table cells contribute to the cell, not to paras.
func walkWordBody(r io.Reader) (paras, tableRows []string, err error) {
	dec := xml.NewDecoder(r)
	var (
		tblDepth int
		para     strings.Builder
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
			return nil, nil, err
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
			case "t":
				inText = true
			}
		case xml.CharData:
			if inText {
				if inCell {
					cell.Write(t)
				} else if tblDepth == 0 {
					para.Write(t)
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if tblDepth == 0 {
					if s := para.String(); strings.TrimSpace(s) != "" {
						paras = append(paras, s)
					}
					para.Reset()
				} else if inCell && cell.Len() > 0 {
					cell.WriteByte(' ')
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
						tableRows = append(tableRows, row)
					}
				}
			case "tbl":
				tblDepth--
			}
		}
	}
	return paras, tableRows, nil
}
