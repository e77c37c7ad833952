package extract

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainTextStripsMarkdown(t *testing.T) {
	in := "# Title\n\nSee [the docs](https://example.com) for more.\n\n```\nsecret code block\n```\n\nDone."
	res := plainText{}.Extract("readme.md", []byte(in))

	assert.Empty(t, res.Note)
	assert.Contains(t, res.Text, "Title")
	assert.Contains(t, res.Text, "See the docs for more.")
	assert.Contains(t, res.Text, "Done.")
	assert.NotContains(t, res.Text, "secret code block")
	assert.NotContains(t, res.Text, "https://example.com")
	assert.NotContains(t, res.Text, "#")
}

func TestTabularJoinsCells(t *testing.T) {
	in := "name,city\nAda,London\nAlan,\"Manchester, UK\"\n"
	res := tabular{}.Extract("people.csv", []byte(in))

	require.Empty(t, res.Note)
	assert.Equal(t, "name | city\nAda | London\nAlan | Manchester, UK", res.Text)
}

func TestTabularRaggedRows(t *testing.T) {
	res := tabular{}.Extract("ragged.csv", []byte("a,b,c\nd\ne,f\n"))
	require.Empty(t, res.Note)
	assert.Equal(t, "a | b | c\nd\ne | f", res.Text)
}

func TestStructuredFlattensInOrder(t *testing.T) {
	in := `{"name":"Ada","tags":["x","y"],"meta":{"age":36,"active":true},"note":null}`
	res := structured{}.Extract("doc.json", []byte(in))

	require.Empty(t, res.Note)
	want := strings.Join([]string{
		"name: Ada",
		"tags[0]: x",
		"tags[1]: y",
		"meta.age: 36",
		"meta.active: true",
		"note: null",
	}, "\n")
	assert.Equal(t, want, res.Text)
}

func TestStructuredTopLevelArray(t *testing.T) {
	res := structured{}.Extract("list.json", []byte(`[1,{"k":"v"}]`))
	require.Empty(t, res.Note)
	assert.Equal(t, "[0]: 1\n[1].k: v", res.Text)
}

func TestStructuredMalformed(t *testing.T) {
	res := structured{}.Extract("bad.json", []byte(`{"a":`))
	assert.Empty(t, res.Text)
	assert.Contains(t, res.Note, "error: json")
}

func TestStructuredTrailingData(t *testing.T) {
	res := structured{}.Extract("two.json", []byte(`{"a":1}{"b":2}`))
	assert.Empty(t, res.Text)
	assert.Contains(t, res.Note, "error: json")
}

func TestRichTextStripsControls(t *testing.T) {
	in := `{\rtf1\ansi\deff0{\fonttbl{\f0 Arial;}}\f0 Hello World}`
	res := richText{}.Extract("note.rtf", []byte(in))

	assert.Equal(t, "Hello World", res.Text)
	assert.Equal(t, "simplified RTF parser", res.Note)
}

func TestRichTextAlwaysNoted(t *testing.T) {
	res := richText{}.Extract("empty.rtf", nil)
	assert.Empty(t, res.Text)
	assert.Equal(t, "simplified RTF parser", res.Note)
}

func TestParagraphDocument(t *testing.T) {
	docXML := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
 <w:body>
  <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
  <w:p><w:r><w:t>Second paragraph.</w:t></w:r></w:p>
  <w:tbl>
   <w:tr>
    <w:tc><w:p><w:r><w:t>name</w:t></w:r></w:p></w:tc>
    <w:tc><w:p><w:r><w:t>city</w:t></w:r></w:p></w:tc>
   </w:tr>
   <w:tr>
    <w:tc><w:p><w:r><w:t>Ada</w:t></w:r></w:p></w:tc>
    <w:tc><w:p><w:r><w:t>London</w:t></w:r></w:p></w:tc>
   </w:tr>
  </w:tbl>
 </w:body>
</w:document>`
	data := buildZip(t, map[string]string{"word/document.xml": docXML})
	res := paragraphDocument{}.Extract("report.docx", data)

	require.Empty(t, res.Note)
	assert.Equal(t, "First paragraph.\nSecond paragraph.\nname | city\nAda | London", res.Text)
}

func TestParagraphDocumentNotAZip(t *testing.T) {
	res := paragraphDocument{}.Extract("broken.docx", []byte("not a zip"))
	assert.Empty(t, res.Text)
	assert.Contains(t, res.Note, "error: docx")
}

func TestParagraphDocumentMissingPart(t *testing.T) {
	data := buildZip(t, map[string]string{"word/other.xml": "<x/>"})
	res := paragraphDocument{}.Extract("hollow.docx", data)
	assert.Empty(t, res.Text)
	assert.Contains(t, res.Note, "word/document.xml missing")
}

func TestSlideDeck(t *testing.T) {
	slide1 := `<?xml version="1.0"?>
<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">
 <p:cSld><p:spTree>
  <p:sp><p:txBody><a:p><a:r><a:t>Quarterly results</a:t></a:r></a:p></p:txBody></p:sp>
  <p:graphicFrame><a:tbl>
   <a:tr>
    <a:tc><a:txBody><a:p><a:r><a:t>region</a:t></a:r></a:p></a:txBody></a:tc>
    <a:tc><a:txBody><a:p><a:r><a:t>growth</a:t></a:r></a:p></a:txBody></a:tc>
   </a:tr>
  </a:tbl></p:graphicFrame>
 </p:spTree></p:cSld>
</p:sld>`
	slide2 := `<?xml version="1.0"?>
<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">
 <p:cSld><p:spTree>
  <p:sp><p:txBody><a:p><a:r><a:t>Outlook</a:t></a:r></a:p></p:txBody></p:sp>
 </p:spTree></p:cSld>
</p:sld>`
	notes1 := `<?xml version="1.0"?>
<p:notes xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">
 <p:cSld><p:spTree>
  <p:sp><p:txBody><a:p><a:r><a:t>Remember the demo</a:t></a:r></a:p></p:txBody></p:sp>
 </p:spTree></p:cSld>
</p:notes>`
	data := buildZip(t, map[string]string{
		"ppt/slides/slide2.xml":           slide2,
		"ppt/slides/slide1.xml":           slide1,
		"ppt/notesSlides/notesSlide1.xml": notes1,
	})
	res := slideDeck{}.Extract("deck.pptx", data)

	require.Empty(t, res.Note)
	want := strings.Join([]string{
		"Quarterly results",
		"region | growth",
		"[Notes] Remember the demo",
		"Outlook",
	}, "\n")
	assert.Equal(t, want, res.Text)
}

func TestSlideDeckNotAZip(t *testing.T) {
	res := slideDeck{}.Extract("broken.pptx", []byte("nope"))
	assert.Empty(t, res.Text)
	assert.Contains(t, res.Note, "error: pptx")
}

func TestRegistryDispatch(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.Supports(".txt"))
	assert.True(t, r.Supports(".PDF"))
	assert.False(t, r.Supports(".exe"))

	res := r.Extract("notes.TXT", []byte("hello"))
	assert.Equal(t, "hello", res.Text)

	res = r.Extract("malware.exe", []byte("x"))
	assert.Empty(t, res.Text)
	assert.Equal(t, "format not supported", res.Note)

	res = r.Extract("noext", []byte("x"))
	assert.Equal(t, "format not supported", res.Note)
}

func TestExt(t *testing.T) {
	assert.Equal(t, ".txt", Ext("A.TXT"))
	assert.Equal(t, ".json", Ext("dir/data.json"))
	assert.Equal(t, "", Ext("README"))
}

func TestPageDocumentFailure(t *testing.T) {
	res := pageDocument{}.Extract("scan.pdf", []byte("%PDF-1.4 truncated"))
	assert.Empty(t, res.Text)
	assert.Contains(t, res.Note, "error: pdf")
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
