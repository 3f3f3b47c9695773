package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"
)

// zipOf builds an in-memory archive from name/content pairs, in order.
func zipOf(t *testing.T, entries ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for i := 0; i+1 < len(entries); i += 2 {
		fw, err := w.Create(entries[i])
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(entries[i+1])); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func wordDocument(body string) string {
	return `<w:document ` + wordNS + `><w:body>` + body + `</w:body></w:document>`
}

func TestExtractBytes_plain(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		ext     string
		want    string
	}{
		{"txt", []byte("Hello world\nLine 2"), ".txt", "Hello world\nLine 2"},
		{"utf8", []byte("caf\xc3\xa9"), ".md", "café"},
		{"invalid utf8", []byte("hello\x80world"), ".rst", "hello\uFFFDworld"},
		{"byte order mark", []byte("\xef\xbb\xbfbom text"), ".txt", "bom text"},
		{"no extension", []byte("raw"), "", "raw"},
		{"extension without dot", []byte("raw"), "TXT", "raw"},
	}
	e := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ExtractBytes(tt.content, tt.ext)
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractBytes_unsupported(t *testing.T) {
	e := NewExtractor()
	for _, ext := range []string{".xyz", ".doc", ".exe"} {
		_, err := e.ExtractBytes([]byte("raw content"), ext)
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("%s: err = %v, want ErrUnsupportedFormat", ext, err)
		}
	}
}

func TestExtract_unsupportedFileIsNotRead(t *testing.T) {
	e := NewExtractor()
	_, err := e.Extract("/nonexistent/archive.tar")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestExtract_nonexistent(t *testing.T) {
	_, err := NewExtractor().Extract("/nonexistent/path/file.txt")
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist in chain", err)
	}
}

func TestExtractor_Supports(t *testing.T) {
	e := NewExtractor()
	for _, ext := range []string{".txt", "docx", ".PDF", ".ods"} {
		if !e.Supports(ext) {
			t.Errorf("Supports(%q) = false", ext)
		}
	}
	if e.Supports(".doc") {
		t.Error("Supports(.doc) = true")
	}
	want := []string{".docx", ".md", ".odp", ".ods", ".odt", ".pdf", ".pptx", ".rst", ".txt", ".xlsx"}
	if diff := cmp.Diff(want, e.Extensions()); diff != "" {
		t.Errorf("Extensions mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractBytes_docxParagraphs(t *testing.T) {
	doc := wordDocument(
		`<w:p w:rsidR="00AB"><w:r><w:t>The quick </w:t></w:r><w:r><w:rPr><w:b/></w:rPr><w:t>br</w:t></w:r><w:r><w:t>own fox.</w:t></w:r></w:p>` +
			`<w:p/>` +
			`<w:p w:rsidR="00AC"/>` +
			`<w:p><w:r><w:t xml:space="preserve">Lazy &amp; dog</w:t></w:r></w:p>`)
	got, err := NewExtractor().ExtractBytes(zipOf(t, "word/document.xml", doc), ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if want := "The quick brown fox.\nLazy & dog"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractBytes_tabsAndBreaksSeparateWords(t *testing.T) {
	tests := []struct {
		name  string
		ext   string
		entry string
		xml   string
		want  string
	}{
		{
			name:  "docx tab and break",
			ext:   ".docx",
			entry: "word/document.xml",
			xml:   wordDocument(`<w:p><w:r><w:t>quick</w:t></w:r><w:r><w:tab/></w:r><w:r><w:t>fox</w:t><w:br/><w:t>lazy</w:t></w:r></w:p>`),
			want:  "quick\tfox\nlazy",
		},
		{
			name:  "docx carriage return and typed break",
			ext:   ".docx",
			entry: "word/document.xml",
			xml:   wordDocument(`<w:p><w:r><w:t>one</w:t><w:cr/><w:t>two</w:t><w:br w:type="page"/><w:t>three</w:t></w:r></w:p>`),
			want:  "one\ntwo\nthree",
		},
		{
			name:  "docx tab stops in paragraph properties",
			ext:   ".docx",
			entry: "word/document.xml",
			xml:   wordDocument(`<w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr><w:r><w:t>indented</w:t></w:r></w:p>`),
			want:  "indented",
		},
		{
			name:  "pptx line break",
			ext:   ".pptx",
			entry: "ppt/slides/slide1.xml",
			xml:   `<p:sld><a:p><a:r><a:t>brown</a:t></a:r><a:br/><a:r><a:t>dog</a:t></a:r></a:p></p:sld>`,
			want:  "brown\ndog",
		},
		{
			name:  "odt tab, line break and space",
			ext:   ".odt",
			entry: "content.xml",
			xml:   `<office:document-content><office:body><text:p>quick<text:tab/>fox<text:line-break/>lazy<text:s text:c="2"/>dog</text:p></office:body></office:document-content>`,
			want:  "quick\tfox\nlazy dog",
		},
	}
	e := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ExtractBytes(zipOf(t, tt.entry, tt.xml), tt.ext)
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractBytes_docxMainPartFromContentTypes(t *testing.T) {
	tests := []struct {
		name     string
		override string
	}{
		{"part name first", `<Override PartName="/word/document2.xml" ContentType="` + docxMainType + `"/>`},
		{"content type first", `<Override ContentType="` + docxMainType + `" PartName="/word/document2.xml"/>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			types := `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
				`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>` +
				tt.override + `</Types>`
			content := zipOf(t,
				contentTypesXML, types,
				"word/document2.xml", wordDocument(`<w:p><w:r><w:t>from document2</w:t></w:r></w:p>`))
			got, err := NewExtractor().ExtractBytes(content, ".docx")
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if got != "from document2" {
				t.Errorf("got %q", got)
			}
		})
	}
}

func TestExtractBytes_docxErrors(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractBytes([]byte("not a zip"), ".docx"); err == nil {
		t.Error("expected error for a non-zip docx")
	}
	if _, err := e.ExtractBytes(zipOf(t, "other.xml", "<x/>"), ".docx"); err == nil {
		t.Error("expected error when the document part is missing")
	}
}

func TestExtractBytes_pptxSlideOrder(t *testing.T) {
	slide := func(text string) string {
		return `<p:sld><p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>` + text + `</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld></p:sld>`
	}
	content := zipOf(t,
		"ppt/slides/slide10.xml", slide("Tenth"),
		"ppt/slides/slide2.xml", slide("Second"),
		"ppt/slides/slide1.xml", slide("First"),
		"ppt/slides/_rels/slide1.xml.rels", "<Relationships/>",
		"ppt/notesSlides/notesSlide1.xml", slide("Notes"))
	got, err := NewExtractor().ExtractBytes(content, ".pptx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if want := "First\nSecond\nTenth"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractBytes_pptxWithoutSlides(t *testing.T) {
	got, err := NewExtractor().ExtractBytes(zipOf(t, "docProps/core.xml", "<x/>"), ".pptx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_openDocument(t *testing.T) {
	tests := []struct {
		ext  string
		xml  string
		want string
	}{
		{".odt", `<office:text><text:h text:outline-level="1">Title</text:h><text:p text:style-name="P1">Body <text:span>text</text:span></text:p><text:p text:style-name="P2"/></office:text>`, "Title\nBody text"},
		{".odp", `<draw:page><draw:text-box><text:p>Slide one</text:p></draw:text-box></draw:page><draw:page><text:p>Slide two</text:p></draw:page>`, "Slide one\nSlide two"},
		{".ods", `<table:table-row><table:table-cell><text:p>Cell A</text:p></table:table-cell><table:table-cell><text:p>Cell &lt;B&gt;</text:p></table:table-cell></table:table-row>`, "Cell A\nCell <B>"},
	}
	e := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			content := zipOf(t, "content.xml", `<office:document-content><office:body>`+tt.xml+`</office:body></office:document-content>`)
			got, err := e.ExtractBytes(content, tt.ext)
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractBytes_openDocumentMissingContent(t *testing.T) {
	for _, ext := range []string{".odt", ".odp", ".ods"} {
		if _, err := NewExtractor().ExtractBytes(zipOf(t, "styles.xml", "<x/>"), ext); err == nil {
			t.Errorf("%s: expected error when content.xml is missing", ext)
		}
	}
}

func TestExtractBytes_excel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Title")
	f.SetCellValue("Sheet1", "A2", "Value 1")
	f.SetCellValue("Sheet1", "B2", "Value 2")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	got, err := NewExtractor().ExtractBytes(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Title\nValue 1\tValue 2" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_pdfNotPDF(t *testing.T) {
	if _, err := NewExtractor().ExtractBytes([]byte("plain text"), ".pdf"); err == nil {
		t.Error("expected error for invalid pdf")
	}
}

func TestExtract_files(t *testing.T) {
	dir := t.TempDir()
	files := map[string][]byte{
		"note.txt":  []byte("File content"),
		"deck.pptx": zipOf(t, "ppt/slides/slide1.xml", `<p:sld><a:p><a:r><a:t>File content</a:t></a:r></a:p></p:sld>`),
		"memo.odt":  zipOf(t, "content.xml", `<office:text><text:p>File content</text:p></office:text>`),
		"Memo.DOCX": zipOf(t, "word/document.xml", wordDocument(`<w:p><w:r><w:t>File content</w:t></w:r></w:p>`)),
	}
	e := NewExtractor()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, content, 0600); err != nil {
			t.Fatal(err)
		}
		got, err := e.Extract(path)
		if err != nil {
			t.Errorf("%s: Extract: %v", name, err)
			continue
		}
		if got != "File content" {
			t.Errorf("%s: got %q", name, got)
		}
	}
}
