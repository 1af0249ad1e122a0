package render

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// OOXML writes a minimal WordprocessingML package. Markdown headings map to the
// Title and Heading1-3 styles, list items to ListParagraph, and strong text to
// bold runs. The archive carries fixed timestamps so equal input gives equal
// bytes.
type OOXML struct{}

func (OOXML) Name() string { return "ooxml" }

func (OOXML) Docx(ctx context.Context, title string, md []byte, modified time.Time) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body := docxBody(md)
	if modified.IsZero() {
		modified = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	modified = modified.UTC().Truncate(time.Second)

	parts := []struct {
		name string
		data string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", rootRelsXML},
		{"word/document.xml", documentXML(body)},
		{"word/_rels/document.xml.rels", documentRelsXML},
		{"word/styles.xml", stylesXML},
		{"docProps/core.xml", coreXML(title, modified)},
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range parts {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: p.name, Method: zip.Deflate, Modified: modified})
		if err != nil {
			return nil, fmt.Errorf("docx part %s: %w", p.name, err)
		}
		if _, err := w.Write([]byte(p.data)); err != nil {
			return nil, fmt.Errorf("docx part %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("docx close: %w", err)
	}
	return buf.Bytes(), nil
}

type run struct {
	text   string
	bold   bool
	italic bool
	mono   bool
	brk    bool
}

type docxWriter struct {
	src      []byte
	out      strings.Builder
	sawTitle bool
}

func docxBody(md []byte) string {
	doc := goldmark.New(goldmark.WithExtensions(extension.Strikethrough)).Parser().Parse(text.NewReader(md))
	w := &docxWriter{src: md}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		w.block(n, 0)
	}
	return w.out.String()
}

func (w *docxWriter) block(n ast.Node, depth int) {
	switch b := n.(type) {
	case *ast.Heading:
		style := "Heading" + strconv.Itoa(min(b.Level, 3))
		if b.Level == 1 && !w.sawTitle {
			style = "Title"
			w.sawTitle = true
		} else if b.Level > 1 {
			style = "Heading" + strconv.Itoa(min(b.Level-1, 3))
		}
		w.paragraph(style, "", w.inlines(b))
	case *ast.Paragraph, *ast.TextBlock:
		w.paragraph("", "", w.inlines(b))
	case *ast.List:
		num := b.Start
		for item := b.FirstChild(); item != nil; item = item.NextSibling() {
			prefix := "• "
			if b.IsOrdered() {
				prefix = strconv.Itoa(num) + ". "
				num++
			}
			first := true
			for c := item.FirstChild(); c != nil; c = c.NextSibling() {
				switch c.(type) {
				case *ast.Paragraph, *ast.TextBlock:
					p := ""
					if first {
						p = prefix
					}
					w.paragraph("ListParagraph", indent(depth)+p, w.inlines(c))
					first = false
				default:
					w.block(c, depth+1)
				}
			}
		}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			line := strings.TrimRight(string(seg.Value(w.src)), "\n")
			w.paragraph("", "", []run{{text: line, mono: true}})
		}
	case *ast.Blockquote:
		for c := b.FirstChild(); c != nil; c = c.NextSibling() {
			w.block(c, depth+1)
		}
	case *ast.ThematicBreak:
		w.paragraph("", "", nil)
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			w.block(c, depth)
		}
	}
}

func indent(depth int) string {
	return strings.Repeat("    ", depth)
}

func (w *docxWriter) inlines(n ast.Node) []run {
	var runs []run
	var walk func(n ast.Node, bold, italic, mono bool)
	walk = func(n ast.Node, bold, italic, mono bool) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				runs = append(runs, run{text: string(t.Segment.Value(w.src)), bold: bold, italic: italic, mono: mono})
				if t.HardLineBreak() {
					runs = append(runs, run{brk: true})
				} else if t.SoftLineBreak() {
					runs = append(runs, run{brk: true})
				}
			case *ast.String:
				runs = append(runs, run{text: string(t.Value), bold: bold, italic: italic, mono: mono})
			case *ast.Emphasis:
				walk(t, bold || t.Level >= 2, italic || t.Level == 1, mono)
			case *ast.CodeSpan:
				walk(t, bold, italic, true)
			case *ast.RawHTML:
				for i := 0; i < t.Segments.Len(); i++ {
					seg := t.Segments.At(i)
					runs = append(runs, run{text: string(seg.Value(w.src)), bold: bold, italic: italic, mono: mono})
				}
			case *ast.AutoLink:
				runs = append(runs, run{text: string(t.URL(w.src)), bold: bold, italic: italic, mono: mono})
			default:
				walk(c, bold, italic, mono)
			}
		}
	}
	walk(n, false, false, false)
	return runs
}

func (w *docxWriter) paragraph(style, prefix string, runs []run) {
	w.out.WriteString("<w:p>")
	if style != "" {
		w.out.WriteString(`<w:pPr><w:pStyle w:val="` + style + `"/></w:pPr>`)
	}
	if prefix != "" {
		writeRun(&w.out, run{text: prefix})
	}
	for _, r := range runs {
		writeRun(&w.out, r)
	}
	w.out.WriteString("</w:p>")
}

func writeRun(b *strings.Builder, r run) {
	b.WriteString("<w:r>")
	if r.brk {
		b.WriteString("<w:br/></w:r>")
		return
	}
	if r.bold || r.italic || r.mono {
		b.WriteString("<w:rPr>")
		if r.mono {
			b.WriteString(`<w:rFonts w:ascii="Consolas" w:hAnsi="Consolas"/>`)
		}
		if r.bold {
			b.WriteString("<w:b/>")
		}
		if r.italic {
			b.WriteString("<w:i/>")
		}
		b.WriteString("</w:rPr>")
	}
	b.WriteString(`<w:t xml:space="preserve">`)
	b.WriteString(escapeXML(r.text))
	b.WriteString("</w:t></w:r>")
}

func escapeXML(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

const contentTypesXML = xmlHeader + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>` +
	`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>` +
	`</Types>`

const rootRelsXML = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>` +
	`</Relationships>`

const documentRelsXML = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
	`</Relationships>`

func documentXML(body string) string {
	return xmlHeader + `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body +
		`<w:sectPr><w:pgSz w:w="12240" w:h="15840"/><w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="720" w:footer="720" w:gutter="0"/></w:sectPr>` +
		`</w:body></w:document>`
}

func coreXML(title string, modified time.Time) string {
	ts := modified.Format(time.RFC3339)
	return xmlHeader + `<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" ` +
		`xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" ` +
		`xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
		`<dc:title>` + escapeXML(title) + `</dc:title>` +
		`<dc:creator>vdi-docgen</dc:creator>` +
		`<dcterms:created xsi:type="dcterms:W3CDTF">` + ts + `</dcterms:created>` +
		`<dcterms:modified xsi:type="dcterms:W3CDTF">` + ts + `</dcterms:modified>` +
		`</cp:coreProperties>`
}

func styleXML(id, name string, size int, bold bool, spaceBefore int) string {
	rpr := `<w:sz w:val="` + strconv.Itoa(size) + `"/>`
	if bold {
		rpr = `<w:b/>` + rpr
	}
	return `<w:style w:type="paragraph" w:styleId="` + id + `"><w:name w:val="` + name + `"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:qFormat/>` +
		`<w:pPr><w:keepNext/><w:spacing w:before="` + strconv.Itoa(spaceBefore) + `" w:after="120"/></w:pPr>` +
		`<w:rPr>` + rpr + `</w:rPr></w:style>`
}

var stylesXML = xmlHeader + `<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
	`<w:docDefaults><w:rPrDefault><w:rPr><w:rFonts w:ascii="Calibri" w:hAnsi="Calibri" w:eastAsia="Calibri" w:cs="Calibri"/><w:sz w:val="22"/><w:szCs w:val="22"/></w:rPr></w:rPrDefault>` +
	`<w:pPrDefault><w:pPr><w:spacing w:after="120"/></w:pPr></w:pPrDefault></w:docDefaults>` +
	`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:qFormat/></w:style>` +
	styleXML("Title", "Title", 48, true, 0) +
	styleXML("Heading1", "heading 1", 32, true, 360) +
	styleXML("Heading2", "heading 2", 26, true, 240) +
	styleXML("Heading3", "heading 3", 24, true, 200) +
	`<w:style w:type="paragraph" w:styleId="ListParagraph"><w:name w:val="List Paragraph"/><w:basedOn w:val="Normal"/><w:qFormat/><w:pPr><w:spacing w:after="60"/><w:ind w:left="720" w:hanging="360"/></w:pPr></w:style>` +
	`</w:styles>`
