package extract

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"github.com/okian/atscore/internal/domain/textnorm"
)

// PDFPages reads a PDF page by page. Pages without content are skipped.
type PDFPages struct{}

func (PDFPages) Name() string { return "pdf_pages" }
func (PDFPages) Accepts(f Format) bool { return f == FormatPDF }
func (PDFPages) Extract(_ context.Context, data []byte) (Result, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("read pdf: %w", err)
	}
	n := r.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return Result{}, fmt.Errorf("page %d: %w", i, err)
		}
		if text != "" {
			pages = append(pages, text)
		}
	}
	text := textnorm.Preprocess(strings.Join(pages, "\n"))
	return Result{
		Text:       text,
		PageCount:  n,
		Method:     "pdf_pages",
		Confidence: confidence(text, 0.95, 0.3),
		Success:    len(text) >= MinTextLength,
	}, nil
}

// PDFStream reads the whole PDF content stream at once. It recovers text
// from documents whose page tree PDFPages cannot walk.
type PDFStream struct{}

func (PDFStream) Name() string { return "pdf_stream" }
func (PDFStream) Accepts(f Format) bool { return f == FormatPDF }
func (PDFStream) Extract(_ context.Context, data []byte) (Result, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("read pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return Result{}, fmt.Errorf("plain text: %w", err)
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return Result{}, fmt.Errorf("plain text: %w", err)
	}
	text := textnorm.Preprocess(string(raw))
	return Result{
		Text:       text,
		PageCount:  r.NumPage(),
		Method:     "pdf_stream",
		Confidence: confidence(text, 0.80, 0.2),
		Success:    len(text) >= MinTextLength,
	}, nil
}

var (
	reParagraphEnd = regexp.MustCompile(`</w:p>|<w:br\s*/>|<w:cr\s*/>`)
	reTab          = regexp.MustCompile(`<w:tab\s*/>`)
	reXMLTag       = regexp.MustCompile(`<[^>]+>`)
)

// DOCX reads the body of a Word document.
type DOCX struct{}

func (DOCX) Name() string { return "docx" }
func (DOCX) Accepts(f Format) bool { return f == FormatDOCX }
func (DOCX) Extract(_ context.Context, data []byte) (Result, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("read docx: %w", err)
	}
	defer doc.Close()

	text := textnorm.Preprocess(documentText(doc.Editable().GetContent()))
	return Result{
		Text:       text,
		PageCount:  1,
		Method:     "docx",
		Confidence: 0.9,
		Success:    len(text) >= MinTextLength,
	}, nil
}

// documentText flattens WordprocessingML into lines of text.
func documentText(xml string) string {
	s := reParagraphEnd.ReplaceAllString(xml, "\n")
	s = reTab.ReplaceAllString(s, " ")
	s = reXMLTag.ReplaceAllString(s, "")
	return html.UnescapeString(s)
}

var reMarkdownNoise = regexp.MustCompile(`(?m)^#{1,6}\s+|\*\*|__`)

// HTML converts an HTML document, typically a job posting, to text.
type HTML struct{}

func (HTML) Name() string { return "html" }
func (HTML) Accepts(f Format) bool { return f == FormatHTML }
func (HTML) Extract(_ context.Context, data []byte) (Result, error) {
	text, err := HTMLText(string(data))
	if err != nil {
		return Result{}, err
	}
	return Result{
		Text:       text,
		PageCount:  1,
		Method:     "html",
		Confidence: 0.9,
		Success:    len(text) >= MinTextLength,
	}, nil
}

// HTMLText converts HTML to cleaned plain text. List items keep their
// bullet markers so section parsing still sees one entry per line.
func HTMLText(s string) (string, error) {
	md, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return "", fmt.Errorf("convert html: %w", err)
	}
	return textnorm.Preprocess(reMarkdownNoise.ReplaceAllString(md, "")), nil
}

// Plain accepts UTF-8 text as is.
type Plain struct{}

func (Plain) Name() string { return "plain" }
func (Plain) Accepts(f Format) bool { return f == FormatText }
func (Plain) Extract(_ context.Context, data []byte) (Result, error) {
	text := textnorm.Preprocess(strings.ToValidUTF8(string(data), " "))
	return Result{
		Text:       text,
		PageCount:  1,
		Method:     "plain",
		Confidence: 1.0,
		Success:    len(text) >= MinTextLength,
	}, nil
}
