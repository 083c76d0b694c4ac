// Package parser extracts readable text from local document files so they
// can be analysed without the remote backend.
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Parser converts raw document bytes into a Document.
type Parser interface {
	Parse(r io.Reader, filename string) (*Document, error)
}

// Document is the text of a parsed file as an ordered list of sections.
type Document struct {
	Title    string
	Sections []Section
}

// Section is a run of text under one heading. Level is 0 for text that
// precedes any heading.
type Section struct {
	Heading string
	Level   int
	Text    string
	Page    int // 0 if N/A
}

// Text returns headings and section text separated by blank lines.
func (d *Document) Text() string {
	var parts []string
	for _, s := range d.Sections {
		if s.Heading != "" {
			parts = append(parts, s.Heading)
		}
		if s.Text != "" {
			parts = append(parts, s.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// SupportedExtensions lists file extensions that can be parsed.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %q", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

func baseTitle(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// builder accumulates paragraphs into sections as headings are met.
type builder struct {
	doc  *Document
	cur  Section
	text strings.Builder
}

func newBuilder(title string) *builder {
	return &builder{doc: &Document{Title: title}}
}

func (b *builder) heading(title string, level int) {
	b.flush()
	b.cur = Section{Heading: title, Level: level}
}

func (b *builder) paragraph(t string) {
	t = strings.TrimSpace(t)
	if t == "" {
		return
	}
	if b.text.Len() > 0 {
		b.text.WriteString("\n\n")
	}
	b.text.WriteString(t)
}

func (b *builder) flush() {
	b.cur.Text = b.text.String()
	b.text.Reset()
	if b.cur.Heading != "" || b.cur.Text != "" {
		b.doc.Sections = append(b.doc.Sections, b.cur)
	}
	b.cur = Section{}
}

func (b *builder) done() *Document {
	b.flush()
	return b.doc
}
