package parser

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMarkdownParser_HeadingSections(t *testing.T) {
	input := `# Lab Report

Collected 12 March.

## Chemistry

Glucose level 180 mg/dL.

### Notes

Fasting sample.

## Haematology

Hemoglobin 13.5 g/dL.
`
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "cbc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "cbc" {
		t.Errorf("expected title %q, got %q", "cbc", doc.Title)
	}

	want := []Section{
		{Heading: "Lab Report", Level: 1, Text: "Collected 12 March."},
		{Heading: "Chemistry", Level: 2, Text: "Glucose level 180 mg/dL."},
		{Heading: "Notes", Level: 3, Text: "Fasting sample."},
		{Heading: "Haematology", Level: 2, Text: "Hemoglobin 13.5 g/dL."},
	}
	if diff := cmp.Diff(want, doc.Sections); diff != "" {
		t.Errorf("sections mismatch (-want +got):\n%s", diff)
	}
}

func TestMarkdownParser_NoHeadings(t *testing.T) {
	input := "Just some plain text.\n\nAnother paragraph here."

	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "plain.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Section{{Text: "Just some plain text.\n\nAnother paragraph here."}}
	if diff := cmp.Diff(want, doc.Sections); diff != "" {
		t.Errorf("sections mismatch (-want +got):\n%s", diff)
	}
}

func TestMarkdownParser_InlineMarkupAndLists(t *testing.T) {
	input := "## Medications\n\nTake **Amoxicillin** 500mg.\n\n- Paracetamol 650mg\n- Vitamin D 1000 IU\n"

	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "rx.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(doc.Sections))
	}
	want := "Take Amoxicillin 500mg.\n\nParacetamol 650mg\nVitamin D 1000 IU"
	if doc.Sections[0].Text != want {
		t.Errorf("expected %q, got %q", want, doc.Sections[0].Text)
	}
}

func TestMarkdownParser_CodeBlocks(t *testing.T) {
	input := "# Results\n\nRaw export:\n\n```\nGLU 180\nHGB 13.5\n```\n\nMore text after code.\n"

	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "raw.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(doc.Sections))
	}
	text := doc.Sections[0].Text
	if !strings.Contains(text, "GLU 180\nHGB 13.5") {
		t.Errorf("expected code block content in text, got %q", text)
	}
	if !strings.Contains(text, "More text after code.") {
		t.Errorf("expected post-code text, got %q", text)
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Sections) != 0 {
		t.Errorf("expected 0 sections for empty input, got %d", len(doc.Sections))
	}
}

func TestMarkdownParser_TitleStripping(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"readme.md", "readme"},
		{"notes.markdown", "notes"},
		{"reports/plain.md", "plain"},
	}
	p := &MarkdownParser{}
	for _, tt := range tests {
		doc, err := p.Parse(strings.NewReader("text"), tt.filename)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tt.filename, err)
		}
		if doc.Title != tt.want {
			t.Errorf("filename=%q: expected title %q, got %q", tt.filename, tt.want, doc.Title)
		}
	}
}
