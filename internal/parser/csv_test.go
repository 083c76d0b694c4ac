package parser

import (
	"fmt"
	"strings"
	"testing"
)

func TestCSVParser(t *testing.T) {
	input := "test,value,unit,flag\nGlucose,180,mg/dL,H\nHemoglobin,13.5,g/dL,\n"
	p := &CSVParser{}
	doc, err := p.Parse(strings.NewReader(input), "labs.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(doc.Sections))
	}
	s := doc.Sections[0]
	if s.Heading != "Rows 2-3" {
		t.Errorf("unexpected heading %q", s.Heading)
	}
	want := "test: Glucose, value: 180, unit: mg/dL, flag: H\ntest: Hemoglobin, value: 13.5, unit: g/dL"
	if s.Text != want {
		t.Errorf("expected %q, got %q", want, s.Text)
	}
}

func TestCSVParser_Batches(t *testing.T) {
	var b strings.Builder
	b.WriteString("name\n")
	for i := 0; i < 45; i++ {
		fmt.Fprintf(&b, "row%d\n", i)
	}
	p := &CSVParser{}
	doc, err := p.Parse(strings.NewReader(b.String()), "big.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var headings []string
	for _, s := range doc.Sections {
		headings = append(headings, s.Heading)
	}
	if got := strings.Join(headings, "|"); got != "Rows 2-21|Rows 22-41|Rows 42-46" {
		t.Errorf("unexpected batches %q", got)
	}
}

func TestCSVParser_HeaderOnly(t *testing.T) {
	p := &CSVParser{}
	doc, err := p.Parse(strings.NewReader("a,b\n"), "h.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Sections) != 0 {
		t.Errorf("expected no sections, got %d", len(doc.Sections))
	}
}
