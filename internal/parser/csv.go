package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVParser handles tabular exports such as lab result sheets. Each data
// row becomes one "header: value" line so the heuristics can read it.
type CSVParser struct{}

// csvBatch is the number of data rows per section.
const csvBatch = 20

func (p *CSVParser) Parse(r io.Reader, filename string) (*Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	doc := &Document{Title: baseTitle(filename)}
	if len(records) < 2 {
		return doc, nil
	}
	headers := records[0]
	rows := records[1:]

	for i := 0; i < len(rows); i += csvBatch {
		end := min(i+csvBatch, len(rows))
		var lines []string
		for _, row := range rows[i:end] {
			lines = append(lines, csvLine(headers, row))
		}
		doc.Sections = append(doc.Sections, Section{
			Heading: fmt.Sprintf("Rows %d-%d", i+2, end+1), // 1-indexed, after the header
			Level:   1,
			Text:    strings.Join(lines, "\n"),
		})
	}
	return doc, nil
}

func csvLine(headers, row []string) string {
	cells := make([]string, 0, len(row))
	for j, cell := range row {
		if cell == "" {
			continue
		}
		if j < len(headers) && headers[j] != "" {
			cells = append(cells, headers[j]+": "+cell)
		} else {
			cells = append(cells, cell)
		}
	}
	return strings.Join(cells, ", ")
}
