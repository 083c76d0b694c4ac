// Package export renders a structured report into a one-page-style PDF
// summary. Long content flows onto additional pages.
package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/medilink-health/medilink-web/internal/report"
)

const (
	FileName    = "MediLink-Report-Summary.pdf"
	ContentType = "application/pdf"

	Title     = "MediLink AI Report Summary"
	Footer    = "Generated by MediLink AI - For informational purposes only"
	NoSummary = "No summary available"

	maxSummaryRunes  = 300
	maxAbnormal      = 5
	maxMedications   = 5
	maxSupplements   = 3
	maxLifestyle     = 3
	maxLifestyleRecs = 2
)

type RGB struct{ R, G, B int }

var (
	colorTitle      = RGB{0, 0, 179}
	colorLabel      = RGB{77, 77, 77}
	colorBody       = RGB{77, 77, 77}
	colorHeading    = RGB{0, 0, 0}
	colorAbnormal   = RGB{204, 51, 51}
	colorMedication = RGB{0, 102, 204}
	colorSupplement = RGB{0, 153, 77}
	colorLifestyle  = RGB{153, 102, 0}
	colorFooter     = RGB{128, 128, 128}
)

// Block is one headed list in the summary.
type Block struct {
	Heading string
	Color   RGB
	Lines   []string
}

// Layout is the printable content of a summary, independent of the PDF
// library.
type Layout struct {
	Title   string
	Label   string
	Summary string
	Blocks  []Block
	Footer  string
}

// Plan selects and truncates the report content that goes into the summary.
func Plan(r report.Report) Layout {
	l := Layout{
		Title:   Title,
		Label:   r.Kind().Label(),
		Summary: truncate(strings.TrimSpace(r.SummaryText()), maxSummaryRunes),
		Footer:  Footer,
	}
	if l.Summary == "" {
		l.Summary = NoSummary
	}

	switch v := r.(type) {
	case *report.Lab:
		if len(v.AbnormalValues) > 0 {
			b := Block{Heading: "Key Abnormal Findings:", Color: colorAbnormal}
			for _, a := range head(v.AbnormalValues, maxAbnormal) {
				b.Lines = append(b.Lines, fmt.Sprintf("• %s: %s (%s)", a.TestName, a.Value, a.Status))
			}
			l.Blocks = append(l.Blocks, b)
		}
	case *report.Prescription:
		if len(v.Medications) > 0 {
			b := Block{Heading: "Medications:", Color: colorMedication}
			for _, m := range head(v.Medications, maxMedications) {
				b.Lines = append(b.Lines, strings.TrimSpace("• "+m.Name+" "+m.Dosage))
			}
			l.Blocks = append(l.Blocks, b)
		}
	}

	e := r.Enrichment()
	if e == nil {
		return l
	}
	if len(e.RecommendedSupplements) > 0 {
		b := Block{Heading: "Recommended Supplements:", Color: colorSupplement}
		for _, s := range head(e.RecommendedSupplements, maxSupplements) {
			b.Lines = append(b.Lines, fmt.Sprintf("• %s: %s", s.Name, s.Dosage))
		}
		l.Blocks = append(l.Blocks, b)
	}
	if len(e.LifestyleRecommendations) > 0 {
		b := Block{Heading: "Lifestyle & Diet Recommendations:", Color: colorLifestyle}
		for _, c := range head(e.LifestyleRecommendations, maxLifestyle) {
			for _, rec := range head(c.Recommendations, maxLifestyleRecs) {
				b.Lines = append(b.Lines, "• "+rec)
			}
		}
		if len(b.Lines) > 0 {
			l.Blocks = append(l.Blocks, b)
		}
	}
	return l
}

// Exporter writes PDF summaries.
type Exporter struct {
	log *slog.Logger
}

var disableConfigDir sync.Once

func NewExporter(log *slog.Logger) *Exporter {
	// pdfcpu otherwise creates a config directory under the user's home.
	disableConfigDir.Do(api.DisableConfigDir)
	return &Exporter{log: log}
}

// Export renders r and checks that the result is a readable PDF. On error
// no bytes are returned.
func (e *Exporter) Export(ctx context.Context, r report.Report) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	layout := Plan(r)

	data, err := Render(layout)
	if err != nil {
		e.log.Error("pdf render failed", "kind", r.Kind(), "error", err)
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	pages, err := Inspect(data)
	if err != nil {
		e.log.Error("generated pdf failed validation", "kind", r.Kind(), "error", err)
		return nil, fmt.Errorf("validate pdf: %w", err)
	}

	e.log.Info("pdf summary generated",
		"kind", r.Kind(),
		"pages", pages,
		"bytes", len(data),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return data, nil
}

// Render draws the layout on US Letter pages. The footer is repeated on
// every page.
func Render(l Layout) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(50, 50, 50)
	pdf.SetAutoPageBreak(true, 72)
	pdf.SetTitle(l.Title, true)
	pdf.SetCreator("MediLink", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-52)
		setColor(pdf, colorFooter)
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 12, tr(l.Footer), "", 0, "L", false, 0, "")
	})
	pdf.AddPage()

	setColor(pdf, colorTitle)
	pdf.SetFont("Helvetica", "B", 24)
	pdf.CellFormat(0, 30, tr(l.Title), "", 1, "L", false, 0, "")

	setColor(pdf, colorLabel)
	pdf.SetFont("Helvetica", "", 16)
	pdf.CellFormat(0, 22, tr(l.Label), "", 1, "L", false, 0, "")
	pdf.Ln(16)

	heading(pdf, tr("Summary:"), colorHeading)
	body(pdf, tr(l.Summary))

	for _, b := range l.Blocks {
		pdf.Ln(20)
		heading(pdf, tr(b.Heading), b.Color)
		for _, line := range b.Lines {
			body(pdf, tr(line))
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Inspect validates a PDF in relaxed mode and returns its page count.
func Inspect(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		return 0, err
	}
	return api.PageCount(bytes.NewReader(data), conf)
}

func heading(pdf *fpdf.Fpdf, text string, c RGB) {
	setColor(pdf, c)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 20, text, "", 1, "L", false, 0, "")
	pdf.Ln(4)
}

func body(pdf *fpdf.Fpdf, text string) {
	setColor(pdf, colorBody)
	pdf.SetFont("Helvetica", "", 12)
	pdf.MultiCell(0, 16, text, "", "L", false)
	pdf.Ln(4)
}

func setColor(pdf *fpdf.Fpdf, c RGB) {
	pdf.SetTextColor(c.R, c.G, c.B)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
