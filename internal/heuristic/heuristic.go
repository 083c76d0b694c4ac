// Package heuristic derives a best-effort report from a free-text analysis
// when the backend returns no structured data. Every function is pure.
package heuristic

import (
	"regexp"
	"strings"

	"github.com/medilink-health/medilink-web/internal/report"
)

const (
	NoMedications  = "No medication details found"
	NoInstructions = "No instructions found"
	NoTests        = "No test results found"
	NoAbnormal     = "No abnormal values highlighted"
	NoSummary      = "No summary available"
)

// minEntryLen is the length an entry must exceed to count as a medication,
// instruction or test line.
const minEntryLen = 10

var (
	lineSplit      = regexp.MustCompile(`\n\n|\r\n\r\n|\n`)
	paragraphSplit = regexp.MustCompile(`\n\n|\r\n\r\n`)

	dosageUnit   = regexp.MustCompile(`(?i)\d+\s*mg|\d+\s*mcg|\d+\s*ml|\d+\s*tablet|\d+\s*cap`)
	takeNumber   = regexp.MustCompile(`(?i)\btake\s+\d+`)
	labUnit      = regexp.MustCompile(`(?i)\d+\s*mg/dl|\d+\s*mmol|\d+\s*u/l|\d+\s*g/dl|\d+\s*mcg|\d+\s*pmol`)
	abnormalHint = regexp.MustCompile(`(?i)abnormal|elevated|high|low|outside|above|below|critical`)
	highHint     = regexp.MustCompile(`(?i)high|elevated|above|excess`)

	dateField       = regexp.MustCompile(`(?i)(?:prescribed|date|written)(?:\s+on)?:\s*([A-Za-z]+ \d+,? \d{4}|\d{1,2}/\d{1,2}/\d{2,4}|\d{1,2}-\d{1,2}-\d{2,4})`)
	prescriberField = regexp.MustCompile(`(?i)(?:prescribed by|prescriber|doctor|physician|dr\.?):\s*([^,\n.]+)`)
	durationField   = regexp.MustCompile(`(?i)(?:duration|for|take for|period|course):\s*([^,\n.]+\s+(?:days?|weeks?|months?))`)
	refillsField    = regexp.MustCompile(`(?i)(?:refills?|repeats?):\s*(\d+|zero|one|two|three|four|five|no\s+refills?)`)
)

var (
	medicationWords  = []string{"medication", "prescribed", "drug"}
	instructionWords = []string{"instruction", "take", "use", "direction", "daily", "times a day"}
	testWords        = []string{"test", "result", "level", "count"}
	abnormalWords    = []string{"abnormal", "elevated", "high", "low"}
	summaryWords     = []string{"summary", "impression"}
)

// Lines splits text on any line break. Entries are trimmed; blanks dropped.
func Lines(text string) []string {
	return split(lineSplit, text)
}

// Paragraphs splits text on blank lines. Entries are trimmed; blanks dropped.
func Paragraphs(text string) []string {
	return split(paragraphSplit, text)
}

func split(re *regexp.Regexp, text string) []string {
	var out []string
	for _, part := range re.Split(text, -1) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Medications returns lines that mention medication or carry a dosage unit.
func Medications(text string) []string {
	return qualifying(text, medicationWords, dosageUnit, NoMedications)
}

// Instructions returns lines that read like dosing directions.
func Instructions(text string) []string {
	return qualifying(text, instructionWords, takeNumber, NoInstructions)
}

// LabResults returns lines that mention a test or carry a lab unit.
func LabResults(text string) []string {
	return qualifying(text, testWords, labUnit, NoTests)
}

func qualifying(text string, words []string, pattern *regexp.Regexp, placeholder string) []string {
	var out []string
	for _, line := range Lines(text) {
		lower := strings.ToLower(line)
		if !containsAny(lower, words) && !pattern.MatchString(line) {
			continue
		}
		if strings.Contains(lower, "summary") || len(line) <= minEntryLen {
			continue
		}
		out = append(out, line)
	}
	if len(out) == 0 {
		return []string{placeholder}
	}
	return out
}

// AbnormalValues returns paragraphs that flag an out-of-range value.
func AbnormalValues(text string) []string {
	var out []string
	for _, p := range Paragraphs(text) {
		if containsAny(strings.ToLower(p), abnormalWords) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{NoAbnormal}
	}
	return out
}

// Summary returns the first paragraph mentioning a summary or impression,
// else the first paragraph, else NoSummary.
func Summary(text string) string {
	paras := Paragraphs(text)
	for _, p := range paras {
		if containsAny(strings.ToLower(p), summaryWords) {
			return p
		}
	}
	if len(paras) > 0 {
		return paras[0]
	}
	return NoSummary
}

// PrescriptionDetails pulls labelled metadata such as "Date: 03/04/2024" or
// "Refills: two" out of the text.
func PrescriptionDetails(text string) report.PrescriptionDetails {
	var d report.PrescriptionDetails
	if m := dateField.FindStringSubmatch(text); m != nil {
		d.Date = m[1]
	}
	if m := prescriberField.FindStringSubmatch(text); m != nil {
		d.PrescribedBy = strings.TrimSpace(m[1])
	}
	if m := durationField.FindStringSubmatch(text); m != nil {
		d.Duration = strings.TrimSpace(m[1])
	}
	if m := refillsField.FindStringSubmatch(text); m != nil {
		d.Refills = report.Text(strings.TrimSpace(m[1]))
	}
	return d
}

// LabStatus classifies a heuristic test line.
func LabStatus(line string) report.Status {
	if abnormalHint.MatchString(line) {
		return report.StatusAbnormal
	}
	return report.StatusNormal
}

// AbnormalStatus classifies a heuristic abnormal paragraph.
func AbnormalStatus(para string) report.Status {
	if highHint.MatchString(para) {
		return report.StatusHigh
	}
	return report.StatusLow
}

// Derive builds a report of the given kind from narrative text. Placeholder
// rows carry StatusUnknown so they never render as abnormal.
func Derive(kind report.Kind, narrative string) report.Report {
	switch kind {
	case report.KindPrescription:
		r := &report.Prescription{
			Summary:             Summary(narrative),
			GeneralInstructions: Instructions(narrative),
		}
		for _, m := range Medications(narrative) {
			r.Medications = append(r.Medications, report.Medication{Name: m})
		}
		if d := PrescriptionDetails(narrative); !d.Empty() {
			r.Details = &d
		}
		return r

	case report.KindLab:
		r := &report.Lab{Summary: Summary(narrative)}
		for _, line := range LabResults(narrative) {
			status := LabStatus(line)
			if line == NoTests {
				status = report.StatusUnknown
			}
			r.TestResults = append(r.TestResults, report.TestResult{TestName: line, Status: status})
		}
		for _, p := range AbnormalValues(narrative) {
			status := AbnormalStatus(p)
			if p == NoAbnormal {
				status = report.StatusUnknown
			}
			r.AbnormalValues = append(r.AbnormalValues, report.AbnormalValue{TestName: p, Status: status})
		}
		return r
	}
	return &report.Other{Content: narrative}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
