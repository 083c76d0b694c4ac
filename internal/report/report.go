// Package report models the analysed document as a tagged variant and
// renders it into expandable sections.
package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kind is the variant tag of a Report.
type Kind string

const (
	KindLab          Kind = "lab"
	KindPrescription Kind = "prescription"
	KindOther        Kind = "other"
)

// KindFromDocumentType maps the backend's document_type classification.
func KindFromDocumentType(documentType string) Kind {
	switch strings.ToLower(strings.TrimSpace(documentType)) {
	case "prescription":
		return KindPrescription
	case "lab_report":
		return KindLab
	}
	return KindOther
}

// Label is the human-readable report type used in headings and exports.
func (k Kind) Label() string {
	switch k {
	case KindLab:
		return "Lab Report Analysis"
	case KindPrescription:
		return "Prescription Analysis"
	}
	return "Medical Document Analysis"
}

// Status of a lab measurement. ABNORMAL is only produced by heuristic
// extraction, which cannot tell high from low.
type Status string

const (
	StatusNormal   Status = "NORMAL"
	StatusHigh     Status = "HIGH"
	StatusLow      Status = "LOW"
	StatusUnknown  Status = "UNKNOWN"
	StatusAbnormal Status = "ABNORMAL"
)

// OutOfRange reports whether the status is HIGH or LOW.
func (s Status) OutOfRange() bool {
	switch Status(strings.ToUpper(string(s))) {
	case StatusHigh, StatusLow:
		return true
	}
	return false
}

type Severity string

const (
	SeverityMild     Severity = "MILD"
	SeverityModerate Severity = "MODERATE"
	SeveritySevere   Severity = "SEVERE"
)

// Urgency is the three-level visual weight of an abnormal finding.
// Higher values win when findings are combined.
type Urgency int

const (
	UrgencyNone Urgency = iota
	UrgencyMild
	UrgencyModerate
	UrgencySevere
)

func (u Urgency) String() string {
	switch u {
	case UrgencyMild:
		return "mild"
	case UrgencyModerate:
		return "moderate"
	case UrgencySevere:
		return "severe"
	}
	return ""
}

// Urgency maps a severity to its visual urgency. Unknown values are mild.
func (s Severity) Urgency() Urgency {
	switch Severity(strings.ToUpper(string(s))) {
	case SeveritySevere:
		return UrgencySevere
	case SeverityModerate:
		return UrgencyModerate
	}
	return UrgencyMild
}

type TestResult struct {
	TestName       string   `json:"test_name"`
	Value          Text     `json:"value,omitempty"`
	ReferenceRange string   `json:"reference_range,omitempty"`
	Status         Status   `json:"status"`
	Interpretation string   `json:"interpretation,omitempty"`
	Severity       Severity `json:"severity,omitempty"`
}

type AbnormalValue struct {
	TestName       string   `json:"test_name"`
	Value          Text     `json:"value,omitempty"`
	ReferenceRange string   `json:"reference_range,omitempty"`
	Status         Status   `json:"status"`
	Severity       Severity `json:"severity,omitempty"`
	Concerns       string   `json:"concerns,omitempty"`
}

type Medication struct {
	Name         string `json:"name"`
	Dosage       string `json:"dosage,omitempty"`
	Form         string `json:"form,omitempty"`
	Frequency    string `json:"frequency,omitempty"`
	Duration     string `json:"duration,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// PrescriptionDetails is prescription metadata. Duration is only filled by
// heuristic extraction.
type PrescriptionDetails struct {
	Date         string `json:"date,omitempty"`
	PrescribedBy string `json:"prescribed_by,omitempty"`
	Duration     string `json:"duration,omitempty"`
	Refills      Text   `json:"refills,omitempty"`
}

func (d *PrescriptionDetails) Empty() bool {
	return d == nil || (d.Date == "" && d.PrescribedBy == "" && d.Duration == "" && d.Refills == "")
}

type Supplement struct {
	Name           string `json:"name"`
	Dosage         string `json:"dosage,omitempty"`
	IsPrescription bool   `json:"is_prescription"`
	Reason         string `json:"reason,omitempty"`
	Warnings       string `json:"warnings,omitempty"`
}

// LifestyleCategory is one of DIET, EXERCISE, SLEEP, OTHER.
type LifestyleCategory string

type LifestyleRecommendation struct {
	Category        LifestyleCategory `json:"category"`
	Recommendations []string          `json:"recommendations"`
}

type FollowUpTest struct {
	TestName string `json:"test_name"`
	Timeline string `json:"timeline,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type DoctorQuestion struct {
	Question  string `json:"question"`
	RelatedTo string `json:"related_to,omitempty"`
}

type Tag struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// Enrichments are optional additions the backend may attach to either
// structured variant.
type Enrichments struct {
	RecommendedSupplements   []Supplement              `json:"recommended_supplements,omitempty"`
	LifestyleRecommendations []LifestyleRecommendation `json:"lifestyle_recommendations,omitempty"`
	FollowUpTests            []FollowUpTest            `json:"follow_up_tests,omitempty"`
	DoctorQuestions          []DoctorQuestion          `json:"doctor_questions,omitempty"`
	ReportTags               []Tag                     `json:"report_tags,omitempty"`
}

// Report is implemented by *Lab, *Prescription and *Other only.
type Report interface {
	Kind() Kind
	SummaryText() string
	// Enrichment returns nil for variants that carry none.
	Enrichment() *Enrichments
	isReport()
}

type Lab struct {
	Summary        string          `json:"summary"`
	TestResults    []TestResult    `json:"test_results"`
	AbnormalValues []AbnormalValue `json:"abnormal_values,omitempty"`
	Interpretation string          `json:"interpretation,omitempty"`
	Enrichments
}

func (*Lab) Kind() Kind { return KindLab }
func (r *Lab) SummaryText() string { return r.Summary }
func (r *Lab) Enrichment() *Enrichments { return &r.Enrichments }
func (*Lab) isReport() {}

type Prescription struct {
	Summary             string               `json:"summary"`
	Medications         []Medication         `json:"medications"`
	GeneralInstructions []string             `json:"general_instructions,omitempty"`
	Warnings            []string             `json:"warnings,omitempty"`
	Details             *PrescriptionDetails `json:"prescription_details,omitempty"`
	Enrichments
}

func (*Prescription) Kind() Kind { return KindPrescription }
func (r *Prescription) SummaryText() string { return r.Summary }
func (r *Prescription) Enrichment() *Enrichments { return &r.Enrichments }
func (*Prescription) isReport() {}

// Other holds the narrative of a document that is neither a lab report nor
// a prescription.
type Other struct {
	Content string `json:"content"`
}

func (*Other) Kind() Kind { return KindOther }
func (r *Other) SummaryText() string { return r.Content }
func (*Other) Enrichment() *Enrichments { return nil }
func (*Other) isReport() {}

// Text is a string field that also accepts JSON numbers and booleans.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*t = Text(n.String())
		return nil
	}
	var v bool
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*t = Text(fmt.Sprint(v))
	return nil
}

func (t Text) String() string { return string(t) }

// ErrNoStructuredData means the backend sent no usable structured payload.
var ErrNoStructuredData = errors.New("no structured data")

// Decode parses backend structured_data for the given variant. Absent or
// null payloads, and the other variant, return ErrNoStructuredData.
func Decode(kind Kind, raw json.RawMessage) (Report, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrNoStructuredData
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf("decode %s report: structured data is not an object", kind)
	}

	switch kind {
	case KindLab:
		var r Lab
		if err := json.Unmarshal(trimmed, &r); err != nil {
			return nil, fmt.Errorf("decode lab report: %w", err)
		}
		return &r, nil
	case KindPrescription:
		var r Prescription
		if err := json.Unmarshal(trimmed, &r); err != nil {
			return nil, fmt.Errorf("decode prescription report: %w", err)
		}
		return &r, nil
	}
	return nil, ErrNoStructuredData
}
