package report

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestKindFromDocumentType(t *testing.T) {
	tests := map[string]Kind{
		"prescription": KindPrescription,
		"lab_report":   KindLab,
		"LAB_REPORT":   KindLab,
		"discharge":    KindOther,
		"":             KindOther,
	}
	for in, want := range tests {
		if got := KindFromDocumentType(in); got != want {
			t.Errorf("%q: expected %q, got %q", in, want, got)
		}
	}
}

func TestDecode_Lab(t *testing.T) {
	raw := json.RawMessage(`{
		"summary": "Mostly normal.",
		"test_results": [
			{"test_name": "Glucose", "value": 142, "reference_range": "70-99", "status": "HIGH"},
			{"test_name": "Sodium", "value": "139", "status": "NORMAL"}
		],
		"abnormal_values": [{"test_name": "Glucose", "status": "HIGH", "severity": "MODERATE"}],
		"recommended_supplements": [{"name": "Chromium", "is_prescription": false, "reason": "glucose"}],
		"report_tags": [{"name": "Diabetes", "category": "Specialty"}]
	}`)

	r, err := Decode(KindLab, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lab, ok := r.(*Lab)
	if !ok {
		t.Fatalf("expected *Lab, got %T", r)
	}
	if lab.TestResults[0].Value != "142" {
		t.Errorf("expected numeric value decoded as %q, got %q", "142", lab.TestResults[0].Value)
	}
	if len(lab.RecommendedSupplements) != 1 || lab.RecommendedSupplements[0].Name != "Chromium" {
		t.Errorf("expected embedded enrichments to decode, got %+v", lab.Enrichments)
	}
}

func TestDecode_Prescription(t *testing.T) {
	raw := json.RawMessage(`{
		"summary": "Antibiotic course.",
		"medications": [{"name": "Amoxicillin", "dosage": "500mg"}],
		"general_instructions": ["Take with food"],
		"prescription_details": {"date": "2024-03-01", "prescribed_by": "Dr. Rao", "refills": 2}
	}`)
	r, err := Decode(KindPrescription, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := r.(*Prescription)
	want := &PrescriptionDetails{Date: "2024-03-01", PrescribedBy: "Dr. Rao", Refills: "2"}
	if diff := cmp.Diff(want, p.Details); diff != "" {
		t.Errorf("details mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_NoStructuredData(t *testing.T) {
	for _, raw := range []string{"", "null", "  null  "} {
		if _, err := Decode(KindLab, json.RawMessage(raw)); !errors.Is(err, ErrNoStructuredData) {
			t.Errorf("%q: expected ErrNoStructuredData, got %v", raw, err)
		}
	}
	if _, err := Decode(KindOther, json.RawMessage(`{"content":"x"}`)); !errors.Is(err, ErrNoStructuredData) {
		t.Errorf("other variant: expected ErrNoStructuredData, got %v", err)
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []string{
		`"just a string"`,
		`[1,2,3]`,
		`{"test_results": "not a list"}`,
	}
	for _, raw := range tests {
		_, err := Decode(KindLab, json.RawMessage(raw))
		if err == nil {
			t.Errorf("%s: expected error", raw)
		}
		if errors.Is(err, ErrNoStructuredData) {
			t.Errorf("%s: malformed payload should not be reported as absent", raw)
		}
	}
}

func TestStatus_OutOfRange(t *testing.T) {
	tests := map[Status]bool{
		StatusHigh:     true,
		StatusLow:      true,
		"high":         true,
		StatusNormal:   false,
		StatusUnknown:  false,
		StatusAbnormal: false,
	}
	for s, want := range tests {
		if got := s.OutOfRange(); got != want {
			t.Errorf("%q: expected %v, got %v", s, want, got)
		}
	}
}

func TestSeverity_Urgency(t *testing.T) {
	tests := map[Severity]Urgency{
		SeveritySevere:   UrgencySevere,
		"severe":         UrgencySevere,
		SeverityModerate: UrgencyModerate,
		SeverityMild:     UrgencyMild,
		"":               UrgencyMild,
		"CRITICAL":       UrgencyMild,
	}
	for s, want := range tests {
		if got := s.Urgency(); got != want {
			t.Errorf("%q: expected %v, got %v", s, want, got)
		}
	}
}

func TestText_UnmarshalBool(t *testing.T) {
	var v struct {
		Refills Text `json:"refills"`
	}
	if err := json.Unmarshal([]byte(`{"refills": false}`), &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Refills != "false" {
		t.Errorf("expected %q, got %q", "false", v.Refills)
	}
	if err := json.Unmarshal([]byte(`{"refills": {"n": 1}}`), &v); err == nil {
		t.Error("expected error for object value")
	}
}
