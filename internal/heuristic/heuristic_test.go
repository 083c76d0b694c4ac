package heuristic

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/medilink-health/medilink-web/internal/report"
)

func TestMedications_DosageLine(t *testing.T) {
	text := "Summary of the prescription.\n\nTake 500mg twice daily\nRest well."
	got := Medications(text)
	want := []string{"Take 500mg twice daily"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("medications mismatch (-want +got):\n%s", diff)
	}
}

func TestMedications_ExcludesSummaryAndShortLines(t *testing.T) {
	text := "Medication summary: see below\ndrug X\nAmoxicillin capsules prescribed for infection"
	got := Medications(text)
	want := []string{"Amoxicillin capsules prescribed for infection"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("medications mismatch (-want +got):\n%s", diff)
	}
}

func TestPlaceholders(t *testing.T) {
	text := "Nothing relevant here at all."
	tests := []struct {
		name string
		fn   func(string) []string
		want string
	}{
		{"medications", Medications, NoMedications},
		{"instructions", Instructions, NoInstructions},
		{"tests", LabResults, NoTests},
		{"abnormal", AbnormalValues, NoAbnormal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, in := range []string{text, ""} {
				got := tt.fn(in)
				if len(got) != 1 || got[0] != tt.want {
					t.Errorf("input %q: expected [%q], got %q", in, tt.want, got)
				}
			}
		})
	}
}

func TestInstructions(t *testing.T) {
	text := "Notes:\nApply the cream twice a day\nTake 2 tablets at night\nok"
	got := Instructions(text)
	want := []string{"Take 2 tablets at night"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("instructions mismatch (-want +got):\n%s", diff)
	}
}

func TestLabResults_Status(t *testing.T) {
	text := "Glucose 142 mg/dL is elevated\r\nSodium 139 mmol/L\nHemoglobin level normal"
	got := LabResults(text)
	want := []string{"Glucose 142 mg/dL is elevated", "Sodium 139 mmol/L", "Hemoglobin level normal"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("tests mismatch (-want +got):\n%s", diff)
	}
	statuses := []report.Status{LabStatus(got[0]), LabStatus(got[1]), LabStatus(got[2])}
	wantStatus := []report.Status{report.StatusAbnormal, report.StatusNormal, report.StatusNormal}
	if diff := cmp.Diff(wantStatus, statuses); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}
}

func TestAbnormalValues(t *testing.T) {
	text := "Cholesterol is elevated at 260.\nLDL above range.\n\nVitamin D is low.\n\nAll else fine."
	got := AbnormalValues(text)
	if len(got) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d: %q", len(got), got)
	}
	if AbnormalStatus(got[0]) != report.StatusHigh {
		t.Errorf("expected HIGH for %q", got[0])
	}
	if AbnormalStatus(got[1]) != report.StatusLow {
		t.Errorf("expected LOW for %q", got[1])
	}
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"impression paragraph", "Patient details.\n\nImpression: mild anaemia.\n\nMore.", "Impression: mild anaemia."},
		{"first paragraph", "Intro line\nsecond line\n\nBody.", "Intro line\nsecond line"},
		{"leading blank lines", "\n\nFirst real paragraph.", "First real paragraph."},
		{"empty", "", NoSummary},
		{"whitespace", "   \n\n  ", NoSummary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Summary(tt.text); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestPrescriptionDetails(t *testing.T) {
	text := "Prescribed on: March 4, 2024\nPrescriber: Dr Anita Rao, MD\nCourse: 10 days\nRefills: two"
	got := PrescriptionDetails(text)
	want := report.PrescriptionDetails{
		Date:         "March 4, 2024",
		PrescribedBy: "Dr Anita Rao",
		Duration:     "10 days",
		Refills:      "two",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("details mismatch (-want +got):\n%s", diff)
	}

	if d := PrescriptionDetails("no metadata"); !d.Empty() {
		t.Errorf("expected empty details, got %+v", d)
	}
}

func TestPrescriptionDetails_NumericDate(t *testing.T) {
	got := PrescriptionDetails("Date: 12/05/24. Repeats: 3")
	if got.Date != "12/05/24" {
		t.Errorf("expected date %q, got %q", "12/05/24", got.Date)
	}
	if got.Refills != "3" {
		t.Errorf("expected refills %q, got %q", "3", got.Refills)
	}
}

func TestDerive_Prescription(t *testing.T) {
	narrative := "Summary: antibiotic course.\n\nTake 500mg twice daily\nDoctor: Anil Mehta"
	r := Derive(report.KindPrescription, narrative)
	p, ok := r.(*report.Prescription)
	if !ok {
		t.Fatalf("expected *report.Prescription, got %T", r)
	}
	if p.Summary != "Summary: antibiotic course." {
		t.Errorf("unexpected summary %q", p.Summary)
	}
	if len(p.Medications) != 1 || p.Medications[0].Name != "Take 500mg twice daily" {
		t.Errorf("unexpected medications %+v", p.Medications)
	}
	if p.Details == nil || p.Details.PrescribedBy != "Anil Mehta" {
		t.Errorf("unexpected details %+v", p.Details)
	}
}

func TestDerive_LabPlaceholdersAreUnknown(t *testing.T) {
	r := Derive(report.KindLab, "Nothing to see.")
	lab := r.(*report.Lab)
	if lab.TestResults[0].Status != report.StatusUnknown {
		t.Errorf("expected UNKNOWN placeholder test status, got %q", lab.TestResults[0].Status)
	}
	if lab.AbnormalValues[0].Status != report.StatusUnknown {
		t.Errorf("expected UNKNOWN placeholder abnormal status, got %q", lab.AbnormalValues[0].Status)
	}
	doc := report.Render(lab, report.InitialExpansion(lab))
	p, _ := doc.Panel(report.SectionTests)
	if p.Tests[0].Abnormal {
		t.Error("placeholder row must not render as abnormal")
	}
}

func TestDerive_Other(t *testing.T) {
	r := Derive(report.KindOther, "Discharge note.")
	o, ok := r.(*report.Other)
	if !ok || o.Content != "Discharge note." {
		t.Errorf("expected other report carrying the narrative, got %#v", r)
	}
}
