package report

import "strings"

// Document is the presentation model of a report under a given expansion.
type Document struct {
	Kind    Kind
	Label   string
	Tags    []string
	Details *PrescriptionDetails
	Panels  []Panel
}

// Panel is one togglable section. Collapsed panels keep their data so the
// header can show a count.
type Panel struct {
	Section  Section
	Title    string
	Count    int
	Expanded bool
	// Urgency is the highest urgency among abnormal rows; UrgencyNone elsewhere.
	Urgency Urgency

	Text        string
	Items       []string
	Medications []Medication
	Tests       []TestRow
	Abnormal    []AbnormalRow
	Supplements []Supplement
	Lifestyle   []LifestyleRecommendation
	FollowUps   []FollowUpTest
	Questions   []DoctorQuestion
}

type TestRow struct {
	TestResult
	// Abnormal is set only for HIGH and LOW, never for UNKNOWN.
	Abnormal bool
}

type AbnormalRow struct {
	AbnormalValue
	Urgency Urgency
}

// Render is a pure function of the report and the expansion state.
func Render(r Report, exp Expansion) Document {
	if r == nil {
		return Document{}
	}
	doc := Document{
		Kind:  r.Kind(),
		Label: r.Kind().Label(),
	}
	if en := r.Enrichment(); en != nil {
		for _, t := range en.ReportTags {
			if name := strings.TrimSpace(t.Name); name != "" {
				doc.Tags = append(doc.Tags, "#"+name)
			}
		}
	}
	if p, ok := r.(*Prescription); ok && !p.Details.Empty() {
		doc.Details = p.Details
	}

	for _, s := range Sections(r) {
		panel := Panel{Section: s, Title: s.Title(), Expanded: exp.Has(s)}
		fillPanel(&panel, r)
		doc.Panels = append(doc.Panels, panel)
	}
	return doc
}

// Panel returns the panel for s, if rendered.
func (d Document) Panel(s Section) (Panel, bool) {
	for _, p := range d.Panels {
		if p.Section == s {
			return p, true
		}
	}
	return Panel{}, false
}

func fillPanel(p *Panel, r Report) {
	if p.Section == SectionSummary {
		p.Text = r.SummaryText()
		p.Count = 1
		return
	}

	switch v := r.(type) {
	case *Lab:
		switch p.Section {
		case SectionTests:
			for _, t := range v.TestResults {
				p.Tests = append(p.Tests, TestRow{TestResult: t, Abnormal: t.Status.OutOfRange()})
			}
			p.Count = len(p.Tests)
			return
		case SectionAbnormal:
			for _, a := range v.AbnormalValues {
				u := a.Severity.Urgency()
				if u > p.Urgency {
					p.Urgency = u
				}
				p.Abnormal = append(p.Abnormal, AbnormalRow{AbnormalValue: a, Urgency: u})
			}
			p.Count = len(p.Abnormal)
			return
		case SectionInterpretation:
			p.Text = v.Interpretation
			p.Count = 1
			return
		}
	case *Prescription:
		switch p.Section {
		case SectionMedications:
			p.Medications = v.Medications
			p.Count = len(v.Medications)
			return
		case SectionInstructions:
			p.Items = v.GeneralInstructions
			p.Count = len(v.GeneralInstructions)
			return
		case SectionWarnings:
			p.Items = v.Warnings
			p.Count = len(v.Warnings)
			return
		}
	}

	en := r.Enrichment()
	if en == nil {
		return
	}
	switch p.Section {
	case SectionSupplements:
		p.Supplements = en.RecommendedSupplements
		p.Count = len(en.RecommendedSupplements)
	case SectionLifestyle:
		p.Lifestyle = en.LifestyleRecommendations
		p.Count = len(en.LifestyleRecommendations)
	case SectionFollowUp:
		p.FollowUps = en.FollowUpTests
		p.Count = len(en.FollowUpTests)
	case SectionQuestions:
		p.Questions = en.DoctorQuestions
		p.Count = len(en.DoctorQuestions)
	}
}
