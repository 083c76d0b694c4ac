package report

import "strings"

// Section identifies an independently expandable region of a rendered report.
type Section string

const (
	SectionSummary        Section = "summary"
	SectionMedications    Section = "medications"
	SectionInstructions   Section = "instructions"
	SectionWarnings       Section = "warnings"
	SectionTests          Section = "tests"
	SectionAbnormal       Section = "abnormal"
	SectionInterpretation Section = "interpretation"
	SectionSupplements    Section = "supplements"
	SectionLifestyle      Section = "lifestyle"
	SectionFollowUp       Section = "followup"
	SectionQuestions      Section = "questions"
)

// AllSections is the canonical display order.
var AllSections = []Section{
	SectionSummary,
	SectionMedications,
	SectionInstructions,
	SectionWarnings,
	SectionTests,
	SectionAbnormal,
	SectionInterpretation,
	SectionSupplements,
	SectionLifestyle,
	SectionFollowUp,
	SectionQuestions,
}

var sectionTitles = map[Section]string{
	SectionSummary:        "Summary",
	SectionMedications:    "Medications",
	SectionInstructions:   "Instructions",
	SectionWarnings:       "Warnings",
	SectionTests:          "Test Results",
	SectionAbnormal:       "Abnormal Values",
	SectionInterpretation: "Interpretation",
	SectionSupplements:    "Recommended Supplements",
	SectionLifestyle:      "Lifestyle & Diet",
	SectionFollowUp:       "Follow-up Tests",
	SectionQuestions:      "Questions for Your Doctor",
}

func (s Section) Title() string { return sectionTitles[s] }

// ParseSection accepts the known section keys only.
func ParseSection(s string) (Section, bool) {
	sec := Section(strings.ToLower(strings.TrimSpace(s)))
	_, ok := sectionTitles[sec]
	return sec, ok
}

// Expansion is the set of sections currently expanded. It is independent of
// data presence: a populated section may be collapsed.
type Expansion map[Section]struct{}

// NewExpansion returns an expansion containing the given sections.
func NewExpansion(sections ...Section) Expansion {
	e := make(Expansion, len(sections))
	for _, s := range sections {
		e[s] = struct{}{}
	}
	return e
}

func (e Expansion) Has(s Section) bool {
	_, ok := e[s]
	return ok
}

// Toggle flips membership of s.
func (e Expansion) Toggle(s Section) {
	if e.Has(s) {
		delete(e, s)
		return
	}
	e[s] = struct{}{}
}

func (e Expansion) Clone() Expansion {
	out := make(Expansion, len(e))
	for s := range e {
		out[s] = struct{}{}
	}
	return out
}

// Keys returns the expanded sections in canonical order.
func (e Expansion) Keys() []Section {
	keys := make([]Section, 0, len(e))
	for _, s := range AllSections {
		if e.Has(s) {
			keys = append(keys, s)
		}
	}
	return keys
}

// Sections lists the sections of r that carry non-empty data, in canonical
// order. Only these are rendered.
func Sections(r Report) []Section {
	if r == nil {
		return nil
	}
	var out []Section
	for _, s := range AllSections {
		if hasData(r, s) {
			out = append(out, s)
		}
	}
	return out
}

// InitialExpansion is the expansion applied after every successful intake:
// summary, plus the populated core sections of the report's variant.
// Enrichment sections start collapsed.
func InitialExpansion(r Report) Expansion {
	e := NewExpansion(SectionSummary)
	var core []Section
	switch r.(type) {
	case *Lab:
		core = []Section{SectionTests, SectionAbnormal, SectionInterpretation}
	case *Prescription:
		core = []Section{SectionMedications, SectionInstructions, SectionWarnings}
	}
	for _, s := range core {
		if hasData(r, s) {
			e[s] = struct{}{}
		}
	}
	return e
}

func hasData(r Report, s Section) bool {
	if s == SectionSummary {
		return strings.TrimSpace(r.SummaryText()) != ""
	}

	switch v := r.(type) {
	case *Lab:
		switch s {
		case SectionTests:
			return len(v.TestResults) > 0
		case SectionAbnormal:
			return len(v.AbnormalValues) > 0
		case SectionInterpretation:
			return strings.TrimSpace(v.Interpretation) != ""
		}
	case *Prescription:
		switch s {
		case SectionMedications:
			return len(v.Medications) > 0
		case SectionInstructions:
			return len(v.GeneralInstructions) > 0
		case SectionWarnings:
			return len(v.Warnings) > 0
		}
	}

	en := r.Enrichment()
	if en == nil {
		return false
	}
	switch s {
	case SectionSupplements:
		return len(en.RecommendedSupplements) > 0
	case SectionLifestyle:
		return len(en.LifestyleRecommendations) > 0
	case SectionFollowUp:
		return len(en.FollowUpTests) > 0
	case SectionQuestions:
		return len(en.DoctorQuestions) > 0
	}
	return false
}
