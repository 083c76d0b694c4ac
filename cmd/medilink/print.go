package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/medilink-health/medilink-web/internal/report"
)

// printReport writes r as plain text with every section expanded.
func printReport(w io.Writer, r report.Report) {
	doc := report.Render(r, report.NewExpansion(report.Sections(r)...))
	fmt.Fprintln(w, doc.Label)
	if len(doc.Tags) > 0 {
		fmt.Fprintln(w, strings.Join(doc.Tags, " "))
	}
	if d := doc.Details; d != nil {
		for _, kv := range [][2]string{
			{"Date", d.Date},
			{"Prescribed by", d.PrescribedBy},
			{"Duration", d.Duration},
			{"Refills", d.Refills.String()},
		} {
			if kv[1] != "" {
				fmt.Fprintf(w, "%s: %s\n", kv[0], kv[1])
			}
		}
	}
	for _, p := range doc.Panels {
		fmt.Fprintf(w, "\n%s\n%s\n", p.Title, strings.Repeat("-", len(p.Title)))
		printPanel(w, p)
	}
}

func printPanel(w io.Writer, p report.Panel) {
	if p.Text != "" {
		fmt.Fprintln(w, p.Text)
	}
	for _, s := range p.Items {
		fmt.Fprintf(w, "  - %s\n", s)
	}
	for _, m := range p.Medications {
		fmt.Fprintf(w, "  - %s\n", strings.TrimSpace(strings.Join([]string{m.Name, m.Dosage, m.Frequency}, " ")))
	}
	for _, t := range p.Tests {
		mark := ""
		if t.Abnormal {
			mark = " !"
		}
		fmt.Fprintf(w, "  - %s", t.TestName)
		if t.Value != "" {
			fmt.Fprintf(w, ": %s", t.Value)
		}
		if t.ReferenceRange != "" {
			fmt.Fprintf(w, " (ref %s)", t.ReferenceRange)
		}
		fmt.Fprintf(w, " [%s]%s\n", t.Status, mark)
	}
	for _, a := range p.Abnormal {
		fmt.Fprintf(w, "  - %s", a.TestName)
		if a.Value != "" {
			fmt.Fprintf(w, ": %s", a.Value)
		}
		fmt.Fprintf(w, " [%s]", a.Status)
		if a.Severity != "" {
			fmt.Fprintf(w, " %s", a.Severity)
		}
		fmt.Fprintln(w)
	}
	for _, s := range p.Supplements {
		fmt.Fprintf(w, "  - %s", s.Name)
		if s.Dosage != "" {
			fmt.Fprintf(w, " %s", s.Dosage)
		}
		if s.Reason != "" {
			fmt.Fprintf(w, ": %s", s.Reason)
		}
		fmt.Fprintln(w)
	}
	for _, l := range p.Lifestyle {
		fmt.Fprintf(w, "  %s\n", l.Category)
		for _, rec := range l.Recommendations {
			fmt.Fprintf(w, "    - %s\n", rec)
		}
	}
	for _, f := range p.FollowUps {
		fmt.Fprintf(w, "  - %s", f.TestName)
		if f.Timeline != "" {
			fmt.Fprintf(w, " (%s)", f.Timeline)
		}
		fmt.Fprintln(w)
	}
	for i, q := range p.Questions {
		fmt.Fprintf(w, "  %d. %s\n", i+1, q.Question)
	}
}
