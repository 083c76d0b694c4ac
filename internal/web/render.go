package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/medilink-health/medilink-web/internal/content"
	"github.com/medilink-health/medilink-web/internal/report"
	"github.com/medilink-health/medilink-web/internal/upload"
)

//go:embed templates
var templateFS embed.FS

// pageNames are the full pages; each is parsed together with the layout and
// the shared partials. fragmentSet holds the partials alone for htmx swaps.
var pageNames = []string{"home", "feature", "contact", "notfound", "drugdb", "assistant"}

const fragmentSet = "_partials"

var templateFuncs = template.FuncMap{
	"markdown":   renderMarkdown,
	"urgency":    func(u report.Urgency) string { return u.String() },
	"humanSize":  humanSize,
	"first":      first,
	"acceptList": func() string { return upload.Accept },
	"panelOf":    panelOf,
	"drugQuery":  drugQuery,
	"inc":        func(n int) int { return n + 1 },
	"dec":        func(n int) int { return n - 1 },
}

func parseTemplates() (map[string]*template.Template, error) {
	sets := make(map[string]*template.Template, len(pageNames)+1)
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/partials.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		sets[name] = t
	}
	t, err := template.New(fragmentSet).Funcs(templateFuncs).ParseFS(templateFS, "templates/partials.html")
	if err != nil {
		return nil, fmt.Errorf("parse partials: %w", err)
	}
	sets[fragmentSet] = t
	return sets, nil
}

// page is the data every full page receives.
type page struct {
	Title     string
	Language  content.Language
	Catalogue *content.Catalogue
	Data      any
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, code int, name, title string, data any) {
	p := page{
		Title:     title,
		Language:  s.language(r),
		Catalogue: s.catalogue,
		Data:      data,
	}
	s.execute(w, code, name, "layout", p)
}

func (s *Server) renderFragment(w http.ResponseWriter, name string, data any) {
	s.execute(w, http.StatusOK, fragmentSet, name, data)
}

func (s *Server) execute(w http.ResponseWriter, code int, set, name string, data any) {
	var buf strings.Builder
	if err := s.pages[set].ExecuteTemplate(&buf, name, data); err != nil {
		s.log.Error("template execution failed", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	w.Write([]byte(buf.String()))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// wantsJSON reports whether the client asked for JSON rather than an HTML
// fragment.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}

// Assistant replies use a loose markdown: "**" emphasis, "* " or "- "
// bullets and "## Heading:" lines. Bullet lines that goldmark would read as
// emphasis are normalised first.
var starBullet = regexp.MustCompile(`(?m)^\*+\s+`)

func renderMarkdown(s string) template.HTML {
	html, err := content.Markdown(starBullet.ReplaceAllString(s, "- "))
	if err != nil {
		return template.HTML(template.HTMLEscapeString(s))
	}
	return html
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}

func first(n int, items []string) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// panelView pairs a report panel with the view it belongs to so the toggle
// button can address it.
type panelView struct {
	ViewID string
	Panel  report.Panel
}

func panelOf(viewID string, p report.Panel) panelView {
	return panelView{ViewID: viewID, Panel: p}
}

// drugQuery builds the query string for a results fragment request.
func drugQuery(search string, page int, id string) string {
	v := url.Values{}
	v.Set("search", search)
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	if id != "" {
		v.Set("id", id)
	}
	return v.Encode()
}
