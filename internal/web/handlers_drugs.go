package web

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/medilink-health/medilink-web/internal/backend"
)

const (
	maxDrugLimit       = 100
	msgDrugsFailed     = "Failed to load medications. Please try again."
	msgNoSideEffects   = "No side effects listed"
	sideEffectsPreview = 3
)

func (s *Server) parseDrugQuery(r *http.Request) backend.DrugQuery {
	q := backend.DrugQuery{
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
		Limit:  s.cfg.DrugSearchLimit,
	}
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		q.Limit = min(n, maxDrugLimit)
	}
	if n, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && n > 0 {
		q.Page = n
	}
	return q
}

// searchDrugs runs a drug search, sharing the result between identical
// concurrent requests. The shared call is detached from any one caller's
// cancellation; the backend client bounds it with its own timeout.
func (s *Server) searchDrugs(ctx context.Context, q backend.DrugQuery) (*backend.DrugPage, error) {
	key := q.Search + "\x00" + strconv.Itoa(q.Limit) + "\x00" + strconv.Itoa(q.Page)
	v, err, shared := s.searches.Do(key, func() (any, error) {
		return s.drugs.SearchDrugs(context.WithoutCancel(ctx), q)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.log.Debug("drug search coalesced", "search", q.Search)
	}
	return v.(*backend.DrugPage), nil
}

func (s *Server) handleDrugPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, "drugdb", "Drug Database - MediLink", drugPageData{
		Search:     r.URL.Query().Get("search"),
		DebounceMS: s.cfg.DrugSearchDebounce.Milliseconds(),
	})
}

type drugPageData struct {
	Search     string
	DebounceMS int64
}

type drugResults struct {
	Search      string
	Page        *backend.DrugPage
	Selected    *backend.Drug
	SideEffects []string
	MoreEffects bool
	Error       string
}

// handleDrugResults renders the result list fragment. The selected drug is
// the one named by ?id= or else the first result.
func (s *Server) handleDrugResults(w http.ResponseWriter, r *http.Request) {
	q := s.parseDrugQuery(r)
	data := drugResults{Search: q.Search}

	page, err := s.searchDrugs(r.Context(), q)
	if err != nil {
		s.log.Warn("drug search failed", "search", q.Search, "error", err)
		data.Error = msgDrugsFailed
		s.renderFragment(w, "drug_results", data)
		return
	}
	data.Page = page

	if id := r.URL.Query().Get("id"); id != "" {
		for i := range page.Drugs {
			if page.Drugs[i].ID == id {
				data.Selected = &page.Drugs[i]
				break
			}
		}
		if data.Selected == nil {
			if d, err := s.drugs.GetDrug(r.Context(), id); err == nil {
				data.Selected = d
			}
		}
	}
	if data.Selected == nil && len(page.Drugs) > 0 {
		data.Selected = &page.Drugs[0]
	}
	if data.Selected != nil {
		effects := FormatSideEffects(data.Selected.SideEffect)
		data.MoreEffects = data.Selected.Link != "" && len(effects) > sideEffectsPreview
		data.SideEffects = first(sideEffectsPreview, effects)
	}
	s.renderFragment(w, "drug_results", data)
}

func (s *Server) handleAPIDrugs(w http.ResponseWriter, r *http.Request) {
	page, err := s.searchDrugs(r.Context(), s.parseDrugQuery(r))
	if err != nil {
		s.backendError(w, "drug search failed", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleAPIDrug(w http.ResponseWriter, r *http.Request) {
	d, err := s.drugs.GetDrug(r.Context(), chi.URLParam(r, "drugID"))
	if errors.Is(err, backend.ErrDrugNotFound) {
		jsonError(w, "drug not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.backendError(w, "drug lookup failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"drug":        d,
		"sideEffects": FormatSideEffects(d.SideEffect),
	})
}

// backendError answers a failed backend call: 504 on timeout, else 502
// carrying the backend's detail when there is one.
func (s *Server) backendError(w http.ResponseWriter, msg string, err error) {
	s.log.Warn(msg, "error", err)
	if errors.Is(err, backend.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		jsonError(w, "the backend did not respond in time", http.StatusGatewayTimeout)
		return
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		jsonError(w, apiErr.Detail, http.StatusBadGateway)
		return
	}
	jsonError(w, msg, http.StatusBadGateway)
}

var sideEffectSplit = regexp.MustCompile(`[,.]+`)

// FormatSideEffects splits a free-text side-effect field into items: by
// line when it has line breaks, else on commas and periods.
func FormatSideEffects(s string) []string {
	var parts []string
	if strings.Contains(s, "\n") {
		parts = strings.Split(s, "\n")
	} else {
		parts = sideEffectSplit.Split(s, -1)
	}
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{msgNoSideEffects}
	}
	return out
}
