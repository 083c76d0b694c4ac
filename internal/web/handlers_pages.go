package web

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/medilink-health/medilink-web/internal/content"
)

const languageCookie = "language"

func (s *Server) language(r *http.Request) content.Language {
	code := ""
	if c, err := r.Cookie(languageCookie); err == nil {
		code = c.Value
	}
	return s.catalogue.ResolveLanguage(code, s.cfg.DefaultLanguage)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, "home", "MediLink - Healthcare Made Simple", nil)
}

func (s *Server) handleFeature(w http.ResponseWriter, r *http.Request) {
	f, ok := s.catalogue.Feature(chi.URLParam(r, "slug"))
	if !ok {
		s.handleNotFound(w, r)
		return
	}
	s.renderPage(w, r, http.StatusOK, "feature", f.Title+" - MediLink", f)
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, "contact", "Contact Us - MediLink", nil)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		jsonError(w, "not found", http.StatusNotFound)
		return
	}
	s.renderPage(w, r, http.StatusNotFound, "notfound", "Page Not Found - MediLink", nil)
}

// handleLanguage stores the interface language preference in a cookie and
// sends the browser back to the page it came from.
func (s *Server) handleLanguage(w http.ResponseWriter, r *http.Request) {
	code := r.FormValue("language")
	lang, ok := s.catalogue.Language(code)
	if !ok {
		jsonError(w, "unsupported language", http.StatusBadRequest)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     languageCookie,
		Value:    lang.Code,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, localReferer(r), http.StatusSeeOther)
}

// localReferer returns the path of a same-host referer, or "/".
func localReferer(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || strings.HasPrefix(ref.Path, "//") || (ref.Host != "" && ref.Host != r.Host) {
		return "/"
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}
