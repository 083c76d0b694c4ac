package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/medilink-health/medilink-web/internal/assistant"
	"github.com/medilink-health/medilink-web/internal/backend"
	"github.com/medilink-health/medilink-web/internal/export"
	"github.com/medilink-health/medilink-web/internal/report"
	"github.com/medilink-health/medilink-web/internal/upload"
)

// formOverhead is the room left for multipart headers and the
// document_type field on top of the file itself.
const formOverhead = 1 << 20

// panelData feeds the assistant_panel fragment.
type panelData struct {
	assistant.Snapshot
	Flash    string
	DocTypes []upload.DocType
}

func (s *Server) handleAssistantPage(w http.ResponseWriter, r *http.Request) {
	v := s.views.New()
	s.log.Info("assistant view created", "view_id", v.ID)
	s.renderPage(w, r, http.StatusOK, "assistant", "MediLink AI - Medical Document Assistant", s.panel(v, ""))
}

func (s *Server) panel(v *assistant.View, flash string) panelData {
	return panelData{
		Snapshot: v.Snapshot(),
		Flash:    flash,
		DocTypes: []upload.DocType{upload.LabReport, upload.Prescription},
	}
}

func (s *Server) lookupView(w http.ResponseWriter, r *http.Request) *assistant.View {
	v := s.views.Get(chi.URLParam(r, "viewID"))
	if v == nil {
		jsonError(w, "view not found or expired", http.StatusNotFound)
	}
	return v
}

// respond answers an assistant action. JSON clients get the snapshot or an
// error status; htmx gets the re-rendered panel with err shown as a flash
// message, since htmx does not swap error responses.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, v *assistant.View, err error) {
	if err == nil {
		if wantsJSON(r) {
			writeJSON(w, http.StatusOK, v.Snapshot())
			return
		}
		s.renderFragment(w, "assistant_panel", s.panel(v, ""))
		return
	}

	msg := userMessage(err, v)
	if wantsJSON(r) {
		jsonError(w, msg, statusFor(err))
		return
	}
	s.renderFragment(w, "assistant_panel", s.panel(v, msg))
}

func (s *Server) handleSelectFile(w http.ResponseWriter, r *http.Request) {
	v := s.lookupView(w, r)
	if v == nil {
		return
	}

	// A form over the limit cannot hold an acceptable file. The validator
	// still records the rejection on the view.
	const limit = upload.MaxFileBytes + formOverhead
	if r.ContentLength > limit {
		s.rejectOversize(w, r, v)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.rejectOversize(w, r, v)
			return
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	if dt := r.FormValue("document_type"); dt != "" {
		docType, err := upload.ParseDocType(dt)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		v.SetDocType(docType)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respond(w, r, v, assistant.ErrNoFile)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	name := sanitizeFilename(header.Filename)
	ct := header.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = upload.ContentTypeForFilename(name)
	}

	err = v.SelectFile(upload.File{Name: name, ContentType: ct, Size: header.Size, Data: data})
	s.respond(w, r, v, err)
}

func (s *Server) rejectOversize(w http.ResponseWriter, r *http.Request, v *assistant.View) {
	size := max(r.ContentLength, upload.MaxFileBytes+1)
	s.respond(w, r, v, v.SelectFile(upload.File{Name: "upload", Size: size}))
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	v := s.lookupView(w, r)
	if v == nil {
		return
	}
	if dt := r.FormValue("document_type"); dt != "" {
		docType, err := upload.ParseDocType(dt)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		v.SetDocType(docType)
	}

	// The intake outlives a dropped connection so its result is on the view
	// when the page polls again.
	err := v.Submit(context.WithoutCancel(r.Context()))
	s.respond(w, r, v, err)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	v := s.lookupView(w, r)
	if v == nil {
		return
	}
	_, err := v.Ask(context.WithoutCancel(r.Context()), r.FormValue("message"))
	s.respond(w, r, v, err)
}

func (s *Server) handleToggleSection(w http.ResponseWriter, r *http.Request) {
	v := s.lookupView(w, r)
	if v == nil {
		return
	}
	section, ok := report.ParseSection(chi.URLParam(r, "section"))
	if !ok {
		jsonError(w, "unknown section", http.StatusBadRequest)
		return
	}
	v.ToggleSection(section)
	s.respond(w, r, v, nil)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	v := s.lookupView(w, r)
	if v == nil {
		return
	}
	data, err := v.Export(r.Context(), s.exporter)
	if errors.Is(err, assistant.ErrExportUnavailable) {
		jsonError(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		jsonError(w, "Could not generate the PDF summary. Please try again.", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

func (s *Server) handleViewSnapshot(w http.ResponseWriter, r *http.Request) {
	v := s.lookupView(w, r)
	if v == nil {
		return
	}
	writeJSON(w, http.StatusOK, v.Snapshot())
}

func (s *Server) handleBackendStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "backend stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"backend_url": s.cfg.BackendURL,
		"views":       s.views.Len(),
		"stats":       s.stats.Snapshot(),
	})
}

func statusFor(err error) int {
	var rej *upload.Rejection
	switch {
	case errors.As(err, &rej):
		if rej.Reason == upload.ReasonTooLarge {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusBadRequest
	case errors.Is(err, assistant.ErrNoFile), errors.Is(err, assistant.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, assistant.ErrIntakeInFlight),
		errors.Is(err, assistant.ErrChatInFlight),
		errors.Is(err, assistant.ErrChatDisabled),
		errors.Is(err, assistant.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, backend.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

// userMessage is the text shown for a failed action. Backend failures have
// already been written to the view's status or transcript.
func userMessage(err error, v *assistant.View) string {
	var rej *upload.Rejection
	if errors.As(err, &rej) {
		return rej.Message
	}
	if statusFor(err) < http.StatusBadGateway {
		return err.Error()
	}
	snap := v.Snapshot()
	if snap.Status.Phase == assistant.PhaseError {
		return snap.Status.Message
	}
	if n := len(snap.Transcript); n > 0 {
		return snap.Transcript[n-1].Content
	}
	return err.Error()
}
