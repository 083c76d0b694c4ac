// Package assistant holds the per-page-view state of the document assistant:
// the staged upload, the intake session, the report and its expansion
// state, and the chat transcript. All mutation goes through the named
// transitions on View.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/medilink-health/medilink-web/internal/backend"
	"github.com/medilink-health/medilink-web/internal/heuristic"
	"github.com/medilink-health/medilink-web/internal/report"
	"github.com/medilink-health/medilink-web/internal/upload"
)

var (
	ErrNoFile            = errors.New("no file selected")
	ErrIntakeInFlight    = errors.New("a document is already being processed")
	ErrChatDisabled      = errors.New("chat is unavailable until a document has been analysed")
	ErrEmptyMessage      = errors.New("message is empty")
	ErrChatInFlight      = errors.New("waiting for the previous reply")
	ErrExportUnavailable = errors.New("export is only available for structured reports")
	// ErrSuperseded is returned when a result arrives for an intake or
	// session that has since been replaced. The result is discarded.
	ErrSuperseded = errors.New("superseded by a newer document")
)

const (
	msgProcessing     = "Processing your document..."
	msgProcessed      = "Document processed successfully!"
	msgIntakeFallback = "Failed to process document"
	msgTimedOut       = "The request timed out. Please try again."
	msgGreeting       = "I've analyzed your document. What would you like to know about it?"
	msgIntakeFailed   = "Sorry, there was an error processing your document: "
	msgChatFailed     = "Sorry, I couldn't process your request. Please try again."
	msgChatTimedOut   = "Sorry, the request timed out. Please try again."
	msgExportFailed   = "Could not generate the PDF summary. Please try again."
)

// Backend is the subset of the remote API the assistant drives.
type Backend interface {
	ExtractText(ctx context.Context, f upload.File, docType upload.DocType) (*backend.ExtractResult, error)
	Chat(ctx context.Context, sessionID, message string) (string, error)
}

// Exporter renders a report into a downloadable document.
type Exporter interface {
	Export(ctx context.Context, r report.Report) ([]byte, error)
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Phase is the processing status of the current intake.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseSuccess Phase = "success"
	PhaseError   Phase = "error"
)

type Status struct {
	Phase   Phase  `json:"phase"`
	Message string `json:"message,omitempty"`
	Detail  string `json:"detail,omitempty"`
	// TimedOut distinguishes a deadline failure from other errors.
	TimedOut bool `json:"timed_out,omitempty"`
}

// Session is the backend conversation created by a successful intake.
type Session struct {
	ID            string      `json:"session_id"`
	DocumentType  string      `json:"document_type"`
	Kind          report.Kind `json:"kind"`
	ExtractedText string      `json:"extracted_text"`
	Analysis      string      `json:"initial_analysis"`
}

// Source records where the active report came from.
type Source string

const (
	SourceStructured Source = "structured"
	SourceHeuristic  Source = "heuristic"
	SourceNarrative  Source = "narrative"
)

// View is the state of one page view. It is safe for concurrent use; the
// lock is never held across a backend call.
type View struct {
	ID string

	backend Backend
	log     *slog.Logger
	timeout time.Duration

	mu sync.Mutex

	docType   upload.DocType
	staged    *upload.File
	rejection string

	status     Status
	session    *Session
	report     report.Report
	source     Source
	expansion  report.Expansion
	transcript []Turn
	canExport  bool
	exportErr  string

	intakeInFlight bool
	intakeGen      uint64
	cancelIntake   context.CancelFunc

	chatInFlight bool
	sessionGen   uint64

	createdAt time.Time
	updatedAt time.Time
}

// NewView returns an idle view. timeout bounds every backend call.
func NewView(id string, b Backend, timeout time.Duration, log *slog.Logger) *View {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	now := time.Now()
	return &View{
		ID:        id,
		backend:   b,
		log:       log.With("view_id", id),
		timeout:   timeout,
		docType:   upload.LabReport,
		status:    Status{Phase: PhaseIdle},
		expansion: report.NewExpansion(report.SectionSummary),
		createdAt: now,
		updatedAt: now,
	}
}

// SetDocType records the user's declared document type for the next submit.
func (v *View) SetDocType(dt upload.DocType) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.docType = dt
	v.touchLocked()
}

// SelectFile validates f and stages it. A rejected file leaves any
// previously staged file in place. Selecting a file while an intake is in
// flight cancels that intake and discards its result.
func (v *View) SelectFile(f upload.File) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.touchLocked()

	if err := upload.Validate(f); err != nil {
		v.rejection = err.Error()
		return err
	}
	v.staged = &f
	v.rejection = ""

	if v.intakeInFlight {
		v.log.Info("new file selected, cancelling in-flight intake")
		v.cancelIntake()
		v.intakeGen++
		v.intakeInFlight = false
		v.cancelIntake = nil
		v.status = Status{Phase: PhaseIdle}
	}
	return nil
}

// Submit runs one intake for the staged file. It blocks until the backend
// answers, the timeout expires, or the intake is superseded.
func (v *View) Submit(ctx context.Context) error {
	v.mu.Lock()
	if v.staged == nil {
		v.mu.Unlock()
		return ErrNoFile
	}
	if v.intakeInFlight {
		v.mu.Unlock()
		return ErrIntakeInFlight
	}

	file := *v.staged
	docType := v.docType

	v.session = nil
	v.report = nil
	v.source = ""
	v.canExport = false
	v.exportErr = ""
	v.transcript = nil
	v.expansion = report.NewExpansion(report.SectionSummary)
	v.chatInFlight = false
	v.sessionGen++
	v.status = Status{Phase: PhaseLoading, Message: msgProcessing, Detail: extractingMessage(file)}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()
	v.intakeGen++
	gen := v.intakeGen
	v.intakeInFlight = true
	v.cancelIntake = cancel
	v.touchLocked()
	v.mu.Unlock()

	v.log.Info("intake started", "filename", file.Name, "content_type", file.MediaType(), "size", file.Size, "document_type", docType)
	start := time.Now()
	res, err := v.backend.ExtractText(ctx, file, docType)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.intakeGen {
		v.log.Info("discarding superseded intake result")
		return ErrSuperseded
	}
	v.intakeInFlight = false
	v.cancelIntake = nil
	v.touchLocked()

	if err != nil {
		timedOut := isTimeout(err)
		msg := intakeErrorMessage(err, timedOut)
		v.status = Status{Phase: PhaseError, Message: msg, TimedOut: timedOut}
		v.transcript = []Turn{{Role: RoleAssistant, Content: msgIntakeFailed + msg}}
		v.log.Warn("intake failed", "error", err, "timed_out", timedOut, "duration_ms", time.Since(start).Milliseconds())
		return fmt.Errorf("intake: %w", err)
	}

	kind := report.KindFromDocumentType(res.DocumentType)
	r, source := v.resolveReport(kind, res.StructuredData, res.InitialAnalysis)

	v.session = &Session{
		ID:            res.SessionID,
		DocumentType:  res.DocumentType,
		Kind:          kind,
		ExtractedText: res.ExtractedText,
		Analysis:      res.InitialAnalysis,
	}
	v.report = r
	v.source = source
	v.canExport = source == SourceStructured
	v.expansion = report.InitialExpansion(r)
	v.transcript = []Turn{{Role: RoleAssistant, Content: msgGreeting}}
	v.status = Status{Phase: PhaseSuccess, Message: msgProcessed}
	v.staged = nil

	v.log.Info("intake completed",
		"session_id", res.SessionID,
		"kind", kind,
		"report_source", source,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// resolveReport picks exactly one report source: decoded structured data,
// the heuristic fallback, or the narrative for unclassified documents.
func (v *View) resolveReport(kind report.Kind, structured json.RawMessage, narrative string) (report.Report, Source) {
	if kind == report.KindOther {
		return &report.Other{Content: narrative}, SourceNarrative
	}
	r, err := report.Decode(kind, structured)
	if err == nil {
		return r, SourceStructured
	}
	if !errors.Is(err, report.ErrNoStructuredData) {
		v.log.Warn("structured data unusable, using heuristic extraction", "error", err)
	}
	return heuristic.Derive(kind, narrative), SourceHeuristic
}

// CanAsk reports whether the chat input is enabled.
func (v *View) CanAsk() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.canAskLocked()
}

func (v *View) canAskLocked() bool {
	return v.session != nil && !v.chatInFlight
}

// Ask appends the user's turn, sends it to the backend and appends the
// reply, or a failure turn when the call fails. Nothing is retried.
func (v *View) Ask(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)

	v.mu.Lock()
	if v.session == nil {
		v.mu.Unlock()
		return "", ErrChatDisabled
	}
	if message == "" {
		v.mu.Unlock()
		return "", ErrEmptyMessage
	}
	if v.chatInFlight {
		v.mu.Unlock()
		return "", ErrChatInFlight
	}
	v.chatInFlight = true
	v.transcript = append(v.transcript, Turn{Role: RoleUser, Content: message})
	sessionID := v.session.ID
	gen := v.sessionGen
	v.touchLocked()
	v.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()
	reply, err := v.backend.Chat(ctx, sessionID, message)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.sessionGen {
		v.log.Info("discarding chat reply for replaced session", "session_id", sessionID)
		return "", ErrSuperseded
	}
	v.chatInFlight = false
	v.touchLocked()

	if err != nil {
		content := msgChatFailed
		if isTimeout(err) {
			content = msgChatTimedOut
		}
		v.transcript = append(v.transcript, Turn{Role: RoleAssistant, Content: content})
		v.log.Warn("chat failed", "session_id", sessionID, "error", err)
		return "", fmt.Errorf("chat: %w", err)
	}
	v.transcript = append(v.transcript, Turn{Role: RoleAssistant, Content: reply})
	return reply, nil
}

// ToggleSection flips the expansion of one section. Report data is untouched.
func (v *View) ToggleSection(s report.Section) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.expansion.Toggle(s)
	v.touchLocked()
}

// Export renders the current report. Failures are logged and yield no bytes.
func (v *View) Export(ctx context.Context, exp Exporter) ([]byte, error) {
	v.mu.Lock()
	if !v.canExport || v.report == nil {
		v.mu.Unlock()
		return nil, ErrExportUnavailable
	}
	r := v.report
	sessionGen := v.sessionGen
	v.mu.Unlock()

	data, err := exp.Export(ctx, r)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.touchLocked()
	if err != nil {
		v.log.Error("export failed", "error", err)
		if sessionGen == v.sessionGen {
			v.exportErr = msgExportFailed
		}
		return nil, fmt.Errorf("export: %w", err)
	}
	v.exportErr = ""
	return data, nil
}

func (v *View) touchLocked() {
	v.updatedAt = time.Now()
}

// LastActive is the time of the most recent transition.
func (v *View) LastActive() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.updatedAt
}

func extractingMessage(f upload.File) string {
	switch {
	case f.IsImage():
		return "Extracting text from image..."
	case f.MediaType() == upload.TypePDF:
		return "Extracting text from PDF document..."
	}
	return "Extracting text from document..."
}

func intakeErrorMessage(err error, timedOut bool) string {
	if timedOut {
		return msgTimedOut
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return msgIntakeFallback
}

func isTimeout(err error) bool {
	return errors.Is(err, backend.ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}
