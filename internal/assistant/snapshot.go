package assistant

import (
	"github.com/medilink-health/medilink-web/internal/report"
	"github.com/medilink-health/medilink-web/internal/upload"
)

// StagedFile describes the staged upload without its payload.
type StagedFile struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Snapshot is a read-only, JSON-safe copy of the view state.
type Snapshot struct {
	ID         string           `json:"view_id"`
	DocType    upload.DocType   `json:"document_type"`
	StagedFile *StagedFile      `json:"staged_file,omitempty"`
	Rejection  string           `json:"rejection,omitempty"`
	Status     Status           `json:"status"`
	Session    *Session         `json:"session,omitempty"`
	Source     Source           `json:"report_source,omitempty"`
	Report     report.Report    `json:"report,omitempty"`
	Expanded   []report.Section `json:"expanded"`
	Transcript []Turn           `json:"transcript"`

	CanSubmit      bool   `json:"can_submit"`
	CanAsk         bool   `json:"can_ask"`
	CanExport      bool   `json:"can_export"`
	IntakeInFlight bool   `json:"intake_in_flight"`
	ChatInFlight   bool   `json:"chat_in_flight"`
	ExportError    string `json:"export_error,omitempty"`

	// Document is the rendered report under the current expansion.
	Document report.Document `json:"-"`
}

// Snapshot returns a copy of the view state. Report data is shared and must
// be treated as read-only.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	snap := Snapshot{
		ID:             v.ID,
		DocType:        v.docType,
		Rejection:      v.rejection,
		Status:         v.status,
		Source:         v.source,
		Report:         v.report,
		Expanded:       v.expansion.Keys(),
		Transcript:     append([]Turn{}, v.transcript...),
		CanSubmit:      v.staged != nil && !v.intakeInFlight,
		CanAsk:         v.canAskLocked(),
		CanExport:      v.canExport && v.report != nil,
		IntakeInFlight: v.intakeInFlight,
		ChatInFlight:   v.chatInFlight,
		ExportError:    v.exportErr,
	}
	if v.staged != nil {
		snap.StagedFile = &StagedFile{Name: v.staged.Name, ContentType: v.staged.MediaType(), Size: v.staged.Size}
	}
	if v.session != nil {
		s := *v.session
		snap.Session = &s
	}
	if v.report != nil {
		snap.Document = report.Render(v.report, v.expansion)
	}
	return snap
}
