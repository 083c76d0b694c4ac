// Package upload validates user-selected medical documents before they are
// sent for extraction.
package upload

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// MaxFileBytes is the largest accepted upload. A file of exactly this size
// is accepted.
const MaxFileBytes = 10 * 1024 * 1024

const (
	msgTooLarge    = "File is too large. Please upload a file smaller than 10MB."
	msgInvalidType = "Invalid file type. Please upload an image (JPG, PNG, BMP, TIFF, WebP), PDF, or DOCX file."
)

const (
	TypePDF  = "application/pdf"
	TypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// AllowedTypes lists the media types accepted for intake.
var AllowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/bmp":  true,
	"image/tiff": true,
	"image/webp": true,
	TypePDF:      true,
	TypeDOCX:     true,
}

// Accept is the file picker filter for the allowed types: extensions first,
// then media types.
const Accept = ".jpg,.jpeg,.png,.bmp,.tiff,.webp,.pdf,.docx," +
	"image/jpeg,image/png,image/bmp,image/tiff,image/webp," + TypePDF + "," + TypeDOCX

// DocType is the user's declaration of what the document is.
type DocType string

const (
	LabReport    DocType = "lab_report"
	Prescription DocType = "prescription"
)

// ParseDocType accepts the two declared document types.
func ParseDocType(s string) (DocType, error) {
	switch DocType(strings.TrimSpace(s)) {
	case LabReport:
		return LabReport, nil
	case Prescription:
		return Prescription, nil
	}
	return "", fmt.Errorf("unknown document type %q (want lab_report or prescription)", s)
}

// File is a user-selected document held in memory.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

// RejectReason classifies a validation failure.
type RejectReason string

const (
	ReasonTooLarge    RejectReason = "too_large"
	ReasonInvalidType RejectReason = "invalid_type"
)

// Rejection is returned by Validate. Message is shown to the user verbatim.
type Rejection struct {
	Reason  RejectReason
	Message string
}

func (r *Rejection) Error() string { return r.Message }

// MediaType returns the file's content type without parameters, lowercased.
func (f File) MediaType() string {
	return normalizeMediaType(f.ContentType)
}

// IsImage reports whether the file is one of the accepted image types.
func (f File) IsImage() bool {
	return strings.HasPrefix(f.MediaType(), "image/")
}

// Validate checks size before type; neither check touches the network.
func Validate(f File) error {
	if f.Size > MaxFileBytes {
		return &Rejection{Reason: ReasonTooLarge, Message: msgTooLarge}
	}
	if !AllowedTypes[f.MediaType()] {
		return &Rejection{Reason: ReasonInvalidType, Message: msgInvalidType}
	}
	return nil
}

func normalizeMediaType(ct string) string {
	ct = strings.TrimSpace(ct)
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		if i := strings.IndexByte(ct, ';'); i >= 0 {
			ct = ct[:i]
		}
		return strings.ToLower(strings.TrimSpace(ct))
	}
	return mt
}

var extensionTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".webp": "image/webp",
	".pdf":  TypePDF,
	".docx": TypeDOCX,
}

// ContentTypeForFilename guesses an accepted media type from the extension.
// Unknown extensions return application/octet-stream, which Validate rejects.
func ContentTypeForFilename(name string) string {
	if ct, ok := extensionTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}
