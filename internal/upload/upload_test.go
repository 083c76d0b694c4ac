package upload

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		file   File
		reason RejectReason
	}{
		{"small pdf", File{ContentType: "application/pdf", Size: 2 << 20}, ""},
		{"exactly max", File{ContentType: "image/png", Size: MaxFileBytes}, ""},
		{"one byte over", File{ContentType: "image/png", Size: MaxFileBytes + 1}, ReasonTooLarge},
		{"oversized wrong type", File{ContentType: "text/plain", Size: 11 << 20}, ReasonTooLarge},
		{"text plain", File{ContentType: "text/plain", Size: 1024}, ReasonInvalidType},
		{"empty type", File{ContentType: "", Size: 1024}, ReasonInvalidType},
		{"image jpg alias", File{ContentType: "image/jpg", Size: 10}, ""},
		{"docx", File{ContentType: TypeDOCX, Size: 10}, ""},
		{"uppercase with params", File{ContentType: "Application/PDF; charset=binary", Size: 10}, ""},
		{"gif", File{ContentType: "image/gif", Size: 10}, ReasonInvalidType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.file)
			if tt.reason == "" {
				if err != nil {
					t.Fatalf("expected acceptance, got %v", err)
				}
				return
			}
			var rej *Rejection
			if !errors.As(err, &rej) {
				t.Fatalf("expected *Rejection, got %v", err)
			}
			if rej.Reason != tt.reason {
				t.Errorf("expected reason %q, got %q", tt.reason, rej.Reason)
			}
		})
	}
}

func TestValidate_Messages(t *testing.T) {
	err := Validate(File{ContentType: "image/png", Size: MaxFileBytes + 1})
	if err.Error() != "File is too large. Please upload a file smaller than 10MB." {
		t.Errorf("unexpected too-large message %q", err.Error())
	}
	err = Validate(File{ContentType: "text/plain", Size: 1})
	if err.Error() != "Invalid file type. Please upload an image (JPG, PNG, BMP, TIFF, WebP), PDF, or DOCX file." {
		t.Errorf("unexpected invalid-type message %q", err.Error())
	}
}

func TestParseDocType(t *testing.T) {
	if dt, err := ParseDocType("lab_report"); err != nil || dt != LabReport {
		t.Errorf("expected lab_report, got %q (%v)", dt, err)
	}
	if dt, err := ParseDocType(" prescription "); err != nil || dt != Prescription {
		t.Errorf("expected prescription, got %q (%v)", dt, err)
	}
	if _, err := ParseDocType("xray"); err == nil {
		t.Error("expected error for unknown doc type")
	}
}

func TestContentTypeForFilename(t *testing.T) {
	tests := map[string]string{
		"scan.JPG":    "image/jpeg",
		"report.pdf":  TypePDF,
		"rx.docx":     TypeDOCX,
		"page.tif":    "image/tiff",
		"notes.txt":   "application/octet-stream",
		"no_extension": "application/octet-stream",
	}
	for name, want := range tests {
		if got := ContentTypeForFilename(name); got != want {
			t.Errorf("%s: expected %q, got %q", name, want, got)
		}
	}
}

func TestFile_IsImage(t *testing.T) {
	if !(File{ContentType: "image/webp"}).IsImage() {
		t.Error("expected webp to be an image")
	}
	if (File{ContentType: TypePDF}).IsImage() {
		t.Error("expected pdf not to be an image")
	}
}

func TestAccept_MatchesAllowedTypes(t *testing.T) {
	seen := make(map[string]bool)
	for _, entry := range strings.Split(Accept, ",") {
		if strings.HasPrefix(entry, ".") {
			ct := ContentTypeForFilename("file" + entry)
			if !AllowedTypes[ct] {
				t.Errorf("extension %s maps to disallowed type %q", entry, ct)
			}
			seen[ct] = true
			continue
		}
		if !AllowedTypes[entry] {
			t.Errorf("accept lists disallowed type %q", entry)
		}
		seen[entry] = true
	}
	for ct := range AllowedTypes {
		if ct == "image/jpg" {
			continue
		}
		if !seen[ct] {
			t.Errorf("allowed type %q missing from the file picker filter", ct)
		}
	}
}
