package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/medilink-health/medilink-web/internal/upload"
)

func TestExtractText_Multipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/extract_text/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		if got := r.FormValue("document_type"); got != "lab_report" {
			t.Errorf("expected document_type lab_report, got %q", got)
		}
		f, fh, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if string(data) != "%PDF-1.4" {
			t.Errorf("unexpected file body %q", data)
		}
		if fh.Filename != "cbc.pdf" {
			t.Errorf("expected filename cbc.pdf, got %q", fh.Filename)
		}
		if ct := fh.Header.Get("Content-Type"); ct != "application/pdf" {
			t.Errorf("expected part content type application/pdf, got %q", ct)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"session_id":"s-1","document_type":"lab_report","extracted_text":"raw","initial_analysis":"ok","structured_data":{"summary":"x"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	res, err := c.ExtractText(context.Background(), upload.File{Name: "cbc.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")}, upload.LabReport)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.SessionID != "s-1" || res.DocumentType != "lab_report" {
		t.Errorf("unexpected result %+v", res)
	}
	if string(res.StructuredData) != `{"summary":"x"}` {
		t.Errorf("expected raw structured data preserved, got %s", res.StructuredData)
	}
	if c.Stats.Snapshot()[EndpointExtract].Count != 1 {
		t.Error("expected extract latency recorded")
	}
}

func TestExtractText_ErrorDetail(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		detail string
	}{
		{"fastapi detail", http.StatusBadRequest, `{"detail":"Could not extract sufficient text from the file."}`, "Could not extract sufficient text from the file."},
		{"validation list", http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"}]}`, `{"detail":[{"msg":"field required"}]}`},
		{"plain text", http.StatusBadGateway, "upstream down", "upstream down"},
		{"empty", http.StatusInternalServerError, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, time.Second)
			_, err := c.ExtractText(context.Background(), upload.File{Name: "a.png", ContentType: "image/png"}, upload.Prescription)
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %v", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, apiErr.StatusCode)
			}
			if apiErr.Detail != tt.detail {
				t.Errorf("expected detail %q, got %q", tt.detail, apiErr.Detail)
			}
		})
	}
}

func TestExtractText_MissingSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"initial_analysis":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	if _, err := c.ExtractText(context.Background(), upload.File{ContentType: "image/png"}, upload.LabReport); err == nil {
		t.Fatal("expected error for response without session_id")
	}
}

func TestChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/chat/abc%2F1" {
			t.Errorf("expected escaped session path, got %q", r.URL.EscapedPath())
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
			return
		}
		if body["message"] != "Is my glucose high?" {
			t.Errorf("unexpected message %q", body["message"])
		}
		w.Write([]byte(`{"response":"Yes, slightly."}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	reply, err := c.Chat(context.Background(), "abc/1", "Is my glucose high?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "Yes, slightly." {
		t.Errorf("expected reply, got %q", reply)
	}
}

func TestChat_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, 50*time.Millisecond)
	_, err := c.Chat(context.Background(), "s", "hi")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestChat_CancelledIsNotTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	c := NewClient(srv.URL, 5*time.Second)
	_, err := c.Chat(ctx, "s", "hi")
	if errors.Is(err, ErrTimeout) {
		t.Fatal("cancellation must not be reported as a timeout")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSearchDrugs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("search") != "para" || q.Get("limit") != "20" || q.Get("page") != "2" {
			t.Errorf("unexpected query %v", q)
		}
		w.Write([]byte(`{"drugs":[{"_id":"d1","title":"Paracetamol 500mg","price":"₹20","sideEffect":"Nausea, rash"}],"total":41,"page":2,"limit":20,"totalPages":3}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	page, err := c.SearchDrugs(context.Background(), DrugQuery{Search: "para", Limit: 20, Page: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := &DrugPage{
		Drugs:      []Drug{{ID: "d1", Title: "Paracetamol 500mg", Price: "₹20", SideEffect: "Nausea, rash"}},
		Total:      41,
		Page:       2,
		Limit:      20,
		TotalPages: 3,
	}
	if diff := cmp.Diff(want, page); diff != "" {
		t.Errorf("page mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchDrugs_TupleError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"error":"Failed to fetch drugs: db down"}, 500]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.SearchDrugs(context.Background(), DrugQuery{Search: "x"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != 500 || apiErr.Detail != "Failed to fetch drugs: db down" {
		t.Errorf("unexpected api error %+v", apiErr)
	}
}

func TestGetDrug(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") == "known" {
			w.Write([]byte(`{"drug":{"_id":"known","title":"Ibuprofen"}}`))
			return
		}
		w.Write([]byte(`{"drug":null}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	d, err := c.GetDrug(context.Background(), "known")
	if err != nil || d.Title != "Ibuprofen" {
		t.Fatalf("expected Ibuprofen, got %+v (%v)", d, err)
	}
	if _, err := c.GetDrug(context.Background(), "missing"); !errors.Is(err, ErrDrugNotFound) {
		t.Fatalf("expected ErrDrugNotFound, got %v", err)
	}
}
