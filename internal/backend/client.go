package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/medilink-health/medilink-web/internal/upload"
)

// Endpoint names used for latency statistics.
const (
	EndpointExtract = "extract_text"
	EndpointChat    = "chat"
	EndpointDrugs   = "drugs"
)

// ErrTimeout is returned when a request exceeds the client's deadline.
var ErrTimeout = errors.New("request timed out")

// ErrDrugNotFound is returned by GetDrug for an unknown id.
var ErrDrugNotFound = errors.New("drug not found")

// APIError is a non-2xx response from the backend. Detail carries the
// server's "detail" message when it sent one.
type APIError struct {
	Endpoint   string
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s: status %d", e.Endpoint, e.StatusCode)
}

// Client communicates with the MediLink backend HTTP API.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client

	Stats *Stats
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		// Deadlines come from per-call contexts; the transport timeout is a backstop.
		httpClient: &http.Client{
			Timeout: timeout + 5*time.Second,
		},
		Stats: NewStats(time.Hour),
	}
}

// Timeout is the per-request deadline applied by every call.
func (c *Client) Timeout() time.Duration { return c.timeout }

// ExtractResult is the response of POST /extract_text/.
type ExtractResult struct {
	SessionID       string          `json:"session_id"`
	DocumentType    string          `json:"document_type"`
	ExtractedText   string          `json:"extracted_text"`
	InitialAnalysis string          `json:"initial_analysis"`
	StructuredData  json.RawMessage `json:"structured_data,omitempty"`
}

// ExtractText uploads a document for text extraction and analysis.
func (c *Client) ExtractText(ctx context.Context, f upload.File, docType upload.DocType) (*ExtractResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, partFilename(f.Name)))
	hdr.Set("Content-Type", f.MediaType())
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return nil, fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(f.Data); err != nil {
		return nil, fmt.Errorf("write file part: %w", err)
	}
	if err := mw.WriteField("document_type", string(docType)); err != nil {
		return nil, fmt.Errorf("write document_type: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	var result ExtractResult
	err = c.do(ctx, EndpointExtract, http.MethodPost, c.baseURL+"/extract_text/", mw.FormDataContentType(), &body, &result)
	if err != nil {
		return nil, err
	}
	if result.SessionID == "" {
		return nil, fmt.Errorf("%s: response carried no session_id", EndpointExtract)
	}
	return &result, nil
}

// Chat sends one user message within an intake session and returns the reply.
func (c *Client) Chat(ctx context.Context, sessionID, message string) (string, error) {
	payload, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return "", fmt.Errorf("marshal chat message: %w", err)
	}
	var result struct {
		Response string `json:"response"`
	}
	u := c.baseURL + "/chat/" + url.PathEscape(sessionID)
	if err := c.do(ctx, EndpointChat, http.MethodPost, u, "application/json", bytes.NewReader(payload), &result); err != nil {
		return "", err
	}
	return result.Response, nil
}

// Drug is a drug database record.
type Drug struct {
	ID         string `json:"_id"`
	Link       string `json:"link,omitempty"`
	Title      string `json:"title"`
	Price      string `json:"price,omitempty"`
	Meta       string `json:"meta,omitempty"`
	Desc       string `json:"desc,omitempty"`
	Detail     string `json:"detail,omitempty"`
	SideEffect string `json:"sideEffect,omitempty"`
}

// DrugQuery selects a page of drugs whose title matches Search.
// Page is zero-based.
type DrugQuery struct {
	Search string
	Limit  int
	Page   int
}

type DrugPage struct {
	Drugs      []Drug `json:"drugs"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"totalPages"`
}

// SearchDrugs queries the drug database.
func (c *Client) SearchDrugs(ctx context.Context, q DrugQuery) (*DrugPage, error) {
	v := url.Values{}
	v.Set("search", q.Search)
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}

	var page DrugPage
	if err := c.getDrugs(ctx, v, &page); err != nil {
		return nil, err
	}
	if page.Drugs == nil {
		page.Drugs = []Drug{}
	}
	return &page, nil
}

// GetDrug fetches a single drug by id.
func (c *Client) GetDrug(ctx context.Context, id string) (*Drug, error) {
	v := url.Values{}
	v.Set("id", id)

	var result struct {
		Drug *Drug `json:"drug"`
	}
	if err := c.getDrugs(ctx, v, &result); err != nil {
		return nil, err
	}
	if result.Drug == nil {
		return nil, ErrDrugNotFound
	}
	return result.Drug, nil
}

func (c *Client) getDrugs(ctx context.Context, v url.Values, out any) error {
	var raw json.RawMessage
	if err := c.do(ctx, EndpointDrugs, http.MethodGet, c.baseURL+"/drugs?"+v.Encode(), "", nil, &raw); err != nil {
		return err
	}
	// Failures are reported as a 200 carrying [{"error": "..."}, status].
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		return decodeTupleError(trimmed)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", EndpointDrugs, err)
	}
	return nil
}

func decodeTupleError(raw []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(raw, &tuple); err != nil || len(tuple) == 0 {
		return fmt.Errorf("decode %s response: unexpected array", EndpointDrugs)
	}
	apiErr := &APIError{Endpoint: EndpointDrugs, StatusCode: http.StatusInternalServerError}
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(tuple[0], &body) == nil {
		apiErr.Detail = body.Error
	}
	if len(tuple) > 1 {
		var code int
		if json.Unmarshal(tuple[1], &code) == nil && code >= 400 {
			apiErr.StatusCode = code
		}
	}
	return apiErr
}

func (c *Client) do(ctx context.Context, endpoint, method, u, contentType string, body io.Reader, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	c.Stats.Record(endpoint, time.Since(start).Milliseconds())
	if err != nil {
		if isTimeout(ctx, err) {
			return fmt.Errorf("%s: %w", endpoint, ErrTimeout)
		}
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Detail: errorDetail(respBody)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if isTimeout(ctx, err) {
			return fmt.Errorf("%s: %w", endpoint, ErrTimeout)
		}
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// errorDetail extracts {"detail": "..."} from an error body. Non-string
// details (validation error lists) fall back to the raw body.
func errorDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 {
		var s string
		if json.Unmarshal(payload.Detail, &s) == nil {
			return s
		}
	}
	return strings.TrimSpace(string(body))
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func partFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "document"
	}
	return name
}

func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
