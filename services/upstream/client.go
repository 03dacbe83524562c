// Package upstream is the typed HTTP client for the backend AI service. All
// network traffic to the backend flows through it: chat turns, knowledge-base
// ingestion, booking CRUD and the generic catch-all forwarder.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"salesagent/models"

	"go.uber.org/zap"
)

// Client talks to the upstream backend. Conversational calls use the default
// HTTP client; ingestion calls use a dedicated client with a longer timeout,
// since indexing a large PDF can take well beyond a chat round-trip.
type Client struct {
	baseURL   string
	directURL string
	http      *http.Client
	ingest    *http.Client
	logger    *zap.Logger
}

// NewClient builds a Client. directURL, when non-empty, is used for
// large-upload routes to bypass any intermediate proxy limits; it falls back
// to baseURL.
func NewClient(baseURL, directURL string, chatTimeout, ingestTimeout time.Duration, logger *zap.Logger) *Client {
	base := strings.TrimRight(baseURL, "/")
	direct := strings.TrimRight(directURL, "/")
	if direct == "" {
		direct = base
	}
	return &Client{
		baseURL:   base,
		directURL: direct,
		http:      &http.Client{Timeout: chatTimeout},
		ingest:    &http.Client{Timeout: ingestTimeout},
		logger:    logger,
	}
}

// StatusError is a non-2xx upstream reply. Code and Body are passed through
// to the caller as-is; they represent upstream business errors, not transport
// failures.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.Code, e.Body)
}

var errMalformedResponse = errors.New("malformed upstream response")

// Chat performs one chat turn. The response schema is validated: a reply with
// no answer text is rejected rather than silently coerced.
func (c *Client) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, readStatusError(resp)
	}

	var chatResp models.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	if chatResp.Answer == "" {
		return nil, fmt.Errorf("%w: missing answer", errMalformedResponse)
	}
	return &chatResp, nil
}

type ingestionResponse struct {
	Message       string `json:"message"`
	ChunksCreated *int   `json:"chunks_created"`
}

// IngestPDF uploads a PDF for indexing. The file is rehydrated into a fresh
// multipart body so the field name and filename the upstream sees are
// normalized regardless of what the browser sent. A non-2xx reply is read as
// plain text: malformed uploads can produce non-JSON error bodies.
func (c *Client) IngestPDF(ctx context.Context, filename string, file io.Reader) (int, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return 0, fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return 0, fmt.Errorf("read uploaded file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return 0, fmt.Errorf("finalize multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.directURL+"/api/ingest/pdf", &body)
	if err != nil {
		return 0, err
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.ingest.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("pdf ingest request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, readStatusError(resp)
	}
	return decodeChunks(resp.Body)
}

// IngestURL asks the upstream to scrape and index a web page.
func (c *Client) IngestURL(ctx context.Context, rawURL string) (int, error) {
	q := url.Values{"url": {rawURL}}
	return c.postIngest(ctx, "/api/ingest/url", q)
}

// IngestText indexes pasted text under the given source label.
func (c *Client) IngestText(ctx context.Context, text, source string) (int, error) {
	q := url.Values{"text": {text}, "source": {source}}
	return c.postIngest(ctx, "/api/ingest/text", q)
}

// postIngest issues a body-less POST with percent-encoded query parameters.
func (c *Client) postIngest(ctx context.Context, path string, q url.Values) (int, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.ingest.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("ingest request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, readStatusError(resp)
	}
	return decodeChunks(resp.Body)
}

func decodeChunks(r io.Reader) (int, error) {
	var ir ingestionResponse
	if err := json.NewDecoder(r).Decode(&ir); err != nil {
		return 0, fmt.Errorf("decode ingestion response: %w", err)
	}
	if ir.ChunksCreated == nil {
		return 0, fmt.Errorf("%w: missing chunks_created", errMalformedResponse)
	}
	return *ir.ChunksCreated, nil
}

// ResetVectorStore wipes the upstream knowledge base. Callers are expected to
// have collected an explicit confirmation first.
func (c *Client) ResetVectorStore(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/vectorstore/reset", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("vector store reset failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readStatusError(resp)
	}
	return nil
}

type bookResponse struct {
	Status    string `json:"status"`
	BookingID string `json:"booking_id"`
}

// CreateBooking submits lead fields and returns the backend-issued booking id.
func (c *Client) CreateBooking(ctx context.Context, req models.BookingRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal booking request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/book", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("booking request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", readStatusError(resp)
	}
	var br bookResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return "", fmt.Errorf("decode booking response: %w", err)
	}
	if br.BookingID == "" {
		return "", fmt.Errorf("%w: missing booking_id", errMalformedResponse)
	}
	return br.BookingID, nil
}

// ListBookings returns all bookings held by the upstream.
func (c *Client) ListBookings(ctx context.Context) ([]models.Booking, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/bookings", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("bookings fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, readStatusError(resp)
	}
	var bookings []models.Booking
	if err := json.NewDecoder(resp.Body).Decode(&bookings); err != nil {
		return nil, fmt.Errorf("decode bookings: %w", err)
	}
	return bookings, nil
}

type statusUpdateResponse struct {
	Status  string          `json:"status"`
	Booking *models.Booking `json:"booking"`
}

// UpdateBookingStatus changes one booking's status and returns the updated
// record. The status travels both as a query parameter and in the JSON body,
// matching what the upstream accepts.
func (c *Client) UpdateBookingStatus(ctx context.Context, id, status string) (*models.Booking, error) {
	payload, _ := json.Marshal(map[string]string{"status": status})
	endpoint := fmt.Sprintf("%s/api/bookings/%s/status?status=%s", c.baseURL, url.PathEscape(id), url.QueryEscape(status))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("status update failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, readStatusError(resp)
	}
	var sr statusUpdateResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode status update response: %w", err)
	}
	if sr.Booking == nil {
		return nil, fmt.Errorf("%w: missing booking record", errMalformedResponse)
	}
	return sr.Booking, nil
}

// DeleteBooking removes one booking.
func (c *Client) DeleteBooking(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("%s/api/bookings/%s", c.baseURL, url.PathEscape(id))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("booking delete failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readStatusError(resp)
	}
	return nil
}

// Ping makes a cheap round-trip to the upstream root, for health monitoring.
func (c *Client) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Forward proxies an arbitrary request to the upstream and returns the
// upstream status verbatim along with the parsed JSON payload. Multipart
// bodies pass through with their original content type (the boundary lives
// in the header); everything else is forwarded as JSON. A nil body means no
// body at all, never an empty string that would trip upstream JSON parsing.
// Any network or parse failure is returned as an error; the HTTP layer maps
// it to a fixed 502.
func (c *Client) Forward(ctx context.Context, method, path, rawQuery, contentType string, body io.Reader) (int, any, error) {
	endpoint := c.baseURL + "/api/" + strings.TrimPrefix(path, "/")
	if rawQuery != "" {
		endpoint += "?" + rawQuery
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		if strings.HasPrefix(contentType, "multipart/") {
			httpReq.Header.Set("Content-Type", contentType)
		} else {
			httpReq.Header.Set("Content-Type", "application/json")
		}
	}

	client := c.http
	if strings.HasPrefix(contentType, "multipart/") {
		client = c.ingest
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("forward %s /api/%s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, nil, fmt.Errorf("decode forwarded response: %w", err)
	}
	return resp.StatusCode, payload, nil
}

// readStatusError drains a non-2xx response body as plain text.
func readStatusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
}
