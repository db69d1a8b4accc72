package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"ragchat/internal/models"
)

// KeyFunc supplies the API key attached to outgoing requests. It may return
// "" when no key has been configured.
type KeyFunc func() string

// Client is a typed HTTP client for the document-chat backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	keyFn      KeyFunc
}

// QueryResult carries the fields of a query response the client consumes.
type QueryResult struct {
	Response string          `json:"response"`
	Sources  []models.Source `json:"sources"`
	Visuals  []models.Visual `json:"visuals"`
}

// NewClient constructs a backend client. keyFn may be nil.
func NewClient(baseURL string, timeout time.Duration, keyFn KeyFunc) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		keyFn:      keyFn,
	}
}

// Health probes GET /api/health. Any 2xx response counts as alive.
func (c *Client) Health(ctx context.Context) error {
	return c.getJSON(ctx, "/api/health", nil)
}

// TestAI probes GET /api/test-ai and returns the model's test response.
func (c *Client) TestAI(ctx context.Context) (string, error) {
	var body struct {
		Response string `json:"response"`
	}
	if err := c.getJSON(ctx, "/api/test-ai", &body); err != nil {
		return "", err
	}
	return body.Response, nil
}

// ListDocuments fetches the server's current document list.
func (c *Client) ListDocuments(ctx context.Context) ([]models.Document, error) {
	var body struct {
		Documents []models.Document `json:"documents"`
	}
	if err := c.getJSON(ctx, "/api/documents", &body); err != nil {
		return nil, err
	}
	return body.Documents, nil
}

// UploadDocument posts the file as multipart form field "file". The caller is
// responsible for validating type and size beforehand.
func (c *Client) UploadDocument(ctx context.Context, filename string, content io.Reader) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("copy upload body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/documents/upload", &buf)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.setAPIKey(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload document: %w", err)
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

type queryRequest struct {
	Query      string `json:"query"`
	DocumentID string `json:"document_id,omitempty"`
}

// Query posts the user's question, scoped to documentID when non-empty.
// Missing sources/visuals in the response decode as empty.
func (c *Client) Query(ctx context.Context, query, documentID string) (*QueryResult, error) {
	payload, err := json.Marshal(queryRequest{Query: query, DocumentID: documentID})
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/query", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAPIKey(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query backend: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var result QueryResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}
	return &result, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	c.setAPIKey(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response %s: %w", path, err)
	}
	return nil
}

func (c *Client) setAPIKey(req *http.Request) {
	if c.keyFn == nil {
		return
	}
	if key := c.keyFn(); key != "" {
		req.Header.Set("X-API-Key", key)
	}
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = resp.Status
	}
	return fmt.Errorf("backend returned %d: %s", resp.StatusCode, msg)
}
