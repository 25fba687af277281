// Package api implements the HTTP client for the To-Done list service.
//
// The client is a thin request/response wrapper: five operations, no
// retries, no caching, no status-code taxonomy. Every failure surfaces as
// one opaque wrapped error; callers log it and leave local state alone.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/todone/todone/internal/todo"
)

// Client talks to one To-Done API endpoint. The base URL is injected at
// construction; no ambient global configuration is consulted.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
	validate   bool
}

// Option tunes client behavior.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Useful for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// WithResponseValidation enables schema checking of list responses before
// they are decoded.
func WithResponseValidation(enabled bool) Option {
	return func(c *Client) {
		c.validate = enabled
	}
}

// New creates a client for the given base URL. A zero timeout means no
// request deadline beyond the caller's context.
func New(baseURL string, timeout time.Duration, logger *log.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.WithPrefix("api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured endpoint. The share flow uses it as the
// page URL handed to the share target.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// List fetches the full collection in server order.
func (c *Client) List(ctx context.Context) ([]todo.Todo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/list/", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build list request: %w", err)
	}

	body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}

	if c.validate {
		if err := todo.ValidateList(body); err != nil {
			return nil, fmt.Errorf("list todos: %w", err)
		}
	}

	var todos []todo.Todo
	if err := json.Unmarshal(body, &todos); err != nil {
		return nil, fmt.Errorf("decode list response: %w", err)
	}
	return todos, nil
}

// Create submits a new todo and returns the server-assigned record.
// Todos carrying a freshly attached local file go through the multipart
// endpoint; everything else is plain JSON.
func (c *Client) Create(ctx context.Context, t todo.Todo) (todo.Todo, error) {
	if t.Document.Local() {
		return c.createWithAttachment(ctx, t)
	}

	payload, err := json.Marshal(t)
	if err != nil {
		return todo.Todo{}, fmt.Errorf("encode todo: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/list", bytes.NewReader(payload))
	if err != nil {
		return todo.Todo{}, fmt.Errorf("build create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return todo.Todo{}, fmt.Errorf("create todo: %w", err)
	}

	var created todo.Todo
	if err := json.Unmarshal(body, &created); err != nil {
		return todo.Todo{}, fmt.Errorf("decode created todo: %w", err)
	}
	return created, nil
}

// createWithAttachment multipart-encodes title, description, timestamp
// and exactly one file part named "file", carrying the attachment's
// filename.
func (c *Client) createWithAttachment(ctx context.Context, t todo.Todo) (todo.Todo, error) {
	f, err := os.Open(t.Document.Path)
	if err != nil {
		return todo.Todo{}, fmt.Errorf("open attachment: %w", err)
	}
	defer f.Close()

	filename := t.Document.Filename
	if filename == "" {
		filename = filepath.Base(t.Document.Path)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := map[string]string{
		"title":       t.Title,
		"description": t.Description,
		"timestamp":   t.Timestamp,
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return todo.Todo{}, fmt.Errorf("write form field %s: %w", name, err)
		}
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return todo.Todo{}, fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return todo.Todo{}, fmt.Errorf("read attachment: %w", err)
	}
	if err := mw.Close(); err != nil {
		return todo.Todo{}, fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/list/file", &buf)
	if err != nil {
		return todo.Todo{}, fmt.Errorf("build create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body, err := c.do(req)
	if err != nil {
		return todo.Todo{}, fmt.Errorf("create todo with attachment: %w", err)
	}

	var created todo.Todo
	if err := json.Unmarshal(body, &created); err != nil {
		return todo.Todo{}, fmt.Errorf("decode created todo: %w", err)
	}
	return created, nil
}

// Delete removes the todo by id. The acknowledgement body is discarded.
func (c *Client) Delete(ctx context.Context, t todo.Todo) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.listURL(t.ID, nil), http.NoBody)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	if _, err := c.do(req); err != nil {
		return fmt.Errorf("delete todo %d: %w", t.ID, err)
	}
	return nil
}

// Download fetches the raw bytes of the todo's attachment.
func (c *Client) Download(ctx context.Context, t todo.Todo) ([]byte, error) {
	reqURL := fmt.Sprintf("%s/list/file/%d", c.baseURL, t.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("download attachment of todo %d: %w", t.ID, err)
	}
	return body, nil
}

// Update submits the todo's write projection. The payload carries Done
// exactly as given: completion is flipped once, at the point of user
// intent, before this call, and never re-derived here.
func (c *Client) Update(ctx context.Context, t todo.Todo, removeFile bool) error {
	payload, err := json.Marshal(t.ToUpdate())
	if err != nil {
		return fmt.Errorf("encode update: %w", err)
	}

	q := url.Values{}
	q.Set("remove_file", strconv.FormatBool(removeFile))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.listURL(t.ID, q), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// The server echoes the updated record; the client discards it and
	// trusts its own optimistic copy.
	if _, err := c.do(req); err != nil {
		return fmt.Errorf("update todo %d: %w", t.ID, err)
	}
	return nil
}

// Ping probes the service root. Used by the doctor command only.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", http.NoBody)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	if _, err := c.do(req); err != nil {
		return fmt.Errorf("ping %s: %w", c.baseURL, err)
	}
	return nil
}

// listURL builds {base}/list/?id={id} plus any extra query parameters.
func (c *Client) listURL(id int64, extra url.Values) string {
	q := url.Values{}
	q.Set("id", strconv.FormatInt(id, 10))
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	return c.baseURL + "/list/?" + q.Encode()
}

// do executes the request and returns the response body. Any non-2xx
// status is an error; the client does not distinguish categories.
func (c *Client) do(req *http.Request) ([]byte, error) {
	c.logger.Debug("request", "method", req.Method, "url", req.URL.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return body, nil
}
