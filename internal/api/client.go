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
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classboard/classboard-cli/internal/models"
)

const (
	RefreshPath = "/auth/refresh"

	requestIDHeader = "X-Request-ID"
)

// Client speaks the backend's envelope protocol: every response carries
// {code, message, data, timestamp} and code 0 means success. Transport and
// business failures are both normalized into *util.APIError (see errors.go).
type Client struct {
	baseURL    string
	httpClient *http.Client
	fileClient *http.Client
	log        *zap.SugaredLogger
}

// NewClient wraps httpClient for ordinary API calls and fileClient for
// uploads/downloads, which carry a longer timeout. Both may share a cookie
// jar so the http-only refresh cookie follows every call.
func NewClient(baseURL string, httpClient, fileClient *http.Client, log *zap.SugaredLogger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		fileClient: fileClient,
		log:        log,
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, in, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, nil, in, out)
}

func (c *Client) Put(ctx context.Context, path string, in, out interface{}) error {
	return c.do(ctx, http.MethodPut, path, nil, in, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.requestURL(path, query), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(requestIDHeader, uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debugw("Request failed", "method", method, "path", path, "error", err)
		return normalizeTransportError(err)
	}
	defer resp.Body.Close()

	c.log.Debugw("Request", "method", method, "path", path, "status", resp.StatusCode)

	return decodeEnvelope(resp, out)
}

// Upload sends a single file as multipart/form-data through the file client.
func (c *Client) Upload(ctx context.Context, path, fieldName, fileName string, content io.Reader, out interface{}) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile(fieldName, fileName)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("copy file content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.requestURL(path, nil), &buf)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(requestIDHeader, uuid.NewString())

	resp, err := c.fileClient.Do(req)
	if err != nil {
		return normalizeTransportError(err)
	}
	defer resp.Body.Close()

	return decodeEnvelope(resp, out)
}

// Download streams a raw (non-envelope) response body into w.
func (c *Client) Download(ctx context.Context, path string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(path, nil), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set(requestIDHeader, uuid.NewString())

	resp, err := c.fileClient.Do(req)
	if err != nil {
		return normalizeTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return normalizeHTTPError(resp)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("copy response body: %w", err)
	}
	return nil
}

func (c *Client) requestURL(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// decodeEnvelope unwraps the response envelope into out, translating
// business and HTTP failures into *util.APIError.
func decodeEnvelope(resp *http.Response, out interface{}) error {
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return normalizeHTTPError(resp)
	}

	var env models.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response envelope: %w", err)
	}

	if err := normalizeBusinessError(&env); err != nil {
		return err
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}
