// Package cardmarket is the REST client for the CardTrade marketplace API.
// It is the single choke point for outbound requests: it attaches the session
// credential, maps response statuses onto domain errors, and triggers the
// session teardown when the server rejects the credential mid-session.
package cardmarket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/mkravets/binderbot/internal/domain"
)

// TokenSource supplies the current session credential, if any. The session
// store implements this.
type TokenSource interface {
	Token() (string, bool)
}

// Client is the typed REST client for the marketplace API.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	tokens       TokenSource
	onAuthReject func()
}

// NewClient creates a new marketplace API client.
//
// baseURL is the API root, e.g. "https://api.cardtrade.example/v1".
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetTokenSource configures where the client reads the bearer credential.
// Requests made with no token source (or no token) go out unauthenticated.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

// SetAuthRejectHook registers the teardown to run when an authenticated
// request is rejected with 401. The hook itself is responsible for being
// idempotent across a batch of concurrent rejections.
func (c *Client) SetAuthRejectHook(fn func()) {
	c.onAuthReject = fn
}

// doRequest builds, sends, and reads an HTTP request against the API.
// reqBody, when non-nil, is marshalled as JSON.
func (c *Client) doRequest(ctx context.Context, method, path string, reqBody any) ([]byte, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		jsonBody, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.send(req)
}

// doMultipart uploads a file as multipart/form-data under the given form
// field, with optional extra form values.
func (c *Client) doMultipart(ctx context.Context, path, field, filename string, file io.Reader, extra map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy file: %w", err)
	}
	for k, v := range extra {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	return c.send(req)
}

// send attaches the credential, executes the request, and maps the response.
func (c *Client) send(req *http.Request) ([]byte, error) {
	authed := false
	if c.tokens != nil {
		if token, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
			authed = true
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := c.checkStatus(resp.StatusCode, respBody, authed); err != nil {
		return nil, err
	}
	return respBody, nil
}

// apiError is the backend's JSON error envelope.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e apiError) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// checkStatus maps non-2xx HTTP status codes to domain errors. A 401 on an
// authenticated request means the credential is invalid or expired; the
// teardown hook fires exactly here, never in callers. A 401 on an
// unauthenticated request (a failed login) is surfaced to the caller only.
func (c *Client) checkStatus(statusCode int, body []byte, authed bool) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var apiErr apiError
	_ = json.Unmarshal(body, &apiErr)
	msg := apiErr.text()

	switch statusCode {
	case http.StatusUnauthorized:
		if authed && c.onAuthReject != nil {
			c.onAuthReject()
		}
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, msg)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrNotAllowed, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, msg)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", domain.ErrConflict, msg)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", domain.ErrValidation, msg)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, msg)
	default:
		return fmt.Errorf("cardmarket: HTTP %d: %s", statusCode, msg)
	}
}
