package gapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
)

const userAgent = "gdocs-mcp/0.1"

// Default API base URLs. Overridable for tests.
const (
	defaultDriveURL  = "https://www.googleapis.com/drive/v3"
	defaultUploadURL = "https://www.googleapis.com/upload/drive/v3"
	defaultSheetsURL = "https://sheets.googleapis.com/v4"
)

// CredentialSource supplies bearer tokens for remote API calls. Defined at
// the consumer per Go convention "accept interfaces, return structs".
//
// force=true demands a refresh exchange regardless of local expiry — the
// executor uses it after a 401, which means the token was rejected even
// though it looked fresh. Implementations must make any replaced credential
// pair durable before returning, so the rotation is visible to subsequent
// calls on the same session.
type CredentialSource interface {
	Access(ctx context.Context, force bool) (string, error)
}

// Client executes single-shot authenticated requests against the Drive and
// Sheets APIs. It performs no backoff and no retry on network failures;
// the only internal retry is one forced-refresh reissue after a 401.
type Client struct {
	driveURL   string
	uploadURL  string
	sheetsURL  string
	httpClient *http.Client
	creds      CredentialSource
	logger     *slog.Logger
}

// BaseURLs overrides the remote API endpoints, primarily for tests.
// Empty fields keep the Google defaults.
type BaseURLs struct {
	Drive  string
	Upload string
	Sheets string
}

// NewClient creates an API client bound to one session's credentials.
func NewClient(creds CredentialSource, httpClient *http.Client, logger *slog.Logger, bases BaseURLs) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		driveURL:   defaultDriveURL,
		uploadURL:  defaultUploadURL,
		sheetsURL:  defaultSheetsURL,
		httpClient: httpClient,
		creds:      creds,
		logger:     logger,
	}

	if bases.Drive != "" {
		c.driveURL = bases.Drive
	}

	if bases.Upload != "" {
		c.uploadURL = bases.Upload
	}

	if bases.Sheets != "" {
		c.sheetsURL = bases.Sheets
	}

	return c
}

// Do executes one logical API call: attach a current bearer token, issue
// the request, and on exactly one 401 force a refresh and reissue. Any
// remaining non-2xx — including a second 401 — surfaces as an *APIError.
//
// 401 is the API's signal for an invalid or expired token. 403 is a
// permission failure and must not trigger a refresh.
//
// The caller is responsible for closing the response body on success.
func (c *Client) Do(ctx context.Context, method, rawURL string, query url.Values, body *Body) (*http.Response, error) {
	token, err := c.creds.Access(ctx, false)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, method, rawURL, query, body, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck // draining before close
		resp.Body.Close()

		c.logger.Info("access token rejected, forcing refresh",
			slog.String("method", method),
			slog.String("url", rawURL),
		)

		token, err = c.creds.Access(ctx, true)
		if err != nil {
			return nil, err
		}

		resp, err = c.send(ctx, method, rawURL, query, body, token)
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		c.logger.Debug("request succeeded",
			slog.String("method", method),
			slog.String("url", rawURL),
			slog.Int("status", resp.StatusCode),
		)

		return resp, nil
	}

	apiErr := decodeAPIError(resp)
	resp.Body.Close()

	c.logger.Warn("request failed",
		slog.String("method", method),
		slog.String("url", rawURL),
		slog.Int("status", apiErr.StatusCode),
		slog.String("message", apiErr.Message),
	)

	return nil, apiErr
}

// send issues a single HTTP request with the given bearer token (no retry).
func (c *Client) send(
	ctx context.Context, method, rawURL string, query url.Values, body *Body, token string,
) (*http.Response, error) {
	if len(query) > 0 {
		rawURL = rawURL + "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body.payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("gapi: building request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", userAgent)

	if body != nil {
		req.Header.Set("Content-Type", body.contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gapi: %s %s: %w", method, rawURL, err)
	}

	return resp, nil
}

// errorEnvelope is the API's JSON error body: {error:{message}}.
type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// decodeAPIError reads a non-2xx response into an *APIError. Falls back to
// the raw body when it is not the standard envelope.
func decodeAPIError(resp *http.Response) *APIError {
	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		body = []byte("(failed to read response body)")
	}

	message := string(body)

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		message = env.Error.Message
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Err:        classifyStatus(resp.StatusCode),
	}
}

// decodeJSON decodes a successful response body into v and closes it.
func decodeJSON(resp *http.Response, v any) error {
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("gapi: decoding response: %w", err)
	}

	return nil
}
