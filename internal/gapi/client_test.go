package gapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCreds is a CredentialSource whose token changes on forced refresh.
type fakeCreds struct {
	token     string
	refreshes atomic.Int32
}

func (f *fakeCreds) Access(_ context.Context, force bool) (string, error) {
	if force {
		f.refreshes.Add(1)
		f.token = "AT2"
	}

	return f.token, nil
}

// failingCreds is a CredentialSource that always fails.
type failingCreds struct{}

func (failingCreds) Access(_ context.Context, _ bool) (string, error) {
	return "", errors.New("credential source failed")
}

func newTestClient(t *testing.T, creds CredentialSource, baseURL string) *Client {
	t.Helper()

	return NewClient(creds, http.DefaultClient, slog.Default(), BaseURLs{
		Drive:  baseURL,
		Upload: baseURL,
		Sheets: baseURL,
	})
}

func TestDo_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer AT1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"value":"ok"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, &fakeCreds{token: "AT1"}, srv.URL)

	resp, err := client.Do(context.Background(), http.MethodGet, srv.URL+"/me", nil, nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"value":"ok"}`, string(body))
}

func TestDo_401ThenSuccessRefreshesOnce(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			assert.Equal(t, "Bearer AT1", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"Invalid Credentials"}}`))

			return
		}

		assert.Equal(t, "Bearer AT2", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"value":"ok"}`))
	}))
	defer srv.Close()

	creds := &fakeCreds{token: "AT1"}
	client := newTestClient(t, creds, srv.URL)

	resp, err := client.Do(context.Background(), http.MethodGet, srv.URL+"/files", nil, nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, int32(1), creds.refreshes.Load())
}

func TestDo_SecondUnauthorizedIsTerminal(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid Credentials"}}`))
	}))
	defer srv.Close()

	creds := &fakeCreds{token: "AT1"}
	client := newTestClient(t, creds, srv.URL)

	_, err := client.Do(context.Background(), http.MethodGet, srv.URL+"/files", nil, nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid Credentials", apiErr.Message)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Exactly two remote calls and one refresh — no further retries.
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, int32(1), creds.refreshes.Load())
}

func TestDo_ForbiddenNeverRefreshes(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"message":"insufficient permissions"}}`))
	}))
	defer srv.Close()

	creds := &fakeCreds{token: "AT1"}
	client := newTestClient(t, creds, srv.URL)

	_, err := client.Do(context.Background(), http.MethodGet, srv.URL+"/files", nil, nil)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(0), creds.refreshes.Load())
}

func TestDo_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"bad request", http.StatusBadRequest, ErrBadRequest},
		{"forbidden", http.StatusForbidden, ErrForbidden},
		{"not found", http.StatusNotFound, ErrNotFound},
		{"server error", http.StatusInternalServerError, ErrServerError},
		{"bad gateway", http.StatusBadGateway, ErrServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope"}}`))
			}))
			defer srv.Close()

			client := newTestClient(t, &fakeCreds{token: "AT1"}, srv.URL)

			_, err := client.Do(context.Background(), http.MethodGet, srv.URL+"/x", nil, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, "nope", apiErr.Message)
		})
	}
}

func TestDo_NonEnvelopeErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "plain text failure", http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(t, &fakeCreds{token: "AT1"}, srv.URL)

	_, err := client.Do(context.Background(), http.MethodGet, srv.URL+"/x", nil, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Message, "plain text failure")
}

func TestDo_CredentialSourceFailure(t *testing.T) {
	client := newTestClient(t, failingCreds{}, "http://invalid.localhost")

	_, err := client.Do(context.Background(), http.MethodGet, "http://invalid.localhost/x", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credential source failed")
}

func TestAPIError_Guidance(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusUnauthorized, "stale"},
		{http.StatusForbidden, "permission"},
		{http.StatusNotFound, "not accessible"},
		{http.StatusBadRequest, "malformed"},
		{http.StatusTeapot, "raw message"},
	}

	for _, tt := range tests {
		e := &APIError{StatusCode: tt.status, Message: "raw message"}
		assert.Contains(t, e.Guidance(), tt.want)
	}
}
