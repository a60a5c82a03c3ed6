// Package server exposes gdocs-mcp over HTTP: the authorization handshake
// surface (begin + provider callback) and bearer-grant-authenticated
// Drive/Sheets operation endpoints built on the authenticated executor.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danecando/gdocs-mcp/internal/gapi"
	"github.com/danecando/gdocs-mcp/internal/gauth"
	"github.com/danecando/gdocs-mcp/internal/grant"
)

// Options wires a Server. All fields are required except APIBases, which
// defaults to the real Google endpoints, and HTTPClient/Logger.
type Options struct {
	Exchange   *gauth.Exchange
	Refresher  *gauth.Refresher
	Grants     *grant.Store
	HTTPClient *http.Client
	APIBases   gapi.BaseURLs
	Logger     *slog.Logger
}

// Server routes HTTP requests to the handshake surface and the operation
// handlers.
type Server struct {
	exchange   *gauth.Exchange
	refresher  *gauth.Refresher
	grants     *grant.Store
	httpClient *http.Client
	apiBases   gapi.BaseURLs
	logger     *slog.Logger
}

// New creates a Server from the given options.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Server{
		exchange:   opts.Exchange,
		refresher:  opts.Refresher,
		grants:     opts.Grants,
		httpClient: httpClient,
		apiBases:   opts.APIBases,
		logger:     logger,
	}
}

// Handler returns the fully-routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /authorize", s.handleAuthorize)
	mux.HandleFunc("GET /oauth/callback", s.handleCallback)
	mux.HandleFunc("GET /authorized", s.handleAuthorized)

	mux.HandleFunc("GET /v1/files", s.handleListFiles)
	mux.HandleFunc("POST /v1/files", s.handleCreateFile)
	mux.HandleFunc("GET /v1/files/{id}", s.handleGetFile)
	mux.HandleFunc("GET /v1/files/{id}/content", s.handleDownloadFile)
	mux.HandleFunc("PATCH /v1/files/{id}", s.handleUpdateFile)
	mux.HandleFunc("DELETE /v1/files/{id}", s.handleDeleteFile)

	mux.HandleFunc("GET /v1/spreadsheets/{id}", s.handleGetSpreadsheet)
	mux.HandleFunc("GET /v1/spreadsheets/{id}/values/{range}", s.handleGetValues)
	mux.HandleFunc("PUT /v1/spreadsheets/{id}/values/{range}", s.handleUpdateValues)
	mux.HandleFunc("POST /v1/spreadsheets/{id}/values/{range}/append", s.handleAppendValues)

	mux.HandleFunc("DELETE /v1/grant", s.handleRevokeGrant)

	return mux
}

// session authenticates the request's bearer grant and returns an API
// client bound to that session's credentials. Writes the error response
// itself when authentication fails.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*gapi.Client, string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		s.renderError(w, http.StatusUnauthorized, "missing bearer grant", "")
		return nil, "", false
	}

	grantID := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

	pair, err := s.grants.Credentials(r.Context(), grantID)
	if errors.Is(err, grant.ErrNotFound) {
		s.renderError(w, http.StatusUnauthorized, "unknown grant", "")
		return nil, "", false
	}

	if err != nil {
		s.renderFailure(w, err)
		return nil, "", false
	}

	creds := &sessionCredentials{
		grantID:   grantID,
		pair:      pair,
		refresher: s.refresher,
		grants:    s.grants,
	}

	return gapi.NewClient(creds, s.httpClient, s.logger, s.apiBases), grantID, true
}

// errorResponse is the JSON error envelope rendered to clients.
type errorResponse struct {
	Error struct {
		Message  string `json:"message"`
		Guidance string `json:"guidance,omitempty"`
	} `json:"error"`
}

func (s *Server) renderError(w http.ResponseWriter, status int, message, guidance string) {
	var body errorResponse
	body.Error.Message = message
	body.Error.Guidance = guidance

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("writing error response", slog.String("error", err.Error()))
	}
}

// renderFailure maps the error taxonomy to an HTTP response. Remote-API
// rejections keep their status; credential failures tell the caller
// whether re-authorization is needed or a later retry is enough.
func (s *Server) renderFailure(w http.ResponseWriter, err error) {
	var apiErr *gapi.APIError
	if errors.As(err, &apiErr) {
		s.renderError(w, apiErr.StatusCode, apiErr.Message, apiErr.Guidance())
		return
	}

	switch {
	case errors.Is(err, gauth.ErrNoRefreshToken), errors.Is(err, gauth.ErrCredentialRevoked):
		s.renderError(w, http.StatusUnauthorized, err.Error(),
			"the delegated credentials are no longer usable; the user must re-authorize")
	case errors.Is(err, gauth.ErrRefreshFailed):
		s.renderError(w, http.StatusBadGateway, err.Error(),
			"the identity provider failed transiently; retry the operation later")
	case errors.Is(err, grant.ErrNotFound):
		s.renderError(w, http.StatusUnauthorized, "unknown grant", "")
	default:
		s.logger.Error("internal error", slog.String("error", err.Error()))
		s.renderError(w, http.StatusInternalServerError, "internal error", "")
	}
}

// renderJSON writes v as a JSON response.
func (s *Server) renderJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("writing response", slog.String("error", err.Error()))
	}
}

// decodeBody decodes a JSON request body into v.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.renderError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), "")
		return false
	}

	return true
}
