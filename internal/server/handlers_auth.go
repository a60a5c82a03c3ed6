package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/danecando/gdocs-mcp/internal/gauth"
)

// authRequest is the opaque original-request payload held in the pending
// state store between Begin and the provider callback.
type authRequest struct {
	RedirectURI string `json:"redirect_uri,omitempty"`
}

// handleAuthorize begins the handshake: it captures the tool client's
// redirect target, then sends the user agent to the provider consent page.
func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	original, err := json.Marshal(authRequest{
		RedirectURI: r.URL.Query().Get("redirect_uri"),
	})
	if err != nil {
		s.renderFailure(w, err)
		return
	}

	consentURL, err := s.exchange.Begin(r.Context(), original)
	if err != nil {
		s.renderFailure(w, err)
		return
	}

	http.Redirect(w, r, consentURL, http.StatusFound)
}

// handleCallback completes the handshake from the provider's redirect.
// Every failure is terminal for this attempt and is reported with enough
// detail to diagnose; the user restarts at /authorize if needed.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	redirect, err := s.exchange.Complete(r.Context(), r.URL.Query())
	if err != nil {
		s.renderHandshakeFailure(w, err)
		return
	}

	http.Redirect(w, r, redirect, http.StatusFound)
}

// handleAuthorized is the default landing page when the original request
// carried no redirect target of its own.
func (s *Server) handleAuthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<html><body><h1>Authorization complete</h1>"+
		"<p>Grant: <code>%s</code></p>"+
		"<p>You can close this window.</p></body></html>",
		url.QueryEscape(r.URL.Query().Get("grant")))
}

// renderHandshakeFailure maps handshake errors onto responses the end user
// can act on.
func (s *Server) renderHandshakeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gauth.ErrInvalidOrExpiredState):
		s.renderError(w, http.StatusBadRequest, err.Error(),
			"the authorization attempt expired or was already used; start over")
	case errors.Is(err, gauth.ErrProviderDenied):
		s.renderError(w, http.StatusForbidden, err.Error(),
			"consent was denied; start over and approve access")
	case errors.Is(err, gauth.ErrMissingRefreshToken):
		s.renderError(w, http.StatusConflict, err.Error(),
			"revoke this app's access in the provider's account settings, then authorize again")
	default:
		s.logger.Error("handshake failed", slog.String("error", err.Error()))
		s.renderError(w, http.StatusBadGateway, err.Error(), "")
	}
}

// Finalizer is the slice of the grant store the handshake needs.
type Finalizer interface {
	Finalize(ctx context.Context, user gauth.UserIdentity, scope string, pair gauth.CredentialPair) (string, error)
}

// grantFinalizer implements gauth.GrantFinalizer on top of the grant store:
// it persists the sealed credential pair bound to the subject and resolves
// the final redirect for the user agent.
type grantFinalizer struct {
	grants Finalizer
	logger *slog.Logger
}

// NewGrantFinalizer adapts the grant store to gauth.GrantFinalizer.
func NewGrantFinalizer(grants Finalizer, logger *slog.Logger) gauth.GrantFinalizer {
	return &grantFinalizer{grants: grants, logger: logger}
}

func (f *grantFinalizer) FinalizeGrant(
	ctx context.Context, user gauth.UserIdentity, scope string, pair gauth.CredentialPair, original []byte,
) (string, error) {
	grantID, err := f.grants.Finalize(ctx, user, scope, pair)
	if err != nil {
		return "", err
	}

	var req authRequest
	if len(original) > 0 {
		if err := json.Unmarshal(original, &req); err != nil {
			f.logger.Warn("discarding malformed original request payload",
				slog.String("error", err.Error()),
			)
		}
	}

	if req.RedirectURI != "" {
		u, err := url.Parse(req.RedirectURI)
		if err != nil {
			return "", fmt.Errorf("server: original redirect URI invalid: %w", err)
		}

		q := u.Query()
		q.Set("grant", grantID)
		u.RawQuery = q.Encode()

		return u.String(), nil
	}

	return "/authorized?grant=" + url.QueryEscape(grantID), nil
}
