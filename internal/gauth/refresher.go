package gauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"golang.org/x/sync/singleflight"
)

// expirySafetyMargin is subtracted from the provider's expires_in when
// computing the new expiry. Covers clock skew and the latency of requests
// already in flight when the token crosses the line.
const expirySafetyMargin = 60 * time.Second

// Refresher produces a currently valid access token for a credential pair,
// performing a refresh_token grant exchange when the token is expired or
// has been rejected by the remote API. It is the only component that may
// replace a CredentialPair, and it replaces the whole pair at once.
type Refresher struct {
	identity   ClientIdentity
	tokenURL   string
	httpClient *http.Client
	logger     *slog.Logger

	// group serializes refreshes per session key: concurrent callers for
	// the same session share a single upstream exchange, so a refresh
	// token rotated by one call can never be invalidated by a concurrent
	// exchange still holding the stale one.
	group singleflight.Group

	nowFunc func() time.Time // injectable for deterministic tests
}

// NewRefresher creates a Refresher for the given client identity.
// tokenURL overrides the provider token endpoint; empty means Google's.
func NewRefresher(identity ClientIdentity, tokenURL string, httpClient *http.Client, logger *slog.Logger) *Refresher {
	if tokenURL == "" {
		tokenURL = google.Endpoint.TokenURL
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Refresher{
		identity:   identity,
		tokenURL:   tokenURL,
		httpClient: httpClient,
		logger:     logger,
		nowFunc:    time.Now,
	}
}

// tokenResponse is the provider token-endpoint JSON shape. refresh_token is
// optional on refresh responses — providers rotate it inconsistently, and
// omission means "keep using the old one".
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// tokenErrorResponse is the provider's 4xx error body for token exchanges.
type tokenErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ValidAccessToken returns an access token usable right now, together with
// the (possibly replaced) credential pair and whether a refresh happened.
// When refreshed is true the caller owns persisting the returned pair as
// the session's new canonical credentials.
//
// sessionKey scopes refresh serialization; callers for the same session
// must pass the same key.
func (r *Refresher) ValidAccessToken(
	ctx context.Context, sessionKey string, pair CredentialPair, force bool,
) (string, CredentialPair, bool, error) {
	if !force && pair.Fresh(r.nowFunc()) {
		return pair.AccessToken, pair, false, nil
	}

	if pair.RefreshToken == "" {
		return "", pair, false, ErrNoRefreshToken
	}

	v, err, shared := r.group.Do(sessionKey, func() (any, error) {
		return r.refresh(ctx, pair)
	})
	if err != nil {
		return "", pair, false, err
	}

	newPair := v.(CredentialPair)

	if shared {
		r.logger.Debug("refresh result shared with concurrent caller",
			slog.String("session", sessionKey),
		)
	}

	return newPair.AccessToken, newPair, true, nil
}

// refresh performs one refresh_token grant exchange and builds the
// replacement pair.
func (r *Refresher) refresh(ctx context.Context, pair CredentialPair) (CredentialPair, error) {
	form := url.Values{}
	form.Set("client_id", r.identity.ClientID)
	form.Set("client_secret", r.identity.ClientSecret)
	form.Set("refresh_token", pair.RefreshToken)
	form.Set("grant_type", "refresh_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return pair, fmt.Errorf("gauth: building refresh request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return pair, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return pair, fmt.Errorf("%w: reading response: %v", ErrRefreshFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return pair, r.classifyRefreshFailure(resp.StatusCode, body)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return pair, fmt.Errorf("%w: decoding response: %v", ErrRefreshFailed, err)
	}

	if tr.AccessToken == "" {
		return pair, fmt.Errorf("%w: response contained no access token", ErrRefreshFailed)
	}

	newPair := CredentialPair{
		AccessToken: tr.AccessToken,
		// Omitted refresh_token means the old one stays valid.
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    r.nowFunc().Add(time.Duration(tr.ExpiresIn)*time.Second - expirySafetyMargin),
	}
	if tr.RefreshToken != "" {
		newPair.RefreshToken = tr.RefreshToken
	}

	r.logger.Info("refreshed access token",
		slog.Time("expires_at", newPair.ExpiresAt),
		slog.Bool("refresh_token_rotated", tr.RefreshToken != ""),
	)

	return newPair, nil
}

// classifyRefreshFailure separates a revoked grant (terminal — the user
// must re-authorize) from transient provider failures.
func (r *Refresher) classifyRefreshFailure(status int, body []byte) error {
	if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
		var te tokenErrorResponse
		if err := json.Unmarshal(body, &te); err == nil && te.Error == "invalid_grant" {
			r.logger.Warn("refresh token rejected by provider",
				slog.String("description", te.ErrorDescription),
			)

			return fmt.Errorf("%w: %s", ErrCredentialRevoked, te.ErrorDescription)
		}
	}

	return fmt.Errorf("%w: provider returned HTTP %d: %s", ErrRefreshFailed, status, strings.TrimSpace(string(body)))
}
