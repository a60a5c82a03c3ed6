package gauth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ConsentScopes is the fixed scope set requested during the handshake:
// Drive and Sheets read/write plus enough profile to resolve a stable
// subject for the grant.
var ConsentScopes = []string{
	"https://www.googleapis.com/auth/drive",
	"https://www.googleapis.com/auth/spreadsheets",
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/userinfo.email",
}

// defaultUserinfoURL resolves the subject for a freshly issued access token.
const defaultUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GrantFinalizer is the surrounding framework's finalize-grant call: it
// binds the resolved subject to the new credential pair, persists the pair
// encrypted, and returns the redirect target that completes the original
// tool-authorization request.
type GrantFinalizer interface {
	FinalizeGrant(ctx context.Context, user UserIdentity, scope string, pair CredentialPair, original []byte) (string, error)
}

// ExchangeConfig configures an Exchange. AuthURL, TokenURL, and UserinfoURL
// override the provider endpoints; empty values mean Google's.
type ExchangeConfig struct {
	Identity    ClientIdentity
	RedirectURL string
	AuthURL     string
	TokenURL    string
	UserinfoURL string
	States      StateStore
	Finalizer   GrantFinalizer
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

// Exchange drives the one-time authorization handshake: redirect to the
// provider's consent page, hold pending-request state under an unguessable
// token, exchange the returned code for the initial credential pair, and
// hand the pair to the grant finalizer bound to the resolved user.
type Exchange struct {
	oauth       *oauth2.Config
	userinfoURL string
	states      StateStore
	finalizer   GrantFinalizer
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewExchange creates an Exchange from the given configuration.
func NewExchange(cfg ExchangeConfig) *Exchange {
	endpoint := google.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}

	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}

	userinfoURL := cfg.UserinfoURL
	if userinfoURL == "" {
		userinfoURL = defaultUserinfoURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Exchange{
		oauth: &oauth2.Config{
			ClientID:     cfg.Identity.ClientID,
			ClientSecret: cfg.Identity.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       ConsentScopes,
			Endpoint:     endpoint,
		},
		userinfoURL: userinfoURL,
		states:      cfg.States,
		finalizer:   cfg.Finalizer,
		httpClient:  httpClient,
		logger:      logger,
	}
}

// Begin starts a handshake: persists the original-request payload under a
// fresh state token and returns the provider consent URL to redirect to.
//
// access_type=offline and prompt=consent are both required: without them
// Google withholds the refresh token on repeat consent, which would make
// the finished grant unusable (see ErrMissingRefreshToken).
func (e *Exchange) Begin(ctx context.Context, original []byte) (string, error) {
	state, err := NewStateToken()
	if err != nil {
		return "", err
	}

	if err := e.states.Put(ctx, state, original); err != nil {
		return "", err
	}

	authURL := e.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)

	e.logger.Info("authorization handshake started",
		slog.String("state", state),
	)

	return authURL, nil
}

// Complete finishes a handshake from the provider's callback query
// parameters. On success the grant has been finalized and the returned URL
// is where the user agent should be redirected.
//
// Every failure here is terminal for this handshake attempt; nothing is
// retried internally.
func (e *Exchange) Complete(ctx context.Context, query url.Values) (string, error) {
	if errParam := query.Get("error"); errParam != "" {
		return "", fmt.Errorf("%w: %s: %s", ErrProviderDenied, errParam, query.Get("error_description"))
	}

	// Consume the pending state before touching the token endpoint: an
	// unknown or replayed state token must fail closed without a single
	// provider call.
	original, err := e.states.Take(ctx, query.Get("state"))
	if err != nil {
		return "", err
	}

	code := query.Get("code")
	if code == "" {
		return "", fmt.Errorf("%w: callback carried no authorization code", ErrProviderDenied)
	}

	// Route the oauth2 exchange through our HTTP client.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)

	tok, err := e.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("gauth: authorization code exchange failed: %w", err)
	}

	if tok.RefreshToken == "" {
		return "", ErrMissingRefreshToken
	}

	user, err := e.fetchUserinfo(ctx, tok.AccessToken)
	if err != nil {
		return "", err
	}

	pair := CredentialPair{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}

	e.logger.Info("handshake completed",
		slog.String("subject", user.ID),
		slog.Time("expires_at", pair.ExpiresAt),
	)

	redirect, err := e.finalizer.FinalizeGrant(ctx, user, strings.Join(ConsentScopes, " "), pair, original)
	if err != nil {
		return "", fmt.Errorf("gauth: finalizing grant: %w", err)
	}

	return redirect, nil
}
