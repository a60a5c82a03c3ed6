package gauth

import "errors"

// Sentinel errors for the credential lifecycle.
// Use errors.Is(err, gauth.ErrCredentialRevoked) to check.
var (
	// ErrInvalidOrExpiredState means the callback's state token has no
	// pending handshake — replayed, expired, or forged. The user must
	// restart authorization.
	ErrInvalidOrExpiredState = errors.New("gauth: invalid or expired state token")

	// ErrProviderDenied means the user or the provider rejected consent.
	// Terminal for the handshake; the provider's reason is attached.
	ErrProviderDenied = errors.New("gauth: provider denied authorization")

	// ErrMissingRefreshToken means the provider issued no refresh token on
	// code exchange. Terminal: the user must revoke the prior consent for
	// this client and run the handshake again.
	ErrMissingRefreshToken = errors.New("gauth: provider returned no refresh token")

	// ErrNoRefreshToken means a refresh was requested for a pair that has
	// no refresh token at all. The session must re-authorize.
	ErrNoRefreshToken = errors.New("gauth: credential pair has no refresh token")

	// ErrCredentialRevoked means the provider rejected the refresh token as
	// invalid or revoked. Terminal: no retry is meaningful, the session
	// must re-authorize.
	ErrCredentialRevoked = errors.New("gauth: refresh token revoked or invalid")

	// ErrRefreshFailed is a provider-side refresh failure that is not a
	// revocation. Transient: the whole operation is safe to retry later,
	// but is not retried automatically.
	ErrRefreshFailed = errors.New("gauth: token refresh failed")
)
