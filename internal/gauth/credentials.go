// Package gauth implements the delegated Google OAuth credential lifecycle:
// the one-time consent handshake (authorization code grant with a TTL-bound
// state correlation store), stable user identity resolution, and on-demand
// access token refresh with rotation-preserving pair replacement.
package gauth

import (
	"time"
)

// CredentialPair is a session's delegated credentials: a short-lived access
// token with its absolute expiry, and the long-lived refresh token used to
// mint replacements. The pair is a value — it is passed into the Refresher
// and a complete replacement comes back; nothing else mutates it. The owner
// (the grant store) must treat a returned pair as the new canonical value.
type CredentialPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Fresh reports whether the access token is still usable at the given time.
// An access token must never be used past its expiry.
func (p CredentialPair) Fresh(now time.Time) bool {
	return p.AccessToken != "" && now.Before(p.ExpiresAt)
}

// ClientIdentity is the OAuth client registration this process acts as.
// Immutable for the process lifetime; required by every token exchange.
type ClientIdentity struct {
	ClientID     string
	ClientSecret string
}

// UserIdentity is the stable subject a new credential pair is bound to.
// Resolved once per handshake from the freshly issued access token and
// never cached beyond it.
type UserIdentity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}
