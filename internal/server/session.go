package server

import (
	"context"

	"github.com/danecando/gdocs-mcp/internal/gauth"
	"github.com/danecando/gdocs-mcp/internal/grant"
)

// sessionCredentials adapts one grant's stored credential pair to
// gapi.CredentialSource. A refresh replaces the pair in the grant store
// before Access returns, so the rotation is durable before the request
// that triggered it completes.
//
// A sessionCredentials value lives for one logical operation; concurrent
// operations on the same grant each build their own, and the refresher's
// per-session serialization keeps their refreshes from racing.
type sessionCredentials struct {
	grantID   string
	pair      gauth.CredentialPair
	refresher *gauth.Refresher
	grants    *grant.Store
}

func (s *sessionCredentials) Access(ctx context.Context, force bool) (string, error) {
	token, pair, refreshed, err := s.refresher.ValidAccessToken(ctx, s.grantID, s.pair, force)
	if err != nil {
		return "", err
	}

	if refreshed {
		if err := s.grants.UpdateCredentials(ctx, s.grantID, pair); err != nil {
			return "", err
		}

		s.pair = pair
	}

	return token, nil
}
