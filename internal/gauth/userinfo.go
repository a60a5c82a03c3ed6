package gauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// fetchUserinfo resolves the stable user identity for a freshly issued
// access token. Called exactly once per handshake, with a raw token — the
// session's executor is not involved because no grant exists yet.
func (e *Exchange) fetchUserinfo(ctx context.Context, accessToken string) (UserIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.userinfoURL, nil)
	if err != nil {
		return UserIdentity{}, fmt.Errorf("gauth: building userinfo request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return UserIdentity{}, fmt.Errorf("gauth: userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return UserIdentity{}, fmt.Errorf("gauth: userinfo returned HTTP %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var user UserIdentity
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return UserIdentity{}, fmt.Errorf("gauth: decoding userinfo response: %w", err)
	}

	if user.ID == "" {
		return UserIdentity{}, fmt.Errorf("gauth: userinfo response carried no subject id")
	}

	return user, nil
}
