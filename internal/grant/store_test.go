package grant

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danecando/gdocs-mcp/internal/gauth"
)

var testUser = gauth.UserIdentity{ID: "u1", Email: "a@b.com", Name: "A"}

const testScope = "https://www.googleapis.com/auth/drive"

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(
		context.Background(),
		filepath.Join(t.TempDir(), "grants.db"),
		newTestSealer(t),
		slog.Default(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func testPair(access, refresh string) gauth.CredentialPair {
	return gauth.CredentialPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().Add(time.Hour).Truncate(time.Second),
	}
}

func TestStore_FinalizeAndCredentials(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	grantID, err := store.Finalize(ctx, testUser, testScope, testPair("AT1", "RT1"))
	require.NoError(t, err)
	require.NotEmpty(t, grantID)

	pair, err := store.Credentials(ctx, grantID)
	require.NoError(t, err)
	assert.Equal(t, "AT1", pair.AccessToken)
	assert.Equal(t, "RT1", pair.RefreshToken)
}

func TestStore_ReauthorizeKeepsGrantID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Finalize(ctx, testUser, testScope, testPair("AT1", "RT1"))
	require.NoError(t, err)

	second, err := store.Finalize(ctx, testUser, testScope, testPair("AT2", "RT2"))
	require.NoError(t, err)

	// Same subject: the grant id survives, the credentials are replaced.
	assert.Equal(t, first, second)

	pair, err := store.Credentials(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "AT2", pair.AccessToken)
	assert.Equal(t, "RT2", pair.RefreshToken)
}

func TestStore_DistinctSubjectsGetDistinctGrants(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a, err := store.Finalize(ctx, testUser, testScope, testPair("AT1", "RT1"))
	require.NoError(t, err)

	other := gauth.UserIdentity{ID: "u2", Email: "c@d.com", Name: "C"}

	b, err := store.Finalize(ctx, other, testScope, testPair("AT2", "RT2"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestStore_UpdateCredentials(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	grantID, err := store.Finalize(ctx, testUser, testScope, testPair("AT1", "RT1"))
	require.NoError(t, err)

	require.NoError(t, store.UpdateCredentials(ctx, grantID, testPair("AT2", "RT2")))

	pair, err := store.Credentials(ctx, grantID)
	require.NoError(t, err)
	assert.Equal(t, "AT2", pair.AccessToken)
	assert.Equal(t, "RT2", pair.RefreshToken)
}

func TestStore_UpdateCredentialsUnknownGrant(t *testing.T) {
	store := newTestStore(t)

	err := store.UpdateCredentials(context.Background(), "missing", testPair("AT1", "RT1"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Get(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	grantID, err := store.Finalize(ctx, testUser, testScope, testPair("AT1", "RT1"))
	require.NoError(t, err)

	rec, err := store.Get(ctx, grantID)
	require.NoError(t, err)
	assert.Equal(t, grantID, rec.ID)
	assert.Equal(t, "u1", rec.Subject)
	assert.Equal(t, "a@b.com", rec.Email)
	assert.Equal(t, "A", rec.DisplayName)
	assert.Equal(t, testScope, rec.Scope)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestStore_GetUnknown(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Revoke(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	grantID, err := store.Finalize(ctx, testUser, testScope, testPair("AT1", "RT1"))
	require.NoError(t, err)

	require.NoError(t, store.Revoke(ctx, grantID))

	_, err = store.Credentials(ctx, grantID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.Revoke(ctx, grantID), ErrNotFound)
}

func TestStore_ReopenPersists(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "grants.db")
	sealer := newTestSealer(t)
	ctx := context.Background()

	store, err := Open(ctx, dbPath, sealer, slog.Default())
	require.NoError(t, err)

	grantID, err := store.Finalize(ctx, testUser, testScope, testPair("AT1", "RT1"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := Open(ctx, dbPath, sealer, slog.Default())
	require.NoError(t, err)
	defer reopened.Close()

	pair, err := reopened.Credentials(ctx, grantID)
	require.NoError(t, err)
	assert.Equal(t, "AT1", pair.AccessToken)
}
