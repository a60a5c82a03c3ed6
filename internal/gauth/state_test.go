package gauth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStateToken_Unique(t *testing.T) {
	a, err := NewStateToken()
	require.NoError(t, err)
	assert.Len(t, a, stateTokenBytes*2)

	b, err := NewStateToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestMemoryStateStore_TakeConsumes(t *testing.T) {
	s := NewMemoryStateStore(time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "tok1", []byte("payload")))

	got, err := s.Take(ctx, "tok1")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	_, err = s.Take(ctx, "tok1")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredState)
}

func TestMemoryStateStore_UnknownToken(t *testing.T) {
	s := NewMemoryStateStore(time.Minute)

	_, err := s.Take(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredState)
}

func TestMemoryStateStore_Expiry(t *testing.T) {
	s := NewMemoryStateStore(time.Minute)
	ctx := context.Background()

	now := time.Now()
	s.nowFunc = func() time.Time { return now }

	require.NoError(t, s.Put(ctx, "tok1", []byte("payload")))

	// Advance past the TTL: the entry must fail closed.
	s.nowFunc = func() time.Time { return now.Add(2 * time.Minute) }

	_, err := s.Take(ctx, "tok1")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredState)
}
