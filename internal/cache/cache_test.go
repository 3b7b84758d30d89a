package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewClient(mr.Addr())
	require.NoError(t, err)
	SetClient(c)
	t.Cleanup(func() {
		SetClient(nil)
		_ = c.Close()
	})
	return mr
}

type profile struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func TestAside_CachesOnMissAndServesOnHit(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()
	calls := 0
	fetch := func(dst *profile) func() error {
		return func() error {
			calls++
			*dst = profile{ID: 7, Name: "ada"}
			return nil
		}
	}

	var first profile
	require.NoError(t, Aside(ctx, UserKey(7), &first, UserTTL, fetch(&first)))
	assert.Equal(t, "ada", first.Name)
	assert.True(t, mr.Exists("user:7"))

	var second profile
	require.NoError(t, Aside(ctx, UserKey(7), &second, UserTTL, fetch(&second)))
	assert.Equal(t, 1, calls, "second read served from redis")
	assert.Equal(t, first, second)

	InvalidateUser(ctx, 7)
	assert.False(t, mr.Exists("user:7"))
}

func TestAside_FetchErrorIsReturned(t *testing.T) {
	setupMiniredis(t)
	boom := errors.New("boom")
	var p profile
	err := Aside(context.Background(), FollowingKey(1), &p, FollowingTTL, func() error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestAside_WithoutClientAlwaysFetches(t *testing.T) {
	SetClient(nil)
	calls := 0
	var ids []uint
	for range 2 {
		require.NoError(t, Aside(context.Background(), FollowingKey(1), &ids, FollowingTTL, func() error {
			calls++
			ids = []uint{2, 3}
			return nil
		}))
	}
	assert.Equal(t, 2, calls)
}

func TestAside_RedisDownFallsBackToFetch(t *testing.T) {
	mr := setupMiniredis(t)
	mr.Close()

	var p profile
	err := Aside(context.Background(), UserKey(1), &p, UserTTL, func() error {
		p = profile{ID: 1}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint(1), p.ID)
}

func TestTokenBlacklist_Redis(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()
	bl := NewTokenBlacklist()

	revoked, err := bl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, bl.Revoke(ctx, "jti-1", time.Minute))
	revoked, err = bl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.True(t, mr.Exists("blacklist:jti-1"))

	mr.FastForward(2 * time.Minute)
	revoked, err = bl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, bl.Revoke(ctx, "expired", -time.Second))
	assert.False(t, mr.Exists("blacklist:expired"))
}

func TestTokenBlacklist_InMemory(t *testing.T) {
	SetClient(nil)
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	bl := NewTokenBlacklist()
	bl.now = func() time.Time { return now }

	require.NoError(t, bl.Revoke(ctx, "jti-2", time.Minute))
	revoked, _ := bl.IsRevoked(ctx, "jti-2")
	assert.True(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, _ = bl.IsRevoked(ctx, "jti-2")
	assert.False(t, revoked)
}

func TestNewClient_ParsesURL(t *testing.T) {
	c, err := NewClient("redis://:secret@localhost:6380/2")
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	assert.Equal(t, "localhost:6380", c.Options().Addr)
	assert.Equal(t, 2, c.Options().DB)

	_, err = NewClient("redis://%zz")
	assert.Error(t, err)

}
