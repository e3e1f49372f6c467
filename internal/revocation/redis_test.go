package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisDenylist(t *testing.T) (*RedisDenylist, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisDenylist(rdb), mr
}

func TestRedisDenylist_RevokeSetsExpiringKey(t *testing.T) {
	d, mr := newRedisDenylist(t)
	ctx := context.Background()
	now := time.Now()
	d.clock = func() time.Time { return now }

	require.NoError(t, d.Revoke(ctx, "jti-1", now.Add(10*time.Minute)))
	require.True(t, mr.Exists("auth:revoked:jti-1"))
	require.Equal(t, 10*time.Minute, mr.TTL("auth:revoked:jti-1"))

	revoked, err := d.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, revoked)

	mr.FastForward(11 * time.Minute)
	revoked, err = d.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestRedisDenylist_SkipsExpiredTokens(t *testing.T) {
	d, mr := newRedisDenylist(t)
	now := time.Now()
	d.clock = func() time.Time { return now }

	require.NoError(t, d.Revoke(context.Background(), "old", now.Add(-time.Minute)))
	require.False(t, mr.Exists("auth:revoked:old"))
	require.ErrorIs(t, d.Revoke(context.Background(), "", now.Add(time.Minute)), ErrInvalidEntry)
}

func TestRedisDenylist_SurfacesConnectionErrors(t *testing.T) {
	d, mr := newRedisDenylist(t)
	mr.Close()

	_, err := d.IsRevoked(context.Background(), "jti-1")
	require.Error(t, err)
}
