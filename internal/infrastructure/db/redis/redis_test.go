package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)

	client, err := Connect(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestConnect_FailsWithoutServer(t *testing.T) {
	_, err := Connect(context.Background(), Config{Addr: "127.0.0.1:1", Timeout: 200 * time.Millisecond})
	assert.Error(t, err)
}

func TestChangeNotifier_DeliversToEveryListener(t *testing.T) {
	client, _ := setupTestClient(t)
	n := NewChangeNotifier(client)
	ctx := context.Background()

	first, err := n.Listen(ctx, "events")
	require.NoError(t, err)
	defer first.Close()
	second, err := n.Listen(ctx, "events")
	require.NoError(t, err)
	defer second.Close()
	other, err := n.Listen(ctx, "jobs")
	require.NoError(t, err)
	defer other.Close()

	require.NoError(t, n.Notify(ctx, "events"))

	for _, l := range []interface{ Changes() <-chan struct{} }{first, second} {
		select {
		case <-l.Changes():
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for change signal")
		}
	}

	select {
	case <-other.Changes():
		t.Fatal("jobs listener must not see events changes")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestChangeNotifier_SignalsCoalesce(t *testing.T) {
	client, _ := setupTestClient(t)
	n := NewChangeNotifier(client)
	ctx := context.Background()

	l, err := n.Listen(ctx, "forum")
	require.NoError(t, err)
	defer l.Close()

	for range 5 {
		require.NoError(t, n.Notify(ctx, "forum"))
	}

	select {
	case <-l.Changes():
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for change signal")
	}
	assert.LessOrEqual(t, len(l.Changes()), 1)
}

func TestChangeNotifier_CloseUnsubscribes(t *testing.T) {
	client, mr := setupTestClient(t)
	n := NewChangeNotifier(client)

	l, err := n.Listen(context.Background(), "users")
	require.NoError(t, err)
	assert.Equal(t, 1, mr.PubSubNumSub(ChangesChannel("users"))[ChangesChannel("users")])

	l.Close()
	l.Close()
	assert.Eventually(t, func() bool {
		return mr.PubSubNumSub(ChangesChannel("users"))[ChangesChannel("users")] == 0
	}, time.Second, 10*time.Millisecond)
}

func TestReferenceGuard_ClaimOnce(t *testing.T) {
	client, mr := setupTestClient(t)
	g := NewReferenceGuard(client)
	ctx := context.Background()

	ok, err := g.Claim(ctx, "dues_1700000000000")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.Claim(ctx, "dues_1700000000000")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, referenceTTL, mr.TTL("payment:ref:dues_1700000000000"))

	require.NoError(t, g.Release(ctx, "dues_1700000000000"))
	ok, err = g.Claim(ctx, "dues_1700000000000")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTokenRevoker(t *testing.T) {
	client, mr := setupTestClient(t)
	r := NewTokenRevoker(client)
	ctx := context.Background()

	revoked, err := r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, r.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))
	revoked, err = r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Hour)
	revoked, err = r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, r.Revoke(ctx, "expired", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists("token:revoked:expired"))
}
