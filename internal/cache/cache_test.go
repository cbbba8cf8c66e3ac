package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withMiniRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	SetClient(rdb)
	t.Cleanup(func() {
		SetClient(nil)
		_ = rdb.Close()
	})
	return mr
}

func TestAside_NoClientCallsFetch(t *testing.T) {
	SetClient(nil)
	calls := 0
	var got []uint
	err := Aside(context.Background(), FriendIDsKey(1), &got, time.Minute, func() error {
		calls++
		got = []uint{2, 3}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []uint{2, 3}, got)
}

func TestAside_CachesResult(t *testing.T) {
	mr := withMiniRedis(t)
	ctx := context.Background()
	calls := 0
	fetch := func(dest *[]uint) func() error {
		return func() error {
			calls++
			*dest = []uint{7, 8}
			return nil
		}
	}

	var first []uint
	require.NoError(t, Aside(ctx, FriendIDsKey(5), &first, time.Minute, fetch(&first)))
	var second []uint
	require.NoError(t, Aside(ctx, FriendIDsKey(5), &second, time.Minute, fetch(&second)))

	assert.Equal(t, 1, calls)
	assert.Equal(t, []uint{7, 8}, second)
	assert.True(t, mr.Exists(FriendIDsKey(5)))

	InvalidateFriends(ctx, 5, 6)
	assert.False(t, mr.Exists(FriendIDsKey(5)))
}

func TestAside_FetchErrorNotCached(t *testing.T) {
	mr := withMiniRedis(t)
	var dest []uint
	err := Aside(context.Background(), FriendIDsKey(9), &dest, time.Minute, func() error {
		return errors.New("db down")
	})
	assert.Error(t, err)
	assert.False(t, mr.Exists(FriendIDsKey(9)))
}

func TestRevokeAndIsRevoked(t *testing.T) {
	mr := withMiniRedis(t)
	ctx := context.Background()

	assert.False(t, IsRevoked(ctx, "abc"))
	require.NoError(t, Revoke(ctx, "abc", time.Now().Add(time.Hour)))
	assert.True(t, IsRevoked(ctx, "abc"))

	// already expired tokens are not stored
	require.NoError(t, Revoke(ctx, "old", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists(BlacklistKey("old")))

	mr.FastForward(2 * time.Hour)
	assert.False(t, IsRevoked(ctx, "abc"))
}
