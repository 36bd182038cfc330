package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestReferralLinkIsStable(t *testing.T) {
	link := ReferralLink("https://exzakvibe.com/", " Ali@Example.com")
	assert.Equal(t, ReferralLink("https://exzakvibe.com", "ali@example.com"), link)
	assert.Regexp(t, `^https://exzakvibe\.com/join/[0-9a-f]{8}$`, link)
}

func TestNewReferralCodeRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := NewReferralCode()
		require.NoError(t, err)
		assert.Regexp(t, `^EX-[1-9]\d{3}$`, code)
	}
}

func TestBcryptHasher(t *testing.T) {
	h := &BcryptHasher{Cost: bcrypt.MinCost}
	hash, err := h.Hash("pw")
	require.NoError(t, err)
	assert.True(t, h.Verify(hash, "pw"))
	assert.False(t, h.Verify(hash, "other"))
}

func TestCacheHelpers(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()

	require.NoError(t, SetCache(ctx, rdb, AdminUsersPrefix+"page=1", map[string]int{"n": 1}, time.Minute))
	require.NoError(t, SetCache(ctx, rdb, AdminUsersPrefix+"page=2", map[string]int{"n": 2}, time.Minute))
	var got map[string]int
	found, err := GetCache(ctx, rdb, AdminUsersPrefix+"page=2", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, got["n"])

	require.NoError(t, DeleteCachePrefix(ctx, rdb, AdminUsersPrefix))
	found, err = GetCache(ctx, rdb, AdminUsersPrefix+"page=1", &got)
	require.NoError(t, err)
	assert.False(t, found)

	// A nil client is an always-empty cache
	found, err = GetCache(ctx, nil, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, SetCache(ctx, nil, "k", 1, time.Minute))
}
