package utils

import (
	"context" // Redis context
	"testing" // Testing framework
	"time"    // TTLs

	"github.com/alicebob/miniredis/v2"    // In-memory Redis
	"github.com/redis/go-redis/v9"        // Redis client
	"github.com/stretchr/testify/assert"  // Assertions
	"github.com/stretchr/testify/require" // Fatal assertions
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestCacheRoundTripAndExpiry(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()
	type item struct {
		Name string `json:"name"`
	}

	var got item
	found, err := GetCache(ctx, rdb, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, SetCache(ctx, rdb, "k", item{Name: "cup"}, time.Minute))
	found, err = GetCache(ctx, rdb, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "cup", got.Name)

	mr.FastForward(2 * time.Minute)
	found, err = GetCache(ctx, rdb, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidateCompetition(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()
	for _, k := range []string{CompetitionKey(1), CompetitionRegistrationsKey(1), CompetitionListKey, CompetitionKey(2)} {
		require.NoError(t, mr.Set(k, "{}"))
	}

	require.NoError(t, InvalidateCompetition(ctx, rdb, 1))
	assert.False(t, mr.Exists(CompetitionKey(1)))
	assert.False(t, mr.Exists(CompetitionRegistrationsKey(1)))
	assert.False(t, mr.Exists(CompetitionListKey))
	assert.True(t, mr.Exists(CompetitionKey(2)))
}

func TestInvalidateRegistrations(t *testing.T) {
	mr, rdb := newRedis(t)
	for _, k := range []string{CompetitionKey(1), CompetitionRegistrationsKey(1), AdminUsersPrefix + "page=1:size=20", CompetitionKey(2)} {
		require.NoError(t, mr.Set(k, "{}"))
	}

	require.NoError(t, InvalidateRegistrations(context.Background(), rdb, 1))
	assert.Equal(t, []string{CompetitionKey(2)}, mr.Keys())
}

func TestDeleteCachePrefix(t *testing.T) {
	mr, rdb := newRedis(t)
	for _, k := range []string{AdminUsersPrefix + "page=1:size=20", AdminUsersPrefix + "page=2:size=20", "competitions:all"} {
		require.NoError(t, mr.Set(k, "{}"))
	}
	require.NoError(t, DeleteCachePrefix(context.Background(), rdb, AdminUsersPrefix))
	assert.Equal(t, []string{"competitions:all"}, mr.Keys())

	// Nothing to delete is fine
	require.NoError(t, DeleteCachePrefix(context.Background(), rdb, AdminUsersPrefix))
}
