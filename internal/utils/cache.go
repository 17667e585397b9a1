package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"strconv"       // Key formatting
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// GetCache retrieves a value from Redis and unmarshals it into dest
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	val, err := rdb.Get(ctx, key).Result() // Get value from Redis
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal([]byte(val), dest) // Unmarshal JSON into dest
}

// SetCache sets a value in Redis with a specified TTL
func SetCache(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return rdb.Set(ctx, key, b, ttl).Err() // Set value in Redis with TTL
}

// DeleteCache deletes keys from Redis
func DeleteCache(ctx context.Context, rdb *redis.Client, keys ...string) error {
	return rdb.Del(ctx, keys...).Err() // Delete keys from Redis
}

// DeleteCachePrefix deletes every key starting with prefix
func DeleteCachePrefix(ctx context.Context, rdb *redis.Client, prefix string) error {
	iter := rdb.Scan(ctx, 0, prefix+"*", 100).Iterator() // Walk matching keys
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return rdb.Del(ctx, keys...).Err()
}

// Cache keys
const (
	CompetitionListKey = "competitions:all" // Competition listing
	AdminUsersPrefix   = "admin:users:"     // Paginated admin user listing
)

// CompetitionKey caches a single competition
func CompetitionKey(id uint) string {
	return "competition:" + strconv.FormatUint(uint64(id), 10)
}

// CompetitionRegistrationsKey caches the registrations of a competition
func CompetitionRegistrationsKey(id uint) string {
	return "registrations:competition:" + strconv.FormatUint(uint64(id), 10)
}

// InvalidateCompetition drops every cached view derived from a competition
func InvalidateCompetition(ctx context.Context, rdb *redis.Client, id uint) error {
	return DeleteCache(ctx, rdb, CompetitionKey(id), CompetitionRegistrationsKey(id), CompetitionListKey)
}

// InvalidateRegistrations drops the competition views and the admin user
// pages, whose registration counts change with every registration mutation
func InvalidateRegistrations(ctx context.Context, rdb *redis.Client, competitionID uint) error {
	if err := InvalidateCompetition(ctx, rdb, competitionID); err != nil {
		return err
	}
	return DeleteCachePrefix(ctx, rdb, AdminUsersPrefix)
}
