package credential

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/coursehub/pkg/database"
	apperrors "github.com/utafrali/coursehub/pkg/errors"
)

// DefaultKeyPrefix namespaces the two token keys.
const DefaultKeyPrefix = "coursehub:"

const (
	accessKey  = "access_token"
	refreshKey = "refresh_token"
)

// RedisStore implements Store on top of two Redis string keys.
type RedisStore struct {
	client     redis.UniversalClient
	accessKey  string
	refreshKey string
}

// NewRedisStore creates a Redis-backed store. An empty prefix falls back to
// DefaultKeyPrefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{
		client:     client,
		accessKey:  prefix + accessKey,
		refreshKey: prefix + refreshKey,
	}
}

// SetTokens writes both keys in one MULTI/EXEC so readers never observe a
// half-written pair.
func (s *RedisStore) SetTokens(ctx context.Context, access, refresh string) (err error) {
	if access == "" {
		return apperrors.InvalidInput(ErrEmptyAccessToken)
	}
	ctx, end := database.TraceCommand(ctx, "SetTokens", "MULTI SET SET|DEL EXEC")
	defer func() { end(err) }()

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.accessKey, access, 0)
		if refresh == "" {
			pipe.Del(ctx, s.refreshKey)
		} else {
			pipe.Set(ctx, s.refreshKey, refresh, 0)
		}
		return nil
	})
	if err != nil {
		return apperrors.Persistence("redis set tokens", err)
	}
	return nil
}

func (s *RedisStore) AccessToken(ctx context.Context) (string, bool, error) {
	return s.get(ctx, s.accessKey)
}

func (s *RedisStore) RefreshToken(ctx context.Context) (string, bool, error) {
	return s.get(ctx, s.refreshKey)
}

func (s *RedisStore) get(ctx context.Context, key string) (string, bool, error) {
	ctx, end := database.TraceCommand(ctx, "Get", "GET "+key)
	v, err := s.client.Get(ctx, key).Result()
	end(err)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, apperrors.Persistence("redis get "+key, err)
	}
	return v, v != "", nil
}

// Tokens reads both keys with a single MGET.
func (s *RedisStore) Tokens(ctx context.Context) (Pair, error) {
	ctx, end := database.TraceCommand(ctx, "Tokens", "MGET")
	vals, err := s.client.MGet(ctx, s.accessKey, s.refreshKey).Result()
	end(err)
	if err != nil {
		return Pair{}, apperrors.Persistence("redis mget tokens", err)
	}
	var p Pair
	if len(vals) == 2 {
		p.AccessToken, _ = vals[0].(string)
		p.RefreshToken, _ = vals[1].(string)
	}
	return p, nil
}

// ClearTokens deletes both keys. Deleting missing keys is not an error.
func (s *RedisStore) ClearTokens(ctx context.Context) error {
	ctx, end := database.TraceCommand(ctx, "ClearTokens", "DEL")
	err := s.client.Del(ctx, s.accessKey, s.refreshKey).Err()
	end(err)
	if err != nil {
		return apperrors.Persistence("redis del tokens", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return apperrors.Persistence("redis ping", err)
	}
	return nil
}
