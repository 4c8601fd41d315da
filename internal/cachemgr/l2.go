// If you are AI: L2 is the shared cache tier backing every node's L1. The
// Redis implementation stores values as JSON blobs; marshaling is left to
// the caller via encoding/json so Manager stays agnostic to value shape.
package cachemgr

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by L2.Get when key is absent.
var ErrMiss = errors.New("cachemgr: key not present in L2")

// L2 is the shared cache tier (typically Redis) sitting behind every node's L1.
type L2 interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RedisL2 implements L2 over a Redis client.
type RedisL2 struct {
	rdb       *redis.Client
	keyPrefix string
}

// NewRedisL2 creates a RedisL2. keyPrefix defaults to "synctv:cache".
func NewRedisL2(rdb *redis.Client, keyPrefix string) *RedisL2 {
	if keyPrefix == "" {
		keyPrefix = "synctv:cache"
	}
	return &RedisL2{rdb: rdb, keyPrefix: keyPrefix}
}

func (r *RedisL2) fullKey(key string) string {
	return r.keyPrefix + ":" + key
}

// Get returns the raw bytes stored for key, or ErrMiss if absent.
func (r *RedisL2) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.rdb.Get(ctx, r.fullKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Set stores value under key with the given TTL (0 means no expiry).
func (r *RedisL2) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.rdb.Set(ctx, r.fullKey(key), value, ttl).Err()
}

// Delete removes key from the shared store.
func (r *RedisL2) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, r.fullKey(key)).Err()
}

// encodeValue is a small helper shared by Manager's Load path.
func encodeValue(v any) ([]byte, error) {
	return json.Marshal(v)
}

func decodeValue(data []byte, out any) error {
	return json.Unmarshal(data, out)
}
