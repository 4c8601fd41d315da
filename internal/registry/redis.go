// RedisStore is the cluster-wide Store backed by Redis. Entries live under
// a key stream:{room}:{media} holding the serialized Record with a TTL.
// Epoch allocation is a separate persisted counter
// (stream:{room}:{media}:epoch) so it survives record expiry and stays
// monotonic even if every node restarts.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/synctv-org/synctv-core/internal/ids"
)

// wireRecord is the JSON shape stored at the registry key.
type wireRecord struct {
	NodeID    string    `json:"node_id"`
	Epoch     int64     `json:"epoch"`
	RPCAddr   string    `json:"rpc_address"`
	StartedAt time.Time `json:"started_at"`
}

// claimScript atomically allocates a fresh epoch and creates the record only
// if absent. It returns the allocated epoch, or -1 if a record already exists.
var claimScript = redis.NewScript(`
local exists = redis.call('EXISTS', KEYS[1])
if exists == 1 then
  return -1
end
local epoch = redis.call('INCR', KEYS[2])
redis.call('SET', KEYS[1], ARGV[1], 'EX', ARGV[2])
return epoch
`)

// RedisStore implements Store atop a shared Redis instance (or cluster).
type RedisStore struct {
	rdb       *redis.Client
	keyPrefix string
}

// NewRedisStore wraps an existing client. keyPrefix defaults to "stream",
// giving a "stream:{room}:{media}" key layout.
func NewRedisStore(rdb *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "stream"
	}
	return &RedisStore{rdb: rdb, keyPrefix: keyPrefix}
}

func (s *RedisStore) recordKey(key ids.RoomMediaKey) string {
	return fmt.Sprintf("%s:%s:%s", s.keyPrefix, key.Room, key.Media)
}

func (s *RedisStore) epochKey(key ids.RoomMediaKey) string {
	return fmt.Sprintf("%s:%s:%s:epoch", s.keyPrefix, key.Room, key.Media)
}

func (s *RedisStore) TryClaim(ctx context.Context, key ids.RoomMediaKey, nodeID, rpcAddr string, ttl time.Duration) (*Record, error) {
	rec := wireRecord{NodeID: nodeID, RPCAddr: rpcAddr, StartedAt: time.Now()}
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}

	res, err := claimScript.Run(ctx, s.rdb, []string{s.recordKey(key), s.epochKey(key)}, string(payload), int64(ttl.Seconds())).Result()
	if err != nil {
		return nil, fmt.Errorf("claim script: %w", err)
	}
	epoch, ok := res.(int64)
	if !ok {
		return nil, fmt.Errorf("claim script: unexpected result type %T", res)
	}
	if epoch < 0 {
		return nil, ErrOwnedByOther
	}

	// Re-serialize with the allocated epoch embedded for future lookups.
	rec.Epoch = epoch
	payload, err = json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	if err := s.rdb.Set(ctx, s.recordKey(key), payload, ttl).Err(); err != nil {
		return nil, fmt.Errorf("persist epoch: %w", err)
	}

	out := Record{NodeID: rec.NodeID, Epoch: rec.Epoch, RPCAddr: rec.RPCAddr, StartedAt: rec.StartedAt}
	return &out, nil
}

func (s *RedisStore) Refresh(ctx context.Context, key ids.RoomMediaKey, nodeID string, ttl time.Duration) error {
	cur, err := s.Lookup(ctx, key)
	if err != nil {
		return err
	}
	if cur.NodeID != nodeID {
		return ErrOwnedByOther
	}
	ok, err := s.rdb.Expire(ctx, s.recordKey(key), ttl).Result()
	if err != nil {
		return fmt.Errorf("refresh ttl: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) Release(ctx context.Context, key ids.RoomMediaKey, nodeID string) error {
	cur, err := s.Lookup(ctx, key)
	if err == ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if cur.NodeID != nodeID {
		return ErrOwnedByOther
	}
	return s.rdb.Del(ctx, s.recordKey(key)).Err()
}

func (s *RedisStore) Lookup(ctx context.Context, key ids.RoomMediaKey) (*Record, error) {
	raw, err := s.rdb.Get(ctx, s.recordKey(key)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup: %w", err)
	}
	var rec wireRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	out := Record{NodeID: rec.NodeID, Epoch: rec.Epoch, RPCAddr: rec.RPCAddr, StartedAt: rec.StartedAt}
	return &out, nil
}

func (s *RedisStore) ListActive(ctx context.Context) ([]ids.RoomMediaKey, error) {
	pattern := s.keyPrefix + ":*"
	var keys []ids.RoomMediaKey
	iter := s.rdb.Scan(ctx, 0, pattern, 200).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		// Skip the epoch-counter shadow keys ("...:epoch").
		if len(k) >= 6 && k[len(k)-6:] == ":epoch" {
			continue
		}
		rest := k[len(s.keyPrefix)+1:]
		keys = append(keys, splitColonKey(rest))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan active keys: %w", err)
	}
	return keys, nil
}

func splitColonKey(s string) ids.RoomMediaKey {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			return ids.RoomMediaKey{Room: s[:i], Media: s[i+1:]}
		}
	}
	return ids.RoomMediaKey{}
}
