package playback

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

// casScript atomically checks the stored version before overwriting the
// record, mirroring the claim script in internal/registry/redis.go.
var casScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
local expected = tonumber(ARGV[1])
if raw == false then
  if expected ~= 0 then
    return 0
  end
else
  local cur = cjson.decode(raw)
  if cur.version ~= expected then
    return 0
  end
end
redis.call('SET', KEYS[1], ARGV[2])
return 1
`)

// RedisStore implements Store atop a shared Redis instance.
type RedisStore struct {
	rdb       *redis.Client
	keyPrefix string
}

// NewRedisStore wraps an existing client. keyPrefix defaults to "playback".
func NewRedisStore(rdb *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "playback"
	}
	return &RedisStore{rdb: rdb, keyPrefix: keyPrefix}
}

func (r *RedisStore) key(room string) string {
	return r.keyPrefix + ":" + room
}

// Get returns the stored state for room, or ErrNoState if none exists.
func (r *RedisStore) Get(ctx context.Context, room string) (State, error) {
	raw, err := r.rdb.Get(ctx, r.key(room)).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, ErrNoState
	}
	if err != nil {
		return State{}, err
	}
	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return State{}, err
	}
	return s, nil
}

// CompareAndSwap writes next if the stored version matches expectedVersion.
func (r *RedisStore) CompareAndSwap(ctx context.Context, room string, expectedVersion int64, next State) error {
	payload, err := json.Marshal(next)
	if err != nil {
		return err
	}
	res, err := casScript.Run(ctx, r.rdb, []string{r.key(room)}, expectedVersion, payload).Int()
	if err != nil {
		return err
	}
	if res == 0 {
		return ErrConflict
	}
	return nil
}

