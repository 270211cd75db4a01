package ratelimit

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// The first hit of a window sets the expiry; a key that somehow lost its TTL
// is given one again so it cannot lock a subject out forever.
const fixedWindowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`

// RedisStore keeps fixed-window counters in Redis so every replica shares them.
type RedisStore struct {
	client redis.Scripter
	script *redis.Script
}

func NewRedisStore(client redis.Scripter) *RedisStore {
	return &RedisStore{
		client: client,
		script: redis.NewScript(fixedWindowScript),
	}
}

func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if s == nil || s.client == nil {
		return 0, 0, errors.New("rate limiter not configured")
	}
	if key == "" {
		return 0, 0, ErrEmptyKey
	}

	res, err := s.script.Run(ctx, s.client, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(res) < 2 {
		return 0, 0, errors.New("invalid rate limit script response")
	}
	return res[0], time.Duration(res[1]) * time.Millisecond, nil
}
