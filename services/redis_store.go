package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCodeStore keeps one hash per phone: hash, sent_at (unix ms) and attempts.
type RedisCodeStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisCodeStore(client redis.UniversalClient, prefix string) *RedisCodeStore {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "donations"
	}
	return &RedisCodeStore{client: client, prefix: prefix}
}

func (s *RedisCodeStore) key(phone string) string {
	return fmt.Sprintf("%s:otp:%s", s.prefix, phone)
}

func (s *RedisCodeStore) Save(ctx context.Context, phone string, rec OTPRecord, ttl time.Duration) error {
	key := s.key(phone)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"hash", rec.Hash,
			"sent_at", rec.SentAt.UnixMilli(),
			"attempts", rec.Attempts,
		)
		pipe.PExpire(ctx, key, ttl)
		return nil
	})
	return err
}

func (s *RedisCodeStore) Get(ctx context.Context, phone string) (*OTPRecord, error) {
	vals, err := s.client.HGetAll(ctx, s.key(phone)).Result()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 || vals["hash"] == "" {
		return nil, ErrOTPNotFound
	}

	sentMs, _ := strconv.ParseInt(vals["sent_at"], 10, 64)
	attempts, _ := strconv.Atoi(vals["attempts"])
	return &OTPRecord{
		Hash:     vals["hash"],
		SentAt:   time.UnixMilli(sentMs),
		Attempts: attempts,
	}, nil
}

// incrementScript only touches an existing hash, so an expired code is never
// recreated without a TTL.
const incrementScriptSource = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return -1
end
return redis.call("HINCRBY", KEYS[1], "attempts", 1)
`

var incrementScript = redis.NewScript(incrementScriptSource)

func (s *RedisCodeStore) IncrementAttempts(ctx context.Context, phone string) (int, error) {
	n, err := incrementScript.Run(ctx, s.client, []string{s.key(phone)}).Int()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, ErrOTPNotFound
	}
	return n, nil
}

func (s *RedisCodeStore) Delete(ctx context.Context, phone string) error {
	return s.client.Del(ctx, s.key(phone)).Err()
}

var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// RedisRateLimiter is a fixed-window counter shared by every instance of the service.
type RedisRateLimiter struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisRateLimiter(client redis.UniversalClient, prefix string) *RedisRateLimiter {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "donations"
	}
	return &RedisRateLimiter{client: client, prefix: prefix + ":rate_limit"}
}

func (r *RedisRateLimiter) Consume(ctx context.Context, scope, subject string, limit int, window time.Duration) (int, time.Duration, error) {
	if r == nil || r.client == nil || limit <= 0 || window <= 0 {
		return 0, 0, nil
	}

	windowMs := window.Milliseconds()
	if windowMs < 1000 {
		windowMs = 1000
	}

	key := fmt.Sprintf("%s:%s:%s", r.prefix, strings.TrimSpace(scope), strings.TrimSpace(subject))
	raw, err := rateLimitScript.Run(ctx, r.client, []string{key}, windowMs).Result()
	if err != nil {
		return 0, 0, err
	}

	values, ok := raw.([]interface{})
	if !ok || len(values) != 2 {
		return 0, 0, fmt.Errorf("unexpected redis limiter response shape: %T", raw)
	}
	count, ok := values[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected redis limiter count type: %T", values[0])
	}
	ttl, ok := values[1].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected redis limiter ttl type: %T", values[1])
	}
	return int(count), time.Duration(ttl) * time.Millisecond, nil
}
