package quota

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis layout: one hash per identifier with count and resetAt (unix milli),
// key TTL = window so abandoned counters expire on their own.
func key(identifier string) string {
	return keyPrefix + identifier
}

func (s *Store) redisGet(ctx context.Context, identifier string, now time.Time) (Counter, error) {
	tctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	data, err := s.redis.HGetAll(tctx, key(identifier)).Result()
	if err != nil {
		return Counter{}, err
	}

	resetAt, ok := parseMilli(data["resetAt"])
	if !ok || !resetAt.After(now) {
		return s.redisInit(ctx, identifier, now)
	}

	count, _ := strconv.Atoi(data["count"])
	return Counter{Count: count, ResetAt: resetAt}, nil
}

func (s *Store) redisInit(ctx context.Context, identifier string, now time.Time) (Counter, error) {
	tctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	resetAt := now.Add(s.window)
	k := key(identifier)

	_, err := s.redis.TxPipelined(tctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(tctx, k,
			"identifier", identifier,
			"count", 0,
			"resetAt", resetAt.UnixMilli(),
		)
		pipe.Expire(tctx, k, s.window)
		return nil
	})
	if err != nil {
		return Counter{}, err
	}

	return Counter{Count: 0, ResetAt: resetAt}, nil
}

func (s *Store) redisIncrement(ctx context.Context, identifier string, now time.Time) error {
	tctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	k := key(identifier)
	data, err := s.redis.HGetAll(tctx, k).Result()
	if err != nil {
		return err
	}

	// Only a live window is incremented; an elapsed one waits for the next
	// GetCounter to reinitialize it.
	resetAt, ok := parseMilli(data["resetAt"])
	if !ok || !resetAt.After(now) {
		return nil
	}

	return s.redis.HIncrBy(tctx, k, "count", 1).Err()
}

func parseMilli(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}
