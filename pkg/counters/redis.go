package counters

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisStore backs the counters with Redis so multiple engine instances can
// share one atomic counting store. Counts use INCR; the last-executed
// timestamp is a plain key updated after the increment.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	return &RedisStore{client: redis.NewClient(opts)}, nil
}

func (s *RedisStore) Record(ctx context.Context, workflowID string, at time.Time) (int64, error) {
	count, err := s.client.Incr(ctx, countKey(workflowID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment execution count: %w", err)
	}

	err = s.client.Set(ctx, lastAtKey(workflowID), at.UTC().Format(time.RFC3339Nano), 0).Err()
	if err != nil {
		return 0, fmt.Errorf("failed to store last execution time: %w", err)
	}

	return count, nil
}

func (s *RedisStore) Get(ctx context.Context, workflowID string) (int64, *time.Time, error) {
	count, err := s.client.Get(ctx, countKey(workflowID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil, nil
		}

		return 0, nil, fmt.Errorf("failed to read execution count: %w", err)
	}

	raw, err := s.client.Get(ctx, lastAtKey(workflowID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return count, nil, nil
		}

		return 0, nil, fmt.Errorf("failed to read last execution time: %w", err)
	}

	lastAt, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to parse last execution time: %w", err)
	}

	return count, &lastAt, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func countKey(workflowID string) string {
	return "accrediq:workflow:" + workflowID + ":executions"
}

func lastAtKey(workflowID string) string {
	return "accrediq:workflow:" + workflowID + ":last_executed_at"
}
