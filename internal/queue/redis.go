package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// maxDeadLetters caps the dead-letter list so a misbehaving producer cannot
// grow it without bound. Oldest entries are trimmed first.
const maxDeadLetters = 10000

var deadLetterScript = redis.NewScript(`
-- KEYS[1] = dead-letter list key
-- ARGV[1] = message
-- ARGV[2] = max list length
redis.call('LPUSH', KEYS[1], ARGV[1])
redis.call('LTRIM', KEYS[1], 0, tonumber(ARGV[2]) - 1)
return redis.call('LLEN', KEYS[1])
`)

// Redis is a Queue backed by a single named Redis list.
// LPUSH is the producer end, BRPOP the consumer end.
type Redis struct {
	rdb *redis.Client
	key string
}

func NewRedis(rdb *redis.Client, key string) (*Redis, error) {
	if rdb == nil {
		return nil, errors.New("queue: redis client is required")
	}
	if key == "" {
		return nil, errors.New("queue: list key is required")
	}
	return &Redis{rdb: rdb, key: key}, nil
}

func (q *Redis) Push(ctx context.Context, msg []byte) error {
	if err := q.rdb.LPush(ctx, q.key, msg).Err(); err != nil {
		return fmt.Errorf("queue push: %w", err)
	}
	return nil
}

func (q *Redis) PopBlocking(ctx context.Context, timeout time.Duration) ([]byte, bool, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("queue pop: %w", err)
	}
	// BRPOP returns [key, value].
	if len(res) != 2 {
		return nil, false, fmt.Errorf("queue pop: unexpected reply of %d elements", len(res))
	}
	return []byte(res[1]), true, nil
}

func (q *Redis) Requeue(ctx context.Context, msg []byte) error {
	// RPUSH lands at the BRPOP end, so the retried message is popped next.
	if err := q.rdb.RPush(ctx, q.key, msg).Err(); err != nil {
		return fmt.Errorf("queue requeue: %w", err)
	}
	return nil
}

func (q *Redis) DeadLetter(ctx context.Context, msg []byte) error {
	if err := deadLetterScript.Run(ctx, q.rdb, []string{q.DeadLetterKey()}, msg, maxDeadLetters).Err(); err != nil {
		return fmt.Errorf("queue dead-letter: %w", err)
	}
	return nil
}

func (q *Redis) Len(ctx context.Context) (int64, error) {
	n, err := q.rdb.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("queue len: %w", err)
	}
	return n, nil
}

// DeadLetterKey is the list holding unprocessable messages.
func (q *Redis) DeadLetterKey() string {
	return q.key + ":dead"
}
