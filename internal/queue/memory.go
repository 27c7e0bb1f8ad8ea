package queue

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Queue with the same delivery contract as the Redis
// implementation. It exists for tests and local runs without Redis; it is not
// durable and not intended for production use.
type Memory struct {
	mu     sync.Mutex
	items  [][]byte
	dead   [][]byte
	notify chan struct{}
}

func NewMemory() *Memory {
	return &Memory{notify: make(chan struct{}, 1)}
}

func (q *Memory) Push(ctx context.Context, msg []byte) error {
	q.mu.Lock()
	q.items = append(q.items, cloneBytes(msg))
	q.mu.Unlock()
	q.wake()
	return nil
}

func (q *Memory) PopBlocking(ctx context.Context, timeout time.Duration) ([]byte, bool, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			msg := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return msg, true, nil
		}
		q.mu.Unlock()

		select {
		case <-q.notify:
		case <-deadline.C:
			return nil, false, nil
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
}

func (q *Memory) Requeue(ctx context.Context, msg []byte) error {
	q.mu.Lock()
	q.items = append([][]byte{cloneBytes(msg)}, q.items...)
	q.mu.Unlock()
	q.wake()
	return nil
}

func (q *Memory) DeadLetter(ctx context.Context, msg []byte) error {
	q.mu.Lock()
	q.dead = append(q.dead, cloneBytes(msg))
	q.mu.Unlock()
	return nil
}

func (q *Memory) Len(ctx context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.items)), nil
}

// DeadLetters returns a copy of the parked messages.
func (q *Memory) DeadLetters() [][]byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([][]byte, len(q.dead))
	for i, m := range q.dead {
		out[i] = cloneBytes(m)
	}
	return out
}

func (q *Memory) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
