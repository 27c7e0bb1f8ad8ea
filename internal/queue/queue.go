package queue

import (
	"context"
	"time"
)

// Queue is the durable delivery channel between the ingestion endpoint and
// the consumer. Messages are opaque UTF-8 JSON.
//
// Delivery contract:
// - Push appends to the producer end; PopBlocking removes from the consumer
//   end. FIFO between successive pushes as observed by a single consumer.
// - Pop is destructive and exclusive: no two consumers ever receive the same
//   message. A crash between pop and commit loses the message; this is a
//   documented limitation of the transport, not something callers may assume
//   away.
// - PopBlocking returns ok=false when the queue stayed empty for the whole
//   timeout. That is idle-wait, not an error.
type Queue interface {
	Push(ctx context.Context, msg []byte) error
	PopBlocking(ctx context.Context, timeout time.Duration) (msg []byte, ok bool, err error)

	// Requeue puts a popped-but-unprocessed message back at the consumer end,
	// so the next pop retries it before anything newer.
	Requeue(ctx context.Context, msg []byte) error

	// DeadLetter parks a message that can never be processed (malformed or
	// contract-violating) where an operator can inspect it.
	DeadLetter(ctx context.Context, msg []byte) error

	Len(ctx context.Context) (int64, error)
}
