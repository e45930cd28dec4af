package persist

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"animehub/internal/apperr"
)

// DefaultOpTimeout bounds a single storage call.
const DefaultOpTimeout = 5 * time.Second

var ErrQueueClosed = errors.New("persist: queue is closed")

type opKind int

const (
	opSet opKind = iota
	opDelete
)

type op struct {
	kind  opKind
	value string
}

// Queue applies storage writes asynchronously.
//
// Each key has its own FIFO drained by at most one goroutine, so two writes to
// the same key land in the order they were enqueued while different keys
// proceed independently. Every op is attempted once; a failure is logged and
// dropped.
type Queue struct {
	facilities *Facilities
	timeout    time.Duration
	logger     *zap.Logger

	ctx  context.Context
	stop context.CancelFunc

	mu      sync.Mutex
	pending map[string][]op
	active  int           // keys with a running worker
	idle    chan struct{} // closed when active drops to zero
	closed  bool

	failures atomic.Uint64
}

func NewQueue(f *Facilities, timeout time.Duration, logger *zap.Logger) *Queue {
	if timeout <= 0 {
		timeout = DefaultOpTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Queue{
		facilities: f,
		timeout:    timeout,
		logger:     logger.Named("persist"),
		ctx:        ctx,
		stop:       stop,
		pending:    make(map[string][]op),
	}
}

// Set enqueues a write of value under key.
func (q *Queue) Set(key, value string) error {
	return q.enqueue(key, op{kind: opSet, value: value})
}

// Delete enqueues removal of key.
func (q *Queue) Delete(key string) error {
	return q.enqueue(key, op{kind: opDelete})
}

func (q *Queue) enqueue(key string, o op) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	ops, running := q.pending[key]
	q.pending[key] = append(ops, o)
	if running {
		return nil
	}

	if q.active == 0 {
		q.idle = make(chan struct{})
	}
	q.active++
	go q.drain(key)
	return nil
}

// drain applies key's ops until its queue is empty.
func (q *Queue) drain(key string) {
	for {
		q.mu.Lock()
		ops := q.pending[key]
		if len(ops) == 0 {
			delete(q.pending, key)
			q.active--
			if q.active == 0 {
				close(q.idle)
			}
			q.mu.Unlock()
			return
		}
		next := ops[0]
		q.pending[key] = ops[1:]
		q.mu.Unlock()

		q.apply(key, next)
	}
}

func (q *Queue) apply(key string, o op) {
	ctx, cancel := context.WithTimeout(q.ctx, q.timeout)
	defer cancel()

	store := q.facilities.For(key)
	var err error
	switch o.kind {
	case opSet:
		err = store.Set(ctx, key, o.value)
	case opDelete:
		err = store.Delete(ctx, key)
	}
	if err == nil {
		return
	}

	q.failures.Add(1)
	err = apperr.Wrap(apperr.CodeStorageFailure, "persisted write failed", err)
	q.logger.Error("write_failed",
		zap.String("key", key),
		zap.Bool("delete", o.kind == opDelete),
		zap.Error(err),
	)
}

// Failures returns how many ops have failed since the queue was created.
func (q *Queue) Failures() uint64 {
	return q.failures.Load()
}

// Flush blocks until every op enqueued so far has been attempted.
func (q *Queue) Flush(ctx context.Context) error {
	q.mu.Lock()
	if q.active == 0 {
		q.mu.Unlock()
		return nil
	}
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting ops and flushes. If ctx expires first, in-flight
// storage calls are cancelled and the remaining ops are abandoned.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	err := q.Flush(ctx)
	if err != nil {
		q.mu.Lock()
		abandoned := 0
		for key, ops := range q.pending {
			abandoned += len(ops)
			q.pending[key] = nil
		}
		q.mu.Unlock()
		q.logger.Warn("queue_close_timeout", zap.Int("abandoned", abandoned), zap.Error(err))
	}
	q.stop()
	return err
}
