// Package queue serializes chat requests per user. Each user gets a
// dedicated worker goroutine created on demand and torn down when idle,
// so requests from one user are processed strictly in enqueue order
// while unrelated users proceed fully in parallel.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Common errors returned by Enqueue. ErrQueueFull and ErrTimeout are
// distinct so the API boundary can map them to different status codes
// (rate-limited vs gateway-timeout).
var (
	ErrQueueFull = errors.New("too many pending requests")
	ErrTimeout   = errors.New("request timed out")
	ErrClosed    = errors.New("queue is closed")
)

// Config holds tunables for the per-user queue.
type Config struct {
	// Capacity bounds the number of queued (not yet started) requests
	// per user. An enqueue beyond the bound fails immediately with
	// ErrQueueFull instead of blocking the caller.
	Capacity int

	// RequestTimeout is how long a caller waits for its request to
	// complete. On expiry the caller receives ErrTimeout; the in-flight
	// handler is not killed, but its result is discarded.
	RequestTimeout time.Duration

	// IdleGrace is how long a worker with no queued work lingers before
	// it is torn down. A later enqueue transparently creates a fresh one.
	IdleGrace time.Duration
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Capacity:       10,
		RequestTimeout: 30 * time.Second,
		IdleGrace:      5 * time.Second,
	}
}

// Handler is a unit of work processed by a user's worker. It receives a
// context tied to the queue's lifetime rather than the caller's, so a
// caller timeout never cancels execution mid-flight: persistence
// operations for a user always complete before the next queued unit starts.
type Handler[R any] func(ctx context.Context) (R, error)

// outcome carries a handler's result or failure back to the caller.
type outcome[R any] struct {
	result R
	err    error
}

// job is one pending unit of work. The done channel is buffered so the
// worker's delivery never blocks and is simply discarded when the
// caller has already given up.
type job[R any] struct {
	fn   Handler[R]
	done chan outcome[R]
}

// worker is the sequential execution context for a single user.
type worker[R any] struct {
	userID uuid.UUID
	jobs   chan *job[R]
}

// Queue dispatches handlers to per-user workers. The mutex guards only
// the worker map; it is never held while a handler executes.
type Queue[R any] struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	workers map[uuid.UUID]*worker[R]
	closed  bool

	wg      sync.WaitGroup
	baseCtx context.Context
	cancel  context.CancelFunc
}

// New creates a Queue with the given configuration.
func New[R any](cfg Config, logger *slog.Logger) *Queue[R] {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultConfig().Capacity
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultConfig().RequestTimeout
	}
	if cfg.IdleGrace <= 0 {
		cfg.IdleGrace = DefaultConfig().IdleGrace
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Queue[R]{
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "user_queue")),
		workers: make(map[uuid.UUID]*worker[R]),
		baseCtx: ctx,
		cancel:  cancel,
	}
}

// Enqueue appends fn to the given user's worker, creating the worker if
// none exists, and waits for the result. Requests for one user are
// started and completed in strict enqueue order.
//
// Returns ErrQueueFull immediately if the user already has Capacity
// queued requests, ErrTimeout if the handler does not complete within
// RequestTimeout, or the caller's context error if ctx is cancelled
// first. In the timeout and cancellation cases the handler still runs
// to completion in the background; its result is discarded and the
// worker only then moves on to the next queued unit.
func (q *Queue[R]) Enqueue(ctx context.Context, userID uuid.UUID, fn Handler[R]) (R, error) {
	var zero R

	j := &job[R]{
		fn:   fn,
		done: make(chan outcome[R], 1),
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return zero, ErrClosed
	}

	w, ok := q.workers[userID]
	if !ok {
		w = &worker[R]{
			userID: userID,
			jobs:   make(chan *job[R], q.cfg.Capacity),
		}
		q.workers[userID] = w
		q.wg.Add(1)
		go q.run(w)
		q.logger.Debug("worker created", slog.String("user_id", userID.String()))
	}

	select {
	case w.jobs <- j:
		q.mu.Unlock()
	default:
		q.mu.Unlock()
		q.logger.Warn("user queue at capacity, rejecting request",
			slog.String("user_id", userID.String()),
			slog.Int("capacity", q.cfg.Capacity))
		return zero, fmt.Errorf("%w: %d requests already pending for this user",
			ErrQueueFull, q.cfg.Capacity)
	}

	timer := time.NewTimer(q.cfg.RequestTimeout)
	defer timer.Stop()

	select {
	case out := <-j.done:
		return out.result, out.err
	case <-timer.C:
		q.logger.Warn("caller timed out waiting for queued request",
			slog.String("user_id", userID.String()),
			slog.Duration("timeout", q.cfg.RequestTimeout))
		return zero, fmt.Errorf("%w after %s", ErrTimeout, q.cfg.RequestTimeout)
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Close stops accepting work, fails any queued-but-unstarted jobs with
// ErrClosed, and waits for all workers to finish their in-flight handler.
func (q *Queue[R]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
	q.logger.Info("queue closed")
}

// run is the per-user worker loop: pull the next job, execute it to
// completion, deliver the outcome, and retire after IdleGrace with no
// queued work.
func (q *Queue[R]) run(w *worker[R]) {
	defer q.wg.Done()

	idle := time.NewTimer(q.cfg.IdleGrace)
	defer idle.Stop()

	for {
		select {
		case j := <-w.jobs:
			j.done <- q.execute(j)

			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(q.cfg.IdleGrace)

		case <-idle.C:
			// Re-check under the map lock: an enqueue may have raced the
			// tick. Removal and the channel-empty check happen atomically
			// with respect to Enqueue, so no job is ever stranded.
			q.mu.Lock()
			if len(w.jobs) == 0 {
				delete(q.workers, w.userID)
				q.mu.Unlock()
				q.logger.Debug("idle worker retired",
					slog.String("user_id", w.userID.String()))
				return
			}
			q.mu.Unlock()
			idle.Reset(q.cfg.IdleGrace)

		case <-q.baseCtx.Done():
			q.drainOnClose(w)
			return
		}
	}
}

// drainOnClose fails any remaining queued jobs and removes the worker.
func (q *Queue[R]) drainOnClose(w *worker[R]) {
	for {
		select {
		case j := <-w.jobs:
			j.done <- outcome[R]{err: ErrClosed}
		default:
			q.mu.Lock()
			delete(q.workers, w.userID)
			q.mu.Unlock()
			return
		}
	}
}

// execute runs a handler, converting panics into errors so a misbehaving
// handler can never kill its user's worker or be silently swallowed.
func (q *Queue[R]) execute(j *job[R]) (out outcome[R]) {
	defer func() {
		if p := recover(); p != nil {
			q.logger.Error("queue handler panicked", slog.Any("panic", p))
			out = outcome[R]{err: fmt.Errorf("handler panicked: %v", p)}
		}
	}()

	result, err := j.fn(q.baseCtx)
	return outcome[R]{result: result, err: err}
}

// workerCount reports the number of live workers. Used by tests to
// observe idle retirement.
func (q *Queue[R]) workerCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.workers)
}
