package taskpool

import (
	"context"
	stderrors "errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"vlmscore/pkg/errors"
	"vlmscore/pkg/logger"
)

// DefaultTimeout bounds a single task when no override is given. Scoring
// a batch through a slow upstream can legitimately take days, so the
// ceiling is generous and exists to reclaim slots from wedged work.
const DefaultTimeout = 72 * time.Hour

// ErrPoolClosed is returned by Submit after Shutdown has been called.
var ErrPoolClosed = stderrors.New("taskpool: pool is shut down")

type options struct {
	timeout time.Duration
	log     logger.Logger
}

// Option configures a Pool
type Option func(*options)

// WithTimeout sets the per-task execution ceiling
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithLogger sets the pool logger
func WithLogger(log logger.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// Pool runs submitted work with a hard cap on concurrent executions.
// Submission blocks while the pool is full, every task gets exactly one
// terminal outcome, and slots are reclaimed even from work that panics
// or overruns its deadline.
type Pool[T any] struct {
	capacity int
	timeout  time.Duration
	log      logger.Logger

	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	inFlight  map[uint64]Meta
	submitted uint64
	completed uint64
	failed    uint64
	timedOut  uint64

	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// New creates a pool that admits at most capacity tasks at a time
func New[T any](capacity int, opts ...Option) (*Pool[T], error) {
	if capacity < 1 {
		return nil, errors.New(errors.ErrorTypeValidation, fmt.Sprintf("pool capacity must be positive, got %d", capacity))
	}

	o := options{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.timeout <= 0 {
		o.timeout = DefaultTimeout
	}
	if o.log == nil {
		o.log = logger.GetLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool[T]{
		capacity: capacity,
		timeout:  o.timeout,
		log:      o.log,
		sem:      semaphore.NewWeighted(int64(capacity)),
		ctx:      ctx,
		cancel:   cancel,
		inFlight: make(map[uint64]Meta),
	}

	p.log.InfoWithFields("Task pool initialized", map[string]interface{}{
		"max_concurrent": capacity,
		"task_timeout":   o.timeout.String(),
	})

	return p, nil
}

// Submit blocks until a slot is free, then starts work in its own
// goroutine. The returned handle resolves exactly once. Submission is
// aborted by ctx cancellation or pool shutdown, whichever comes first.
func (p *Pool[T]) Submit(ctx context.Context, work Work[T], meta Meta) (*Handle[T], error) {
	if work == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "work must not be nil")
	}
	if meta.Identifier == "" {
		return nil, errors.New(errors.ErrorTypeValidation, "task identifier must not be empty")
	}
	if p.ctx.Err() != nil {
		return nil, ErrPoolClosed
	}

	// Pool shutdown must also unblock a submitter stuck waiting for a slot.
	acquireCtx, cancelAcquire := context.WithCancel(ctx)
	defer cancelAcquire()
	stop := context.AfterFunc(p.ctx, cancelAcquire)
	defer stop()

	if err := p.sem.Acquire(acquireCtx, 1); err != nil {
		if p.ctx.Err() != nil {
			return nil, ErrPoolClosed
		}
		return nil, err
	}
	if p.ctx.Err() != nil {
		p.sem.Release(1)
		return nil, ErrPoolClosed
	}

	p.mu.Lock()
	p.submitted++
	id := p.submitted
	p.inFlight[id] = meta
	p.mu.Unlock()

	h := &Handle[T]{
		id:   id,
		meta: meta,
		done: make(chan struct{}),
	}

	p.log.DebugWithFields("Task submitted", map[string]interface{}{
		"task_id":    id,
		"identifier": meta.Identifier,
	})

	taskCtx, cancelTask := context.WithTimeout(p.ctx, p.timeout)
	p.wg.Add(1)
	go p.run(taskCtx, cancelTask, work, h)

	return h, nil
}

type outcome[T any] struct {
	value T
	err   error
	trace string
}

// run executes one task and resolves its handle. The slot is released
// and the in-flight entry removed no matter how the task ends.
func (p *Pool[T]) run(ctx context.Context, cancel context.CancelFunc, work Work[T], h *Handle[T]) {
	start := time.Now()
	defer p.wg.Done()
	defer p.release(h.id)
	defer cancel()

	// Buffered so an abandoned work goroutine can still deliver its
	// result and exit instead of blocking forever on the send.
	out := make(chan outcome[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				out <- outcome[T]{
					err:   fmt.Errorf("task panicked: %v", r),
					trace: string(debug.Stack()),
				}
			}
		}()
		v, err := work(ctx)
		out <- outcome[T]{value: v, err: err}
	}()

	res := Result[T]{
		TaskID:     h.id,
		Identifier: h.meta.Identifier,
	}

	select {
	case o := <-out:
		// A deadline that fired while the work was finishing still
		// counts as a timeout, regardless of what the work returned.
		if ctx.Err() == context.DeadlineExceeded {
			p.resolveTimeout(&res)
			break
		}
		if o.err != nil {
			res.Status = StatusFailed
			res.Err = o.err
			res.Trace = o.trace
			p.mu.Lock()
			p.failed++
			p.mu.Unlock()
			p.log.ErrorWithFields("Task failed", map[string]interface{}{
				"task_id":    h.id,
				"identifier": h.meta.Identifier,
				"error":      o.err.Error(),
			})
		} else {
			res.Status = StatusSucceeded
			res.Value = o.value
			p.mu.Lock()
			p.completed++
			p.mu.Unlock()
			p.log.DebugWithFields("Task completed", map[string]interface{}{
				"task_id":    h.id,
				"identifier": h.meta.Identifier,
				"duration":   time.Since(start).String(),
			})
		}

	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			// The work goroutine is abandoned. Its context is already
			// cancelled, so cooperative work unwinds on its own.
			p.resolveTimeout(&res)
			break
		}
		// Pool shutdown. Cancellation is the terminal outcome and the
		// outcome counters stay untouched.
		res.Status = StatusFailed
		res.Err = errors.Wrap(errors.ErrorTypeTask, "task cancelled", context.Canceled)
		p.log.DebugWithFields("Task cancelled", map[string]interface{}{
			"task_id":    h.id,
			"identifier": h.meta.Identifier,
		})
	}

	res.Duration = time.Since(start)
	h.result = res
	close(h.done)
}

func (p *Pool[T]) resolveTimeout(res *Result[T]) {
	res.Status = StatusTimedOut
	res.Err = errors.Wrap(errors.ErrorTypeTimeout,
		fmt.Sprintf("task exceeded %s", p.timeout), context.DeadlineExceeded)

	p.mu.Lock()
	p.timedOut++
	p.failed++
	p.mu.Unlock()

	p.log.WarnWithFields("Task timed out", map[string]interface{}{
		"task_id":    res.TaskID,
		"identifier": res.Identifier,
		"timeout":    p.timeout.String(),
	})
}

// release frees the task's slot and drops it from the in-flight set
func (p *Pool[T]) release(id uint64) {
	p.mu.Lock()
	delete(p.inFlight, id)
	p.mu.Unlock()
	p.sem.Release(1)
}

// Stats reports a consistent snapshot of the pool counters
func (p *Pool[T]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	inFlight := len(p.inFlight)
	return Stats{
		Capacity:    p.capacity,
		InFlight:    inFlight,
		Available:   p.capacity - inFlight,
		Submitted:   p.submitted,
		Completed:   p.completed,
		Failed:      p.failed,
		TimedOut:    p.timedOut,
		SuccessRate: float64(p.completed) / float64(max(p.submitted, 1)) * 100,
	}
}

// InFlight reports how many tasks are currently executing
func (p *Pool[T]) InFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inFlight)
}

// WaitIdle polls until no tasks are in flight. It does not prevent new
// submissions; callers decide when the batch is over.
func (p *Pool[T]) WaitIdle(ctx context.Context, pollInterval time.Duration) error {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		p.mu.Lock()
		n := len(p.inFlight)
		p.mu.Unlock()
		if n == 0 {
			return nil
		}

		p.log.DebugWithFields("Waiting for active tasks", map[string]interface{}{
			"in_flight": n,
		})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Shutdown cancels all in-flight tasks and waits for them to resolve.
// It is idempotent; only the first call does the work. Waiting is
// bounded by ctx.
func (p *Pool[T]) Shutdown(ctx context.Context) error {
	var err error
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		n := len(p.inFlight)
		p.mu.Unlock()
		if n > 0 {
			p.log.InfoWithFields("Cancelling active tasks", map[string]interface{}{
				"in_flight": n,
			})
		}

		p.cancel()

		drained := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(drained)
		}()

		select {
		case <-drained:
			p.log.Info("Task pool shut down")
		case <-ctx.Done():
			err = ctx.Err()
		}
	})
	return err
}
