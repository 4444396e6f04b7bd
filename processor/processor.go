// Package processor runs a pool of workers over a heapqueue.Queue, invoking
// a handler for each element as it becomes available. Elements are handed to
// workers in the queue's priority order; with more than one worker, handler
// completions may of course interleave.
package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"github.com/andrewortman/heapqueue"
)

var log = logging.Logger("heapqueue/processor")

var (
	// ErrAlreadyStarted is returned by Start when the pool is running.
	ErrAlreadyStarted = errors.New("processor: already started")
	// ErrHandlerPanic wraps a recovered handler panic in the error handed
	// to OnComplete.
	ErrHandlerPanic = errors.New("processor: handler panicked")
)

// Handler processes one element taken from the queue. The context is the
// pool's run context and is cancelled when the pool stops.
type Handler[T any] func(ctx context.Context, item T) error

// Processor drains a queue with a fixed pool of worker goroutines.
type Processor[T any] struct {
	queue   *heapqueue.Queue[T]
	handler Handler[T]
	workers int

	mu       sync.Mutex
	started  bool
	stopping bool // Stop is draining; cleared together with started
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	metrics struct {
		sync.Mutex
		processed int
		failed    int
		avgTime   time.Duration
		lastTime  time.Duration
	}

	// onComplete runs on the worker goroutine after each element.
	onComplete func(item T, err error, duration time.Duration)
}

// New constructs a pool over q. workers fixes the pool size; values below
// one are raised to one. It panics if q or handler is nil.
func New[T any](q *heapqueue.Queue[T], handler Handler[T], workers int) *Processor[T] {
	if q == nil {
		panic("processor: nil queue")
	}
	if handler == nil {
		panic("processor: nil handler")
	}
	if workers < 1 {
		workers = 1
	}
	return &Processor[T]{
		queue:   q,
		handler: handler,
		workers: workers,
	}
}

// OnComplete sets a callback invoked after every element, successful or not.
// Set it before Start.
func (p *Processor[T]) OnComplete(fn func(item T, err error, duration time.Duration)) {
	p.onComplete = fn
}

// Start launches the worker pool. It returns ErrAlreadyStarted if the pool
// is already running. A stopped pool may be started again.
func (p *Processor[T]) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return ErrAlreadyStarted
	}
	p.started = true
	p.ctx, p.cancel = context.WithCancel(context.Background())

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	log.Infof("processor started with %d workers", p.workers)
	return nil
}

// Stop cancels the pool and waits for in-flight handlers to return.
// Unprocessed elements stay in the queue. The pool counts as running until
// the drain completes, so a Start arriving during Stop is refused instead of
// adding workers to the generation being drained. Stopping a stopped or
// already-stopping pool is a no-op.
func (p *Processor[T]) Stop() {
	p.mu.Lock()
	if !p.started || p.stopping {
		p.mu.Unlock()
		return
	}
	p.stopping = true
	cancel := p.cancel
	p.mu.Unlock()

	cancel()
	p.wg.Wait()

	p.mu.Lock()
	p.started = false
	p.stopping = false
	p.mu.Unlock()
	log.Infof("processor stopped")
}

// Metrics is a point-in-time snapshot of processing counters.
type Metrics struct {
	Processed int           // handler invocations that returned
	Failed    int           // invocations that errored or panicked
	AvgTime   time.Duration // weighted toward recent invocations
	LastTime  time.Duration
}

// Metrics returns a snapshot of the pool's counters.
func (p *Processor[T]) Metrics() Metrics {
	p.metrics.Lock()
	defer p.metrics.Unlock()
	return Metrics{
		Processed: p.metrics.processed,
		Failed:    p.metrics.failed,
		AvgTime:   p.metrics.avgTime,
		LastTime:  p.metrics.lastTime,
	}
}

func (p *Processor[T]) worker() {
	defer p.wg.Done()
	for {
		item, err := p.queue.Take(p.ctx)
		if err != nil {
			// Cancelled: the pool is shutting down.
			return
		}
		p.process(item)
	}
}

func (p *Processor[T]) process(item T) {
	start := time.Now()
	err := p.invoke(item)
	duration := time.Since(start)

	p.updateMetrics(err, duration)
	if p.onComplete != nil {
		p.onComplete(item, err, duration)
	}
	if err != nil {
		log.Debugf("element failed after %v: %v", duration, err)
	}
}

// invoke runs the handler with panic containment so one bad element cannot
// take down its worker.
func (p *Processor[T]) invoke(item T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("handler panic recovered: %v", r)
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return p.handler(p.ctx, item)
}

func (p *Processor[T]) updateMetrics(err error, duration time.Duration) {
	p.metrics.Lock()
	defer p.metrics.Unlock()

	p.metrics.processed++
	if err != nil {
		p.metrics.failed++
	}
	p.metrics.lastTime = duration

	// Moving average weighted toward recent handler runs.
	if p.metrics.avgTime == 0 {
		p.metrics.avgTime = duration
	} else {
		p.metrics.avgTime = (p.metrics.avgTime*4 + duration) / 5
	}
}
