package provider

import (
	"context"
	"runtime"
	"sync"
	"time"

	cerrors "github.com/volli/core/internal/errors"
)

// PoolObserver receives lifecycle events from a WorkerPool's batch runs,
// for metrics and logging.
type PoolObserver interface {
	// OnBatchStart is called when Run begins executing n jobs.
	OnBatchStart(n, workers int)
	// OnBatchComplete is called when Run returns, with the batch
	// duration and whether any job failed.
	OnBatchComplete(d time.Duration, failed bool)
	// OnQueueFull is called when Run rejects a batch because it
	// exceeds queueSize.
	OnQueueFull(n, queueSize int)
}

// NoopPoolObserver implements PoolObserver with no-ops.
type NoopPoolObserver struct{}

func (NoopPoolObserver) OnBatchStart(int, int)          {}
func (NoopPoolObserver) OnBatchComplete(time.Duration, bool) {}
func (NoopPoolObserver) OnQueueFull(int, int)           {}

// WorkerPoolConfig configures a batch WorkerPool.
type WorkerPoolConfig struct {
	// Workers is the number of concurrent goroutines draining the queue.
	// Zero means runtime.NumCPU() — callers on threadless or
	// single-core targets should pass 1 explicitly.
	Workers int

	// QueueSize bounds the number of jobs that may be pending at once.
	// Zero means 4x Workers.
	QueueSize int

	// Observer receives batch lifecycle events. Defaults to NoopPoolObserver.
	Observer PoolObserver
}

func (c WorkerPoolConfig) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

func (c WorkerPoolConfig) queueSize(workers int) int {
	if c.QueueSize > 0 {
		return c.QueueSize
	}
	return workers * 4
}

// WorkerPool runs batches of independent jobs across a fixed number of
// goroutines with a bounded submission queue: a bounded channel stands
// in for the idle-connection stack, workers pull jobs round-robin, and
// a full queue surfaces as an immediate error rather than blocking the
// caller indefinitely.
type WorkerPool struct {
	workers   int
	queueSize int
	observer  PoolObserver

	mu      sync.Mutex
	closed  bool
}

// NewWorkerPool creates a WorkerPool with the given configuration.
func NewWorkerPool(cfg WorkerPoolConfig) *WorkerPool {
	workers := cfg.workers()
	observer := cfg.Observer
	if observer == nil {
		observer = NoopPoolObserver{}
	}
	return &WorkerPool{
		workers:   workers,
		queueSize: cfg.queueSize(workers),
		observer:  observer,
	}
}

// Job is a unit of batch work: compute a result for the item at index i.
type Job func(ctx context.Context, i int) (interface{}, error)

// Run executes n jobs across the pool's workers and returns their results
// in input order (results[i] corresponds to job(ctx, i)). If more than
// queueSize jobs would be outstanding at once, Run returns
// ErrQueueFull immediately without starting any work.
//
// A single job's error does not stop the others; Run returns the first
// error encountered (by index) alongside whatever partial results were
// computed, with unfilled slots left as zero values.
func (p *WorkerPool) Run(ctx context.Context, n int, job Job) ([]interface{}, error) {
	if n == 0 {
		return nil, nil
	}
	if n > p.queueSize {
		p.observer.OnQueueFull(n, p.queueSize)
		return nil, cerrors.ErrQueueFull
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, cerrors.ErrCancelled
	}
	p.mu.Unlock()

	workers := p.workers
	if workers > n {
		workers = n
	}

	start := time.Now()
	p.observer.OnBatchStart(n, workers)

	results := make([]interface{}, n)
	errs := make([]error, n)

	indices := make(chan int, n)
	for i := 0; i < n; i++ {
		indices <- i
	}
	close(indices)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indices {
				select {
				case <-ctx.Done():
					errs[i] = cerrors.ErrCancelled
					continue
				default:
				}
				res, err := job(ctx, i)
				results[i] = res
				errs[i] = err
			}
		}()
	}
	wg.Wait()

	var failed error
	for _, err := range errs {
		if err != nil {
			failed = err
			break
		}
	}
	p.observer.OnBatchComplete(time.Since(start), failed != nil)
	if failed != nil {
		return results, failed
	}
	return results, nil
}

// Close marks the pool closed; subsequent Run calls return ErrCancelled.
// In-flight Run calls are unaffected.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}
