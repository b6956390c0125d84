package workerpool

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Job func(ctx context.Context)

type WorkerPool struct {
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger
	once   sync.Once

	// OnDrop is called when Submit finds the queue full.
	OnDrop func()
}

func NewWorkerPool(ctx context.Context, logger *slog.Logger, workerCount int, queueSize int) *WorkerPool {
	if logger == nil {
		logger = slog.Default()
	}
	if workerCount < 1 {
		workerCount = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	pool := &WorkerPool{
		queue:  make(chan Job, queueSize),
		logger: logger,
	}

	pool.wg.Add(workerCount)
	for range workerCount {
		go pool.worker(ctx)
	}

	return pool
}

func (p *WorkerPool) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("worker received shutdown signal")
			return
		case job, ok := <-p.queue:
			if !ok {
				// queue closed and drained
				return
			}
			p.run(ctx, job)
		}
	}
}

func (p *WorkerPool) run(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker job panicked", "panic", r)
		}
	}()
	job(ctx)
}

// Submit queues job without blocking. It reports false when the job was
// dropped because the queue is full or the pool is shut down.
func (p *WorkerPool) Submit(job Job) (ok bool) {
	defer func() {
		// send on a closed queue after Shutdown
		if recover() != nil {
			ok = false
		}
		if !ok {
			p.logger.Warn("worker pool queue full, job dropped")
			if p.OnDrop != nil {
				p.OnDrop()
			}
		}
	}()

	select {
	case p.queue <- job:
		return true
	default:
		return false
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish or ctx
// to expire.
func (p *WorkerPool) Shutdown(ctx context.Context) {
	p.once.Do(func() { close(p.queue) })

	done := make(chan struct{})

	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		p.logger.Warn("worker pool shutdown timed out")
	case <-done:
		p.logger.Info("worker pool shutdown complete")
	}
}

// WithRetry runs job up to retries times, sleeping delay between attempts.
func WithRetry(logger *slog.Logger, retries int, delay time.Duration, job func(ctx context.Context) error) Job {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context) {
		for i := range retries {
			if ctx.Err() != nil {
				logger.Warn("job canceled before execution")
				return
			}

			err := job(ctx)
			if err == nil {
				return
			}
			logger.Warn("job failed", "attempt", i+1, "retries", retries, "error", err)
			if i == retries-1 {
				break
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}
		logger.Error("job failed after max retries", "retries", retries)
	}
}
