package worker

import (
	"context"
	"sync"
)

// Job is a unit of work, typically one source to check.
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is the outcome of a single job.
type Result interface {
	GetError() error
}

// Pool runs jobs on a fixed number of goroutines. Results accumulate as
// jobs finish and are returned by Wait in completion order.
type Pool struct {
	workers int
	jobs    chan Job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.Mutex
	results []Result
}

// NewPool creates a pool whose jobs run under a child of ctx, so
// cancelling the caller's context (or hitting its deadline) reaches
// every in-flight Job.Execute.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	return &Pool{
		workers: workers,
		jobs:    make(chan Job, workers*2),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
}

func (p *Pool) run() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			res := job.Execute(p.ctx)
			p.mu.Lock()
			p.results = append(p.results, res)
			p.mu.Unlock()
		}
	}
}

// Submit queues a job. It is a no-op after Shutdown.
func (p *Pool) Submit(job Job) {
	select {
	case <-p.ctx.Done():
	case p.jobs <- job:
	}
}

// Wait closes the queue, waits for the workers to drain it, and returns
// every result collected so far. Call Submit only before Wait.
func (p *Pool) Wait() []Result {
	close(p.jobs)
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.results
}

// Shutdown cancels in-flight jobs and stops the workers without draining
// the queue. Queued jobs that never ran produce no results.
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}
