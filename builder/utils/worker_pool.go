package utils

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

const (
	MaxWorkers       = 64
	WorkerBufferSize = 4
)

// WorkerPool runs handler over submitted tasks on a fixed set of
// goroutines. Handler errors are collected, not fatal: every task still
// runs unless ctx is cancelled.
type WorkerPool[T any] struct {
	workers   int
	ctx       context.Context
	wg        sync.WaitGroup
	taskQueue chan T
	handler   func(context.Context, T) error

	mu   sync.Mutex
	errs []error
}

func NewWorkerPool[T any](ctx context.Context, workers int, handler func(context.Context, T) error) *WorkerPool[T] {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > MaxWorkers {
		workers = MaxWorkers
	}
	return &WorkerPool[T]{
		workers:   workers,
		ctx:       ctx,
		taskQueue: make(chan T, workers*WorkerBufferSize),
		handler:   handler,
	}
}

// Workers is the number of goroutines the pool runs.
func (p *WorkerPool[T]) Workers() int { return p.workers }

func (p *WorkerPool[T]) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *WorkerPool[T]) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.taskQueue:
			if !ok {
				return
			}
			if err := p.handler(p.ctx, task); err != nil {
				p.mu.Lock()
				p.errs = append(p.errs, err)
				p.mu.Unlock()
			}
		}
	}
}

// Submit queues task. It returns false once ctx is cancelled.
func (p *WorkerPool[T]) Submit(task T) bool {
	if p.ctx.Err() != nil {
		return false
	}
	select {
	case <-p.ctx.Done():
		return false
	case p.taskQueue <- task:
		return true
	}
}

// Stop waits for queued tasks and returns the joined handler errors,
// or the context error when the pool was cancelled.
func (p *WorkerPool[T]) Stop() error {
	close(p.taskQueue)
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ctx.Err(); err != nil {
		return err
	}
	return errors.Join(p.errs...)
}

// RunAll submits every task to a fresh pool and waits for it.
func RunAll[T any](ctx context.Context, workers int, tasks []T, handler func(context.Context, T) error) error {
	pool := NewWorkerPool(ctx, workers, handler)
	pool.Start()
	for _, t := range tasks {
		if !pool.Submit(t) {
			break
		}
	}
	return pool.Stop()
}
