package usecase

import (
	"context"
	"sync"
)

type task[T any] func(ctx context.Context) T

// workerPool runs submitted tasks on a fixed number of goroutines and
// streams their results. Results arrive in completion order.
type workerPool[T any] struct {
	workers int
	tasks   chan task[T]
	wg      sync.WaitGroup
}

func newWorkerPool[T any](workers, buffer int) *workerPool[T] {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	return &workerPool[T]{
		workers: workers,
		tasks:   make(chan task[T], buffer),
	}
}

// Submit queues t, giving up when ctx is done.
func (p *workerPool[T]) Submit(ctx context.Context, t task[T]) bool {
	if p == nil || t == nil {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case p.tasks <- t:
		return true
	}
}

func (p *workerPool[T]) Close() {
	if p == nil {
		return
	}
	close(p.tasks)
}

func (p *workerPool[T]) Run(ctx context.Context) <-chan T {
	out := make(chan T, p.workers)

	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case t, ok := <-p.tasks:
					if !ok {
						return
					}
					if t == nil {
						continue
					}
					res := t(ctx)
					select {
					case <-ctx.Done():
						return
					case out <- res:
					}
				}
			}
		}()
	}

	go func() {
		p.wg.Wait()
		close(out)
	}()

	return out
}
