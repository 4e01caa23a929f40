package worker

import (
	"context"
	"log"
	"runtime"
	"sync"

	"farcaster-attestation-frame/internal/domain"
)

// A small worker pool that runs submitted tasks. Each task is independent;
// a slow collaborator call for one job never stalls another job's task.

type Task func(ctx context.Context) error

type Pool struct {
	wg      sync.WaitGroup
	tasks   chan Task
	quit    chan struct{}
	workers int
}

func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queueSize <= 0 {
		queueSize = workers * 4
	}
	return &Pool{
		tasks:   make(chan Task, queueSize),
		quit:    make(chan struct{}),
		workers: workers,
	}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.quit:
			return
		case task := <-p.tasks:
			if task == nil {
				continue
			}
			if err := task(ctx); err != nil {
				log.Printf("worker %d task error: %v", id, err)
			}
		}
	}
}

func (p *Pool) Stop() {
	close(p.quit)
	p.wg.Wait()
}

// Submit enqueues the task without blocking. A saturated queue drops the
// task with ErrQueueFull so the request path stays responsive.
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return domain.ErrInvalidArgument
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return domain.ErrQueueFull
	}
}
