package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is one queued unit of background work carrying a typed payload, such
// as a single page of the asset revaluation sweep.
type Task[P any] struct {
	ID       string
	Kind     string
	Payload  P
	Attempt  int
	Enqueued time.Time
}

// Handler processes a task. Returning an error requeues the task until the
// retry budget is spent.
type Handler[P any] func(context.Context, Task[P]) error

// Config tunes pool behaviour.
type Config struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Pool is an in-memory worker pool with bounded retry. Each failed task waits
// attempt*RetryDelay before its next run, so a struggling dependency gets
// progressively more room.
type Pool[P any] struct {
	name    string
	handler Handler[P]

	workers    int
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	tasks   chan Task[P]
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewPool builds a pool that feeds tasks to the provided handler.
func NewPool[P any](name string, handler Handler[P], cfg Config) *Pool[P] {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Pool[P]{
		name:       name,
		handler:    handler,
		workers:    cfg.Workers,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
		tasks:      make(chan Task[P], cfg.BufferSize),
	}
}

// Start launches the workers. Safe to call once.
func (p *Pool[P]) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	p.started = true
	p.logger.Sugar().Infow("worker pool started", "pool", p.name, "workers", p.workers)
}

// Stop cancels the workers and waits for them to exit.
func (p *Pool[P]) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.cancel()
	p.mu.Unlock()
	p.wg.Wait()
	p.logger.Sugar().Infow("worker pool stopped", "pool", p.name)
}

// Enqueue submits a task. It fails when the pool is not running.
func (p *Pool[P]) Enqueue(task Task[P]) error {
	p.mu.Lock()
	ctx := p.ctx
	started := p.started
	p.mu.Unlock()

	if !started {
		return fmt.Errorf("pool %s not started", p.name)
	}
	if task.Enqueued.IsZero() {
		task.Enqueued = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("pool %s stopped: %w", p.name, ctx.Err())
	case p.tasks <- task:
		return nil
	}
}

func (p *Pool[P]) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case task := <-p.tasks:
			if err := p.handler(p.ctx, task); err != nil {
				p.retry(task, err)
			}
		}
	}
}

func (p *Pool[P]) retry(task Task[P], err error) {
	task.Attempt++
	if task.Attempt > p.maxRetries {
		p.logger.Sugar().Errorw("task exceeded retries", "pool", p.name, "task_id", task.ID, "kind", task.Kind, "error", err)
		return
	}
	backoff := time.Duration(task.Attempt) * p.retryDelay
	p.logger.Sugar().Warnw("task failed, retrying", "pool", p.name, "task_id", task.ID, "kind", task.Kind, "attempt", task.Attempt, "error", err)

	go func(t Task[P]) {
		timer := time.NewTimer(backoff)
		defer timer.Stop()
		select {
		case <-p.ctx.Done():
			return
		case <-timer.C:
			if err := p.Enqueue(t); err != nil {
				p.logger.Sugar().Errorw("failed to requeue task", "pool", p.name, "task_id", t.ID, "error", err)
			}
		}
	}(task)
}
