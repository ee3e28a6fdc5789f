package work

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrPoolStopped        = errors.New("worker pool has been stopped")
	ErrTaskTimeout        = errors.New("task execution timeout")
)

// TaskResult carries one task's outcome with timing information.
type TaskResult[T any] struct {
	TaskID   string
	Result   T
	Error    error
	Duration time.Duration
}

// IsSuccess returns true if the task completed successfully
func (tr *TaskResult[T]) IsSuccess() bool {
	return tr.Error == nil
}

// Executor is a unit of work the pool can run.
type Executor[T any] interface {
	ExecutorID() string
	Execute(ctx context.Context) (T, error)
	OnError(error)
	// Timeout bounds this task's execution. Zero means the pool default.
	Timeout() time.Duration
}

// Pool runs Executors on a bounded set of workers. Site scrapes hold a
// browser session each, so the worker count caps concurrent sessions.
type Pool[T any] struct {
	numWorkers  int
	taskTimeout time.Duration

	tasks   chan Executor[T]
	results chan TaskResult[T]
	quit    chan struct{}

	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
	stopped   atomic.Bool

	completed int64
}

// NewPool creates a pool with numWorkers workers and a task queue of
// queueSize. taskTimeout is the default per-task bound.
func NewPool[T any](numWorkers, queueSize int, taskTimeout time.Duration) (*Pool[T], error) {
	if numWorkers <= 0 {
		return nil, ErrInvalidWorkerCount
	}
	if queueSize < 0 {
		queueSize = 0
	}
	if taskTimeout <= 0 {
		taskTimeout = 5 * time.Minute
	}

	return &Pool[T]{
		numWorkers:  numWorkers,
		taskTimeout: taskTimeout,
		tasks:       make(chan Executor[T], queueSize),
		results:     make(chan TaskResult[T], numWorkers*2),
		quit:        make(chan struct{}),
	}, nil
}

// Start launches the workers. Calling Start twice is a no-op.
func (p *Pool[T]) Start(ctx context.Context, poolID string) {
	p.startOnce.Do(func() {
		log.Info().Str("pool", poolID).Int("workers", p.numWorkers).Msg("Worker pool started")

		for i := 0; i < p.numWorkers; i++ {
			p.wg.Add(1)
			go p.worker(ctx, poolID, i)
		}
	})
}

// Submit queues a task, blocking until the queue accepts it or the pool or
// context shuts down.
func (p *Pool[T]) Submit(ctx context.Context, task Executor[T]) error {
	if p.stopped.Load() {
		return ErrPoolStopped
	}

	select {
	case p.tasks <- task:
		return nil
	case <-p.quit:
		return ErrPoolStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop closes the task queue, waits for in-flight tasks and closes the
// results channel.
func (p *Pool[T]) Stop() {
	p.stopOnce.Do(func() {
		p.stopped.Store(true)
		close(p.tasks)
		p.wg.Wait()
		close(p.quit)
		close(p.results)
	})
}

// Results returns the results channel. It closes after Stop once all
// in-flight tasks have reported.
func (p *Pool[T]) Results() <-chan TaskResult[T] {
	return p.results
}

// Completed returns how many tasks have finished.
func (p *Pool[T]) Completed() int64 {
	return atomic.LoadInt64(&p.completed)
}

func (p *Pool[T]) worker(ctx context.Context, poolID string, workerID int) {
	defer p.wg.Done()

	for task := range p.tasks {
		if ctx.Err() != nil {
			// Drain remaining tasks as cancelled so submitters' results
			// still arrive.
			p.report(TaskResult[T]{TaskID: task.ExecutorID(), Error: ctx.Err()})
			continue
		}

		p.execute(ctx, task, poolID, workerID)
	}
}

func (p *Pool[T]) execute(ctx context.Context, task Executor[T], poolID string, workerID int) {
	timeout := p.taskTimeout
	if t := task.Timeout(); t > 0 {
		timeout = t
	}

	taskCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	result, err := p.runTask(taskCtx, task)
	duration := time.Since(start)

	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		err = ErrTaskTimeout
	}
	if err != nil {
		task.OnError(err)
	}

	log.Debug().
		Str("pool", poolID).
		Int("worker", workerID).
		Str("task", task.ExecutorID()).
		Dur("duration", duration).
		Bool("success", err == nil).
		Msg("Task finished")

	p.report(TaskResult[T]{
		TaskID:   task.ExecutorID(),
		Result:   result,
		Error:    err,
		Duration: duration,
	})

	atomic.AddInt64(&p.completed, 1)
}

// runTask isolates one task's panic. Browser and parser code on the site
// path can panic, and a crashing site must become a failed result, not a
// dead process.
func (p *Pool[T]) runTask(ctx context.Context, task Executor[T]) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
			log.Error().
				Str("task", task.ExecutorID()).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("Task panicked")
		}
	}()

	return task.Execute(ctx)
}

func (p *Pool[T]) report(res TaskResult[T]) {
	p.results <- res
}
