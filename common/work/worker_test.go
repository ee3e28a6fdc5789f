package work

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewPool(t *testing.T) {
	tests := []struct {
		name        string
		numWorkers  int
		queueSize   int
		expectError bool
	}{
		{"valid pool", 5, 10, false},
		{"zero workers", 0, 10, true},
		{"negative workers", -1, 10, true},
		{"zero queue size", 5, 0, false},
		{"negative queue size clamps", 5, -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, err := NewPool[string](tt.numWorkers, tt.queueSize, time.Second)
			if tt.expectError {
				if !errors.Is(err, ErrInvalidWorkerCount) {
					t.Errorf("Expected ErrInvalidWorkerCount, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}
			if pool == nil {
				t.Error("Expected pool but got nil")
			}
		})
	}
}

func TestPoolBasicOperation(t *testing.T) {
	ctx := context.Background()
	pool, err := NewPool[string](2, 5, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	pool.Start(ctx, "test-pool")
	defer pool.Stop()

	var executedCount int64
	task, err := NewTask[string](
		func(ctx context.Context) (string, error) {
			atomic.AddInt64(&executedCount, 1)
			return "test result", nil
		},
		WithErrorHandler[string](func(err error) {
			t.Errorf("Unexpected error: %v", err)
		}),
		WithTimeout[string](5*time.Second),
	)
	if err != nil {
		t.Fatal(err)
	}

	if err := pool.Submit(ctx, task); err != nil {
		t.Fatal(err)
	}

	select {
	case result := <-pool.Results():
		if !result.IsSuccess() {
			t.Errorf("Task failed: %v", result.Error)
		}
		if result.Result != "test result" {
			t.Errorf("Expected 'test result', got '%s'", result.Result)
		}
		if atomic.LoadInt64(&executedCount) != 1 {
			t.Errorf("Expected 1 execution, got %d", executedCount)
		}
	case <-time.After(3 * time.Second):
		t.Error("Timeout waiting for result")
	}
}

func TestPoolConcurrency(t *testing.T) {
	ctx := context.Background()
	pool, err := NewPool[int](3, 10, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	pool.Start(ctx, "concurrency-test-pool")

	const numTasks = 10
	var completedTasks int64

	for i := 0; i < numTasks; i++ {
		taskNum := i
		task := MustNewTask[int](
			func(ctx context.Context) (int, error) {
				time.Sleep(20 * time.Millisecond)
				atomic.AddInt64(&completedTasks, 1)
				return taskNum * 2, nil
			},
		)
		if err := pool.Submit(ctx, task); err != nil {
			t.Fatal(err)
		}
	}

	go pool.Stop()

	received := 0
	for result := range pool.Results() {
		if !result.IsSuccess() {
			t.Errorf("Task failed: %v", result.Error)
		}
		received++
	}

	if received != numTasks {
		t.Errorf("Received %d results, want %d", received, numTasks)
	}
	if atomic.LoadInt64(&completedTasks) != numTasks {
		t.Errorf("Completed %d tasks, want %d", completedTasks, numTasks)
	}
	if pool.Completed() != numTasks {
		t.Errorf("Completed() = %d, want %d", pool.Completed(), numTasks)
	}
}

func TestPoolTaskTimeout(t *testing.T) {
	ctx := context.Background()
	pool, err := NewPool[string](1, 1, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	pool.Start(ctx, "timeout-test-pool")
	defer pool.Stop()

	var handlerErr atomic.Value
	task := MustNewTask[string](
		func(ctx context.Context) (string, error) {
			select {
			case <-time.After(5 * time.Second):
				return "too late", nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		},
		WithErrorHandler[string](func(err error) {
			handlerErr.Store(err)
		}),
		WithTimeout[string](50*time.Millisecond),
	)

	if err := pool.Submit(ctx, task); err != nil {
		t.Fatal(err)
	}

	select {
	case result := <-pool.Results():
		if !errors.Is(result.Error, ErrTaskTimeout) {
			t.Errorf("Expected ErrTaskTimeout, got %v", result.Error)
		}
		if got, _ := handlerErr.Load().(error); !errors.Is(got, ErrTaskTimeout) {
			t.Errorf("Error handler saw %v, want ErrTaskTimeout", got)
		}
	case <-time.After(3 * time.Second):
		t.Error("Timeout waiting for result")
	}
}

func TestPoolRecoversPanickingTask(t *testing.T) {
	ctx := context.Background()
	pool, err := NewPool[string](2, 2, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	pool.Start(ctx, "panic-test-pool")

	panicking := MustNewTask[string](
		func(ctx context.Context) (string, error) {
			panic("site exploded")
		},
		WithID[string]("bad-site"),
	)
	healthy := MustNewTask[string](
		func(ctx context.Context) (string, error) {
			return "ok", nil
		},
		WithID[string]("good-site"),
	)

	if err := pool.Submit(ctx, panicking); err != nil {
		t.Fatal(err)
	}
	if err := pool.Submit(ctx, healthy); err != nil {
		t.Fatal(err)
	}

	go pool.Stop()

	results := make(map[string]TaskResult[string])
	for result := range pool.Results() {
		results[result.TaskID] = result
	}

	if len(results) != 2 {
		t.Fatalf("Received %d results, want 2", len(results))
	}

	bad, ok := results["bad-site"]
	if !ok {
		t.Fatal("No result for the panicking task")
	}
	if bad.Error == nil || !strings.Contains(bad.Error.Error(), "site exploded") {
		t.Errorf("Panicking task error = %v, want the panic value", bad.Error)
	}

	good, ok := results["good-site"]
	if !ok {
		t.Fatal("No result for the healthy task")
	}
	if !good.IsSuccess() || good.Result != "ok" {
		t.Errorf("Healthy task result = %q (err %v), want ok", good.Result, good.Error)
	}
}

func TestPoolSubmitAfterStop(t *testing.T) {
	ctx := context.Background()
	pool, err := NewPool[string](1, 1, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	pool.Start(ctx, "stopped-pool")
	pool.Stop()

	task := MustNewTask[string](func(ctx context.Context) (string, error) {
		return "never runs", nil
	})

	if err := pool.Submit(ctx, task); !errors.Is(err, ErrPoolStopped) {
		t.Errorf("Expected ErrPoolStopped, got %v", err)
	}
}

func TestTaskCustomID(t *testing.T) {
	task := MustNewTask[int](
		func(ctx context.Context) (int, error) { return 0, nil },
		WithID[int]("site-acme"),
	)
	if task.ExecutorID() != "site-acme" {
		t.Errorf("ExecutorID = %q, want site-acme", task.ExecutorID())
	}

	auto := MustNewTask[int](func(ctx context.Context) (int, error) { return 0, nil })
	if auto.ExecutorID() == "" {
		t.Error("Tasks without WithID must get a generated ID")
	}
}
