package utils

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestRunAll(t *testing.T) {
	var sum atomic.Int64
	tasks := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	err := RunAll(context.Background(), 3, tasks, func(_ context.Context, n int) error {
		sum.Add(int64(n))
		return nil
	})
	if err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}
	if sum.Load() != 55 {
		t.Errorf("sum = %d, want 55", sum.Load())
	}
}

func TestRunAllCollectsErrors(t *testing.T) {
	errOdd := errors.New("odd")
	var ran atomic.Int64

	err := RunAll(context.Background(), 2, []int{1, 2, 3, 4}, func(_ context.Context, n int) error {
		ran.Add(1)
		if n%2 == 1 {
			return errOdd
		}
		return nil
	})
	if !errors.Is(err, errOdd) {
		t.Errorf("err = %v, want errOdd", err)
	}
	if ran.Load() != 4 {
		t.Errorf("ran %d tasks, want 4: a failing task must not stop the others", ran.Load())
	}
}

func TestWorkerPoolCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := NewWorkerPool(ctx, 1, func(context.Context, int) error { return nil })
	pool.Start()
	if pool.Submit(1) {
		t.Error("Submit should refuse work after cancellation")
	}
	if err := pool.Stop(); !errors.Is(err, context.Canceled) {
		t.Errorf("Stop() = %v, want context.Canceled", err)
	}
}

func TestWorkerPoolClamp(t *testing.T) {
	ctx := context.Background()
	noop := func(context.Context, int) error { return nil }
	if got := NewWorkerPool(ctx, 1000, noop).Workers(); got != MaxWorkers {
		t.Errorf("Workers() = %d, want %d", got, MaxWorkers)
	}
	if got := NewWorkerPool(ctx, 0, noop).Workers(); got < 1 {
		t.Errorf("Workers() = %d, want at least 1", got)
	}
}
