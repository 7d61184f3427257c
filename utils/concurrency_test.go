package utils

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPoolSingleWorkerKeepsOrder(t *testing.T) {
	pool := NewWorkerPool(1, 100)
	defer pool.Close()

	var mu sync.Mutex
	var got []int
	for i := 0; i < 50; i++ {
		i := i
		pool.TrySubmit(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}
	pool.Wait()

	if len(got) != 50 {
		t.Fatalf("jobs run: got %d, want 50", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("job order: position %d ran job %d", i, v)
		}
	}
}

func TestWorkerPoolTrySubmitFullQueue(t *testing.T) {
	pool := NewWorkerPool(1, 1)
	defer pool.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	pool.TrySubmit(func() {
		close(started)
		<-release
	})
	<-started

	if !pool.TrySubmit(func() {}) {
		t.Fatal("second job should fit in the queue")
	}
	if pool.TrySubmit(func() {}) {
		t.Error("third job should be rejected while the queue is full")
	}

	close(release)
	pool.Wait()
}

func TestWorkerPoolRejectsAfterClose(t *testing.T) {
	pool := NewWorkerPool(2, 4)

	var ran int64
	for i := 0; i < 4; i++ {
		pool.TrySubmit(func() { atomic.AddInt64(&ran, 1) })
	}
	pool.Close()

	if ran != 4 {
		t.Errorf("jobs run before close: got %d, want 4", ran)
	}
	if pool.TrySubmit(func() {}) {
		t.Error("TrySubmit after Close should return false")
	}
	pool.Close()
}

func TestRetryEventuallySucceeds(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, Logger: NewNopLogger()}

	calls := 0
	err := r.DoContext(context.Background(), "flaky", func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
}

func TestRetryGivesUp(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, Logger: NewNopLogger()}

	boom := errors.New("boom")
	err := r.DoContext(context.Background(), "always-fails", func() error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped boom error, got %v", err)
	}
}

func TestRetryStopsWhenCancelled(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 5, BaseDelay: time.Hour, Logger: NewNopLogger()}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := r.DoContext(ctx, "cancelled", func() error {
		calls++
		cancel()
		return errors.New("down")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err: got %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
}
