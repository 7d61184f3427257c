package utils

import (
	"sync"
)

// WorkerPool runs submitted jobs on a fixed set of background goroutines.
// With a single worker, jobs run strictly in submission order.
type WorkerPool struct {
	jobs chan func()
	wg   sync.WaitGroup // pending jobs
	done sync.WaitGroup // running workers

	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool starts maxWorkers goroutines consuming a queue of queueSize jobs.
func NewWorkerPool(maxWorkers, queueSize int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	wp := &WorkerPool{jobs: make(chan func(), queueSize)}
	wp.done.Add(maxWorkers)
	for i := 0; i < maxWorkers; i++ {
		go wp.work()
	}
	return wp
}

func (wp *WorkerPool) work() {
	defer wp.done.Done()
	for job := range wp.jobs {
		func() {
			defer wp.wg.Done()
			job()
		}()
	}
}

// TrySubmit enqueues a job without blocking. It returns false when the
// queue is full or the pool has been closed; the job is then discarded.
func (wp *WorkerPool) TrySubmit(job func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return false
	}

	wp.wg.Add(1)
	select {
	case wp.jobs <- job:
		return true
	default:
		wp.wg.Done()
		return false
	}
}

// Wait blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Close drains the queue and stops the workers. Later submissions are rejected.
func (wp *WorkerPool) Close() {
	wp.mu.Lock()
	if wp.closed {
		wp.mu.Unlock()
		return
	}
	wp.closed = true
	close(wp.jobs)
	wp.mu.Unlock()

	wp.done.Wait()
}
