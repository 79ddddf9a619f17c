package concurrent

import (
	"errors"
	"sync"
)

var (
	ErrQueueFull    = errors.New("worker queue is full")
	ErrWorkerClosed = errors.New("worker is closed")
)

type WorkerFunc[T any] func(job T)

// BackgroundWorker runs submitted jobs on a fixed number of goroutines.
type BackgroundWorker[T any] struct {
	workers   int
	msgC      chan T
	waitGroup sync.WaitGroup
	jobFunc   WorkerFunc[T]

	// guards closed and the close of msgC against concurrent sends
	mu     sync.RWMutex
	closed bool
}

func NewBackgroundWorker[T any](workers, buffer int, jobFunc WorkerFunc[T]) *BackgroundWorker[T] {
	if workers < 1 {
		workers = 1
	}
	return &BackgroundWorker[T]{
		workers: workers,
		msgC:    make(chan T, buffer),
		jobFunc: jobFunc,
	}
}

// TriggerProcessing queues jobData, blocking while the buffer is full.
func (bw *BackgroundWorker[T]) TriggerProcessing(jobData T) error {
	bw.mu.RLock()
	defer bw.mu.RUnlock()
	if bw.closed {
		return ErrWorkerClosed
	}
	bw.msgC <- jobData
	return nil
}

// TryTriggerProcessing queues jobData or returns ErrQueueFull right away.
func (bw *BackgroundWorker[T]) TryTriggerProcessing(jobData T) error {
	bw.mu.RLock()
	defer bw.mu.RUnlock()
	if bw.closed {
		return ErrWorkerClosed
	}
	select {
	case bw.msgC <- jobData:
		return nil
	default:
		return ErrQueueFull
	}
}

func (bw *BackgroundWorker[T]) Start() {
	bw.waitGroup.Add(bw.workers)
	for i := 0; i < bw.workers; i++ {
		go func() {
			defer bw.waitGroup.Done()
			for jobData := range bw.msgC {
				bw.jobFunc(jobData)
			}
		}()
	}
}

// Close stops accepting jobs and waits for the queued ones to finish.
func (bw *BackgroundWorker[T]) Close() {
	bw.mu.Lock()
	if !bw.closed {
		bw.closed = true
		close(bw.msgC)
	}
	bw.mu.Unlock()
	bw.waitGroup.Wait()
}
