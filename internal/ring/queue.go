package ring

import "github.com/ringoverlay/ringchat/internal/types"

// TaskQueue is the bounded FIFO that every node runs its protocol
// work through: capacity Configuration.QueueSize (10 by default), many producers (the HTTP server, the
// local input loop, the heartbeat detector), exactly one consumer (the
// worker). A full queue blocks the producer — that backpressure is
// deliberate and is simply what a buffered channel gives for free.
type TaskQueue struct {
	ch chan types.Task
}

// NewTaskQueue allocates a queue with the given capacity.
func NewTaskQueue(capacity int) *TaskQueue {
	return &TaskQueue{ch: make(chan types.Task, capacity)}
}

// Enqueue blocks until there is room for task, or the queue has been
// closed, in which case it is a silent no-op — there is nowhere left to
// deliver it.
func (q *TaskQueue) Enqueue(task types.Task) {
	defer func() {
		// A send on a closed channel only happens during shutdown races
		// between a producer and Close; dropping the task is correct
		// since nothing will ever drain it again.
		recover()
	}()
	q.ch <- task
}

// Tasks exposes the receive side for the worker loop.
func (q *TaskQueue) Tasks() <-chan types.Task {
	return q.ch
}

// Close stops accepting further delivery. Safe to call once.
func (q *TaskQueue) Close() {
	close(q.ch)
}
