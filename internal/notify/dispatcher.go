package notify

import (
	"context"
	"time"

	"courier-dispatch/internal/logx"
)

const taskTimeout = 5 * time.Second

// Dispatcher runs broadcast work on a background worker so state-changing
// operations never block on, nor fail because of, event delivery. The
// queue is bounded; when full, the task is dropped and logged.
type Dispatcher struct {
	logger logx.Logger
	tasks  chan func(context.Context)
}

// NewDispatcher creates a Dispatcher with the given queue capacity.
func NewDispatcher(queue int, logger logx.Logger) *Dispatcher {
	if queue <= 0 {
		queue = 256
	}
	return &Dispatcher{
		logger: logger,
		tasks:  make(chan func(context.Context), queue),
	}
}

// Enqueue offers a task without blocking the caller.
func (d *Dispatcher) Enqueue(task func(context.Context)) {
	select {
	case d.tasks <- task:
	default:
		d.logger.Warn("broadcast task dropped: dispatcher queue full")
	}
}

// Run executes queued tasks until ctx is cancelled. Each task gets its own
// deadline detached from the request that enqueued it.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task := <-d.tasks:
			taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), taskTimeout)
			task(taskCtx)
			cancel()
		}
	}
}
