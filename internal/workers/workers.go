package workers

import "context"

// Workers starts a fixed set of background workers in order and stops them in
// reverse order, so a worker never outlives one it depends on.
type Workers struct {
	workers []Worker
}

func NewWorkers(workers ...Worker) *Workers {
	return &Workers{workers: workers}
}

func (w *Workers) Start(ctx context.Context) {
	for _, worker := range w.workers {
		worker.Start(ctx)
	}
}

func (w *Workers) Stop() {
	for i := len(w.workers) - 1; i >= 0; i-- {
		w.workers[i].Stop()
	}
}

// workerFuncs adapts a pair of functions to the Worker interface for
// components whose lifecycle methods carry extra parameters.
type workerFuncs struct {
	start func(ctx context.Context)
	stop  func()
}

// NewWorker wraps start and stop functions as a [Worker].
func NewWorker(start func(ctx context.Context), stop func()) Worker {
	return &workerFuncs{start: start, stop: stop}
}

func (w *workerFuncs) Start(ctx context.Context) { w.start(ctx) }
func (w *workerFuncs) Stop()                     { w.stop() }
