// Package background runs best-effort work after a request has committed.
// Tasks are never retried; failures are logged and counted.
package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/buttery-backend/pkg/logger"
	"github.com/angelmondragon/buttery-backend/pkg/metrics"
)

// Task is a unit of post-commit work.
type Task func(ctx context.Context) error

// Runner is implemented by Dispatcher and by synchronous test doubles.
type Runner interface {
	Go(ctx context.Context, name string, task Task)
}

type Dispatcher struct {
	logg    *logger.Logger
	metrics *metrics.TaskMetrics
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher builds a dispatcher. timeout bounds each task; zero means no bound.
func NewDispatcher(logg *logger.Logger, m *metrics.TaskMetrics, timeout time.Duration) *Dispatcher {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Dispatcher{logg: logg, metrics: m, timeout: timeout}
}

// Go runs task on its own goroutine, detached from ctx cancellation but keeping its values.
func (d *Dispatcher) Go(ctx context.Context, name string, task Task) {
	if task == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	detached := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run(detached, name, task)
	}()
}

// Wait blocks until every dispatched task has returned or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run(ctx context.Context, name string, task Task) {
	ctx = d.logg.WithField(ctx, "task", name)
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	err := safeCall(ctx, task)
	d.metrics.ObserveDuration(name, time.Since(start))
	if err != nil {
		d.metrics.IncFailure(name)
		d.logg.Error(ctx, "background task failed", err)
		return
	}
	d.metrics.IncSuccess(name)
}

func safeCall(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return task(ctx)
}

// Inline runs tasks on the caller's goroutine. Used in tests and tools that need deterministic ordering.
type Inline struct {
	Errors []error
}

func (i *Inline) Go(ctx context.Context, _ string, task Task) {
	if task == nil {
		return
	}
	if err := safeCall(context.WithoutCancel(ctx), task); err != nil {
		i.Errors = append(i.Errors, err)
	}
}
