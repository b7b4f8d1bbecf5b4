// internal/platform/workerpool/worker_pool.go
package workerpool

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"domowner/internal/platform/logx"
)

// Task representa una tarea a ejecutar en el worker pool.
type Task interface {
	// Execute ejecuta la tarea
	Execute(ctx context.Context) error

	// Name retorna el nombre de la tarea (para logs)
	Name() string
}

// TaskFunc adapta una función a Task.
type TaskFunc struct {
	TaskName string
	Fn       func(ctx context.Context) error
}

func (t TaskFunc) Execute(ctx context.Context) error { return t.Fn(ctx) }
func (t TaskFunc) Name() string                      { return t.TaskName }

// TaskResult representa el resultado de una tarea.
type TaskResult struct {
	Task     Task
	Error    error
	Duration time.Duration
}

// WorkerPoolConfig configura el worker pool.
type WorkerPoolConfig struct {
	Workers int
	Logger  logx.Logger
}

// WorkerPool ejecuta tareas con concurrencia acotada. Un fallo de una tarea
// no cancela a las demás: cada resultado se reporta por separado.
type WorkerPool struct {
	workers int
	logger  logx.Logger
}

// NewWorkerPool crea un nuevo worker pool. Workers <= 0 se trata como 1.
func NewWorkerPool(cfg WorkerPoolConfig) *WorkerPool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = logx.NewNop()
	}
	return &WorkerPool{
		workers: cfg.Workers,
		logger:  cfg.Logger.With("component", "worker-pool"),
	}
}

// Workers returns the concurrency limit.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// Run executes every task and waits for all of them. results[i] belongs to
// tasks[i]. Tasks not started before ctx ends get ctx.Err().
func (wp *WorkerPool) Run(ctx context.Context, tasks []Task) []TaskResult {
	results := make([]TaskResult, len(tasks))

	wp.logger.Debug("running tasks", "tasks", len(tasks), "workers", wp.workers)

	var g errgroup.Group
	g.SetLimit(wp.workers)

	for i, task := range tasks {
		results[i].Task = task
		if err := ctx.Err(); err != nil {
			results[i].Error = err
			continue
		}

		g.Go(func() error {
			start := time.Now()
			err := task.Execute(ctx)
			results[i].Error = err
			results[i].Duration = time.Since(start)

			if err != nil {
				wp.logger.Debug("task failed", "task", task.Name(), "error", err)
			}
			return nil
		})
	}

	_ = g.Wait()
	return results
}
