// Package worker renders many images in parallel. Each task is rendered by a
// single worker; a single image is never split across workers.
package worker

import (
	"context"
	"sync"
	"time"
)

// Renderer turns one task into an output file.
type Renderer interface {
	Render(ctx context.Context, task Task) (path string, bytes int64, err error)
}

// RenderFunc adapts a function to Renderer.
type RenderFunc func(ctx context.Context, task Task) (string, int64, error)

// Render calls f.
func (f RenderFunc) Render(ctx context.Context, task Task) (string, int64, error) {
	return f(ctx, task)
}

// Task is one input image and where its poster goes.
type Task struct {
	Input  string
	Output string
}

// Result is the outcome of a task.
type Result struct {
	Task    Task
	Path    string
	Bytes   int64
	Err     error
	Elapsed time.Duration
}

// ProgressFunc is called after each task completes.
type ProgressFunc func(completed, total, failed int)

// Config configures the pool.
type Config struct {
	Workers    int
	Renderer   Renderer
	OnProgress ProgressFunc
	OnResult   func(Result)
}

// Pool runs render tasks on a fixed number of goroutines.
type Pool struct {
	workers    int
	renderer   Renderer
	onProgress ProgressFunc
	onResult   func(Result)
}

// New creates a pool. Non-positive worker counts become 1.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		workers:    workers,
		renderer:   cfg.Renderer,
		onProgress: cfg.OnProgress,
		onResult:   cfg.OnResult,
	}
}

// Run executes all tasks and returns one result per task that was started or
// cancelled. It blocks until every worker has returned.
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	taskCh := make(chan Task, len(tasks))
	resultCh := make(chan Result, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, taskCh, resultCh)
		}()
	}

	go func() {
		defer close(taskCh)
		for _, task := range tasks {
			select {
			case taskCh <- task:
			case <-ctx.Done():
				return
			}
		}
	}()

	results := make([]Result, 0, len(tasks))
	done := make(chan struct{})

	go func() {
		completed, failed := 0, 0
		for result := range resultCh {
			results = append(results, result)

			completed++
			if result.Err != nil {
				failed++
			}
			if p.onResult != nil {
				p.onResult(result)
			}
			if p.onProgress != nil {
				p.onProgress(completed, len(tasks), failed)
			}
		}
		close(done)
	}()

	wg.Wait()
	close(resultCh)
	<-done

	return results
}

func (p *Pool) worker(ctx context.Context, tasks <-chan Task, results chan<- Result) {
	for task := range tasks {
		if err := ctx.Err(); err != nil {
			results <- Result{Task: task, Err: err}
			continue
		}

		start := time.Now()
		path, n, err := p.renderer.Render(ctx, task)
		results <- Result{
			Task:    task,
			Path:    path,
			Bytes:   n,
			Err:     err,
			Elapsed: time.Since(start),
		}
	}
}
