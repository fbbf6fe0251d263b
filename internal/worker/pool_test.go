package worker

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// mockRenderer simulates rendering for testing.
type mockRenderer struct {
	delay     time.Duration
	fail      map[string]bool
	callCount atomic.Int32
}

func (m *mockRenderer) Render(ctx context.Context, task Task) (string, int64, error) {
	m.callCount.Add(1)

	select {
	case <-ctx.Done():
		return "", 0, ctx.Err()
	case <-time.After(m.delay):
	}

	if m.fail[task.Input] {
		return "", 0, errors.New("simulated failure")
	}
	return strings.TrimSuffix(task.Input, ".jpg") + ".png", 100, nil
}

func inputs(n int) []Task {
	tasks := make([]Task, n)
	for i := range tasks {
		tasks[i] = Task{Input: "img" + string(rune('a'+i)) + ".jpg"}
	}
	return tasks
}

func TestPool_BasicExecution(t *testing.T) {
	r := &mockRenderer{delay: 10 * time.Millisecond}
	pool := New(Config{Workers: 2, Renderer: r})

	tasks := inputs(3)
	results := pool.Run(context.Background(), tasks)

	if len(results) != len(tasks) {
		t.Fatalf("Expected %d results, got %d", len(tasks), len(results))
	}
	for _, res := range results {
		if res.Err != nil {
			t.Errorf("Unexpected error for %s: %v", res.Task.Input, res.Err)
		}
		if res.Path == "" || res.Bytes != 100 {
			t.Errorf("Unexpected result for %s: %+v", res.Task.Input, res)
		}
	}
	if r.callCount.Load() != int32(len(tasks)) {
		t.Errorf("Expected %d render calls, got %d", len(tasks), r.callCount.Load())
	}
}

func TestPool_Parallelism(t *testing.T) {
	r := &mockRenderer{delay: 50 * time.Millisecond}
	pool := New(Config{Workers: 4, Renderer: r})

	tasks := inputs(8)
	start := time.Now()
	results := pool.Run(context.Background(), tasks)
	elapsed := time.Since(start)

	// 8 tasks on 4 workers at 50ms each is ~100ms.
	if elapsed > 300*time.Millisecond {
		t.Errorf("Expected parallel execution in ~100ms, took %v", elapsed)
	}
	if len(results) != len(tasks) {
		t.Errorf("Expected %d results, got %d", len(tasks), len(results))
	}
}

func TestPool_ErrorHandling(t *testing.T) {
	tasks := inputs(3)
	r := &mockRenderer{delay: 5 * time.Millisecond, fail: map[string]bool{tasks[1].Input: true}}
	pool := New(Config{Workers: 2, Renderer: r})

	results := pool.Run(context.Background(), tasks)
	if len(results) != len(tasks) {
		t.Fatalf("Expected %d results, got %d", len(tasks), len(results))
	}

	var failed int
	for _, res := range results {
		if res.Err != nil {
			failed++
			if res.Task.Input != tasks[1].Input {
				t.Errorf("Unexpected failure for %s", res.Task.Input)
			}
		}
	}
	if failed != 1 {
		t.Errorf("Expected 1 failure, got %d", failed)
	}
}

func TestPool_Cancellation(t *testing.T) {
	r := &mockRenderer{delay: 100 * time.Millisecond}
	pool := New(Config{Workers: 2, Renderer: r})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	results := pool.Run(ctx, inputs(10))
	elapsed := time.Since(start)

	if elapsed > 300*time.Millisecond {
		t.Errorf("Expected early cancellation, took %v", elapsed)
	}

	var cancelled int
	for _, res := range results {
		if errors.Is(res.Err, context.Canceled) {
			cancelled++
		}
	}
	if cancelled == 0 {
		t.Error("Expected at least one cancelled result")
	}
}

func TestPool_ProgressAndResultCallbacks(t *testing.T) {
	r := &mockRenderer{delay: 5 * time.Millisecond}

	var progressCalls, resultCalls atomic.Int32
	var lastCompleted, lastTotal int

	pool := New(Config{
		Workers:  2,
		Renderer: r,
		OnProgress: func(completed, total, failed int) {
			progressCalls.Add(1)
			lastCompleted = completed
			lastTotal = total
		},
		OnResult: func(Result) { resultCalls.Add(1) },
	})

	tasks := inputs(3)
	pool.Run(context.Background(), tasks)

	if progressCalls.Load() != 3 || resultCalls.Load() != 3 {
		t.Errorf("Expected 3 callbacks each, got progress=%d result=%d", progressCalls.Load(), resultCalls.Load())
	}
	if lastCompleted != len(tasks) || lastTotal != len(tasks) {
		t.Errorf("Expected final %d/%d, got %d/%d", len(tasks), len(tasks), lastCompleted, lastTotal)
	}
}

func TestPool_EmptyTasks(t *testing.T) {
	pool := New(Config{Workers: 2, Renderer: &mockRenderer{}})
	if results := pool.Run(context.Background(), nil); results != nil {
		t.Errorf("Expected nil results for empty tasks, got %v", results)
	}
}

func TestPool_DefaultWorkers(t *testing.T) {
	if p := New(Config{Workers: 0}); p.workers != 1 {
		t.Errorf("Expected 1 worker, got %d", p.workers)
	}
}

func TestRenderFunc(t *testing.T) {
	var called bool
	pool := New(Config{Renderer: RenderFunc(func(ctx context.Context, task Task) (string, int64, error) {
		called = true
		return task.Output, 0, nil
	})})

	results := pool.Run(context.Background(), []Task{{Input: "in.png", Output: "out.png"}})
	if !called || len(results) != 1 || results[0].Path != "out.png" {
		t.Errorf("RenderFunc not invoked as expected: %+v", results)
	}
}
