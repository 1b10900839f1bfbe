package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"dupetree/internal/hash"
)

func writeFiles(t *testing.T, count int) []string {
	t.Helper()
	tmpDir := t.TempDir()
	paths := make([]string, 0, count)
	for i := 0; i < count; i++ {
		p := filepath.Join(tmpDir, fmt.Sprintf("file%d.txt", i))
		require.NoError(t, os.WriteFile(p, []byte(fmt.Sprintf("content-%d", i)), 0644))
		paths = append(paths, p)
	}
	return paths
}

// drain collects every result until the pool is closed.
func drain[T any](p *Pool[T]) <-chan []Result[T] {
	out := make(chan []Result[T], 1)
	go func() {
		var all []Result[T]
		for r := range p.Results() {
			all = append(all, r)
		}
		out <- all
	}()
	return out
}

func TestPool_AllTasksResolve(t *testing.T) {
	paths := writeFiles(t, 50)

	for _, workers := range []int{1, 2, 4, 8} {
		p := NewPool[int](context.Background(), workers, zaptest.NewLogger(t))
		collected := drain(p)

		tasks := make([]*Task[int], 0, len(paths))
		for i, path := range paths {
			tasks = append(tasks, p.Submit(path, i))
		}
		require.NoError(t, WaitAll(context.Background(), tasks...))
		p.Close()

		results := <-collected
		assert.Len(t, results, len(paths), "workers=%d", workers)

		for i, task := range tasks {
			assert.True(t, task.Resolved())
			digest, err := task.Result()
			require.NoError(t, err)
			assert.Equal(t, hash.HashString(fmt.Sprintf("content-%d", i)), digest)
			assert.Equal(t, i, task.Owner())
		}
	}
}

func TestPool_ResultPostedOncePerTask(t *testing.T) {
	paths := writeFiles(t, 20)
	p := NewPool[string](context.Background(), 4, zaptest.NewLogger(t))
	collected := drain(p)

	for _, path := range paths {
		p.Submit(path, path)
	}
	p.Close()

	seen := make(map[string]int)
	for _, r := range <-collected {
		seen[r.Owner]++
		assert.Equal(t, r.Path, r.Owner)
	}
	assert.Len(t, seen, len(paths))
	for path, n := range seen {
		assert.Equal(t, 1, n, path)
	}
}

func TestPool_FailureIsLocalToTask(t *testing.T) {
	paths := writeFiles(t, 3)
	p := NewPool[int](context.Background(), 2, zaptest.NewLogger(t))
	collected := drain(p)

	good := p.Submit(paths[0], 0)
	bad := p.Submit("/nonexistent/file.txt", 1)
	other := p.Submit(paths[1], 2)
	p.Close()

	_, err := bad.Wait(context.Background())
	assert.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = good.Wait(context.Background())
	assert.NoError(t, err)
	_, err = other.Wait(context.Background())
	assert.NoError(t, err)

	var failed int
	for _, r := range <-collected {
		if r.Err != nil {
			failed++
			assert.Equal(t, 1, r.Owner)
		}
	}
	assert.Equal(t, 1, failed)
}

func TestPool_BoundedConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	slow := func(path string) (string, error) {
		n := running.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return hash.HashString(path), nil
	}

	p := NewPool[int](context.Background(), 3, zaptest.NewLogger(t), WithHashFunc(slow))
	collected := drain(p)
	for i := 0; i < 30; i++ {
		p.Submit(fmt.Sprintf("p%d", i), i)
	}
	p.Close()
	<-collected

	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Greater(t, peak.Load(), int32(0))
}

func TestPool_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	p := NewPool[int](ctx, 2, zaptest.NewLogger(t), WithHashFunc(func(string) (string, error) {
		calls.Add(1)
		return "x", nil
	}))

	task := p.Submit("whatever", 0)
	_, err := task.Wait(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	p.Close()
	assert.Equal(t, int32(0), calls.Load())
}

func TestTask_PendingAndWait(t *testing.T) {
	task := newTask("a", 0)
	assert.False(t, task.Resolved())

	_, err := task.Result()
	assert.ErrorIs(t, err, ErrPending)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = task.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := task.Wait(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "digest", d)
		}()
	}
	task.resolve("digest", nil)
	wg.Wait()
	assert.True(t, task.Resolved())
}
