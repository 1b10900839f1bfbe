package executor

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dupetree/internal/hash"
)

// HashFunc computes the digest of the file at path.
type HashFunc func(path string) (string, error)

// Result is posted on the pool's result channel exactly once per submitted
// task, after the task's handle has resolved.
type Result[T any] struct {
	Path   string
	Owner  T
	Digest string
	Err    error
}

// Pool runs file hashing on a bounded number of goroutines. Each Submit
// returns a Task handle; completions are also delivered in order of
// completion on Results.
type Pool[T any] struct {
	ctx     context.Context
	group   errgroup.Group
	hashFn  HashFunc
	results chan Result[T]
	logger  *zap.Logger

	closeOnce sync.Once
}

// Option configures a Pool.
type Option func(*options)

type options struct {
	hashFn     HashFunc
	bufferSize int
}

// WithHashFunc replaces the SHA-256 file hasher.
func WithHashFunc(fn HashFunc) Option {
	return func(o *options) { o.hashFn = fn }
}

// WithResultBuffer sets the capacity of the result channel.
func WithResultBuffer(n int) Option {
	return func(o *options) { o.bufferSize = n }
}

// NewPool creates a pool with at most workers concurrent hash tasks. A
// workers value <= 0 uses one worker per CPU. Tasks submitted after ctx is
// done resolve immediately with ctx.Err().
func NewPool[T any](ctx context.Context, workers int, logger *zap.Logger, opts ...Option) *Pool[T] {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	o := options{hashFn: hash.HashFile, bufferSize: workers * 4}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Pool[T]{
		ctx:     ctx,
		hashFn:  o.hashFn,
		results: make(chan Result[T], o.bufferSize),
		logger:  logger,
	}
	p.group.SetLimit(workers)
	return p
}

// Submit schedules hashing of path and returns its handle. Submit blocks
// while all workers are busy. It must not be called after Close.
func (p *Pool[T]) Submit(path string, owner T) *Task[T] {
	t := newTask(path, owner)
	p.group.Go(func() error {
		digest, err := "", p.ctx.Err()
		if err == nil {
			digest, err = p.hashFn(path)
		}
		if err != nil {
			p.logger.Debug("hash task failed", zap.String("path", path), zap.Error(err))
		}
		t.resolve(digest, err)

		p.results <- Result[T]{Path: path, Owner: owner, Digest: digest, Err: err}
		// Failures travel on the handle and the result channel, never
		// through the group, so one unreadable file cannot cancel siblings.
		return nil
	})
	return t
}

// Results returns the completion channel. It is closed by Close once every
// submitted task has posted its result. Every result is posted, including
// after cancellation, so the channel must always be drained.
func (p *Pool[T]) Results() <-chan Result[T] {
	return p.results
}

// Close waits for in-flight tasks and closes the result channel. The result
// channel must be drained concurrently or Close can block.
func (p *Pool[T]) Close() {
	p.closeOnce.Do(func() {
		_ = p.group.Wait()
		close(p.results)
	})
}
