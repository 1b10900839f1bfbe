package executor

import "context"

// Task is the handle of one submitted hash job. It resolves exactly once,
// either with a digest or with an error.
type Task[T any] struct {
	path  string
	owner T
	done  chan struct{}

	// written once before done is closed
	digest string
	err    error
}

func newTask[T any](path string, owner T) *Task[T] {
	return &Task[T]{path: path, owner: owner, done: make(chan struct{})}
}

func (t *Task[T]) resolve(digest string, err error) {
	t.digest = digest
	t.err = err
	close(t.done)
}

// Path returns the file path being hashed.
func (t *Task[T]) Path() string { return t.path }

// Owner returns the value passed to Submit.
func (t *Task[T]) Owner() T { return t.owner }

// Done is closed when the task resolves.
func (t *Task[T]) Done() <-chan struct{} { return t.done }

// Resolved reports whether the task has finished, successfully or not.
func (t *Task[T]) Resolved() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Result returns the digest and error of a resolved task. It returns
// ErrPending if the task has not resolved yet.
func (t *Task[T]) Result() (string, error) {
	if !t.Resolved() {
		return "", ErrPending
	}
	return t.digest, t.err
}

// Wait blocks until the task resolves or ctx is done.
func (t *Task[T]) Wait(ctx context.Context) (string, error) {
	select {
	case <-t.done:
		return t.digest, t.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// WaitAll blocks until every task has resolved or ctx is done. Task
// failures are not returned; inspect each handle for its own error.
func WaitAll[T any](ctx context.Context, tasks ...*Task[T]) error {
	for _, t := range tasks {
		select {
		case <-t.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
