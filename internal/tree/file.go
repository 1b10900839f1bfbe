package tree

import (
	"context"

	"dupetree/internal/executor"
)

// Submitter schedules the hash of a file. *executor.Pool[*File] satisfies it.
type Submitter interface {
	Submit(path string, owner *File) *executor.Task[*File]
}

// File is a leaf whose digest is the SHA-256 of its contents, computed on
// the executor as soon as the node exists.
type File struct {
	path string
	task *executor.Task[*File]
}

// NewFile creates the node and submits its hash task. Filing the digest in
// the digest index is left to whoever drains the executor's results.
func NewFile(path string, exec Submitter) (*File, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	f := &File{path: path}
	f.task = exec.Submit(path, f)
	return f, nil
}

func (f *File) Path() string { return f.path }

func (f *File) Kind() Kind { return KindFile }

func (f *File) Resolved() bool { return f.task.Resolved() }

// Task exposes the underlying hash handle.
func (f *File) Task() *executor.Task[*File] { return f.task }

func (f *File) Digest(ctx context.Context) (string, error) {
	select {
	case <-f.task.Done():
	case <-ctx.Done():
		return "", ctx.Err()
	}

	digest, err := f.task.Result()
	if err != nil {
		return "", &UnreadableFileError{Path: f.path, Err: err}
	}
	return digest, nil
}
