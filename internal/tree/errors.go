package tree

import (
	"errors"
	"fmt"
)

// ErrEmptyPath is returned when a node is constructed without a path.
var ErrEmptyPath = errors.New("node path must not be empty")

// UnreadableFileError is the failure of one file's hash task.
type UnreadableFileError struct {
	Path string
	Err  error
}

func (e *UnreadableFileError) Error() string {
	return fmt.Sprintf("unreadable file %s: %v", e.Path, e.Err)
}

func (e *UnreadableFileError) Unwrap() error { return e.Err }

// MissingChildError means the walk and the tree disagree: a directory was
// declared as a child but never listed, or listed without being declared.
type MissingChildError struct {
	Parent string
	Child  string
}

func (e *MissingChildError) Error() string {
	return fmt.Sprintf("directory %s: child %s missing from tree", e.Parent, e.Child)
}
