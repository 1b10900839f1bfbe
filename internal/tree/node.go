package tree

import "context"

type Kind int

const (
	KindFile Kind = iota
	KindDirectory
)

func (k Kind) String() string {
	if k == KindDirectory {
		return "directory"
	}
	return "file"
}

// Node is a file or directory whose digest is resolved at most once.
type Node interface {
	Path() string
	Kind() Kind
	// Digest blocks until the node's digest is known. The value, or the
	// error, is memoized.
	Digest(ctx context.Context) (string, error)
	// Resolved reports whether Digest would return without blocking.
	Resolved() bool
}

// Sink receives every node whose digest resolves, under that digest.
type Sink interface {
	Insert(digest string, n Node) bool
}
