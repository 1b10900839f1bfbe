package tree

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"dupetree/internal/hash"
)

// Directory is an internal node. Its digest is the chain fold of its
// subdirectories' digests followed by its files' digests, each group in
// path order. Nothing is hashed until Digest is first called.
type Directory struct {
	path string
	sink Sink

	subDirs []*Directory
	files   []*File
	failure error

	once     sync.Once
	resolved atomic.Bool
	digest   string
	err      error
}

// NewDirectory creates an empty directory node. sink may be nil.
func NewDirectory(path string, sink Sink) (*Directory, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	return &Directory{path: path, sink: sink}, nil
}

func (d *Directory) Path() string { return d.path }

func (d *Directory) Kind() Kind { return KindDirectory }

func (d *Directory) Resolved() bool { return d.resolved.Load() }

// SubDirs returns the child directories in path order.
func (d *Directory) SubDirs() []*Directory { return d.subDirs }

// Files returns the child files in path order.
func (d *Directory) Files() []*File { return d.files }

// Children returns subdirectories then files, the order the fold uses.
func (d *Directory) Children() []Node {
	out := make([]Node, 0, len(d.subDirs)+len(d.files))
	for _, sd := range d.subDirs {
		out = append(out, sd)
	}
	for _, f := range d.files {
		out = append(out, f)
	}
	return out
}

func (d *Directory) SubDirPaths() []string {
	out := make([]string, len(d.subDirs))
	for i, sd := range d.subDirs {
		out[i] = sd.path
	}
	return out
}

func (d *Directory) FilePaths() []string {
	out := make([]string, len(d.files))
	for i, f := range d.files {
		out[i] = f.path
	}
	return out
}

// ChildNames returns the base names of the immediate children.
func (d *Directory) ChildNames() []string {
	out := make([]string, 0, len(d.subDirs)+len(d.files))
	for _, sd := range d.subDirs {
		out = append(out, filepath.Base(sd.path))
	}
	for _, f := range d.files {
		out = append(out, filepath.Base(f.path))
	}
	return out
}

// Failure returns the error the directory was marked with during the walk.
func (d *Directory) Failure() error { return d.failure }

// setChildren and fail are only called by the builder before any Digest.
func (d *Directory) setChildren(subDirs []*Directory, files []*File) {
	d.subDirs = subDirs
	d.files = files
}

func (d *Directory) fail(err error) {
	d.failure = err
}

// Digest folds the children's digests the first time it is called and
// files the directory in the sink. Concurrent first calls share one fold.
func (d *Directory) Digest(ctx context.Context) (string, error) {
	d.once.Do(func() {
		d.digest, d.err = d.fold(ctx)
		d.resolved.Store(true)
	})
	return d.digest, d.err
}

func (d *Directory) fold(ctx context.Context) (string, error) {
	if d.failure != nil {
		return "", d.failure
	}

	acc := hash.Seed
	for _, child := range d.Children() {
		digest, err := child.Digest(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			return "", fmt.Errorf("directory %s: %w", d.path, err)
		}
		acc = hash.Combine(acc, digest)
	}

	if d.sink != nil {
		d.sink.Insert(acc, d)
	}
	return acc, nil
}
