package tree

import (
	"fmt"
	"sort"
	"sync"
)

// Index maps every discovered path to its node. It is written during the
// walk and only read afterwards.
type Index struct {
	mu    sync.RWMutex
	nodes map[string]Node
	files int
	dirs  int
}

func NewIndex() *Index {
	return &Index{nodes: make(map[string]Node)}
}

// Register adds n under its path. A path can only be registered once.
func (i *Index) Register(n Node) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, exists := i.nodes[n.Path()]; exists {
		return fmt.Errorf("path %s already registered", n.Path())
	}
	i.nodes[n.Path()] = n
	if n.Kind() == KindDirectory {
		i.dirs++
	} else {
		i.files++
	}
	return nil
}

func (i *Index) Lookup(path string) (Node, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	n, ok := i.nodes[path]
	return n, ok
}

func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.nodes)
}

// Counts returns the number of registered files and directories.
func (i *Index) Counts() (files, dirs int) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.files, i.dirs
}

// Files returns every file node sorted by path.
func (i *Index) Files() []*File {
	i.mu.RLock()
	out := make([]*File, 0, i.files)
	for _, n := range i.nodes {
		if f, ok := n.(*File); ok {
			out = append(out, f)
		}
	}
	i.mu.RUnlock()

	sort.Slice(out, func(a, b int) bool { return out[a].path < out[b].path })
	return out
}
