package report

import (
	"sort"
	"sync"

	"dupetree/internal/tree"
)

// Group is every node sharing one digest, sorted by path.
type Group struct {
	Digest  string
	Members []tree.Node
}

// Kind is the kind of the group's first member.
func (g *Group) Kind() tree.Kind {
	return g.Members[0].Kind()
}

// Duplicate reports whether the group has more than one member.
func (g *Group) Duplicate() bool {
	return len(g.Members) > 1
}

func (g *Group) paths() []string {
	out := make([]string, len(g.Members))
	for i, m := range g.Members {
		out[i] = m.Path()
	}
	return out
}

// Failure is a node whose digest could not be resolved.
type Failure struct {
	Node tree.Node
	Err  error
}

// Catalog collects the distinct groups seen during reporting. Observing a
// digest a second time keeps the first group.
type Catalog struct {
	mu       sync.Mutex
	groups   map[string]*Group
	failures []Failure
}

func NewCatalog() *Catalog {
	return &Catalog{groups: make(map[string]*Group)}
}

func (c *Catalog) observe(digest string, members []tree.Node) *Group {
	c.mu.Lock()
	defer c.mu.Unlock()

	if g, ok := c.groups[digest]; ok {
		return g
	}
	g := &Group{Digest: digest, Members: members}
	c.groups[digest] = g
	return g
}

func (c *Catalog) fail(n tree.Node, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = append(c.failures, Failure{Node: n, Err: err})
}

// Lookup returns the group recorded for digest.
func (c *Catalog) Lookup(digest string) (*Group, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.groups[digest]
	return g, ok
}

func (c *Catalog) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.groups)
}

// Groups returns every group ordered by member paths.
func (c *Catalog) Groups() []*Group {
	c.mu.Lock()
	out := make([]*Group, 0, len(c.groups))
	for _, g := range c.groups {
		out = append(out, g)
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return lessPaths(out[i].paths(), out[j].paths())
	})
	return out
}

// Duplicates returns only the groups with more than one member.
func (c *Catalog) Duplicates() []*Group {
	var out []*Group
	for _, g := range c.Groups() {
		if g.Duplicate() {
			out = append(out, g)
		}
	}
	return out
}

// Failures returns the unresolved nodes ordered by path.
func (c *Catalog) Failures() []Failure {
	c.mu.Lock()
	out := append([]Failure(nil), c.failures...)
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Node.Path() < out[j].Node.Path()
	})
	return out
}

// lessPaths orders path tuples element-wise, shorter first on a tie.
func lessPaths(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
