// Package index implements the digest multimap used to find duplicates.
package index

import (
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
)

const shardCount = 64

// Member is anything that can be filed under a digest. Path orders the
// members of a cluster.
type Member interface {
	comparable
	Path() string
}

type shard[N Member] struct {
	mu       sync.RWMutex
	clusters map[string]map[N]struct{}
}

// Digests maps a digest to the set of nodes carrying it. Inserts from many
// goroutines are safe; the map is striped by an xxhash of the digest so
// completions for unrelated digests do not contend.
type Digests[N Member] struct {
	shards [shardCount]shard[N]
}

// New returns an empty index.
func New[N Member]() *Digests[N] {
	d := &Digests[N]{}
	for i := range d.shards {
		d.shards[i].clusters = make(map[string]map[N]struct{})
	}
	return d
}

func (d *Digests[N]) shardFor(digest string) *shard[N] {
	return &d.shards[xxhash.Sum64String(digest)%shardCount]
}

// Insert files n under digest. It reports false if n was already there.
func (d *Digests[N]) Insert(digest string, n N) bool {
	s := d.shardFor(digest)
	s.mu.Lock()
	defer s.mu.Unlock()

	members, ok := s.clusters[digest]
	if !ok {
		members = make(map[N]struct{})
		s.clusters[digest] = members
	}
	if _, exists := members[n]; exists {
		return false
	}
	members[n] = struct{}{}
	return true
}

// Cluster returns every node filed under digest, sorted by path.
func (d *Digests[N]) Cluster(digest string) []N {
	s := d.shardFor(digest)
	s.mu.RLock()
	members := s.clusters[digest]
	out := make([]N, 0, len(members))
	for n := range members {
		out = append(out, n)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Path() < out[j].Path()
	})
	return out
}

// Contains reports whether n is filed under digest.
func (d *Digests[N]) Contains(digest string, n N) bool {
	s := d.shardFor(digest)
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.clusters[digest][n]
	return ok
}

// Len returns the number of distinct digests.
func (d *Digests[N]) Len() int {
	total := 0
	for i := range d.shards {
		s := &d.shards[i]
		s.mu.RLock()
		total += len(s.clusters)
		s.mu.RUnlock()
	}
	return total
}

// Members returns the number of (digest, node) entries.
func (d *Digests[N]) Members() int {
	total := 0
	for i := range d.shards {
		s := &d.shards[i]
		s.mu.RLock()
		for _, members := range s.clusters {
			total += len(members)
		}
		s.mu.RUnlock()
	}
	return total
}

// Duplicates returns the digests with more than one member, sorted.
func (d *Digests[N]) Duplicates() []string {
	var out []string
	for i := range d.shards {
		s := &d.shards[i]
		s.mu.RLock()
		for digest, members := range s.clusters {
			if len(members) > 1 {
				out = append(out, digest)
			}
		}
		s.mu.RUnlock()
	}
	sort.Strings(out)
	return out
}
