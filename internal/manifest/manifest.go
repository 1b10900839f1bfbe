// Package manifest summarises a scan as a binary Merkle tree over
// (relative path, digest) pairs. Unlike the directory chain, the manifest can
// prove that a single file was part of a scan without the rest of the tree.
package manifest

import (
	"encoding/hex"
	"fmt"
	"sort"

	mt "github.com/txaty/go-merkletree"

	"dupetree/internal/hash"
)

// Entry is one scanned file.
type Entry struct {
	Path   string
	Digest string
}

// Serialize implements mt.DataBlock.
func (e Entry) Serialize() ([]byte, error) {
	return []byte(e.Path + "\x00" + e.Digest), nil
}

type Manifest struct {
	Root    string
	Entries []Entry

	tree     *mt.MerkleTree
	position map[string]int
}

func config() *mt.Config {
	return &mt.Config{
		HashFunc: hash.SHA256Func,
		Mode:     mt.ModeProofGenAndTreeBuild,
	}
}

// Build sorts entries by path and computes the root. With no entries the
// root is the chain seed; a single entry's root is the hash of that entry.
func Build(entries []Entry) (*Manifest, error) {
	sorted := append([]Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	m := &Manifest{Entries: sorted, position: make(map[string]int, len(sorted))}
	for i, e := range sorted {
		if _, dup := m.position[e.Path]; dup {
			return nil, fmt.Errorf("duplicate manifest entry %s", e.Path)
		}
		m.position[e.Path] = i
	}

	switch len(sorted) {
	case 0:
		m.Root = hash.Seed
		return m, nil
	case 1:
		data, _ := sorted[0].Serialize()
		sum, _ := hash.SHA256Func(data)
		m.Root = hex.EncodeToString(sum)
		return m, nil
	}

	blocks := make([]mt.DataBlock, len(sorted))
	for i := range sorted {
		blocks[i] = sorted[i]
	}

	tree, err := mt.New(config(), blocks)
	if err != nil {
		return nil, fmt.Errorf("failed to build manifest tree: %w", err)
	}
	m.tree = tree
	m.Root = hex.EncodeToString(tree.Root)
	return m, nil
}

// Verify reports whether e, exactly as given, is part of the manifest.
func (m *Manifest) Verify(e Entry) (bool, error) {
	i, ok := m.position[e.Path]
	if !ok {
		return false, nil
	}
	if m.tree == nil {
		return m.Entries[i] == e, nil
	}
	return m.tree.Verify(e, m.tree.Proofs[i])
}
