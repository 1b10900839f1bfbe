package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type serializedEntry struct {
	Path   string `json:"path"`
	Digest string `json:"digest"`
}

type serializedManifest struct {
	Generator string            `json:"generator"`
	Created   time.Time         `json:"created"`
	Directory string            `json:"directory"`
	Root      string            `json:"root"`
	Files     []serializedEntry `json:"files"`
}

// Save writes m as indented JSON. directory is the scanned root and is
// recorded for reference only.
func Save(m *Manifest, directory, path string) error {
	files := make([]serializedEntry, len(m.Entries))
	for i, e := range m.Entries {
		files[i] = serializedEntry{Path: e.Path, Digest: e.Digest}
	}
	serialized := serializedManifest{
		Generator: "dupetree",
		Created:   time.Now(),
		Directory: directory,
		Root:      m.Root,
		Files:     files,
	}

	data, err := json.MarshalIndent(serialized, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// Load reads a manifest written by Save and rebuilds its tree. The stored
// root must match the rebuilt one.
func Load(path string) (*Manifest, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}

	var serialized serializedManifest
	if err := json.Unmarshal(data, &serialized); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal manifest: %w", err)
	}

	entries := make([]Entry, len(serialized.Files))
	for i, f := range serialized.Files {
		entries[i] = Entry{Path: f.Path, Digest: f.Digest}
	}
	m, err := Build(entries)
	if err != nil {
		return nil, "", err
	}
	if m.Root != serialized.Root {
		return nil, "", fmt.Errorf("manifest root mismatch: stored %s, computed %s", serialized.Root, m.Root)
	}
	return m, serialized.Directory, nil
}
