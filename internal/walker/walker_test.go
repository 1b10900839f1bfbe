package walker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func createTree(t *testing.T, root string, files []string) {
	t.Helper()
	for _, f := range files {
		fullPath := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0755))
		require.NoError(t, os.WriteFile(fullPath, []byte("content"), 0644))
	}
}

func collect(t *testing.T, root string, exclusions []string) []Entry {
	t.Helper()
	var entries []Entry
	err := New(exclusions, zaptest.NewLogger(t)).Walk(context.Background(), root, func(e Entry) error {
		entries = append(entries, e)
		return nil
	})
	require.NoError(t, err)
	return entries
}

func countFiles(entries []Entry) int {
	n := 0
	for _, e := range entries {
		n += len(e.Files)
	}
	return n
}

func TestWalk_AllFiles(t *testing.T) {
	tmpDir := t.TempDir()
	files := []string{
		"file1.txt",
		"file2.go",
		"subdir/file3.txt",
		"subdir/nested/file4.md",
	}
	createTree(t, tmpDir, files)

	entries := collect(t, tmpDir, nil)

	require.Len(t, entries, 3)
	assert.Equal(t, len(files), countFiles(entries))
}

func TestWalk_TopDownSorted(t *testing.T) {
	tmpDir := t.TempDir()
	createTree(t, tmpDir, []string{
		"b.txt",
		"a.txt",
		"zeta/one.txt",
		"alpha/two.txt",
		"alpha/inner/three.txt",
	})

	entries := collect(t, tmpDir, nil)

	dirs := make([]string, 0, len(entries))
	for _, e := range entries {
		dirs = append(dirs, e.Dir)
	}
	assert.Equal(t, []string{
		tmpDir,
		filepath.Join(tmpDir, "alpha"),
		filepath.Join(tmpDir, "alpha", "inner"),
		filepath.Join(tmpDir, "zeta"),
	}, dirs)

	assert.Equal(t, []string{"alpha", "zeta"}, entries[0].SubDirs)
	assert.Equal(t, []string{"a.txt", "b.txt"}, entries[0].Files)
}

func TestWalk_WithExclusions(t *testing.T) {
	tmpDir := t.TempDir()

	files := map[string]bool{
		"file1.txt":           false, // should be included
		"file2.tmp":           true,  // should be excluded (*.tmp)
		"file3.log":           true,  // should be excluded (*.log)
		"node_modules/lib.js": true,  // should be excluded (node_modules/)
		"src/main.go":         false, // should be included
		"dist/output.js":      true,  // should be excluded (dist/)
		".git/config":         true,  // should be excluded (.git/)
	}
	paths := make([]string, 0, len(files))
	for f := range files {
		paths = append(paths, f)
	}
	createTree(t, tmpDir, paths)

	entries := collect(t, tmpDir, []string{"*.tmp", "*.log", "node_modules/", "dist/", ".git/"})

	expectedCount := 0
	for _, excluded := range files {
		if !excluded {
			expectedCount++
		}
	}
	assert.Equal(t, expectedCount, countFiles(entries))
	assert.Equal(t, []string{"src"}, entries[0].SubDirs)
}

func TestWalk_EmptyDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	entries := collect(t, tmpDir, nil)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Files)
	assert.Empty(t, entries[0].SubDirs)
	assert.NoError(t, entries[0].Err)
}

func TestWalk_NonExistentDirectory(t *testing.T) {
	err := New(nil, nil).Walk(context.Background(), "/nonexistent/directory", func(Entry) error { return nil })
	assert.Error(t, err)
}

func TestWalk_RootIsFile(t *testing.T) {
	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	err := New(nil, nil).Walk(context.Background(), file, func(Entry) error { return nil })
	assert.Error(t, err)
}

func TestWalk_GlobPatternExclusion(t *testing.T) {
	tmpDir := t.TempDir()
	createTree(t, tmpDir, []string{"test.go", "test_test.go", "main_test.go", "main.go"})

	entries := collect(t, tmpDir, []string{"*_test.go"})
	assert.Equal(t, []string{"main.go", "test.go"}, entries[0].Files)
}

func TestWalk_SkipsSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	tmpDir := t.TempDir()
	createTree(t, tmpDir, []string{"real.txt"})
	require.NoError(t, os.Symlink(filepath.Join(tmpDir, "real.txt"), filepath.Join(tmpDir, "link.txt")))

	entries := collect(t, tmpDir, nil)
	assert.Equal(t, []string{"real.txt"}, entries[0].Files)
}

func TestWalk_VisitErrorStops(t *testing.T) {
	tmpDir := t.TempDir()
	createTree(t, tmpDir, []string{"a/x.txt", "b/y.txt"})

	stop := errors.New("stop")
	calls := 0
	err := New(nil, nil).Walk(context.Background(), tmpDir, func(Entry) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestWalk_Cancelled(t *testing.T) {
	tmpDir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(nil, nil).Walk(ctx, tmpDir, func(Entry) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestShouldExclude(t *testing.T) {
	assert.True(t, shouldExclude("node_modules", true, []string{"node_modules/"}))
	assert.False(t, shouldExclude("node_modules", false, []string{"node_modules/"}))
	assert.True(t, shouldExclude("a/b.log", false, []string{"*.log"}))
	assert.True(t, shouldExclude("docs/readme.md", false, []string{"docs/*.md"}))
	assert.False(t, shouldExclude("main.go", false, []string{"*.log"}))
}
