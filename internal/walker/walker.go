package walker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Entry is one directory listing: the directory's path and the names of
// its subdirectories and regular files. A listing that could not be read
// carries Err and no children.
type Entry struct {
	Dir     string
	SubDirs []string
	Files   []string
	Err     error
}

// VisitFunc receives entries top-down: a directory's entry always precedes
// the entries of its subdirectories. Returning an error stops the walk.
type VisitFunc func(Entry) error

// Walker lists a directory tree, skipping excluded names.
type Walker struct {
	exclusions []string
	logger     *zap.Logger
}

func New(exclusions []string, logger *zap.Logger) *Walker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{exclusions: exclusions, logger: logger}
}

// Walk visits rootPath and every directory below it. rootPath must be an
// existing directory; unreadable subdirectories are reported through
// Entry.Err and do not stop the walk. Symlinks and special files are
// skipped.
func (w *Walker) Walk(ctx context.Context, rootPath string, visit VisitFunc) error {
	info, err := os.Stat(rootPath)
	if err != nil {
		return fmt.Errorf("failed to walk directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("failed to walk directory: %s is not a directory", rootPath)
	}

	return w.walkDir(ctx, rootPath, rootPath, visit)
}

func (w *Walker) walkDir(ctx context.Context, rootPath, dir string, visit VisitFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if dir == rootPath {
			return fmt.Errorf("failed to read directory: %w", err)
		}
		w.logger.Warn("unreadable directory", zap.String("path", dir), zap.Error(err))
		return visit(Entry{Dir: dir, Err: err})
	}

	entry := Entry{
		Dir:     dir,
		SubDirs: make([]string, 0),
		Files:   make([]string, 0),
	}

	for _, d := range entries {
		path := filepath.Join(dir, d.Name())

		relPath, err := filepath.Rel(rootPath, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path: %w", err)
		}

		if shouldExclude(relPath, d.IsDir(), w.exclusions) {
			continue
		}

		switch {
		case d.IsDir():
			entry.SubDirs = append(entry.SubDirs, d.Name())
		case d.Type().IsRegular():
			entry.Files = append(entry.Files, d.Name())
		default:
			w.logger.Debug("skipping non-regular file", zap.String("path", path), zap.Stringer("mode", d.Type()))
		}
	}

	sort.Strings(entry.SubDirs)
	sort.Strings(entry.Files)

	if err := visit(entry); err != nil {
		return err
	}

	for _, name := range entry.SubDirs {
		if err := w.walkDir(ctx, rootPath, filepath.Join(dir, name), visit); err != nil {
			return err
		}
	}
	return nil
}

func shouldExclude(relPath string, isDir bool, exclusions []string) bool {
	for _, pattern := range exclusions {
		// Handle directory exclusions (patterns ending with /)
		if strings.HasSuffix(pattern, "/") {
			if !isDir {
				continue
			}
			dirPattern := strings.TrimSuffix(pattern, "/")
			name := filepath.Base(relPath)
			if matched, _ := filepath.Match(dirPattern, name); matched || name == dirPattern {
				return true
			}
			continue
		}

		matched, err := filepath.Match(pattern, filepath.Base(relPath))
		if err == nil && matched {
			return true
		}
		// Also try matching against the full relative path for patterns with /
		if strings.Contains(pattern, "/") {
			matched, err := filepath.Match(pattern, filepath.ToSlash(relPath))
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}
