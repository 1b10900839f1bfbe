package tree

import (
	"fmt"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"dupetree/internal/walker"
)

// Builder turns top-down walk entries into a tree. Each entry's directory
// must already have been declared by its parent's entry (or be the root).
// Children are created and linked to their parent directly, so folding never
// goes back through the path index.
type Builder struct {
	index  *Index
	exec   Submitter
	sink   Sink
	logger *zap.Logger

	root     *Directory
	declared map[string]*Directory // declared but not yet listed
}

func NewBuilder(index *Index, exec Submitter, sink Sink, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		index:    index,
		exec:     exec,
		sink:     sink,
		logger:   logger,
		declared: make(map[string]*Directory),
	}
}

// Root creates and registers the root directory. It must be called once,
// before the first Add.
func (b *Builder) Root(path string) (*Directory, error) {
	if b.root != nil {
		return nil, fmt.Errorf("root already set to %s", b.root.path)
	}
	root, err := NewDirectory(path, b.sink)
	if err != nil {
		return nil, err
	}
	if err := b.index.Register(root); err != nil {
		return nil, err
	}
	b.root = root
	b.declared[path] = root
	return root, nil
}

// Add consumes one walk entry. It is a VisitFunc.
func (b *Builder) Add(e walker.Entry) error {
	dir, ok := b.declared[e.Dir]
	if !ok {
		return &MissingChildError{Parent: filepath.Dir(e.Dir), Child: e.Dir}
	}
	delete(b.declared, e.Dir)

	if e.Err != nil {
		dir.fail(fmt.Errorf("unreadable directory %s: %w", e.Dir, e.Err))
		return nil
	}

	subNames := sortedCopy(e.SubDirs)
	fileNames := sortedCopy(e.Files)

	subDirs := make([]*Directory, 0, len(subNames))
	for _, name := range subNames {
		sd, err := NewDirectory(filepath.Join(e.Dir, name), b.sink)
		if err != nil {
			return err
		}
		if err := b.index.Register(sd); err != nil {
			return err
		}
		b.declared[sd.path] = sd
		subDirs = append(subDirs, sd)
	}

	files := make([]*File, 0, len(fileNames))
	for _, name := range fileNames {
		f, err := NewFile(filepath.Join(e.Dir, name), b.exec)
		if err != nil {
			return err
		}
		if err := b.index.Register(f); err != nil {
			return err
		}
		files = append(files, f)
	}

	dir.setChildren(subDirs, files)
	b.logger.Debug("directory listed",
		zap.String("path", e.Dir),
		zap.Int("subdirs", len(subDirs)),
		zap.Int("files", len(files)))
	return nil
}

// Finish ends the walk phase. Directories that were declared but never
// listed are marked with MissingChildError so their ancestors fail rather
// than fold an incomplete listing.
func (b *Builder) Finish() *Directory {
	for path, dir := range b.declared {
		b.logger.Warn("directory never listed", zap.String("path", path))
		dir.fail(&MissingChildError{Parent: filepath.Dir(path), Child: path})
	}
	b.declared = make(map[string]*Directory)
	return b.root
}

func sortedCopy(names []string) []string {
	out := append([]string(nil), names...)
	sort.Strings(out)
	return out
}
