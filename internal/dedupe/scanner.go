// Package dedupe runs one duplicate scan end to end: walk, hash, wait for
// every leaf, fold directories and catalogue duplicate groups. All state
// belongs to a single Scan call.
package dedupe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"dupetree/internal/barrier"
	"dupetree/internal/config"
	"dupetree/internal/executor"
	"dupetree/internal/index"
	"dupetree/internal/manifest"
	"dupetree/internal/progress"
	"dupetree/internal/report"
	"dupetree/internal/tree"
	"dupetree/internal/walker"
)

// ErrEmptyRoot is returned when Scan is called without a root path.
var ErrEmptyRoot = errors.New("root path must not be empty")

// Result is everything a finished scan produced.
type Result struct {
	Root     *tree.Directory
	Nodes    *tree.Index
	Digests  *index.Digests[tree.Node]
	Catalog  *report.Catalog
	Manifest *manifest.Manifest
	// RootErr is set when the root's digest could not be folded.
	RootErr error
}

// Scanner holds the settings shared by scans. Output writers may be nil.
type Scanner struct {
	cfg    *config.Config
	logger *zap.Logger
	// digest lines, one per resolved file
	out io.Writer
	// progress bar
	progress io.Writer
	hashFn   executor.HashFunc
}

type Option func(*Scanner)

// WithDigestOutput prints "<digest> <path>" for every resolved file.
func WithDigestOutput(w io.Writer) Option {
	return func(s *Scanner) { s.out = w }
}

// WithProgressOutput draws a progress bar while leaves are pending.
func WithProgressOutput(w io.Writer) Option {
	return func(s *Scanner) { s.progress = w }
}

// WithHashFunc replaces the file hasher.
func WithHashFunc(fn executor.HashFunc) Option {
	return func(s *Scanner) { s.hashFn = fn }
}

func NewScanner(cfg *config.Config, logger *zap.Logger, opts ...Option) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scanner{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// trackingSubmitter counts every submission on the barrier before it
// reaches the pool.
type trackingSubmitter struct {
	pool    *executor.Pool[*tree.File]
	barrier *barrier.Barrier
}

func (t trackingSubmitter) Submit(path string, owner *tree.File) *executor.Task[*tree.File] {
	t.barrier.Add()
	return t.pool.Submit(path, owner)
}

// Scan analyses the tree under root. Unreadable files do not fail the scan;
// they are reported in Result.Catalog.Failures. Cancelling ctx aborts the
// run and discards everything computed so far.
func (s *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	if root == "" {
		return nil, ErrEmptyRoot
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", absRoot)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var poolOpts []executor.Option
	if s.hashFn != nil {
		poolOpts = append(poolOpts, executor.WithHashFunc(s.hashFn))
	}
	pool := executor.NewPool[*tree.File](ctx, s.cfg.Workers, s.logger, poolOpts...)
	digests := index.New[tree.Node]()
	nodes := tree.NewIndex()
	gate := barrier.New()
	builder := tree.NewBuilder(nodes, trackingSubmitter{pool: pool, barrier: gate}, digests, s.logger)

	// Single consumer of leaf completions: files are filed in the digest
	// index here and nowhere else.
	var collector conc.WaitGroup
	collector.Go(func() {
		for r := range pool.Results() {
			if r.Err != nil {
				s.logger.Warn("failed to hash file", zap.String("path", r.Path), zap.Error(r.Err))
			} else {
				digests.Insert(r.Digest, r.Owner)
				if s.out != nil {
					fmt.Fprintf(s.out, "%s %s\n", r.Digest, r.Path)
				}
			}
			gate.Resolve()
		}
	})
	shutdown := func() {
		pool.Close()
		collector.Wait()
	}

	rootDir, err := builder.Root(absRoot)
	if err != nil {
		cancel()
		shutdown()
		return nil, err
	}

	s.logger.Info("scanning directory", zap.String("root", absRoot))
	w := walker.New(s.cfg.Exclude, s.logger)
	if err := w.Walk(ctx, absRoot, builder.Add); err != nil {
		cancel()
		shutdown()
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}
	builder.Finish()

	files, dirs := nodes.Counts()
	s.logger.Info("directory walk complete, waiting for file digests",
		zap.Int("files", files), zap.Int("directories", dirs))

	bar := progress.New(s.progress)
	err = gate.Wait(ctx, s.cfg.ProgressInterval, bar.Update)
	bar.Finish()
	if err != nil {
		cancel()
		shutdown()
		return nil, err
	}
	shutdown()

	rootErr := func() error {
		_, err := rootDir.Digest(ctx)
		return err
	}()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rootErr != nil {
		s.logger.Warn("root digest unavailable", zap.Error(rootErr))
	}

	reporter := report.NewReporter(digests, s.logger)
	if err := reporter.Visit(ctx, rootDir); err != nil {
		return nil, err
	}

	result := &Result{
		Root:    rootDir,
		Nodes:   nodes,
		Digests: digests,
		Catalog: reporter.Catalog(),
		RootErr: rootErr,
	}

	if s.cfg.Manifest {
		m, err := buildManifest(ctx, absRoot, nodes)
		if err != nil {
			return nil, err
		}
		result.Manifest = m
	}

	s.logger.Info("scan complete",
		zap.Int("groups", result.Catalog.Len()),
		zap.Int("duplicate_groups", len(result.Catalog.Duplicates())),
		zap.Int("failures", len(result.Catalog.Failures())))
	return result, nil
}

func buildManifest(ctx context.Context, root string, nodes *tree.Index) (*manifest.Manifest, error) {
	files := nodes.Files()
	entries := make([]manifest.Entry, 0, len(files))
	for _, f := range files {
		digest, err := f.Digest(ctx)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(root, f.Path())
		if err != nil {
			return nil, fmt.Errorf("failed to compute relative path: %w", err)
		}
		entries = append(entries, manifest.Entry{Path: filepath.ToSlash(rel), Digest: digest})
	}
	return manifest.Build(entries)
}
