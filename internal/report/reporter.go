package report

import (
	"context"

	"go.uber.org/zap"

	"dupetree/internal/tree"
)

// Clusters looks up every node filed under a digest, sorted by path.
// *index.Digests[tree.Node] satisfies it.
type Clusters interface {
	Cluster(digest string) []tree.Node
}

// Reporter walks a tree depth-first and records the digest cluster of every
// node it visits in a Catalog.
type Reporter struct {
	clusters Clusters
	catalog  *Catalog
	logger   *zap.Logger
}

func NewReporter(clusters Clusters, logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reporter{clusters: clusters, catalog: NewCatalog(), logger: logger}
}

// Catalog returns the groups observed so far.
func (r *Reporter) Catalog() *Catalog {
	return r.catalog
}

// Visit records n and everything below it. Nodes whose digest fails are
// recorded as failures and their children are still visited. Only context
// errors stop the traversal.
func (r *Reporter) Visit(ctx context.Context, n tree.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	digest, err := n.Digest(ctx)
	switch {
	case err != nil:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		r.logger.Debug("node has no digest", zap.String("path", n.Path()), zap.Error(err))
		r.catalog.fail(n, err)
	default:
		members := r.clusters.Cluster(digest)
		if len(members) == 0 {
			// resolved but never filed, e.g. a tree built without a sink
			members = []tree.Node{n}
		}
		r.catalog.observe(digest, members)
	}

	dir, ok := n.(*tree.Directory)
	if !ok {
		return nil
	}
	for _, child := range dir.Children() {
		if err := r.Visit(ctx, child); err != nil {
			return err
		}
	}
	return nil
}
