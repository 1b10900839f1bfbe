package compare

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrEmptyDirectory is returned when the left-hand directory has no
// children, leaving the containment ratio undefined.
var ErrEmptyDirectory = errors.New("similarity undefined for an empty directory")

// Lister exposes a directory's immediate child names. *tree.Directory
// satisfies it.
type Lister interface {
	Path() string
	ChildNames() []string
}

// Digester is optionally implemented by a Lister to let Compare report
// content equality alongside the name overlap.
type Digester interface {
	Digest(ctx context.Context) (string, error)
}

// Similarity is |names(a) ∩ names(b)| / |names(a)|. It compares names only,
// never contents, and is asymmetric: a subset of b scores 1.
func Similarity(a, b Lister) (float64, error) {
	left := nameSet(a)
	if len(left) == 0 {
		return 0, fmt.Errorf("%s: %w", a.Path(), ErrEmptyDirectory)
	}
	right := nameSet(b)

	shared := 0
	for name := range left {
		if _, ok := right[name]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(left)), nil
}

type Result struct {
	Left       string
	Right      string
	Shared     []string
	OnlyLeft   []string
	OnlyRight  []string
	Similarity float64
	// SameContent is set when both sides resolved digests and they match.
	SameContent bool
	// ContentKnown is false when either side's digest was unavailable.
	ContentKnown bool
}

// Compare lists the name overlap between two directories and, when both
// implement Digester, whether their contents are identical.
func Compare(ctx context.Context, a, b Lister) (*Result, error) {
	similarity, err := Similarity(a, b)
	if err != nil {
		return nil, err
	}

	left, right := nameSet(a), nameSet(b)
	result := &Result{
		Left:       a.Path(),
		Right:      b.Path(),
		Shared:     make([]string, 0),
		OnlyLeft:   make([]string, 0),
		OnlyRight:  make([]string, 0),
		Similarity: similarity,
	}

	for name := range left {
		if _, ok := right[name]; ok {
			result.Shared = append(result.Shared, name)
		} else {
			result.OnlyLeft = append(result.OnlyLeft, name)
		}
	}
	for name := range right {
		if _, ok := left[name]; !ok {
			result.OnlyRight = append(result.OnlyRight, name)
		}
	}

	// Sort for deterministic output
	sort.Strings(result.Shared)
	sort.Strings(result.OnlyLeft)
	sort.Strings(result.OnlyRight)

	da, okA := a.(Digester)
	db, okB := b.(Digester)
	if okA && okB {
		digestA, errA := da.Digest(ctx)
		digestB, errB := db.Digest(ctx)
		if errA == nil && errB == nil {
			result.ContentKnown = true
			result.SameContent = digestA == digestB
		}
	}

	return result, nil
}

func nameSet(l Lister) map[string]struct{} {
	names := l.ChildNames()
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func FormatReport(result *Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Comparing %s against %s\n\n", result.Left, result.Right)
	fmt.Fprintf(&b, "Similarity: %.2f%% of %s's entries also in %s\n",
		result.Similarity*100, result.Left, result.Right)

	switch {
	case !result.ContentKnown:
		b.WriteString("Content: unknown (digest unavailable)\n")
	case result.SameContent:
		b.WriteString("Content: identical\n")
	default:
		b.WriteString("Content: different\n")
	}
	b.WriteString("\n")

	if len(result.Shared) > 0 {
		fmt.Fprintf(&b, "SHARED (%d):\n", len(result.Shared))
		for _, name := range result.Shared {
			fmt.Fprintf(&b, "  = %s\n", name)
		}
		b.WriteString("\n")
	}

	if len(result.OnlyLeft) > 0 {
		fmt.Fprintf(&b, "ONLY IN %s (%d):\n", result.Left, len(result.OnlyLeft))
		for _, name := range result.OnlyLeft {
			fmt.Fprintf(&b, "  - %s\n", name)
		}
		b.WriteString("\n")
	}

	if len(result.OnlyRight) > 0 {
		fmt.Fprintf(&b, "ONLY IN %s (%d):\n", result.Right, len(result.OnlyRight))
		for _, name := range result.OnlyRight {
			fmt.Fprintf(&b, "  + %s\n", name)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Summary: %d shared, %d only left, %d only right\n",
		len(result.Shared), len(result.OnlyLeft), len(result.OnlyRight))

	return b.String()
}
