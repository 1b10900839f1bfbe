package report

import (
	"fmt"
	"io"
	"strings"

	"dupetree/internal/tree"
)

func prefix(k tree.Kind) string {
	if k == tree.KindDirectory {
		return "d"
	}
	return "f"
}

// Render writes groups as a box-drawing list:
//
//	d ━━ /only/member
//	f ┳━ /first
//	  ┣━ /middle
//	  ┗━ /last
func Render(w io.Writer, groups []*Group) error {
	var b strings.Builder
	for _, g := range groups {
		if len(g.Members) == 0 {
			continue
		}
		p := prefix(g.Kind())
		first := g.Members[0].Path()

		if len(g.Members) == 1 {
			fmt.Fprintf(&b, "%s ━━ %s\n", p, first)
			continue
		}

		fmt.Fprintf(&b, "%s ┳━ %s\n", p, first)
		for _, m := range g.Members[1 : len(g.Members)-1] {
			fmt.Fprintf(&b, "  ┣━ %s\n", m.Path())
		}
		fmt.Fprintf(&b, "  ┗━ %s\n", g.Members[len(g.Members)-1].Path())
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderFailures writes one line per unresolved node.
func RenderFailures(w io.Writer, failures []Failure) error {
	var b strings.Builder
	for _, f := range failures {
		fmt.Fprintf(&b, "%s !! %s: %v\n", prefix(f.Node.Kind()), f.Node.Path(), f.Err)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
