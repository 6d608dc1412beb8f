package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jask/dashtabs/internal/filters"
)

func newFiltersCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "filters",
		Short: "Print the configured filters as a dependency tree",
		Long: `Print every configured filter under the filters it listens to.

A filter with several parents appears under each of them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defs, err := s.cfg.FilterDefs()
			if err != nil {
				return err
			}
			g := filters.NewGraph(defs)
			out := cmd.OutOrStdout()
			for _, d := range g.Defs() {
				if g.HasParents(d.Name) {
					continue
				}
				if err := printTree(out, g, d.Name, 0); err != nil {
					return err
				}
			}
			dr := s.cfg.DateFilter
			_, err = fmt.Fprintf(out, "%s (date, %s) default %s\n", dr.Name, dr.Field, s.cfg.DefaultRange().Label())
			return err
		},
	}
}

func printTree(w io.Writer, g *filters.Graph, name string, depth int) error {
	d, _ := g.Def(name)
	prefix := ""
	if depth > 0 {
		prefix = strings.Repeat("   ", depth-1) + "└─ "
	}
	if _, err := fmt.Fprintf(w, "%s%s (%s, %s)\n", prefix, d.Name, d.Kind, d.Field); err != nil {
		return err
	}
	for _, c := range g.Children(name) {
		if err := printTree(w, g, c, depth+1); err != nil {
			return err
		}
	}
	return nil
}
