package cli

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jask/dashtabs/internal/filters"
)

type optionsOptions struct {
	where      []string
	jsonOutput bool
}

func newOptionsCommand(s *session) *cobra.Command {
	opts := &optionsOptions{}

	cmd := &cobra.Command{
		Use:   "options <filter>",
		Short: "Fetch a filter's options, scoped by staged parent values",
		Example: `  dashtabs options state --where country=USA
  dashtabs options city --where country=USA,Canada --where state=Ontario`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), s)
			if err != nil {
				return err
			}
			defer rt.Close()

			name := args[0]
			if _, ok := rt.graph.Def(name); !ok {
				return &ExitError{Code: 2, Err: fmt.Errorf("unknown filter %q", name)}
			}
			staged, err := parseWhere(rt.graph, name, opts.where)
			if err != nil {
				return &ExitError{Code: 2, Err: err}
			}

			req := filters.NewPropagator(rt.graph).Request(staged, name)
			options, err := rt.fetcher().Fetch(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(options)
			}
			for _, o := range options {
				if _, err := fmt.Fprintln(out, o.Value); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&opts.where, "where", nil, "staged parent values as parent=v1,v2 (repeatable)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "print options as JSON")
	return cmd
}

// parseWhere builds a staged selection from parent=v1,v2 terms. Only direct
// parents of name are accepted.
func parseWhere(g *filters.Graph, name string, terms []string) (filters.Selection, error) {
	staged := filters.Selection{}
	parents := g.Parents(name)
	for _, term := range terms {
		parent, values, ok := strings.Cut(term, "=")
		parent = strings.TrimSpace(parent)
		if !ok || parent == "" {
			return nil, fmt.Errorf("--where %q: want parent=v1,v2", term)
		}
		if !slices.Contains(parents, parent) {
			return nil, fmt.Errorf("--where %q: %s does not listen to %s", term, name, parent)
		}
		for _, v := range filters.SplitValues(values) {
			if v = strings.TrimSpace(v); v != "" {
				staged[parent] = append(staged[parent], v)
			}
		}
	}
	return staged, nil
}
