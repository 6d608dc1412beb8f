package filters

import (
	"fmt"
	"sort"
	"strings"
)

// Graph is the listens-to DAG between filters. An edge child -> parent means
// the child's options are scoped by the parent's staged values.
type Graph struct {
	order    []string
	dups     []string
	defs     map[string]Def
	parents  map[string][]string
	children map[string][]string
}

// NewGraph indexes defs. Unknown parent names are kept so Validate can report
// them; they never appear in traversal results.
func NewGraph(defs []Def) *Graph {
	g := &Graph{
		defs:     make(map[string]Def, len(defs)),
		parents:  make(map[string][]string, len(defs)),
		children: make(map[string][]string, len(defs)),
	}
	for _, d := range defs {
		if _, dup := g.defs[d.Name]; dup {
			g.dups = append(g.dups, d.Name)
			continue
		}
		g.order = append(g.order, d.Name)
		g.defs[d.Name] = d
	}
	for _, d := range defs {
		for _, p := range d.ListensTo {
			if p == d.Name {
				continue
			}
			g.parents[d.Name] = appendUnique(g.parents[d.Name], p)
			g.children[p] = appendUnique(g.children[p], d.Name)
		}
	}
	return g
}

// Def returns the definition for name.
func (g *Graph) Def(name string) (Def, bool) {
	d, ok := g.defs[name]
	return d, ok
}

// Defs returns the definitions in declaration order.
func (g *Graph) Defs() []Def {
	out := make([]Def, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.defs[name])
	}
	return out
}

// Parents returns the known filters name listens to.
func (g *Graph) Parents(name string) []string {
	var out []string
	for _, p := range g.parents[name] {
		if _, ok := g.defs[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Children returns the filters that listen to name directly.
func (g *Graph) Children(name string) []string {
	return append([]string(nil), g.children[name]...)
}

// HasParents reports whether name depends on any other filter.
func (g *Graph) HasParents(name string) bool { return len(g.Parents(name)) > 0 }

// Descendants returns every filter that depends on name directly or
// transitively. A filter appears after all of its affected parents, and ties
// follow declaration order.
func (g *Graph) Descendants(name string) []string {
	affected := map[string]bool{}
	queue := []string{name}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, c := range g.children[n] {
			if c == name || affected[c] {
				continue
			}
			affected[c] = true
			queue = append(queue, c)
		}
	}
	if len(affected) == 0 {
		return nil
	}

	// Kahn's algorithm restricted to the affected set.
	inDegree := make(map[string]int, len(affected))
	for n := range affected {
		for _, p := range g.parents[n] {
			if affected[p] {
				inDegree[n]++
			}
		}
	}
	out := make([]string, 0, len(affected))
	done := map[string]bool{}
	for len(out) < len(affected) {
		progressed := false
		for _, n := range g.order {
			if !affected[n] || done[n] || inDegree[n] > 0 {
				continue
			}
			done[n] = true
			out = append(out, n)
			progressed = true
			for _, c := range g.children[n] {
				if affected[c] {
					inDegree[c]--
				}
			}
		}
		if !progressed {
			// cycle: emit the rest in declaration order
			for _, n := range g.order {
				if affected[n] && !done[n] {
					done[n] = true
					out = append(out, n)
				}
			}
		}
	}
	return out
}

// Validate reports duplicate names, unknown parents and dependency cycles.
func (g *Graph) Validate() error {
	if len(g.dups) > 0 {
		return fmt.Errorf("duplicate filter name %q", g.dups[0])
	}
	for _, name := range g.order {
		for _, p := range g.parents[name] {
			if _, ok := g.defs[p]; !ok {
				return fmt.Errorf("filter %q listens to unknown filter %q", name, p)
			}
		}
	}
	if cycle := g.findCycle(); cycle != nil {
		return fmt.Errorf("filter dependency cycle: %s", strings.Join(cycle, " -> "))
	}
	return nil
}

func (g *Graph) findCycle() []string {
	visited := map[string]bool{}
	onStack := map[string]bool{}
	var path []string
	var cycle []string

	var dfs func(n string) bool
	dfs = func(n string) bool {
		visited[n] = true
		onStack[n] = true
		path = append(path, n)
		for _, p := range g.parents[n] {
			if onStack[p] {
				start := 0
				for i, v := range path {
					if v == p {
						start = i
						break
					}
				}
				cycle = append(append([]string{}, path[start:]...), p)
				return true
			}
			if !visited[p] {
				if dfs(p) {
					return true
				}
			}
		}
		onStack[n] = false
		path = path[:len(path)-1]
		return false
	}

	names := append([]string(nil), g.order...)
	sort.Strings(names)
	for _, n := range names {
		if !visited[n] && dfs(n) {
			return cycle
		}
	}
	return nil
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}
