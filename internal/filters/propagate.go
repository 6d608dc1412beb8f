package filters

// Request asks for one filter's options, scoped to the staged values of the
// parents that currently have any. Empty Constraints means unscoped.
type Request struct {
	Filter      string
	Constraints map[string][]string
}

// Scoped reports whether the request carries any parent constraint.
func (r Request) Scoped() bool { return len(r.Constraints) > 0 }

// Plan is the outcome of a staged change: which filters lost their staged
// values and which must refetch options.
type Plan struct {
	Changed bool
	Cleared []string
	Refetch []Request
}

// Propagator applies the cascading rule over a dependency graph.
type Propagator struct {
	graph *Graph
}

func NewPropagator(g *Graph) *Propagator { return &Propagator{graph: g} }

// Graph returns the underlying dependency graph.
func (p *Propagator) Graph() *Graph { return p.graph }

// Propagate stages values for name on staged and computes the follow-up work.
//
// Every transitive dependent is refetched. Dependents are also cleared unless
// the change only added values to a multi-select filter; button groups always
// clear. Constraints are read from staged after clearing.
func (p *Propagator) Propagate(staged Selection, name string, values []string) Plan {
	def, ok := p.graph.Def(name)
	if !ok {
		return Plan{}
	}
	next := normalizeValues(values)
	if def.SingleValued() && len(next) > 1 {
		next = next[len(next)-1:]
	}
	prev := staged[name]
	if sameValues(prev, next) {
		return Plan{}
	}
	staged.set(name, next)

	descendants := p.graph.Descendants(name)
	plan := Plan{Changed: true}

	pureAddition := !def.SingleValued() && len(removed(prev, next)) == 0
	if !pureAddition {
		for _, d := range descendants {
			if staged.Has(d) {
				plan.Cleared = append(plan.Cleared, d)
			}
			delete(staged, d)
		}
	}
	for _, d := range descendants {
		plan.Refetch = append(plan.Refetch, p.Request(staged, d))
	}
	return plan
}

// Request builds the option request for name from the current staged values.
func (p *Propagator) Request(staged Selection, name string) Request {
	req := Request{Filter: name}
	for _, parent := range p.graph.Parents(name) {
		if !staged.Has(parent) {
			continue
		}
		if req.Constraints == nil {
			req.Constraints = map[string][]string{}
		}
		req.Constraints[parent] = staged.Values(parent)
	}
	return req
}

// All returns one request per filter, in declaration order.
func (p *Propagator) All(staged Selection) []Request {
	defs := p.graph.Defs()
	out := make([]Request, 0, len(defs))
	for _, d := range defs {
		out = append(out, p.Request(staged, d.Name))
	}
	return out
}
