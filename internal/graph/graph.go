// Package graph builds the dependency graph between workspace packages and
// derives a deterministic release order from it.
//
// Edges point from a dependent to its dependency. Dev-only edges never take
// part in ordering, so test-only cycles between packages are allowed.
package graph

import (
	"fmt"
	"sort"
)

// EdgeKind classifies a dependency declaration.
type EdgeKind int

const (
	KindNormal EdgeKind = iota
	KindBuild
	KindOptional
	KindDev
)

func (k EdgeKind) String() string {
	switch k {
	case KindNormal:
		return "normal"
	case KindBuild:
		return "build"
	case KindOptional:
		return "optional"
	case KindDev:
		return "dev"
	default:
		return fmt.Sprintf("EdgeKind(%d)", int(k))
	}
}

// Edge records that From depends on To.
type Edge struct {
	From string
	To   string
	Kind EdgeKind
}

// Graph is an immutable dependency graph over package names.
type Graph struct {
	nodes []string
	index map[string]int

	// deps[i] and dependents[i] hold sorted node indices.
	deps       [][]int
	dependents [][]int
}

// New builds a graph. Dev edges are dropped, as are edges whose endpoints
// are not in nodes. Duplicate edges collapse into one.
func New(nodes []string, edges []Edge) *Graph {
	names := append([]string(nil), nodes...)
	sort.Strings(names)
	names = dedupe(names)

	g := &Graph{
		nodes:      names,
		index:      make(map[string]int, len(names)),
		deps:       make([][]int, len(names)),
		dependents: make([][]int, len(names)),
	}
	for i, n := range names {
		g.index[n] = i
	}

	seen := make(map[[2]int]bool)
	for _, e := range edges {
		if e.Kind == KindDev {
			continue
		}
		from, ok := g.index[e.From]
		if !ok {
			continue
		}
		to, ok := g.index[e.To]
		if !ok {
			continue
		}
		key := [2]int{from, to}
		if seen[key] {
			continue
		}
		seen[key] = true
		g.deps[from] = append(g.deps[from], to)
		g.dependents[to] = append(g.dependents[to], from)
	}
	for i := range names {
		sort.Ints(g.deps[i])
		sort.Ints(g.dependents[i])
	}
	return g
}

// Dependencies returns the packages name depends on directly, sorted.
func (g *Graph) Dependencies(name string) []string {
	i, ok := g.index[name]
	if !ok {
		return nil
	}
	return g.names(g.deps[i])
}

// Dependents returns the packages that depend on name directly, sorted.
func (g *Graph) Dependents(name string) []string {
	i, ok := g.index[name]
	if !ok {
		return nil
	}
	return g.names(g.dependents[i])
}

// Order returns the selection grouped into topological levels. Every package
// appears after all selected packages it depends on, and names are sorted
// within a level. Dependencies outside the selection are ignored.
func (g *Graph) Order(selection []string) ([][]string, error) {
	selected := make([]bool, len(g.nodes))
	for _, name := range selection {
		i, ok := g.index[name]
		if !ok {
			return nil, &UnknownNodeError{Name: name}
		}
		selected[i] = true
	}

	indeg := make([]int, len(g.nodes))
	remaining := 0
	for i := range g.nodes {
		if !selected[i] {
			continue
		}
		remaining++
		for _, d := range g.deps[i] {
			if selected[d] {
				indeg[i]++
			}
		}
	}

	var ready []int
	for i := range g.nodes {
		if selected[i] && indeg[i] == 0 {
			ready = append(ready, i)
		}
	}

	var groups [][]string
	for len(ready) > 0 {
		sort.Ints(ready)
		groups = append(groups, g.names(ready))
		remaining -= len(ready)

		var next []int
		for _, n := range ready {
			for _, m := range g.dependents[n] {
				if !selected[m] {
					continue
				}
				indeg[m]--
				if indeg[m] == 0 {
					next = append(next, m)
				}
			}
		}
		ready = next
	}

	if remaining > 0 {
		return nil, &CycleError{Cycle: g.findCycle(selected, indeg)}
	}
	return groups, nil
}

// Flatten concatenates ordering groups.
func Flatten(groups [][]string) []string {
	var out []string
	for _, grp := range groups {
		out = append(out, grp...)
	}
	return out
}

// findCycle extracts one cycle among the selected nodes that were never
// released by the topological walk. The witness is deterministic: DFS visits
// nodes and edges in index order.
func (g *Graph) findCycle(selected []bool, indeg []int) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	stuck := func(i int) bool { return selected[i] && indeg[i] > 0 }

	color := make([]int, len(g.nodes))
	parent := make([]int, len(g.nodes))
	for i := range parent {
		parent[i] = -1
	}

	var cycle []int
	var dfs func(u int) bool
	dfs = func(u int) bool {
		color[u] = gray
		for _, v := range g.deps[u] {
			if !stuck(v) {
				continue
			}
			if color[v] == white {
				parent[v] = u
				if dfs(v) {
					return true
				}
				continue
			}
			if color[v] == gray {
				// Back-edge u -> v closes v ... u -> v.
				cycle = append(cycle, v)
				for cur := u; cur != -1 && cur != v; cur = parent[cur] {
					cycle = append(cycle, cur)
				}
				cycle = append(cycle, v)
				return true
			}
		}
		color[u] = black
		return false
	}

	for i := range g.nodes {
		if !stuck(i) || color[i] != white {
			continue
		}
		if dfs(i) {
			break
		}
	}

	out := make([]string, 0, len(cycle))
	for i := len(cycle) - 1; i >= 0; i-- {
		out = append(out, g.nodes[cycle[i]])
	}
	return out
}

func (g *Graph) names(idx []int) []string {
	out := make([]string, len(idx))
	for i, n := range idx {
		out[i] = g.nodes[n]
	}
	return out
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i > 0 && s == sorted[i-1] {
			continue
		}
		out = append(out, s)
	}
	return out
}
