package mesh

import (
	"fmt"
	"sort"
	"strings"
)

// DAG is the dependency graph over model names. Edges point from a model to
// its upstream dependencies. References to names outside the graph are
// allowed and ignored by the sort; they represent external tables.
type DAG struct {
	upstream map[string][]string
}

// NewDAG creates an empty graph.
func NewDAG() *DAG {
	return &DAG{upstream: make(map[string][]string)}
}

// BuildDAG constructs the graph from a model set.
func BuildDAG(models map[string]Model) *DAG {
	d := NewDAG()
	for name, m := range models {
		d.Add(name, m.DependsOn)
	}
	return d
}

// Add registers a node and its upstream dependencies. Adding the same node
// twice merges the dependency lists.
func (d *DAG) Add(name string, dependsOn []string) {
	if _, ok := d.upstream[name]; !ok {
		d.upstream[name] = []string{}
	}
	d.upstream[name] = append(d.upstream[name], dependsOn...)
}

// Has reports whether the node is part of the graph.
func (d *DAG) Has(name string) bool {
	_, ok := d.upstream[name]
	return ok
}

// Len returns the number of nodes.
func (d *DAG) Len() int {
	return len(d.upstream)
}

// Upstream returns the in-graph dependencies of a node, sorted.
func (d *DAG) Upstream(name string) []string {
	var deps []string
	for _, dep := range d.upstream[name] {
		if d.Has(dep) {
			deps = append(deps, dep)
		}
	}
	sort.Strings(deps)
	return deps
}

// Sorted returns every node in dependency order: upstreams before
// downstreams. Ties are broken lexicographically so the order is stable
// across runs for the same graph.
//
// Returns a *CycleError when the graph is not acyclic.
func (d *DAG) Sorted() ([]string, error) {
	inDegree := make(map[string]int, len(d.upstream))
	downstream := make(map[string][]string, len(d.upstream))

	for name := range d.upstream {
		inDegree[name] = 0
	}
	for name, deps := range d.upstream {
		for _, dep := range deps {
			if !d.Has(dep) {
				continue // external reference
			}
			inDegree[name]++
			downstream[dep] = append(downstream[dep], name)
		}
	}

	ready := make([]string, 0, len(d.upstream))
	for name, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(d.upstream))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)

		released := false
		for _, down := range downstream[name] {
			inDegree[down]--
			if inDegree[down] == 0 {
				ready = append(ready, down)
				released = true
			}
		}
		if released {
			sort.Strings(ready)
		}
	}

	if len(order) != len(d.upstream) {
		return nil, d.cycleError(order)
	}
	return order, nil
}

// CycleError reports a dependency cycle between models.
type CycleError struct {
	Path []string // cycle traversal, first element repeated at the end
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Path, " → "))
}

// cycleError finds a cycle among the nodes the sort could not order and
// reconstructs a representative path for the error.
func (d *DAG) cycleError(ordered []string) *CycleError {
	placed := make(map[string]bool, len(ordered))
	for _, name := range ordered {
		placed[name] = true
	}

	// Restrict the graph to unplaced nodes; every cycle lives there.
	graph := make(map[string][]string)
	for name, deps := range d.upstream {
		if placed[name] {
			continue
		}
		graph[name] = []string{}
		for _, dep := range deps {
			if d.Has(dep) && !placed[dep] {
				graph[name] = append(graph[name], dep)
			}
		}
		sort.Strings(graph[name])
	}

	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			return &CycleError{Path: reconstructCyclePath(scc, graph)}
		}
	}

	// Unreachable for a well-formed leftover set, but keep the error useful.
	return &CycleError{Path: ordered}
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph map[string][]string) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Single-node SCCs without self-loops are not cycles.
func tarjanSCC(graph map[string][]string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	// Deterministic visit order keeps the reported path stable.
	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// reconstructCyclePath builds a cycle path from an SCC by following edges
// between SCC members until the walk returns to its starting node.
func reconstructCyclePath(scc []string, graph map[string][]string) []string {
	if len(scc) == 0 {
		return []string{}
	}
	if len(scc) == 1 {
		return []string{scc[0], scc[0]}
	}

	sccSet := make(map[string]bool)
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}

	return path
}
