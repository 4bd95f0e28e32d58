package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/tablegraph/internal/mapping"
)

// ReferenceCycle reports entity maps that reference each other through
// referencing object maps.
//
// Cycles are informational, not errors: resolution never recurses into a
// parent, it only reads the parent's rows. They are worth knowing about
// because every member's source is read once for itself and once more as
// a parent.
type ReferenceCycle struct {
	Path    []string `json:"path"`    // Cycle path: ["Person", "Dept", "Person"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // always "info"
}

// AnalyzeReferences finds reference cycles among the entity maps of spec.
//
// The algorithm:
//  1. Build the child → parent graph from referencing object maps
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-reference as a cycle
//
// Nodes are visited in declaration order, so output is deterministic.
func AnalyzeReferences(spec *mapping.Spec) []ReferenceCycle {
	cycles := []ReferenceCycle{}
	if spec == nil {
		return cycles
	}

	order, graph := buildReferenceGraph(spec)
	for _, scc := range tarjanSCC(order, graph) {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			cycles = append(cycles, sccToCycle(scc, graph))
		}
	}
	return cycles
}

// referenceGraph maps entity map ID → parent entity map IDs.
type referenceGraph map[string][]string

func buildReferenceGraph(spec *mapping.Spec) ([]string, referenceGraph) {
	graph := make(referenceGraph)
	var order []string
	for _, em := range spec.EntityMaps() {
		order = append(order, em.ID())
		graph[em.ID()] = []string{}
		for _, ref := range spec.References(em.ID()) {
			graph[em.ID()] = append(graph[em.ID()], ref.Parent.ID())
		}
	}
	return order, graph
}

func hasSelfLoop(node string, graph referenceGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(order []string, graph referenceGraph) [][]string {
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

		// v is a root: pop its component
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

	for _, node := range order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

func sccToCycle(scc []string, graph referenceGraph) ReferenceCycle {
	if len(scc) == 1 {
		id := scc[0]
		return ReferenceCycle{
			Path:    []string{id, id},
			Message: fmt.Sprintf("entity map %s references itself", id),
			Level:   "info",
		}
	}

	path := cyclePath(scc, graph)
	return ReferenceCycle{
		Path:    path,
		Message: fmt.Sprintf("reference cycle: %s", strings.Join(path, " → ")),
		Level:   "info",
	}
}

// cyclePath walks SCC members from the last-popped node (the root, which
// Tarjan visits first) until it returns to the start.
func cyclePath(scc []string, graph referenceGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := scc[len(scc)-1]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
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
