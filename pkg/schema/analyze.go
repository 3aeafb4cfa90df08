package schema

import "github.com/cuemby/districtmig/pkg/types"

// Analyze runs the full dependency analysis over a catalog's table
// schemas: graph construction, topological sort, and cycle enumeration
// with break-point suggestions. Kahn's algorithm alone excludes every
// node on a cycle from the order; resolveCycles reinserts them so
// ExtractionOrder always covers every table in the catalog.
func Analyze(tables []types.TableSchema) types.SchemaAnalysis {
	graph := BuildGraph(tables)
	order, hasCycle := TopologicalSort(graph)
	cycles := FindCycles(graph)
	if hasCycle {
		order = resolveCycles(order, cycles)
	}

	return types.SchemaAnalysis{
		Graph:              graph,
		ExtractionOrder:    order,
		ExtractionByStore:  ExtractionByStore(order),
		Cycles:             cycles,
		HasCycles:          hasCycle,
		TotalTables:        len(graph.Nodes()),
		TotalRelationships: TotalRelationships(graph),
	}
}

// resolveCycles appends every node Kahn's algorithm dropped because it
// sits on a cycle back into order, one cycle at a time, linearized from
// that cycle's declared break-point so every node ends up in the order
// exactly once.
func resolveCycles(order []string, cycles []types.CycleReport) []string {
	present := make(map[string]bool, len(order))
	for _, n := range order {
		present[n] = true
	}

	for _, c := range cycles {
		for _, node := range linearizeCycle(c) {
			if !present[node] {
				present[node] = true
				order = append(order, node)
			}
		}
	}
	return order
}

// linearizeCycle rotates a cycle's body so it starts at its break-point's
// target: the node chosen to be extracted first once the break-point
// edge is ignored.
func linearizeCycle(c types.CycleReport) []string {
	body := c.Tables[:len(c.Tables)-1]
	start := 0
	for i, n := range body {
		if n == c.BreakPoint.BreakTo {
			start = i
			break
		}
	}
	return append(append([]string(nil), body[start:]...), body[:start]...)
}
