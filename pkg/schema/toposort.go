package schema

import (
	"sort"

	"github.com/cuemby/districtmig/pkg/types"
)

// TopologicalSort runs Kahn's algorithm over g, returning the extraction
// order and whether a cycle was detected. Among all nodes with zero
// in-degree at any step, the lexically smallest is always popped first,
// so identical input always yields an identical order.
func TopologicalSort(g types.DependencyGraph) (order []string, hasCycle bool) {
	inDegree := make(map[string]int)
	for _, node := range g.Nodes() {
		inDegree[node] = 0
	}
	for _, children := range g.Edges {
		for _, child := range children {
			inDegree[child]++
		}
	}

	ready := make([]string, 0, len(inDegree))
	for node, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, node)
		}
	}
	sort.Strings(ready)

	var result []string
	for len(ready) > 0 {
		node := ready[0]
		ready = ready[1:]
		result = append(result, node)

		var newlyReady []string
		for _, child := range sortedChildren(g, node) {
			inDegree[child]--
			if inDegree[child] == 0 {
				newlyReady = append(newlyReady, child)
			}
		}
		if len(newlyReady) > 0 {
			ready = append(ready, newlyReady...)
			sort.Strings(ready)
		}
	}

	return result, len(result) != len(inDegree)
}

func sortedChildren(g types.DependencyGraph, node string) []string {
	children := g.Edges[node]
	out := make([]string, len(children))
	copy(out, children)
	sort.Strings(out)
	return out
}

// ExtractionByStore splits a flat extraction order into per-store
// sub-orders, keyed by the first dot-separated component of each
// qualified name ("store.schema.table").
func ExtractionByStore(order []string) map[string][]string {
	byStore := make(map[string][]string)
	for _, qualified := range order {
		store, rest := splitStore(qualified)
		byStore[store] = append(byStore[store], rest)
	}
	return byStore
}

func splitStore(qualifiedName string) (store, rest string) {
	for i := 0; i < len(qualifiedName); i++ {
		if qualifiedName[i] == '.' {
			return qualifiedName[:i], qualifiedName[i+1:]
		}
	}
	return qualifiedName, ""
}
