package schema

import (
	"sort"

	"github.com/cuemby/districtmig/pkg/types"
)

// FindCycles enumerates every simple cycle in g via DFS, exploring
// children in sorted order for determinism. Each cycle is reported
// exactly once, canonicalized by rotating it so its lexically smallest
// node comes first.
func FindCycles(g types.DependencyGraph) []types.CycleReport {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	seen := make(map[string]bool)
	var reports []types.CycleReport

	var dfs func(node string, path []string)
	dfs = func(node string, path []string) {
		visited[node] = true
		onStack[node] = true
		path = append(path, node)

		for _, child := range sortedChildren(g, node) {
			if !visited[child] {
				dfs(child, append([]string(nil), path...))
			} else if onStack[child] {
				cycle := canonicalizeCycle(cycleFrom(path, child))
				key := cycleKey(cycle)
				if !seen[key] {
					seen[key] = true
					reports = append(reports, types.CycleReport{
						Tables:     cycle,
						BreakPoint: suggestBreakPoint(cycle, g),
					})
				}
			}
		}

		onStack[node] = false
	}

	for _, node := range g.Nodes() {
		if !visited[node] {
			dfs(node, nil)
		}
	}

	sort.Slice(reports, func(i, j int) bool {
		return cycleKey(reports[i].Tables) < cycleKey(reports[j].Tables)
	})

	return reports
}

// cycleFrom extracts the cycle sub-path starting at the first
// occurrence of target in path, closing it back to target.
func cycleFrom(path []string, target string) []string {
	idx := -1
	for i, n := range path {
		if n == target {
			idx = i
			break
		}
	}
	cycle := append([]string(nil), path[idx:]...)
	return append(cycle, target)
}

// canonicalizeCycle rotates a cycle (minus its repeated closing node) so
// its lexically smallest node is first, then re-closes it.
func canonicalizeCycle(cycle []string) []string {
	body := cycle[:len(cycle)-1]
	minIdx := 0
	for i, n := range body {
		if n < body[minIdx] {
			minIdx = i
		}
	}
	rotated := append(append([]string(nil), body[minIdx:]...), body[:minIdx]...)
	return append(rotated, rotated[0])
}

func cycleKey(cycle []string) string {
	key := ""
	for _, n := range cycle {
		key += n + "\x00"
	}
	return key
}

// suggestBreakPoint picks the cycle member with the fewest outgoing
// edges in the full graph, ties broken lexically, and names the next
// node in the cycle as its break target.
func suggestBreakPoint(cycle []string, g types.DependencyGraph) types.BreakPoint {
	body := cycle[:len(cycle)-1]

	breakFrom := body[0]
	minOut := len(g.Edges[breakFrom])
	for _, node := range body[1:] {
		out := len(g.Edges[node])
		if out < minOut || (out == minOut && node < breakFrom) {
			breakFrom, minOut = node, out
		}
	}

	idx := 0
	for i, n := range body {
		if n == breakFrom {
			idx = i
			break
		}
	}
	breakTo := body[(idx+1)%len(body)]

	return types.BreakPoint{
		BreakFrom: breakFrom,
		BreakTo:   breakTo,
		Strategy:  "extract " + breakTo + " first without validating the FK from " + breakFrom,
	}
}
