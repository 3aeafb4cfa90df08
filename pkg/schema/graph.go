package schema

import (
	"sort"

	"github.com/cuemby/districtmig/pkg/types"
)

// BuildGraph constructs the parent->child dependency graph from a set of
// table schemas: every foreign key yields exactly one edge from the
// referenced table to the owning table, since the referenced row must
// exist (and therefore be written) first.
func BuildGraph(tables []types.TableSchema) types.DependencyGraph {
	edges := make(map[string][]string)

	for _, t := range tables {
		if _, ok := edges[t.QualifiedName]; !ok {
			edges[t.QualifiedName] = nil
		}
		for _, fk := range t.ForeignKeys {
			edges[fk.ToTableQualifiedName] = append(edges[fk.ToTableQualifiedName], t.QualifiedName)
		}
	}

	// Every FK contributes exactly one edge, even if two FKs connect the
	// same pair of tables: total_relationships counts FKs, not distinct
	// pairs.
	for parent, children := range edges {
		sort.Strings(children)
		edges[parent] = children
	}

	return types.DependencyGraph{Edges: edges}
}

// TotalRelationships counts every edge (one per FK, duplicates included).
func TotalRelationships(g types.DependencyGraph) int {
	n := 0
	for _, children := range g.Edges {
		n += len(children)
	}
	return n
}
