package extractor

import (
	"github.com/cuemby/districtmig/pkg/types"
)

// hasColumn reports whether table declares a column named name.
func hasColumn(table types.TableSchema, name string) bool {
	for _, c := range table.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// findJoinPath walks table's parent foreign keys breadth-first looking
// for an ancestor carrying filterKey directly. It returns a nil path
// with ok=true when filterKey sits on table itself, a non-empty
// path when reached indirectly, and ok=false when no ancestor carries
// the column at all.
func findJoinPath(tables map[string]types.TableSchema, start string, filterKey string) ([]types.JoinStep, bool) {
	startSchema, known := tables[start]
	if !known {
		return nil, false
	}
	if hasColumn(startSchema, filterKey) {
		return nil, true
	}

	type frame struct {
		table string
		path  []types.JoinStep
	}
	visited := map[string]bool{start: true}
	queue := []frame{{table: start, path: nil}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		schema, known := tables[cur.table]
		if !known {
			continue
		}
		for _, fk := range schema.ForeignKeys {
			if len(fk.FromColumns) == 0 {
				continue
			}
			parent := fk.ToTableQualifiedName
			if visited[parent] {
				continue
			}
			visited[parent] = true

			step := types.JoinStep{Table: parent, FKColumn: fk.FromColumns[0]}
			path := append(append([]types.JoinStep{}, cur.path...), step)

			parentSchema, known := tables[parent]
			if !known {
				continue
			}
			if hasColumn(parentSchema, filterKey) {
				return path, true
			}
			queue = append(queue, frame{table: parent, path: path})
		}
	}

	return nil, false
}
