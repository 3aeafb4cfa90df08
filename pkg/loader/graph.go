package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cuemby/districtmig/pkg/columnar"
	"github.com/cuemby/districtmig/pkg/migerr"
	"github.com/cuemby/districtmig/pkg/store"
	"github.com/cuemby/districtmig/pkg/types"
)

// loadGraph reads the staged store_nodes/store_edges files written by
// the extractor's graph path and merges them back into the graph store.
// Nodes are loaded before edges since LoadEdges matches endpoints by the
// _internal_id property nodes carry.
func (l *Loader) loadGraph(ctx context.Context, manifest *types.LoadManifest) error {
	nodesPath := filepath.Join(l.InputDir, fmt.Sprintf("%s_nodes.dmcf", l.StoreID))
	edgesPath := filepath.Join(l.InputDir, fmt.Sprintf("%s_edges.dmcf", l.StoreID))

	nodesTable, err := columnar.ReadFile(nodesPath)
	if err != nil {
		return &migerr.Data{Table: "store_nodes", Err: err}
	}
	edgesTable, err := columnar.ReadFile(edgesPath)
	if err != nil {
		return &migerr.Data{Table: "store_edges", Err: err}
	}

	nodes := make([]store.GraphNode, 0, nodesTable.RowCount)
	for i := 0; i < int(nodesTable.RowCount); i++ {
		row := nodesTable.Row(i)
		var props map[string]any
		if s, ok := row["properties"].(string); ok && s != "" {
			if err := json.Unmarshal([]byte(s), &props); err != nil {
				return &migerr.Data{Table: "store_nodes", Err: err}
			}
		}
		internalID, _ := toInt64(row["internal_id"])
		var labels []string
		if s, ok := row["labels"].(string); ok && s != "" {
			labels = strings.Split(s, ",")
		}
		nodes = append(nodes, store.GraphNode{InternalID: internalID, Labels: labels, Properties: props})
	}
	if err := l.Graph.LoadNodes(ctx, nodes); err != nil {
		return &migerr.Data{Table: "store_nodes", Err: err}
	}
	manifest.TablesLoaded = append(manifest.TablesLoaded, types.TableLoadResult{
		Table: "store_nodes", Store: l.StoreID, RowsLoaded: int64(len(nodes)), Success: true,
	})
	manifest.TotalRows += int64(len(nodes))

	edges := make([]store.GraphEdge, 0, edgesTable.RowCount)
	for i := 0; i < int(edgesTable.RowCount); i++ {
		row := edgesTable.Row(i)
		var props map[string]any
		if s, ok := row["properties"].(string); ok && s != "" {
			if err := json.Unmarshal([]byte(s), &props); err != nil {
				return &migerr.Data{Table: "store_edges", Err: err}
			}
		}
		start, _ := toInt64(row["start_internal_id"])
		end, _ := toInt64(row["end_internal_id"])
		typ, _ := row["type"].(string)
		edges = append(edges, store.GraphEdge{StartInternalID: start, Type: typ, EndInternalID: end, Properties: props})
	}
	if err := l.Graph.LoadEdges(ctx, edges); err != nil {
		return &migerr.Data{Table: "store_edges", Err: err}
	}
	manifest.TablesLoaded = append(manifest.TablesLoaded, types.TableLoadResult{
		Table: "store_edges", Store: l.StoreID, RowsLoaded: int64(len(edges)), Success: true,
	})
	manifest.TotalRows += int64(len(edges))

	return nil
}

func toInt64(v any) (int64, bool) {
	switch val := v.(type) {
	case int64:
		return val, true
	case float64:
		return int64(val), true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}
