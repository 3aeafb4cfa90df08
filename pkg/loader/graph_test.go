package loader

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/districtmig/pkg/columnar"
	"github.com/cuemby/districtmig/pkg/store"
	"github.com/cuemby/districtmig/pkg/types"
)

type fakeGraph struct {
	nodes       []store.GraphNode
	edges       []store.GraphEdge
	deleteByTen int64
	deleteCalls int
}

var _ store.Graph = (*fakeGraph)(nil)

func (f *fakeGraph) ExtractNeighborhood(context.Context, string, string, string, int) ([]store.GraphNode, []store.GraphEdge, error) {
	return nil, nil, nil
}
func (f *fakeGraph) LoadNodes(ctx context.Context, nodes []store.GraphNode) error {
	f.nodes = append(f.nodes, nodes...)
	return nil
}
func (f *fakeGraph) LoadEdges(ctx context.Context, edges []store.GraphEdge) error {
	f.edges = append(f.edges, edges...)
	return nil
}
func (f *fakeGraph) DeleteByTenant(context.Context, string, string, string, int) (int64, error) {
	f.deleteCalls++
	return f.deleteByTen, nil
}
func (f *fakeGraph) Close(context.Context) error { return nil }

func TestLoadGraphRoundTripsNodesAndEdges(t *testing.T) {
	dir := t.TempDir()

	nodesWriter := columnar.NewWriter([]columnar.ColumnDef{
		{Name: "internal_id", Type: columnar.TypeInteger},
		{Name: "labels", Type: columnar.TypeString},
		{Name: "properties", Type: columnar.TypeString},
	})
	nodesWriter.AppendRow(map[string]any{"internal_id": 1.0, "labels": "Student", "properties": `{"district_id":"42"}`})
	require.NoError(t, nodesWriter.WriteFile(filepath.Join(dir, "sp_nodes.dmcf")))

	edgesWriter := columnar.NewWriter([]columnar.ColumnDef{
		{Name: "start_internal_id", Type: columnar.TypeInteger},
		{Name: "type", Type: columnar.TypeString},
		{Name: "end_internal_id", Type: columnar.TypeInteger},
		{Name: "properties", Type: columnar.TypeString},
	})
	edgesWriter.AppendRow(map[string]any{"start_internal_id": 1.0, "type": "ENROLLED_IN", "end_internal_id": 2.0, "properties": `{}`})
	require.NoError(t, edgesWriter.WriteFile(filepath.Join(dir, "sp_edges.dmcf")))

	g := &fakeGraph{}
	l := &Loader{StoreID: "sp", Graph: g, InputDir: dir}

	var manifest types.LoadManifest
	require.NoError(t, l.loadGraph(context.Background(), &manifest))

	require.Len(t, g.nodes, 1)
	assert.Equal(t, int64(1), g.nodes[0].InternalID)
	assert.Equal(t, []string{"Student"}, g.nodes[0].Labels)
	assert.Equal(t, "42", g.nodes[0].Properties["district_id"])

	require.Len(t, g.edges, 1)
	assert.Equal(t, "ENROLLED_IN", g.edges[0].Type)
	assert.Equal(t, "store_edges", manifest.TablesLoaded[1].Table)
	assert.Equal(t, int64(1), manifest.TablesLoaded[1].RowsLoaded)
}

func TestRollbackDeletesGraphNeighborhood(t *testing.T) {
	g := &fakeGraph{deleteByTen: 7}
	l := &Loader{StoreID: "sp", Graph: g}

	manifest, err := l.Rollback(context.Background(), nil, nil, types.TenantFilter{Key: "district_id", Value: "42"},
		&GraphSpec{RootLabel: "District", KeyProperty: "district_id"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), manifest.TotalRows)
	assert.Equal(t, 1, g.deleteCalls)
}
