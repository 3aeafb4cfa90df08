package extractor

import (
	"context"
	"testing"

	"github.com/cuemby/districtmig/pkg/columnar"
	"github.com/cuemby/districtmig/pkg/store"
	"github.com/cuemby/districtmig/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGraph struct {
	nodes []store.GraphNode
	edges []store.GraphEdge
}

func (f *fakeGraph) ExtractNeighborhood(ctx context.Context, rootLabel, rootKeyProperty, rootKey string, maxDepth int) ([]store.GraphNode, []store.GraphEdge, error) {
	return f.nodes, f.edges, nil
}
func (f *fakeGraph) LoadNodes(ctx context.Context, nodes []store.GraphNode) error { return nil }
func (f *fakeGraph) LoadEdges(ctx context.Context, edges []store.GraphEdge) error { return nil }
func (f *fakeGraph) DeleteByTenant(ctx context.Context, rootLabel, rootKeyProperty, rootKey string, maxDepth int) (int64, error) {
	return 0, nil
}
func (f *fakeGraph) Close(ctx context.Context) error { return nil }

var _ store.Graph = (*fakeGraph)(nil)

func TestExtractGraphWritesNodesAndEdges(t *testing.T) {
	tmp := t.TempDir()
	fg := &fakeGraph{
		nodes: []store.GraphNode{
			{InternalID: 1, Labels: []string{"District"}, Properties: map[string]any{"id": "d1"}},
			{InternalID: 2, Labels: []string{"Student"}, Properties: map[string]any{"id": "s1"}},
		},
		edges: []store.GraphEdge{
			{StartInternalID: 1, Type: "HAS_STUDENT", EndInternalID: 2, Properties: map[string]any{}},
		},
	}
	ex := &Extractor{StoreID: "sp", Graph: fg, OutputDir: tmp}

	staged, err := ex.extractGraph(context.Background(), types.TenantFilter{Key: "id", Value: "d1"},
		GraphSpec{RootLabel: "District", KeyProperty: "id"})
	require.NoError(t, err)
	require.Len(t, staged, 2)

	nodesTable, err := columnar.ReadFile(staged[0].File)
	require.NoError(t, err)
	assert.EqualValues(t, 2, nodesTable.RowCount)

	edgesTable, err := columnar.ReadFile(staged[1].File)
	require.NoError(t, err)
	assert.EqualValues(t, 1, edgesTable.RowCount)
}
