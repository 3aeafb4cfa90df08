package schema

import (
	"testing"

	"github.com/cuemby/districtmig/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableWithFK(name string, fkTo ...string) types.TableSchema {
	var fks []types.ForeignKey
	for _, to := range fkTo {
		fks = append(fks, types.ForeignKey{ToTableQualifiedName: to})
	}
	return types.TableSchema{QualifiedName: name, ForeignKeys: fks}
}

func TestTopologySoundnessS1(t *testing.T) {
	tables := []types.TableSchema{
		tableWithFK("ids.public.a"),
		tableWithFK("ids.public.b", "ids.public.a"),
		tableWithFK("ids.public.c", "ids.public.b"),
	}

	analysis := Analyze(tables)
	require.False(t, analysis.HasCycles)
	assert.Equal(t, []string{"ids.public.a", "ids.public.b", "ids.public.c"}, analysis.ExtractionOrder)
	assert.Empty(t, analysis.Cycles)
}

func TestCycleDetectionS2(t *testing.T) {
	tables := []types.TableSchema{
		tableWithFK("ids.public.x", "ids.public.y"),
		tableWithFK("ids.public.y", "ids.public.x"),
	}

	analysis := Analyze(tables)
	require.True(t, analysis.HasCycles)
	require.Len(t, analysis.Cycles, 1)

	cycle := analysis.Cycles[0]
	assert.Equal(t, []string{"ids.public.x", "ids.public.y", "ids.public.x"}, cycle.Tables)
	assert.Equal(t, "ids.public.x", cycle.BreakPoint.BreakFrom)
	assert.Equal(t, "ids.public.y", cycle.BreakPoint.BreakTo)
}

func TestCycleBreakDeterminismAcrossRuns(t *testing.T) {
	tables := []types.TableSchema{
		tableWithFK("ids.public.x", "ids.public.y"),
		tableWithFK("ids.public.y", "ids.public.x"),
	}

	first := Analyze(tables)
	second := Analyze(tables)

	assert.Equal(t, first.Cycles, second.Cycles)
	assert.Equal(t, first.ExtractionOrder, second.ExtractionOrder)
}

func TestExtractionByStoreSplitsQualifiedNames(t *testing.T) {
	tables := []types.TableSchema{
		tableWithFK("ids.public.a"),
		tableWithFK("hcp1.public.b"),
	}

	analysis := Analyze(tables)
	assert.Contains(t, analysis.ExtractionByStore["ids"], "public.a")
	assert.Contains(t, analysis.ExtractionByStore["hcp1"], "public.b")
}

func TestTopologySoundnessInvariant(t *testing.T) {
	tables := []types.TableSchema{
		tableWithFK("ids.public.a"),
		tableWithFK("ids.public.b", "ids.public.a"),
		tableWithFK("ids.public.c", "ids.public.b"),
		tableWithFK("ids.public.d", "ids.public.a", "ids.public.c"),
	}
	analysis := Analyze(tables)
	require.False(t, analysis.HasCycles)

	pos := make(map[string]int, len(analysis.ExtractionOrder))
	for i, n := range analysis.ExtractionOrder {
		pos[n] = i
	}
	for parent, children := range analysis.Graph.Edges {
		for _, child := range children {
			assert.Less(t, pos[parent], pos[child], "%s must precede %s", parent, child)
		}
	}
}
