package coordinator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/districtmig/pkg/types"
)

func TestEstimateDurationMatchesAnalyzerArithmetic(t *testing.T) {
	e := EstimateDuration(1_000_000)
	assert.InDelta(t, 20.0, e.ExtractionMinutes, 0.01)
	assert.InDelta(t, 10.0, e.AnonymizationMinutes, 0.01)
	assert.InDelta(t, 5.0, e.ValidationMinutes, 0.01)
	assert.InDelta(t, 33.333, e.LoadingMinutes, 0.01)
	// (20 + 10 + 5 + 33.333) * 1.1 / 60
	assert.InDelta(t, 1.2528, e.TotalHours, 0.001)
}

func TestEstimateDurationZeroRecords(t *testing.T) {
	e := EstimateDuration(0)
	assert.Zero(t, e.TotalHours)
}

func TestCountRowsOnlyCountsTablesWithFilterColumn(t *testing.T) {
	rel := newFakeRelational(map[string][]map[string]any{
		"public.students": {{"id": 1.0, "district_id": 7.0}, {"id": 2.0, "district_id": 7.0}},
	})
	tables := []types.TableSchema{
		{QualifiedName: "ids.public.students", Columns: []types.Column{{Name: "id"}, {Name: "district_id"}}},
		{QualifiedName: "ids.public.grades", Columns: []types.Column{{Name: "id"}, {Name: "student_id"}}},
	}

	n, err := CountRows(context.Background(), rel, "ids", tables, types.TenantFilter{Key: "district_id", Value: "7"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "grades carries no district_id column and must be skipped, not guessed at")
}
