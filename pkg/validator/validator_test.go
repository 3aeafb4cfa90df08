package validator

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/districtmig/pkg/columnar"
	"github.com/cuemby/districtmig/pkg/types"
)

func newDataset(t *testing.T, store, table string, cols []columnar.ColumnDef, rows []map[string]any) Dataset {
	t.Helper()
	w := columnar.NewWriter(cols)
	for _, r := range rows {
		w.AppendRow(r)
	}
	path := filepath.Join(t.TempDir(), "staged.dmcf")
	require.NoError(t, w.WriteFile(path))
	data, err := columnar.ReadFile(path)
	require.NoError(t, err)
	return Dataset{Store: store, Table: store + "." + table, Data: data}
}

// TestReferentialIntegrityOrphanS5 matches spec scenario S5: students.id
// in {1,2,3}, grades.student_id in {1,2,4} yields one error naming the
// orphaned value 4.
func TestReferentialIntegrityOrphanS5(t *testing.T) {
	students := newDataset(t, "ids", "public.students",
		[]columnar.ColumnDef{{Name: "id", Type: columnar.TypeInteger}},
		[]map[string]any{{"id": 1.0}, {"id": 2.0}, {"id": 3.0}})
	grades := newDataset(t, "ids", "public.grades",
		[]columnar.ColumnDef{
			{Name: "id", Type: columnar.TypeInteger},
			{Name: "student_id", Type: columnar.TypeInteger},
		},
		[]map[string]any{
			{"id": 1.0, "student_id": 1.0},
			{"id": 2.0, "student_id": 2.0},
			{"id": 3.0, "student_id": 4.0},
		})

	result := referentialIntegrity([]Dataset{students, grades}, nil)

	require.Len(t, result.Errors, 1)
	err := result.Errors[0]
	assert.Equal(t, "student_id", err.Column)
	assert.Equal(t, []string{"4"}, err.SampleOrphaned)
}

func TestReferentialIntegrityExplicitFKOverridesNaiveGuess(t *testing.T) {
	parents := newDataset(t, "ids", "public.buildings",
		[]columnar.ColumnDef{{Name: "id", Type: columnar.TypeInteger}},
		[]map[string]any{{"id": 1.0}})
	children := newDataset(t, "ids", "public.rooms",
		[]columnar.ColumnDef{
			{Name: "id", Type: columnar.TypeInteger},
			{Name: "building_id", Type: columnar.TypeInteger},
		},
		[]map[string]any{{"id": 1.0, "building_id": 1.0}})

	tables := []types.TableSchema{
		{
			QualifiedName: "ids.public.rooms",
			ForeignKeys: []types.ForeignKey{
				{FromColumns: []string{"building_id"}, ToTableQualifiedName: "ids.public.buildings"},
			},
		},
	}

	result := referentialIntegrity([]Dataset{parents, children}, tables)
	assert.Equal(t, 0, result.ChecksFailed)
	assert.Equal(t, 1, result.ChecksPassed)
}

func TestBusinessRuleViolationReportedAsError(t *testing.T) {
	grades := newDataset(t, "ids", "public.grades",
		[]columnar.ColumnDef{{Name: "score", Type: columnar.TypeFloat}},
		[]map[string]any{{"score": 95.0}, {"score": 150.0}})

	rules := []types.BusinessRule{
		{Name: "score_range", Store: "ids", Table: "grades", Predicate: "score >= 0 AND score <= 100", Severity: types.SeverityError},
	}

	result := businessRules([]Dataset{grades}, rules)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "1 of 2 rows violate")
}

func TestBusinessRuleWarningSeverityStillCountsAsPassed(t *testing.T) {
	grades := newDataset(t, "ids", "public.grades",
		[]columnar.ColumnDef{{Name: "score", Type: columnar.TypeFloat}},
		[]map[string]any{{"score": 150.0}})

	rules := []types.BusinessRule{
		{Name: "score_range", Store: "ids", Table: "grades", Predicate: "score <= 100", Severity: types.SeverityWarning},
	}

	result := businessRules([]Dataset{grades}, rules)
	assert.Equal(t, 0, result.ChecksFailed)
	assert.Len(t, result.Warnings, 1)
}

func TestCompletenessMissingFieldIsAlwaysAnError(t *testing.T) {
	students := newDataset(t, "ids", "public.students",
		[]columnar.ColumnDef{{Name: "id", Type: columnar.TypeInteger}},
		[]map[string]any{{"id": 1.0}})

	rules := []types.CompletenessRule{
		{Name: "req", Store: "ids", Table: "students", RequiredFields: []string{"email"}, Severity: types.SeverityWarning},
	}

	result := completeness([]Dataset{students}, rules)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, types.SeverityError, result.Errors[0].Severity)
}

func TestDataQualityFlagsDuplicateAndNegativeIDs(t *testing.T) {
	students := newDataset(t, "ids", "public.students",
		[]columnar.ColumnDef{{Name: "id", Type: columnar.TypeInteger}},
		[]map[string]any{{"id": 1.0}, {"id": 1.0}, {"id": -5.0}})

	result := dataQuality([]Dataset{students}, nil)
	assert.Len(t, result.Errors, 2)
}

func TestValidatorRunOverallStatusPrecedence(t *testing.T) {
	students := newDataset(t, "ids", "public.students",
		[]columnar.ColumnDef{{Name: "id", Type: columnar.TypeInteger}, {Name: "name", Type: columnar.TypeString}},
		[]map[string]any{{"id": 1.0, "name": nil}})

	v := &Validator{Datasets: []Dataset{students}}
	report := v.Run()
	assert.Equal(t, types.StatusPassedWithWarnings, report.OverallStatus)
	assert.True(t, report.Success)
}

// TestValidatorMonotonicityAddingCleanRowNeverIncreasesFailures matches
// testable property 6: adding a row that violates no rule never increases
// total_failed or total_warnings.
func TestValidatorMonotonicityAddingCleanRowNeverIncreasesFailures(t *testing.T) {
	cols := []columnar.ColumnDef{{Name: "id", Type: columnar.TypeInteger}}

	before := newDataset(t, "ids", "public.students", cols, []map[string]any{{"id": 1.0}, {"id": 2.0}})
	after := newDataset(t, "ids", "public.students", cols, []map[string]any{{"id": 1.0}, {"id": 2.0}, {"id": 3.0}})

	reportBefore := (&Validator{Datasets: []Dataset{before}}).Run()
	reportAfter := (&Validator{Datasets: []Dataset{after}}).Run()

	assert.LessOrEqual(t, reportAfter.TotalFailed, reportBefore.TotalFailed)
	assert.LessOrEqual(t, reportAfter.TotalWarnings, reportBefore.TotalWarnings)
}
