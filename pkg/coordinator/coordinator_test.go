package coordinator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/districtmig/pkg/consistency"
	"github.com/cuemby/districtmig/pkg/store"
	"github.com/cuemby/districtmig/pkg/types"
)

// fakeRelational is a minimal in-memory store.Relational double shared
// by every test in this package: ReadFiltered always streams the same
// fixed row set, WriteBulk records what it was asked to write (visible
// only after Commit), and DeleteByTenant reports what has been committed
// so far.
type fakeRelational struct {
	rows         map[string][]map[string]any
	written      map[string][]map[string]any
	deleted      map[string]int64
	failOnWrite  string
	failOnDelete bool
	onDelete     func(table string)
	txOpen       bool
	commits      int
	rollbacks    int
	pending      map[string][]map[string]any
}

var _ store.Relational = (*fakeRelational)(nil)

func newFakeRelational(rows map[string][]map[string]any) *fakeRelational {
	return &fakeRelational{rows: rows, written: map[string][]map[string]any{}, deleted: map[string]int64{}}
}

func (f *fakeRelational) Introspect(context.Context) ([]types.TableSchema, error) { return nil, nil }

func (f *fakeRelational) ReadFiltered(_ context.Context, table string, _ types.TenantFilter, _ []types.JoinStep, fn store.RowFunc) error {
	for _, row := range f.rows[table] {
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeRelational) WriteBulk(_ context.Context, table string, _ []string, rows []map[string]any, _ types.LoadStrategy) (int64, error) {
	if table == f.failOnWrite {
		return 0, &stubErr{"write failed: constraint violation"}
	}
	if f.pending == nil {
		f.pending = map[string][]map[string]any{}
	}
	f.pending[table] = append(f.pending[table], rows...)
	return int64(len(rows)), nil
}

func (f *fakeRelational) DeleteByTenant(_ context.Context, table string, _ types.TenantFilter) (int64, error) {
	if f.onDelete != nil {
		f.onDelete(table)
	}
	if f.failOnDelete {
		return 0, &stubErr{"delete failed: connection reset"}
	}
	n := int64(len(f.written[table]))
	f.deleted[table] += n
	delete(f.written, table)
	return n, nil
}

func (f *fakeRelational) Begin(context.Context) error {
	f.txOpen = true
	f.pending = map[string][]map[string]any{}
	return nil
}

func (f *fakeRelational) Commit(context.Context) error {
	f.commits++
	f.txOpen = false
	for table, rows := range f.pending {
		f.written[table] = append(f.written[table], rows...)
	}
	f.pending = nil
	return nil
}

func (f *fakeRelational) Rollback(context.Context) error {
	f.rollbacks++
	f.txOpen = false
	f.pending = nil
	return nil
}

func (f *fakeRelational) Close() {}

type stubErr struct{ msg string }

func (e *stubErr) Error() string { return e.msg }

func studentsSchema() []types.TableSchema {
	return []types.TableSchema{
		{QualifiedName: "ids.public.students", Columns: []types.Column{
			{Name: "id", LogicalType: "integer"},
			{Name: "district_id", LogicalType: "integer"},
			{Name: "name", LogicalType: "text"},
			{Name: "email", LogicalType: "text"},
		}},
	}
}

func baseRequest(t *testing.T, rel *fakeRelational, mode Mode) RunRequest {
	t.Helper()
	return RunRequest{
		RunID:        "mig-20260730-120000-001",
		DistrictID:   "district-7",
		Filter:       types.TenantFilter{Key: "district_id", Value: "7"},
		Tables:       studentsSchema(),
		StoreOrder:   []string{"ids"},
		OrderByStore: map[string][]string{"ids": {"ids.public.students"}},
		Stores:       StoreSet{Relational: map[string]store.Relational{"ids": rel}},
		AnonymizationRules: &types.AnonymizationRuleSet{Rules: []types.AnonymizationRule{
			{Name: "names", FieldPattern: "name", Strategy: types.StrategySynthetic, FakerType: "name"},
			{Name: "emails", FieldPattern: "email", Strategy: types.StrategySynthetic, FakerType: "email"},
		}},
		ValidationRules: &types.ValidationRuleSet{},
		ConsistencyMap:  consistency.New(),
		Salt:            "pepper",
		Strategy:        types.LoadInsert,
		BaseDir:         t.TempDir(),
		Mode:            mode,
	}
}

func TestRunFullPipelineSucceeds(t *testing.T) {
	rel := newFakeRelational(map[string][]map[string]any{
		"public.students": {
			{"id": 1.0, "district_id": 7.0, "name": "Ada Lovelace", "email": "ada@example.com"},
			{"id": 2.0, "district_id": 7.0, "name": "Alan Turing", "email": "alan@example.com"},
		},
	})
	req := baseRequest(t, rel, Mode{})

	c := New()
	manifest, err := c.Run(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, manifest.Success)
	assert.Equal(t, types.PhaseName(""), manifest.FailedPhase)
	require.Len(t, manifest.Phases, 5)
	for _, p := range manifest.Phases {
		assert.True(t, p.Success, "phase %s should have succeeded", p.Phase)
	}
	assert.Equal(t, int64(2), manifest.Extraction[0].TotalRecords)
	assert.Equal(t, 1, rel.commits)
	require.Len(t, rel.written["public.students"], 2)
	assert.NotEqual(t, "Ada Lovelace", rel.written["public.students"][0]["name"])
}

func TestRunExtractionSkipModeBypassesExtraction(t *testing.T) {
	rel := newFakeRelational(map[string][]map[string]any{})
	req := baseRequest(t, rel, Mode{ExtractionSkip: true})

	c := New()
	manifest, err := c.Run(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, manifest.Phases[0].Skipped)
	assert.Equal(t, 0, rel.commits)
}

func TestRunLoadSkipModeBypassesLoad(t *testing.T) {
	rel := newFakeRelational(map[string][]map[string]any{
		"public.students": {{"id": 1.0, "district_id": 7.0, "name": "Ada Lovelace", "email": "ada@example.com"}},
	})
	req := baseRequest(t, rel, Mode{LoadSkip: true})

	c := New()
	manifest, err := c.Run(context.Background(), req)
	require.NoError(t, err)
	var loadPhase types.PhaseResult
	for _, p := range manifest.Phases {
		if p.Phase == types.PhaseLoad {
			loadPhase = p
		}
	}
	assert.True(t, loadPhase.Skipped)
	assert.Equal(t, 0, rel.commits)
}

func TestRunValidationOnlyModeDoesNotBlockOnFailedValidation(t *testing.T) {
	rel := newFakeRelational(map[string][]map[string]any{
		"public.students": {{"id": 1.0, "district_id": 7.0, "name": "Ada Lovelace", "email": nil}},
	})
	req := baseRequest(t, rel, Mode{ValidationOnly: true})
	req.ValidationRules = &types.ValidationRuleSet{
		CompletenessRules: []types.CompletenessRule{
			{Name: "email_required", Store: "ids", Table: "students", RequiredFields: []string{"email"}, Severity: types.SeverityError},
		},
	}

	c := New()
	manifest, err := c.Run(context.Background(), req)
	require.NoError(t, err, "a FAILED validation must not block a validation-only run")
	assert.True(t, manifest.Success)
	require.NotNil(t, manifest.Validation)
	assert.Equal(t, types.StatusFailed, manifest.Validation.OverallStatus)
	assert.Equal(t, 0, rel.commits, "validation-only mode must still skip loading")
}

func TestRunFailedValidationBlocksAnOrdinaryRun(t *testing.T) {
	rel := newFakeRelational(map[string][]map[string]any{
		"public.students": {{"id": 1.0, "district_id": 7.0, "name": "Ada Lovelace", "email": nil}},
	})
	req := baseRequest(t, rel, Mode{})
	req.ValidationRules = &types.ValidationRuleSet{
		CompletenessRules: []types.CompletenessRule{
			{Name: "email_required", Store: "ids", Table: "students", RequiredFields: []string{"email"}, Severity: types.SeverityError},
		},
	}

	c := New()
	manifest, err := c.Run(context.Background(), req)
	require.Error(t, err)
	assert.False(t, manifest.Success)
	assert.Equal(t, types.PhaseValidate, manifest.FailedPhase)
	assert.Equal(t, 0, rel.commits, "load must never run after a blocking validation failure")
}

func TestRunPIILeakStopsBeforeValidation(t *testing.T) {
	rel := newFakeRelational(map[string][]map[string]any{
		"public.students": {{"id": 1.0, "district_id": 7.0, "name": "Ada Lovelace", "email": "ada@example.com"}},
	})
	req := baseRequest(t, rel, Mode{})
	// A hash-strategy output doesn't carry the synthetic email's domain
	// suffix, so the leak scan flags the governed "email" column.
	req.AnonymizationRules = &types.AnonymizationRuleSet{Rules: []types.AnonymizationRule{
		{Name: "emails", FieldPattern: "email", Strategy: types.StrategyHash},
	}}

	c := New()
	manifest, err := c.Run(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, types.PhaseAnonymize, manifest.FailedPhase)
	assert.Nil(t, manifest.Validation, "validation must not run once the anonymize phase fails")
}

func TestRunLoadFailureSuggestsRollback(t *testing.T) {
	rel := newFakeRelational(map[string][]map[string]any{
		"public.students": {{"id": 1.0, "district_id": 7.0, "name": "Ada Lovelace", "email": "ada@example.com"}},
	})
	rel.failOnWrite = "public.students"
	req := baseRequest(t, rel, Mode{})

	c := New()
	manifest, err := c.Run(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, types.PhaseLoad, manifest.FailedPhase)
	assert.Equal(t, "rollback", manifest.NextAction)
}
