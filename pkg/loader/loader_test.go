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

// fakeRelational is an in-memory store.Relational double that records
// writes, honors a single open transaction, and can be made to fail
// WriteBulk for a named table to exercise rollback.
type fakeRelational struct {
	written      map[string][]map[string]any
	deleted      map[string]int64
	failOnWrite  string
	txOpen       bool
	commits      int
	rollbacks    int
	pendingWrite map[string][]map[string]any
}

var _ store.Relational = (*fakeRelational)(nil)

func newFakeRelational() *fakeRelational {
	return &fakeRelational{written: map[string][]map[string]any{}, deleted: map[string]int64{}}
}

func (f *fakeRelational) Introspect(context.Context) ([]types.TableSchema, error) { return nil, nil }
func (f *fakeRelational) ReadFiltered(context.Context, string, types.TenantFilter, []types.JoinStep, store.RowFunc) error {
	return nil
}

func (f *fakeRelational) WriteBulk(ctx context.Context, table string, columns []string, rows []map[string]any, strategy types.LoadStrategy) (int64, error) {
	if table == f.failOnWrite {
		return 0, assertErr
	}
	if f.pendingWrite == nil {
		f.pendingWrite = map[string][]map[string]any{}
	}
	f.pendingWrite[table] = append(f.pendingWrite[table], rows...)
	return int64(len(rows)), nil
}

func (f *fakeRelational) DeleteByTenant(ctx context.Context, table string, filter types.TenantFilter) (int64, error) {
	n := int64(len(f.written[table]))
	f.deleted[table] += n
	delete(f.written, table)
	return n, nil
}

func (f *fakeRelational) Begin(context.Context) error {
	f.txOpen = true
	f.pendingWrite = map[string][]map[string]any{}
	return nil
}

func (f *fakeRelational) Commit(context.Context) error {
	f.commits++
	f.txOpen = false
	for table, rows := range f.pendingWrite {
		f.written[table] = append(f.written[table], rows...)
	}
	f.pendingWrite = nil
	return nil
}

func (f *fakeRelational) Rollback(context.Context) error {
	f.rollbacks++
	f.txOpen = false
	f.pendingWrite = nil
	return nil
}

func (f *fakeRelational) Close() {}

var assertErr = &stubErr{"write failed: unique constraint violation"}

type stubErr struct{ msg string }

func (e *stubErr) Error() string { return e.msg }

func stageFile(t *testing.T, dir, qualifiedName string, cols []columnar.ColumnDef, rows []map[string]any) {
	t.Helper()
	w := columnar.NewWriter(cols)
	for _, r := range rows {
		w.AppendRow(r)
	}
	require.NoError(t, w.WriteFile(filepath.Join(dir, sanitizeFileName(qualifiedName)+".dmcf")))
}

func twoTableSchemas() []types.TableSchema {
	return []types.TableSchema{
		{QualifiedName: "ids.public.students", Columns: []types.Column{{Name: "id"}, {Name: "name"}}},
		{QualifiedName: "ids.public.grades", Columns: []types.Column{{Name: "id"}, {Name: "student_id"}}},
	}
}

func TestLoadCommitsAllTablesInOneTransaction(t *testing.T) {
	dir := t.TempDir()
	stageFile(t, dir, "ids.public.students", []columnar.ColumnDef{{Name: "id", Type: columnar.TypeInteger}, {Name: "name", Type: columnar.TypeString}},
		[]map[string]any{{"id": 1.0, "name": "a"}})
	stageFile(t, dir, "ids.public.grades", []columnar.ColumnDef{{Name: "id", Type: columnar.TypeInteger}, {Name: "student_id", Type: columnar.TypeInteger}},
		[]map[string]any{{"id": 1.0, "student_id": 1.0}})

	rel := newFakeRelational()
	l := &Loader{StoreID: "ids", Relational: rel, Strategy: types.LoadInsert, InputDir: dir}

	manifest, err := l.Run(context.Background(), twoTableSchemas(), []string{"ids.public.students", "ids.public.grades"}, types.TenantFilter{Key: "district_id", Value: "42"}, nil)
	require.NoError(t, err)
	assert.True(t, manifest.Success)
	assert.Equal(t, int64(2), manifest.TotalRows)
	assert.Equal(t, 1, rel.commits)
	assert.Equal(t, 0, rel.rollbacks)
}

// TestLoadSecondTableFailureRollsBackEntireTransactionS6 matches spec
// scenario S6: insert strategy, the second table triggers an integrity
// failure, and the entire store's transaction is rolled back with the
// failure naming the failed table.
func TestLoadSecondTableFailureRollsBackEntireTransactionS6(t *testing.T) {
	dir := t.TempDir()
	stageFile(t, dir, "ids.public.students", []columnar.ColumnDef{{Name: "id", Type: columnar.TypeInteger}},
		[]map[string]any{{"id": 1.0}})
	stageFile(t, dir, "ids.public.grades", []columnar.ColumnDef{{Name: "id", Type: columnar.TypeInteger}, {Name: "student_id", Type: columnar.TypeInteger}},
		[]map[string]any{{"id": 1.0, "student_id": 1.0}})

	rel := newFakeRelational()
	rel.failOnWrite = "public.grades"
	l := &Loader{StoreID: "ids", Relational: rel, Strategy: types.LoadInsert, InputDir: dir}

	manifest, err := l.Run(context.Background(), twoTableSchemas(), []string{"ids.public.students", "ids.public.grades"}, types.TenantFilter{Key: "district_id", Value: "42"}, nil)
	require.Error(t, err)
	assert.False(t, manifest.Success)
	assert.Equal(t, 0, rel.commits)
	assert.Equal(t, 1, rel.rollbacks)
	require.Len(t, manifest.TablesLoaded, 2)
	assert.Equal(t, "ids.public.grades", manifest.TablesLoaded[1].Table)
	assert.Contains(t, manifest.TablesLoaded[1].Error, "ids.public.grades")
}

// TestRollbackIdempotenceSecondRunDeletesNothing matches testable
// property 7: rolling back an already-rolled-back tenant reports zero
// rows affected.
func TestRollbackIdempotenceSecondRunDeletesNothing(t *testing.T) {
	rel := newFakeRelational()
	rel.written["public.students"] = []map[string]any{{"id": 1.0}}
	rel.written["public.grades"] = []map[string]any{{"id": 1.0, "student_id": 1.0}}

	l := &Loader{StoreID: "ids", Relational: rel, Strategy: types.LoadInsert}
	order := []string{"ids.public.students", "ids.public.grades"}
	filter := types.TenantFilter{Key: "district_id", Value: "42"}

	first, err := l.Rollback(context.Background(), twoTableSchemas(), order, filter, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), first.TotalRows)

	second, err := l.Rollback(context.Background(), twoTableSchemas(), order, filter, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), second.TotalRows)
}

func TestRollbackDeletesInReverseDependencyOrder(t *testing.T) {
	rel := newFakeRelational()
	rel.written["public.students"] = []map[string]any{{"id": 1.0}}
	rel.written["public.grades"] = []map[string]any{{"id": 1.0, "student_id": 1.0}}

	l := &Loader{StoreID: "ids", Relational: rel, Strategy: types.LoadInsert}
	order := []string{"ids.public.students", "ids.public.grades"}
	filter := types.TenantFilter{Key: "district_id", Value: "42"}

	manifest, err := l.Rollback(context.Background(), twoTableSchemas(), order, filter, nil)
	require.NoError(t, err)
	require.Len(t, manifest.TablesLoaded, 2)
	assert.Equal(t, "ids.public.grades", manifest.TablesLoaded[0].Table)
	assert.Equal(t, "ids.public.students", manifest.TablesLoaded[1].Table)
}
