package extractor

import (
	"context"
	"os"
	"testing"

	"github.com/cuemby/districtmig/pkg/store"
	"github.com/cuemby/districtmig/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRelational struct {
	rows map[string][]map[string]any
}

var _ store.Relational = (*fakeRelational)(nil)

func (f *fakeRelational) Introspect(ctx context.Context) ([]types.TableSchema, error) { return nil, nil }

func (f *fakeRelational) ReadFiltered(ctx context.Context, table string, filter types.TenantFilter, joinPath []types.JoinStep, fn store.RowFunc) error {
	for _, row := range f.rows[table] {
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeRelational) WriteBulk(ctx context.Context, table string, columns []string, rows []map[string]any, strategy types.LoadStrategy) (int64, error) {
	return 0, nil
}
func (f *fakeRelational) DeleteByTenant(ctx context.Context, table string, filter types.TenantFilter) (int64, error) {
	return 0, nil
}
func (f *fakeRelational) Begin(ctx context.Context) error    { return nil }
func (f *fakeRelational) Commit(ctx context.Context) error   { return nil }
func (f *fakeRelational) Rollback(ctx context.Context) error { return nil }
func (f *fakeRelational) Close()                             {}

func schemaWithFK(name string, columns []string, fkCol, fkTo string) types.TableSchema {
	cols := make([]types.Column, 0, len(columns))
	for _, c := range columns {
		cols = append(cols, types.Column{Name: c, LogicalType: "text"})
	}
	var fks []types.ForeignKey
	if fkCol != "" {
		fks = []types.ForeignKey{{FromColumns: []string{fkCol}, ToTableQualifiedName: fkTo, ToColumns: []string{"id"}}}
	}
	return types.TableSchema{QualifiedName: name, Columns: cols, ForeignKeys: fks}
}

func TestExtractDirectFilterMatch(t *testing.T) {
	tmp := t.TempDir()
	students := schemaWithFK("ids.public.students", []string{"id", "district_id", "name"}, "", "")

	fake := &fakeRelational{rows: map[string][]map[string]any{
		"public.students": {{"id": "1", "district_id": "d1", "name": "Ann"}},
	}}
	ex := &Extractor{StoreID: "ids", Relational: fake, OutputDir: tmp}

	manifest, err := ex.Run(context.Background(), []types.TableSchema{students}, []string{"ids.public.students"},
		types.TenantFilter{Key: "district_id", Value: "d1"}, nil)

	require.NoError(t, err)
	require.True(t, manifest.Success)
	require.Len(t, manifest.TablesExtracted, 1)
	assert.Equal(t, int64(1), manifest.TablesExtracted[0].RowCount)
	assert.Empty(t, manifest.TablesExtracted[0].JoinStrategy)
	assert.FileExists(t, manifest.TablesExtracted[0].File)
}

func TestExtractIndirectJoinPath(t *testing.T) {
	tmp := t.TempDir()
	students := schemaWithFK("ids.public.students", []string{"id", "district_id"}, "", "")
	enrollments := schemaWithFK("ids.public.enrollments", []string{"id", "student_id"}, "student_id", "ids.public.students")

	fake := &fakeRelational{rows: map[string][]map[string]any{
		"public.enrollments": {{"id": "e1", "student_id": "1"}},
	}}
	ex := &Extractor{StoreID: "ids", Relational: fake, OutputDir: tmp}

	manifest, err := ex.Run(context.Background(), []types.TableSchema{students, enrollments},
		[]string{"ids.public.students", "ids.public.enrollments"},
		types.TenantFilter{Key: "district_id", Value: "d1"}, nil)

	require.NoError(t, err)
	var enrollmentResult *types.StagedTable
	for i := range manifest.TablesExtracted {
		if manifest.TablesExtracted[i].Table == "ids.public.enrollments" {
			enrollmentResult = &manifest.TablesExtracted[i]
		}
	}
	require.NotNil(t, enrollmentResult)
	assert.NotEmpty(t, enrollmentResult.JoinStrategy)
	assert.False(t, enrollmentResult.Skipped)
}

func TestExtractSkipsTableWithNoTenantPath(t *testing.T) {
	tmp := t.TempDir()
	lookup := schemaWithFK("ids.public.country_codes", []string{"code", "label"}, "", "")

	fake := &fakeRelational{rows: map[string][]map[string]any{}}
	ex := &Extractor{StoreID: "ids", Relational: fake, OutputDir: tmp}

	manifest, err := ex.Run(context.Background(), []types.TableSchema{lookup}, []string{"ids.public.country_codes"},
		types.TenantFilter{Key: "district_id", Value: "d1"}, nil)

	require.NoError(t, err)
	require.True(t, manifest.Success)
	require.Len(t, manifest.TablesExtracted, 1)
	assert.True(t, manifest.TablesExtracted[0].Skipped)
	assert.Equal(t, "no_tenant_path", manifest.TablesExtracted[0].SkipReason)
}

func TestExtractPerTableFailureContinuesPhase(t *testing.T) {
	tmp := t.TempDir()
	badDir := tmp + "/does/not/exist"
	students := schemaWithFK("ids.public.students", []string{"id", "district_id"}, "", "")
	staff := schemaWithFK("ids.public.staff", []string{"id", "district_id"}, "", "")

	fake := &fakeRelational{rows: map[string][]map[string]any{
		"public.students": {{"id": "1", "district_id": "d1"}},
		"public.staff":    {{"id": "2", "district_id": "d1"}},
	}}
	ex := &Extractor{StoreID: "ids", Relational: fake, OutputDir: badDir}

	manifest, err := ex.Run(context.Background(), []types.TableSchema{students, staff},
		[]string{"ids.public.students", "ids.public.staff"},
		types.TenantFilter{Key: "district_id", Value: "d1"}, nil)

	require.NoError(t, err)
	assert.False(t, manifest.Success)
	assert.Len(t, manifest.TablesExtracted, 2)
	assert.NotEmpty(t, manifest.Errors)

	_ = os.RemoveAll(badDir)
}
