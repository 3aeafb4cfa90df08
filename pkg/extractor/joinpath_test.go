package extractor

import (
	"testing"

	"github.com/cuemby/districtmig/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestFindJoinPathDirectColumn(t *testing.T) {
	tables := map[string]types.TableSchema{
		"ids.public.students": schemaWithFK("ids.public.students", []string{"id", "district_id"}, "", ""),
	}
	path, ok := findJoinPath(tables, "ids.public.students", "district_id")
	assert.True(t, ok)
	assert.Nil(t, path)
}

func TestFindJoinPathMultiHop(t *testing.T) {
	tables := map[string]types.TableSchema{
		"ids.public.students":    schemaWithFK("ids.public.students", []string{"id", "district_id"}, "", ""),
		"ids.public.enrollments": schemaWithFK("ids.public.enrollments", []string{"id", "student_id"}, "student_id", "ids.public.students"),
		"ids.public.grades":      schemaWithFK("ids.public.grades", []string{"id", "enrollment_id"}, "enrollment_id", "ids.public.enrollments"),
	}
	path, ok := findJoinPath(tables, "ids.public.grades", "district_id")
	assert.True(t, ok)
	assert.Equal(t, []types.JoinStep{
		{Table: "ids.public.enrollments", FKColumn: "enrollment_id"},
		{Table: "ids.public.students", FKColumn: "student_id"},
	}, path)
}

func TestFindJoinPathNoAncestorCarriesColumn(t *testing.T) {
	tables := map[string]types.TableSchema{
		"ids.public.country_codes": schemaWithFK("ids.public.country_codes", []string{"code"}, "", ""),
	}
	path, ok := findJoinPath(tables, "ids.public.country_codes", "district_id")
	assert.False(t, ok)
	assert.Nil(t, path)
}

func TestFindJoinPathStopsAtCrossStoreParentNotInMap(t *testing.T) {
	tables := map[string]types.TableSchema{
		"ids.public.enrollments": schemaWithFK("ids.public.enrollments", []string{"id", "student_id"}, "student_id", "hcp1.public.students"),
	}
	path, ok := findJoinPath(tables, "ids.public.enrollments", "district_id")
	assert.False(t, ok)
	assert.Nil(t, path)
}
