package coordinator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/districtmig/pkg/store"
	"github.com/cuemby/districtmig/pkg/types"
)

// TestRollbackReversesStoreOrder matches spec §5(b): rollback must
// touch stores in the reverse of their load order. ids loads before
// hcp1, so hcp1 must be rolled back first.
func TestRollbackReversesStoreOrder(t *testing.T) {
	ids := newFakeRelational(nil)
	ids.written["public.students"] = []map[string]any{{"id": 1.0}}
	hcp1 := newFakeRelational(nil)
	hcp1.written["public.enrollments"] = []map[string]any{{"id": 1.0}}

	var order []string
	ids.onDelete = func(table string) { order = append(order, "ids:"+table) }
	hcp1.onDelete = func(table string) { order = append(order, "hcp1:"+table) }

	req := RunRequest{
		RunID:        "mig-20260730-120000-002",
		StoreOrder:   []string{"ids", "hcp1"},
		OrderByStore: map[string][]string{"ids": {"ids.public.students"}, "hcp1": {"hcp1.public.enrollments"}},
		Tables: []types.TableSchema{
			{QualifiedName: "ids.public.students"},
			{QualifiedName: "hcp1.public.enrollments"},
		},
		Stores: StoreSet{Relational: map[string]store.Relational{"ids": ids, "hcp1": hcp1}},
		Filter: types.TenantFilter{Key: "district_id", Value: "7"},
	}

	c := New()
	manifest, err := c.Rollback(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, manifest.Success)
	require.Len(t, order, 2)
	assert.Equal(t, "hcp1:public.enrollments", order[0])
	assert.Equal(t, "ids:public.students", order[1])
}

func TestRollbackPropagatesStoreFailure(t *testing.T) {
	ids := newFakeRelational(nil)
	ids.failOnDelete = true

	req := RunRequest{
		RunID:        "mig-20260730-120000-003",
		StoreOrder:   []string{"ids"},
		OrderByStore: map[string][]string{"ids": {"ids.public.students"}},
		Tables:       []types.TableSchema{{QualifiedName: "ids.public.students"}},
		Stores:       StoreSet{Relational: map[string]store.Relational{"ids": ids}},
		Filter:       types.TenantFilter{Key: "district_id", Value: "7"},
	}

	c := New()
	manifest, err := c.Rollback(context.Background(), req)
	require.Error(t, err)
	assert.False(t, manifest.Success)
	assert.Equal(t, "manual", manifest.NextAction)
}
