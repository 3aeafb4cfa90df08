package loader

import (
	"context"
	"time"

	"github.com/cuemby/districtmig/pkg/log"
	"github.com/cuemby/districtmig/pkg/migerr"
	"github.com/cuemby/districtmig/pkg/types"
)

// Rollback deletes every row this tenant could have contributed to the
// store, in reverse dependency order (children before the parents they
// reference) so no FK violation is raised mid-undo. It is idempotent: a
// second call against an already-rolled-back tenant deletes zero rows and
// still reports success.
func (l *Loader) Rollback(ctx context.Context, tables []types.TableSchema, order []string, filter types.TenantFilter, graphSpec *GraphSpec) (types.LoadManifest, error) {
	start := time.Now()
	manifest := types.LoadManifest{RunTimestamp: start, Store: l.StoreID, Strategy: l.Strategy, Success: true}

	byName := make(map[string]types.TableSchema, len(tables))
	for _, t := range tables {
		byName[t.QualifiedName] = t
	}

	if l.Relational != nil {
		if err := l.rollbackRelational(ctx, byName, order, filter, &manifest); err != nil {
			manifest.DurationSeconds = time.Since(start).Seconds()
			return manifest, err
		}
	}

	if l.Graph != nil && graphSpec != nil {
		maxDepth := graphSpec.MaxDepth
		if maxDepth <= 0 {
			maxDepth = DefaultGraphMaxDepth
		}
		n, err := l.Graph.DeleteByTenant(ctx, graphSpec.RootLabel, graphSpec.KeyProperty, filter.Value, maxDepth)
		if err != nil {
			fail := &migerr.Data{Table: "graph", Err: err}
			manifest.Success = false
			manifest.Errors = append(manifest.Errors, fail.Error())
			manifest.DurationSeconds = time.Since(start).Seconds()
			return manifest, fail
		}
		manifest.TablesLoaded = append(manifest.TablesLoaded, types.TableLoadResult{
			Table: "graph", Store: l.StoreID, RowsLoaded: n, Success: true,
		})
		manifest.TotalRows += n
	}

	manifest.DurationSeconds = time.Since(start).Seconds()
	return manifest, nil
}

func (l *Loader) rollbackRelational(ctx context.Context, byName map[string]types.TableSchema, order []string, filter types.TenantFilter, manifest *types.LoadManifest) error {
	if err := l.Relational.Begin(ctx); err != nil {
		fail := &migerr.Connection{Store: l.StoreID, Err: err}
		manifest.Success = false
		manifest.Errors = append(manifest.Errors, fail.Error())
		return fail
	}

	for i := len(order) - 1; i >= 0; i-- {
		name := order[i]
		schema, known := byName[name]
		if !known {
			continue
		}

		if err := ctx.Err(); err != nil {
			l.Relational.Rollback(ctx)
			fail := &migerr.Cancelled{Phase: "rollback"}
			manifest.Success = false
			manifest.Errors = append(manifest.Errors, fail.Error())
			return fail
		}

		n, err := l.Relational.DeleteByTenant(ctx, localName(l.StoreID, schema.QualifiedName), filter)
		if err != nil {
			l.Relational.Rollback(ctx)
			fail := &migerr.Data{Table: name, Err: err}
			log.WithStore(l.StoreID).Error().Err(fail).Str("table", name).Msg("rollback failed, transaction rolled back")
			manifest.Success = false
			manifest.Errors = append(manifest.Errors, fail.Error())
			return fail
		}
		manifest.TablesLoaded = append(manifest.TablesLoaded, types.TableLoadResult{
			Table: name, Store: l.StoreID, RowsLoaded: n, Success: true,
		})
		manifest.TotalRows += n
	}

	if err := l.Relational.Commit(ctx); err != nil {
		fail := &migerr.Data{Table: l.StoreID, Err: err}
		manifest.Success = false
		manifest.Errors = append(manifest.Errors, fail.Error())
		return fail
	}
	return nil
}
