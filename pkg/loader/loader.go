package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/cuemby/districtmig/pkg/columnar"
	"github.com/cuemby/districtmig/pkg/log"
	"github.com/cuemby/districtmig/pkg/migerr"
	"github.com/cuemby/districtmig/pkg/store"
	"github.com/cuemby/districtmig/pkg/types"
)

// GraphSpec names the root label and key property used to scope a
// graph-store load or rollback to one tenant.
type GraphSpec struct {
	RootLabel   string
	KeyProperty string
	MaxDepth    int
}

// DefaultGraphMaxDepth matches the bound documented for the extractor's
// graph-store path; the loader's own graph rollback honors the same
// bound so it reaches exactly what was loaded.
const DefaultGraphMaxDepth = 10

// Loader writes one store's staged, anonymized tables back to their
// target under a single transaction, and can undo that write.
type Loader struct {
	StoreID    string
	Relational store.Relational
	Graph      store.Graph
	Strategy   types.LoadStrategy
	InputDir   string
}

// Run loads every table in order (parent-first, so FK targets exist
// before their children) under one transaction. A write failure on any
// table rolls back the entire store's transaction and aborts the phase
// immediately, naming the failed table in the returned error.
func (l *Loader) Run(ctx context.Context, tables []types.TableSchema, order []string, filter types.TenantFilter, graphSpec *GraphSpec) (types.LoadManifest, error) {
	start := time.Now()
	manifest := types.LoadManifest{RunTimestamp: start, Store: l.StoreID, Strategy: l.Strategy, Success: true}

	byName := make(map[string]types.TableSchema, len(tables))
	for _, t := range tables {
		byName[t.QualifiedName] = t
	}

	if l.Relational != nil {
		if err := l.runRelational(ctx, byName, order, &manifest); err != nil {
			manifest.DurationSeconds = time.Since(start).Seconds()
			return manifest, err
		}
	}

	if l.Graph != nil && graphSpec != nil {
		if err := l.loadGraph(ctx, &manifest); err != nil {
			manifest.Success = false
			manifest.Errors = append(manifest.Errors, err.Error())
			manifest.DurationSeconds = time.Since(start).Seconds()
			return manifest, err
		}
	}

	manifest.DurationSeconds = time.Since(start).Seconds()
	return manifest, nil
}

func (l *Loader) runRelational(ctx context.Context, byName map[string]types.TableSchema, order []string, manifest *types.LoadManifest) error {
	if err := l.Relational.Begin(ctx); err != nil {
		fail := &migerr.Connection{Store: l.StoreID, Err: err}
		manifest.Success = false
		manifest.Errors = append(manifest.Errors, fail.Error())
		return fail
	}

	for _, name := range order {
		schema, known := byName[name]
		if !known {
			continue
		}

		if err := ctx.Err(); err != nil {
			l.Relational.Rollback(ctx)
			fail := &migerr.Cancelled{Phase: "load"}
			manifest.Success = false
			manifest.Errors = append(manifest.Errors, fail.Error())
			return fail
		}

		result, err := l.loadTable(ctx, schema)
		if result.Table != "" || err != nil {
			manifest.TablesLoaded = append(manifest.TablesLoaded, result)
		}
		if err != nil {
			l.Relational.Rollback(ctx)
			log.WithStore(l.StoreID).Error().Err(err).Str("table", name).Msg("load table failed, transaction rolled back")
			manifest.Success = false
			manifest.Errors = append(manifest.Errors, err.Error())
			return err
		}
		manifest.TotalRows += result.RowsLoaded
	}

	if err := l.Relational.Commit(ctx); err != nil {
		fail := &migerr.Data{Table: l.StoreID, Err: err}
		manifest.Success = false
		manifest.Errors = append(manifest.Errors, fail.Error())
		return fail
	}
	return nil
}

// loadTable reads one table's staged file and writes it under the open
// transaction. A staged file that does not exist means the table was
// never extracted for this tenant (e.g. filtered out upstream) and is
// skipped rather than treated as an error.
func (l *Loader) loadTable(ctx context.Context, schema types.TableSchema) (types.TableLoadResult, error) {
	result := types.TableLoadResult{Table: schema.QualifiedName, Store: l.StoreID, Strategy: l.Strategy}

	path := filepath.Join(l.InputDir, sanitizeFileName(schema.QualifiedName)+".dmcf")
	table, err := columnar.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			result.Table = ""
			return result, nil
		}
		err = &migerr.Data{Table: schema.QualifiedName, Err: err}
		result.Error = err.Error()
		return result, err
	}

	columns := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		columns[i] = c.Name
	}
	rows := make([]map[string]any, table.RowCount)
	for i := range rows {
		rows[i] = table.Row(i)
	}

	n, err := l.Relational.WriteBulk(ctx, localName(l.StoreID, schema.QualifiedName), columns, rows, l.Strategy)
	if err != nil {
		var conn *migerr.Connection
		if !errors.As(err, &conn) {
			err = &migerr.Data{Table: schema.QualifiedName, Err: err}
		}
		result.Error = err.Error()
		return result, err
	}

	result.RowsLoaded = n
	result.Success = true
	return result, nil
}
