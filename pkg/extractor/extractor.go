package extractor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cuemby/districtmig/pkg/columnar"
	"github.com/cuemby/districtmig/pkg/log"
	"github.com/cuemby/districtmig/pkg/metrics"
	"github.com/cuemby/districtmig/pkg/migerr"
	"github.com/cuemby/districtmig/pkg/store"
	"github.com/cuemby/districtmig/pkg/types"
)

// GraphSpec names the root label and key property used to traverse the
// graph store for one run. The district's relational tenant value
// (filter.Value) is used as the traversal key.
type GraphSpec struct {
	RootLabel   string
	KeyProperty string
	MaxDepth    int
}

// DefaultGraphMaxDepth matches the traversal bound documented for the
// extractor's graph-store path.
const DefaultGraphMaxDepth = 10

// Extractor streams one store's tenant-scoped rows into columnar
// staging files.
type Extractor struct {
	StoreID    string
	Relational store.Relational
	Graph      store.Graph
	OutputDir  string
}

// Run extracts every table in order for filter, writing one columnar
// file per table plus graph neighborhood files when Graph is set.
// Per-table failures are recorded and extraction continues; a
// Connection error aborts the whole phase immediately.
func (e *Extractor) Run(ctx context.Context, tables []types.TableSchema, order []string, filter types.TenantFilter, graphSpec *GraphSpec) (types.ExtractionManifest, error) {
	start := time.Now()
	manifest := types.ExtractionManifest{
		RunTimestamp: start,
		Store:        e.StoreID,
		Filter:       filter,
		Success:      true,
	}

	byName := make(map[string]types.TableSchema, len(tables))
	for _, t := range tables {
		byName[t.QualifiedName] = t
	}

	for _, name := range order {
		if err := ctx.Err(); err != nil {
			manifest.Success = false
			manifest.Errors = append(manifest.Errors, (&migerr.Cancelled{Phase: "extract"}).Error())
			manifest.DurationSeconds = time.Since(start).Seconds()
			return manifest, &migerr.Cancelled{Phase: "extract"}
		}

		schema, known := byName[name]
		if !known {
			continue
		}

		staged, err := e.extractTable(ctx, byName, schema, filter)
		if err != nil {
			var conn *migerr.Connection
			if errors.As(err, &conn) {
				manifest.Success = false
				manifest.Errors = append(manifest.Errors, err.Error())
				manifest.DurationSeconds = time.Since(start).Seconds()
				return manifest, err
			}
			staged.Error = err.Error()
			manifest.Success = false
			manifest.Errors = append(manifest.Errors, err.Error())
			log.WithStore(e.StoreID).Error().Err(err).Str("table", name).Msg("extract table failed")
		}
		manifest.TablesExtracted = append(manifest.TablesExtracted, staged)
		manifest.TotalRecords += staged.RowCount
		if staged.Skipped {
			metrics.TablesSkipped.WithLabelValues(e.StoreID, staged.SkipReason).Inc()
		} else {
			metrics.RowsExtracted.WithLabelValues(e.StoreID, name).Add(float64(staged.RowCount))
		}
	}

	if e.Graph != nil && graphSpec != nil {
		staged, err := e.extractGraph(ctx, filter, *graphSpec)
		manifest.TablesExtracted = append(manifest.TablesExtracted, staged...)
		if err != nil {
			var conn *migerr.Connection
			if errors.As(err, &conn) {
				manifest.Success = false
				manifest.Errors = append(manifest.Errors, err.Error())
				manifest.DurationSeconds = time.Since(start).Seconds()
				return manifest, err
			}
			manifest.Success = false
			manifest.Errors = append(manifest.Errors, err.Error())
		}
		for _, s := range staged {
			manifest.TotalRecords += s.RowCount
		}
	}

	manifest.DurationSeconds = time.Since(start).Seconds()
	return manifest, nil
}

func (e *Extractor) extractTable(ctx context.Context, byName map[string]types.TableSchema, schema types.TableSchema, filter types.TenantFilter) (types.StagedTable, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.TableDuration, e.StoreID, schema.QualifiedName, "extract")

	staged := types.StagedTable{Store: e.StoreID, Table: schema.QualifiedName}

	joinPath, ok := findJoinPath(byName, schema.QualifiedName, filter.Key)
	if !ok {
		staged.Skipped = true
		staged.SkipReason = "no_tenant_path"
		return staged, nil
	}
	if len(joinPath) > 0 {
		staged.JoinStrategy = describeJoinPath(joinPath)
	}

	localJoinPath := make([]types.JoinStep, len(joinPath))
	for i, step := range joinPath {
		localJoinPath[i] = types.JoinStep{Table: localName(e.StoreID, step.Table), FKColumn: step.FKColumn}
	}

	writer := columnar.NewWriter(columnDefs(schema))
	var rowErr error
	err := e.Relational.ReadFiltered(ctx, localName(e.StoreID, schema.QualifiedName), filter, localJoinPath, func(row map[string]any) error {
		writer.AppendRow(row)
		return nil
	})
	if err != nil {
		var conn *migerr.Connection
		if errors.As(err, &conn) {
			return staged, err
		}
		rowErr = &migerr.Data{Table: schema.QualifiedName, Err: err}
	}

	staged.RowCount = int64(writer.RowCount())
	staged.File = filepath.Join(e.OutputDir, fmt.Sprintf("%s.dmcf", sanitizeFileName(schema.QualifiedName)))
	if err := writer.WriteFile(staged.File); err != nil {
		return staged, &migerr.Data{Table: schema.QualifiedName, Err: err}
	}

	return staged, rowErr
}

func describeJoinPath(path []types.JoinStep) string {
	desc := ""
	for i, step := range path {
		if i > 0 {
			desc += " -> "
		}
		desc += fmt.Sprintf("%s(%s)", step.Table, step.FKColumn)
	}
	return desc
}

func sanitizeFileName(qualifiedName string) string {
	out := make([]byte, 0, len(qualifiedName))
	for _, r := range qualifiedName {
		if r == '.' {
			out = append(out, '_')
			continue
		}
		out = append(out, byte(r))
	}
	return string(out)
}
