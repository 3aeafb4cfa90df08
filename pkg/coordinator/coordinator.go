package coordinator

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/districtmig/pkg/anonymizer"
	"github.com/cuemby/districtmig/pkg/columnar"
	"github.com/cuemby/districtmig/pkg/consistency"
	"github.com/cuemby/districtmig/pkg/extractor"
	"github.com/cuemby/districtmig/pkg/loader"
	"github.com/cuemby/districtmig/pkg/log"
	"github.com/cuemby/districtmig/pkg/metrics"
	"github.com/cuemby/districtmig/pkg/migerr"
	"github.com/cuemby/districtmig/pkg/report"
	"github.com/cuemby/districtmig/pkg/store"
	"github.com/cuemby/districtmig/pkg/types"
	"github.com/cuemby/districtmig/pkg/validator"
)

// Mode selects which of §4.7's bypass mechanisms apply to a run.
// ValidationOnly implies LoadSkip (there is nothing left to gate once
// loading never runs) and additionally keeps a FAILED validation from
// flipping the run's overall success — the caller asked to see the
// validation result, not to treat it as a blocking pipeline failure.
type Mode struct {
	ValidationOnly bool
	ExtractionSkip bool
	LoadSkip       bool
}

// GraphTarget bundles the graph adapter with the root label and key
// property used to scope both its extraction-time traversal and its
// load/rollback neighborhood, so the coordinator threads one spec
// through pkg/extractor.GraphSpec and pkg/loader.GraphSpec, which each
// define their own identically-shaped type per §9's capability-set note.
type GraphTarget struct {
	Store       store.Graph
	RootLabel   string
	KeyProperty string
	MaxDepth    int
}

// StoreSet is every adapter the coordinator drives for one run.
type StoreSet struct {
	Relational map[string]store.Relational
	Graph      *GraphTarget
}

// RunRequest is everything the coordinator needs to drive one run. The
// caller (cmd/districtmig) is responsible for loading credentials,
// connecting adapters, and loading rule files; the coordinator only
// sequences them.
type RunRequest struct {
	RunID      string
	DistrictID string
	Filter     types.TenantFilter
	Tables     []types.TableSchema

	// StoreOrder is the forward processing order across relational
	// stores (extract and load both honor it; rollback reverses it),
	// matching trigger-migration.py's fixed ['ids','hcp1','hcp2','adb']
	// iteration. A nil StoreOrder falls back to lexical order.
	StoreOrder []string
	// OrderByStore is the per-store table dependency order, from
	// schema.SchemaAnalysis.ExtractionByStore.
	OrderByStore map[string][]string

	Stores StoreSet

	AnonymizationRules *types.AnonymizationRuleSet
	ValidationRules    *types.ValidationRuleSet
	ConsistencyMap     *consistency.Map
	ConsistencyMapPath string
	Salt               string

	Strategy types.LoadStrategy
	BaseDir  string
	Mode     Mode
}

func (req RunRequest) storeOrder() []string {
	if len(req.StoreOrder) > 0 {
		return req.StoreOrder
	}
	ids := make([]string, 0, len(req.Stores.Relational))
	for id := range req.Stores.Relational {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Coordinator drives one run at a time; it holds no state between
// calls beyond the package-level run-id sequence counter.
type Coordinator struct{}

// New constructs a Coordinator.
func New() *Coordinator { return &Coordinator{} }

// stagedFile is one table's anonymized output, carried from the
// anonymize phase into the validate phase without re-deriving the
// qualified table name from its sanitized on-disk file name.
type stagedFile struct {
	store string
	table string
	path  string
}

// Run drives extract -> anonymize -> validate -> load -> report in
// order, stopping at the first phase that fails (unless Mode permits
// bypassing it) and returning a manifest describing exactly how far
// the run got.
func (c *Coordinator) Run(ctx context.Context, req RunRequest) (types.RunManifest, error) {
	runID := req.RunID
	if runID == "" {
		runID = NextRunID(time.Now())
	}
	paths := PathsFor(req.BaseDir, runID)
	if err := paths.MkdirAll(); err != nil {
		return types.RunManifest{}, fmt.Errorf("coordinator: creating run directories: %w", err)
	}

	logger := log.WithRunID(runID)
	manifest := types.RunManifest{RunID: runID, DistrictID: req.DistrictID, StartedAt: time.Now()}

	staged, err := c.runExtract(ctx, req, paths, &manifest, logger)
	if err != nil {
		return c.finish(manifest, types.PhaseExtract, err), err
	}

	files, err := c.runAnonymize(ctx, req, paths, staged, &manifest, logger)
	if err != nil {
		return c.finish(manifest, types.PhaseAnonymize, err), err
	}

	if _, err := c.runValidate(ctx, req, paths, files, &manifest, logger); err != nil {
		return c.finish(manifest, types.PhaseValidate, err), err
	}

	if err := c.runLoad(ctx, req, paths, &manifest, logger); err != nil {
		return c.finish(manifest, types.PhaseLoad, err), err
	}

	manifest.FinishedAt = time.Now()
	manifest.Success = true

	logger.Info().Msg("Phase 5/5: Reporting")
	timer := metrics.NewTimer()
	if err := report.Write(manifest, paths.ReportDir); err != nil {
		manifest.Phases = append(manifest.Phases, phaseResult(types.PhaseReport, err))
		return c.finish(manifest, types.PhaseReport, err), err
	}
	timer.ObserveDurationVec(metrics.PhaseDuration, string(types.PhaseReport))
	manifest.Phases = append(manifest.Phases, types.PhaseResult{Phase: types.PhaseReport, Success: true})
	metrics.RunsTotal.WithLabelValues("success").Inc()
	logger.Info().Msg("Phase 5/5: Reporting complete")

	return manifest, nil
}

func (c *Coordinator) finish(manifest types.RunManifest, phase types.PhaseName, err error) types.RunManifest {
	manifest.FinishedAt = time.Now()
	manifest.Success = false
	manifest.FailedPhase = phase
	manifest.NextAction = nextActionFor(phase, err)
	metrics.RunsTotal.WithLabelValues("failed").Inc()
	return manifest
}

func nextActionFor(phase types.PhaseName, err error) string {
	switch migerr.TypeOf(err) {
	case "Connection", "Configuration":
		return "retry"
	case "PII-leak", "Validation-failure":
		return "manual"
	case "Cancelled":
		return "retry"
	case "Data":
		if phase == types.PhaseLoad {
			return "rollback"
		}
		return "retry"
	default:
		return "manual"
	}
}

func phaseResult(phase types.PhaseName, err error) types.PhaseResult {
	return types.PhaseResult{Phase: phase, Success: false, Error: err.Error(), ErrorType: migerr.TypeOf(err)}
}

func (c *Coordinator) runExtract(ctx context.Context, req RunRequest, paths Paths, manifest *types.RunManifest, logger zerolog.Logger) (map[string][]types.StagedTable, error) {
	staged := map[string][]types.StagedTable{}

	if req.Mode.ExtractionSkip {
		logger.Info().Msg("Phase 1/5: Extraction skipped (extraction-skip mode)")
		manifest.Phases = append(manifest.Phases, types.PhaseResult{Phase: types.PhaseExtract, Success: true, Skipped: true})
		return staged, nil
	}

	logger.Info().Msg("Phase 1/5: Extraction")
	timer := metrics.NewTimer()

	for _, storeID := range req.storeOrder() {
		if err := ctx.Err(); err != nil {
			failErr := &migerr.Cancelled{Phase: "extract"}
			manifest.Phases = append(manifest.Phases, phaseResult(types.PhaseExtract, failErr))
			return staged, failErr
		}

		rel := req.Stores.Relational[storeID]
		ex := &extractor.Extractor{StoreID: storeID, Relational: rel, OutputDir: paths.ExtractionDir}
		em, err := ex.Run(ctx, req.Tables, req.OrderByStore[storeID], req.Filter, nil)
		manifest.Extraction = append(manifest.Extraction, em)
		staged[storeID] = em.TablesExtracted
		if err != nil {
			manifest.Phases = append(manifest.Phases, phaseResult(types.PhaseExtract, err))
			return staged, err
		}
		if !em.Success {
			failErr := &migerr.Data{Table: storeID, Err: fmt.Errorf("extraction reported %d table failure(s)", len(em.Errors))}
			manifest.Phases = append(manifest.Phases, phaseResult(types.PhaseExtract, failErr))
			return staged, failErr
		}
	}

	if gt := req.Stores.Graph; gt != nil {
		ex := &extractor.Extractor{StoreID: "sp", Graph: gt.Store, OutputDir: paths.ExtractionDir}
		gspec := &extractor.GraphSpec{RootLabel: gt.RootLabel, KeyProperty: gt.KeyProperty, MaxDepth: gt.MaxDepth}
		em, err := ex.Run(ctx, nil, nil, req.Filter, gspec)
		manifest.Extraction = append(manifest.Extraction, em)
		staged["sp"] = em.TablesExtracted
		if err != nil {
			manifest.Phases = append(manifest.Phases, phaseResult(types.PhaseExtract, err))
			return staged, err
		}
	}

	timer.ObserveDurationVec(metrics.PhaseDuration, string(types.PhaseExtract))
	manifest.Phases = append(manifest.Phases, types.PhaseResult{Phase: types.PhaseExtract, Success: true})
	logger.Info().Msg("Phase 1/5: Extraction complete")
	return staged, nil
}

func (c *Coordinator) runAnonymize(ctx context.Context, req RunRequest, paths Paths, staged map[string][]types.StagedTable, manifest *types.RunManifest, logger zerolog.Logger) ([]stagedFile, error) {
	logger.Info().Msg("Phase 2/5: Anonymization")
	timer := metrics.NewTimer()

	engine, err := anonymizer.NewEngine(req.AnonymizationRules, req.ConsistencyMap, req.Salt)
	if err != nil {
		failErr := &migerr.Config{Msg: "compiling anonymization rules", Err: err}
		manifest.Phases = append(manifest.Phases, phaseResult(types.PhaseAnonymize, failErr))
		return nil, failErr
	}

	report := types.AnonymizationReport{
		RunTimestamp: time.Now(),
		InputDir:     paths.ExtractionDir,
		OutputDir:    paths.AnonymizedDir,
		Success:      true,
		PIILeakCheck: "PASSED",
	}
	var files []stagedFile

	for _, storeID := range req.storeOrder() {
		for _, t := range staged[storeID] {
			if t.Skipped || t.Error != "" || t.File == "" {
				continue
			}
			if err := ctx.Err(); err != nil {
				failErr := &migerr.Cancelled{Phase: "anonymize"}
				report.DurationSeconds = timer.Duration().Seconds()
				manifest.Anonymization = &report
				manifest.Phases = append(manifest.Phases, phaseResult(types.PhaseAnonymize, failErr))
				return nil, failErr
			}

			outPath := filepath.Join(paths.AnonymizedDir, filepath.Base(t.File))
			result, err := engine.ProcessFile(storeID, t.Table, t.File, outPath)
			report.FilesProcessed = append(report.FilesProcessed, result)
			report.TotalRecords += result.Records
			report.TotalFieldsAnonymized += len(result.AnonymizedFields)
			if err != nil {
				report.Success = false
				report.Errors = append(report.Errors, err.Error())
				report.DurationSeconds = timer.Duration().Seconds()
				manifest.Anonymization = &report
				manifest.Phases = append(manifest.Phases, phaseResult(types.PhaseAnonymize, err))
				return nil, err
			}
			if len(result.PIILeaks) > 0 {
				report.PIILeaksDetected = append(report.PIILeaksDetected, result.PIILeaks...)
				report.PIILeakCheck = "FAILED"
				report.Success = false
				report.DurationSeconds = timer.Duration().Seconds()
				manifest.Anonymization = &report
				failErr := &migerr.Leak{Column: t.Table, Sample: joinStrings(result.PIILeaks)}
				manifest.Phases = append(manifest.Phases, phaseResult(types.PhaseAnonymize, failErr))
				return nil, failErr
			}
			files = append(files, stagedFile{store: storeID, table: t.Table, path: outPath})
		}
	}

	// The graph store's node/edge properties are an opaque JSON blob
	// per row rather than individually named columns a field_pattern
	// rule can bind to, so they pass through to the anonymized
	// directory unchanged rather than through the column-rule engine.
	for _, t := range staged["sp"] {
		if t.File == "" {
			continue
		}
		outPath := filepath.Join(paths.AnonymizedDir, filepath.Base(t.File))
		if err := copyFile(t.File, outPath); err != nil {
			failErr := &migerr.Data{Table: t.Table, Err: err}
			report.Success = false
			report.Errors = append(report.Errors, failErr.Error())
			report.DurationSeconds = timer.Duration().Seconds()
			manifest.Anonymization = &report
			manifest.Phases = append(manifest.Phases, phaseResult(types.PhaseAnonymize, failErr))
			return nil, failErr
		}
		files = append(files, stagedFile{store: "sp", table: t.Table, path: outPath})
	}

	report.DurationSeconds = timer.Duration().Seconds()
	manifest.Anonymization = &report

	if req.ConsistencyMapPath != "" {
		if err := req.ConsistencyMap.Save(req.ConsistencyMapPath); err != nil {
			failErr := &migerr.Data{Table: "consistency_map", Err: err}
			manifest.Phases = append(manifest.Phases, phaseResult(types.PhaseAnonymize, failErr))
			return nil, failErr
		}
	}

	timer.ObserveDurationVec(metrics.PhaseDuration, string(types.PhaseAnonymize))
	manifest.Phases = append(manifest.Phases, types.PhaseResult{Phase: types.PhaseAnonymize, Success: true})
	logger.Info().Msg("Phase 2/5: Anonymization complete")
	return files, nil
}

func (c *Coordinator) runValidate(ctx context.Context, req RunRequest, paths Paths, files []stagedFile, manifest *types.RunManifest, logger zerolog.Logger) (types.ValidationReport, error) {
	logger.Info().Msg("Phase 3/5: Validation")
	timer := metrics.NewTimer()

	if err := ctx.Err(); err != nil {
		failErr := &migerr.Cancelled{Phase: "validate"}
		manifest.Phases = append(manifest.Phases, phaseResult(types.PhaseValidate, failErr))
		return types.ValidationReport{}, failErr
	}

	datasets := make([]validator.Dataset, 0, len(files))
	for _, f := range files {
		table, err := columnar.ReadFile(f.path)
		if err != nil {
			failErr := &migerr.Data{Table: f.table, Err: err}
			manifest.Phases = append(manifest.Phases, phaseResult(types.PhaseValidate, failErr))
			return types.ValidationReport{}, failErr
		}
		datasets = append(datasets, validator.Dataset{Store: f.store, Table: f.table, Data: table})
	}

	v := &validator.Validator{Datasets: datasets, Tables: req.Tables, Rules: req.ValidationRules, DataDir: paths.AnonymizedDir}
	result := v.Run()
	manifest.Validation = &result

	for family, fr := range result.Checks {
		metrics.ValidationFindings.WithLabelValues(family, "error").Set(float64(len(fr.Errors)))
		metrics.ValidationFindings.WithLabelValues(family, "warning").Set(float64(len(fr.Warnings)))
	}

	timer.ObserveDurationVec(metrics.PhaseDuration, string(types.PhaseValidate))

	if result.OverallStatus == types.StatusFailed && !req.Mode.ValidationOnly {
		failErr := &migerr.Validation{Failed: result.TotalFailed}
		manifest.Phases = append(manifest.Phases, phaseResult(types.PhaseValidate, failErr))
		return result, failErr
	}

	manifest.Phases = append(manifest.Phases, types.PhaseResult{Phase: types.PhaseValidate, Success: true})
	logger.Info().Str("overall_status", string(result.OverallStatus)).Msg("Phase 3/5: Validation complete")
	return result, nil
}

func (c *Coordinator) runLoad(ctx context.Context, req RunRequest, paths Paths, manifest *types.RunManifest, logger zerolog.Logger) error {
	if req.Mode.LoadSkip || req.Mode.ValidationOnly {
		logger.Info().Msg("Phase 4/5: Loading skipped (load-skip mode)")
		manifest.Phases = append(manifest.Phases, types.PhaseResult{Phase: types.PhaseLoad, Success: true, Skipped: true})
		return nil
	}

	logger.Info().Msg("Phase 4/5: Loading")
	timer := metrics.NewTimer()

	var failed error
	for _, storeID := range req.storeOrder() {
		if err := ctx.Err(); err != nil && failed == nil {
			failed = &migerr.Cancelled{Phase: "load"}
			break
		}

		rel := req.Stores.Relational[storeID]
		l := &loader.Loader{StoreID: storeID, Relational: rel, Strategy: req.Strategy, InputDir: paths.AnonymizedDir}
		lm, err := l.Run(ctx, req.Tables, req.OrderByStore[storeID], req.Filter, nil)
		manifest.Loads = append(manifest.Loads, lm)
		for _, t := range lm.TablesLoaded {
			if t.Success {
				metrics.RowsLoaded.WithLabelValues(storeID, t.Table).Add(float64(t.RowsLoaded))
			}
		}
		if err != nil && failed == nil {
			failed = err
		}
	}

	if gt := req.Stores.Graph; gt != nil && failed == nil {
		l := &loader.Loader{StoreID: "sp", Graph: gt.Store, Strategy: req.Strategy, InputDir: paths.AnonymizedDir}
		gspec := &loader.GraphSpec{RootLabel: gt.RootLabel, KeyProperty: gt.KeyProperty, MaxDepth: gt.MaxDepth}
		lm, err := l.Run(ctx, nil, nil, req.Filter, gspec)
		manifest.Loads = append(manifest.Loads, lm)
		if err != nil {
			failed = err
		}
	}

	timer.ObserveDurationVec(metrics.PhaseDuration, string(types.PhaseLoad))

	if failed != nil {
		manifest.Phases = append(manifest.Phases, phaseResult(types.PhaseLoad, failed))
		return failed
	}

	manifest.Phases = append(manifest.Phases, types.PhaseResult{Phase: types.PhaseLoad, Success: true})
	logger.Info().Msg("Phase 4/5: Loading complete")
	return nil
}

func joinStrings(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += "; "
		}
		out += s
	}
	return out
}
