package types

import "time"

// OverallStatus summarizes a validation report.
type OverallStatus string

const (
	StatusPassed             OverallStatus = "PASSED"
	StatusPassedWithWarnings OverallStatus = "PASSED_WITH_WARNINGS"
	StatusFailed             OverallStatus = "FAILED"
)

// Finding is one error or warning entry from a validation family.
type Finding struct {
	Check           string   `json:"check"`
	Table           string   `json:"table,omitempty"`
	Column          string   `json:"column,omitempty"`
	Field           string   `json:"field,omitempty"`
	Rule            string   `json:"rule,omitempty"`
	ReferencedTable string   `json:"referenced_table,omitempty"`
	Message         string   `json:"message"`
	Severity        Severity `json:"severity"`
	SampleOrphaned  []string `json:"sample_orphaned,omitempty"`
}

// FamilyResult is the {run, passed, failed, errors, warnings} shape
// emitted by each of the five validator families.
type FamilyResult struct {
	ChecksRun    int       `json:"checks_run"`
	ChecksPassed int       `json:"checks_passed"`
	ChecksFailed int       `json:"checks_failed"`
	Errors       []Finding `json:"errors"`
	Warnings     []Finding `json:"warnings"`
}

// ValidationReport is the aggregate output of the validator. It is carried
// in the RunManifest; no separate validation-report.json file is written.
type ValidationReport struct {
	RunTimestamp    time.Time               `json:"run_timestamp"`
	DataDir         string                  `json:"data_dir"`
	OverallStatus   OverallStatus           `json:"overall_status"`
	Checks          map[string]FamilyResult `json:"checks"`
	TotalChecks     int                     `json:"total_checks"`
	TotalPassed     int                     `json:"total_passed"`
	TotalFailed     int                     `json:"total_failed"`
	TotalWarnings   int                     `json:"total_warnings"`
	Errors          []Finding               `json:"errors"`
	Warnings        []Finding               `json:"warnings"`
	Success         bool                    `json:"success"`
	DurationSeconds float64                 `json:"duration_seconds"`
}

// LoadStrategy names a conflict-resolution policy for the loader.
type LoadStrategy string

const (
	LoadInsert LoadStrategy = "insert"
	LoadUpsert LoadStrategy = "upsert"
	LoadMerge  LoadStrategy = "merge"
)

// TableLoadResult is the per-table outcome of a load or rollback pass.
type TableLoadResult struct {
	Table      string       `json:"table"`
	Store      string       `json:"store"`
	RowsLoaded int64        `json:"rows_loaded"`
	Strategy   LoadStrategy `json:"strategy,omitempty"`
	Success    bool         `json:"success"`
	Error      string       `json:"error,omitempty"`
}

// LoadManifest is the per-store output of the loader. It is carried in
// the RunManifest; no separate load-manifest.json file is written.
type LoadManifest struct {
	RunTimestamp    time.Time         `json:"run_timestamp"`
	Store           string            `json:"store"`
	Strategy        LoadStrategy      `json:"strategy"`
	TablesLoaded    []TableLoadResult `json:"tables_loaded"`
	TotalRows       int64             `json:"total_rows"`
	Success         bool              `json:"success"`
	Errors          []string          `json:"errors,omitempty"`
	DurationSeconds float64           `json:"duration_seconds"`
}

// PhaseName identifies one stage of the run coordinator.
type PhaseName string

const (
	PhaseExtract   PhaseName = "extract"
	PhaseAnonymize PhaseName = "anonymize"
	PhaseValidate  PhaseName = "validate"
	PhaseLoad      PhaseName = "load"
	PhaseReport    PhaseName = "report"
)

// PhaseResult records the outcome of one coordinator phase for the
// aggregate report.
type PhaseResult struct {
	Phase     PhaseName `json:"phase"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	ErrorType string    `json:"error_type,omitempty"`
	Skipped   bool      `json:"skipped,omitempty"`
}

// RunManifest aggregates every per-phase manifest for a single run,
// keyed by RunID.
type RunManifest struct {
	RunID         string               `json:"run_id"`
	DistrictID    string               `json:"district_id"`
	StartedAt     time.Time            `json:"started_at"`
	FinishedAt    time.Time            `json:"finished_at"`
	Phases        []PhaseResult        `json:"phases"`
	Extraction    []ExtractionManifest `json:"extraction,omitempty"`
	Anonymization *AnonymizationReport `json:"anonymization,omitempty"`
	Validation    *ValidationReport    `json:"validation,omitempty"`
	Loads         []LoadManifest       `json:"loads,omitempty"`
	Success       bool                 `json:"success"`
	FailedPhase   PhaseName            `json:"failed_phase,omitempty"`
	NextAction    string               `json:"next_action,omitempty"`
}
