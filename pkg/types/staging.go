package types

import "time"

// StagedTable records where one table's extracted rows landed on disk and
// how they were reached.
type StagedTable struct {
	Store        string `json:"store"`
	Table        string `json:"table"`
	File         string `json:"file"`
	RowCount     int64  `json:"row_count"`
	JoinStrategy string `json:"join_strategy,omitempty"`
	Skipped      bool   `json:"skipped,omitempty"`
	SkipReason   string `json:"skip_reason,omitempty"`
	Error        string `json:"error,omitempty"`
}

// ExtractionManifest is the per-store output of the extractor. It is
// carried in the RunManifest; no separate extraction-manifest.json file is
// written.
type ExtractionManifest struct {
	RunTimestamp    time.Time     `json:"run_timestamp"`
	Store           string        `json:"store"`
	Filter          TenantFilter  `json:"filter"`
	TablesExtracted []StagedTable `json:"tables_extracted"`
	TotalRecords    int64         `json:"total_records"`
	Success         bool          `json:"success"`
	Errors          []string      `json:"errors,omitempty"`
	DurationSeconds float64       `json:"duration_seconds"`
}

// AnonymizationFileResult is the per-file outcome of the anonymizer.
type AnonymizationFileResult struct {
	File             string              `json:"file"`
	Records          int64               `json:"records"`
	Columns          int                 `json:"columns"`
	AnonymizedFields []string            `json:"anonymized_fields"`
	FieldsByRule     map[string][]string `json:"fields_by_rule"`
	PIILeaks         []string            `json:"pii_leaks,omitempty"`
	Success          bool                `json:"success"`
	Error            string              `json:"error,omitempty"`
}

// AnonymizationReport is the full anonymization-phase output. It is
// carried in the RunManifest; no separate anonymization-report.json file
// is written.
type AnonymizationReport struct {
	RunTimestamp         time.Time                  `json:"run_timestamp"`
	InputDir             string                     `json:"input_dir"`
	OutputDir            string                     `json:"output_dir"`
	FilesProcessed       []AnonymizationFileResult  `json:"files_processed"`
	TotalRecords         int64                      `json:"total_records"`
	TotalFieldsAnonymized int                       `json:"total_fields_anonymized"`
	PIILeaksDetected     []string                   `json:"pii_leaks_detected,omitempty"`
	PIILeakCheck         string                     `json:"pii_leak_check"`
	Success              bool                       `json:"success"`
	Errors                []string                  `json:"errors,omitempty"`
	DurationSeconds       float64                   `json:"duration_seconds"`
}
