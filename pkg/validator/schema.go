package validator

import (
	"fmt"

	"github.com/cuemby/districtmig/pkg/types"
)

// schemaNullSurvey counts nulls per column across every staged dataset.
// It never fails a check outright — a column carrying nulls is reported
// as a warning, matching validate_integrity.py's null_counts survey,
// which is informational rather than pass/fail.
func schemaNullSurvey(datasets []Dataset) types.FamilyResult {
	var result types.FamilyResult

	for _, d := range datasets {
		for _, col := range d.Data.Columns {
			result.ChecksRun++
			nullCount := 0
			for _, v := range d.Data.Column(col.Name) {
				if v == nil {
					nullCount++
				}
			}
			if nullCount > 0 {
				result.Warnings = append(result.Warnings, types.Finding{
					Check:    "schema_null_survey",
					Table:    d.Table,
					Column:   col.Name,
					Message:  fmt.Sprintf("%d of %d rows are null", nullCount, d.Data.RowCount),
					Severity: types.SeverityWarning,
				})
			}
			result.ChecksPassed++
		}
	}

	return result
}
