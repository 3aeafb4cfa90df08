package validator

import (
	"fmt"

	"github.com/cuemby/districtmig/pkg/types"
)

// completeness reports required fields that were never staged as errors
// regardless of the rule's declared severity — a missing column is a
// structural gap, not a data-quality judgment call — and reports null
// occurrences within a present required field at the rule's declared
// severity.
func completeness(datasets []Dataset, rules []types.CompletenessRule) types.FamilyResult {
	var result types.FamilyResult

	for _, rule := range rules {
		d, ok := findDataset(datasets, rule.Store, rule.Table)
		if !ok {
			continue
		}

		for _, field := range rule.RequiredFields {
			result.ChecksRun++

			if !d.hasColumn(field) {
				result.ChecksFailed++
				result.Errors = append(result.Errors, types.Finding{
					Check:    "completeness",
					Table:    d.Table,
					Field:    field,
					Rule:     rule.Name,
					Message:  fmt.Sprintf("required field %q is missing from %s", field, d.Table),
					Severity: types.SeverityError,
				})
				continue
			}

			nullCount := 0
			for _, v := range d.Data.Column(field) {
				if v == nil {
					nullCount++
				}
			}
			if nullCount == 0 {
				result.ChecksPassed++
				continue
			}

			finding := types.Finding{
				Check:    "completeness",
				Table:    d.Table,
				Field:    field,
				Rule:     rule.Name,
				Message:  fmt.Sprintf("%d of %d rows have a null %q", nullCount, d.Data.RowCount, field),
				Severity: rule.Severity,
			}
			if rule.Severity == types.SeverityError {
				result.ChecksFailed++
				result.Errors = append(result.Errors, finding)
			} else {
				result.ChecksPassed++
				result.Warnings = append(result.Warnings, finding)
			}
		}
	}

	return result
}
