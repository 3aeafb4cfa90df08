package validator

import (
	"fmt"

	"github.com/cuemby/districtmig/pkg/types"
)

// dataQuality checks every dataset with an "id" column for duplicate and
// negative id values — both are structural defects regardless of any
// declared severity, so both are always reported as errors.
func dataQuality(datasets []Dataset, rules []types.DataQualityRule) types.FamilyResult {
	var result types.FamilyResult

	applies := func(d Dataset) bool {
		if len(rules) == 0 {
			return true
		}
		for _, r := range rules {
			if r.Table == "" || (r.Store == d.Store && localTableName(d.Table) == r.Table) {
				return true
			}
		}
		return false
	}

	for _, d := range datasets {
		if !d.hasColumn("id") || !applies(d) {
			continue
		}

		result.ChecksRun++
		seen := make(map[string]int)
		for _, v := range d.Data.Column("id") {
			if v != nil {
				seen[stringifyValue(v)]++
			}
		}
		dupes := 0
		for _, n := range seen {
			if n > 1 {
				dupes++
			}
		}
		if dupes > 0 {
			result.ChecksFailed++
			result.Errors = append(result.Errors, types.Finding{
				Check:    "data_quality",
				Table:    d.Table,
				Column:   "id",
				Message:  fmt.Sprintf("%d duplicate id values", dupes),
				Severity: types.SeverityError,
			})
		} else {
			result.ChecksPassed++
		}

		result.ChecksRun++
		negatives := 0
		for _, v := range d.Data.Column("id") {
			if f, ok := toFloat(v); ok && f < 0 {
				negatives++
			}
		}
		if negatives > 0 {
			result.ChecksFailed++
			result.Errors = append(result.Errors, types.Finding{
				Check:    "data_quality",
				Table:    d.Table,
				Column:   "id",
				Message:  fmt.Sprintf("%d negative id values", negatives),
				Severity: types.SeverityError,
			})
		} else {
			result.ChecksPassed++
		}
	}

	return result
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	default:
		return 0, false
	}
}
