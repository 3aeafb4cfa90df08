package validator

import (
	"time"

	"github.com/cuemby/districtmig/pkg/types"
)

// Validator runs the five check families against a fixed set of staged
// datasets and an optional schema manifest (for the explicit-FK override
// in the referential-integrity family).
type Validator struct {
	Datasets []Dataset
	Tables   []types.TableSchema
	Rules    *types.ValidationRuleSet
	DataDir  string
}

// Run executes every family and aggregates the result into a
// ValidationReport with overall-status precedence FAILED >
// PASSED_WITH_WARNINGS > PASSED.
func (v *Validator) Run() types.ValidationReport {
	start := time.Now()

	rules := v.Rules
	if rules == nil {
		rules = &types.ValidationRuleSet{}
	}

	checks := map[string]types.FamilyResult{
		"schema_null_survey":    schemaNullSurvey(v.Datasets),
		"referential_integrity": referentialIntegrity(v.Datasets, v.Tables),
		"business_rules":        businessRules(v.Datasets, rules.BusinessRules),
		"completeness":          completeness(v.Datasets, rules.CompletenessRules),
		"data_quality":          dataQuality(v.Datasets, rules.DataQualityRules),
	}

	report := types.ValidationReport{
		RunTimestamp: start,
		DataDir:      v.DataDir,
		Checks:       checks,
	}

	for _, r := range checks {
		report.TotalChecks += r.ChecksRun
		report.TotalPassed += r.ChecksPassed
		report.TotalFailed += r.ChecksFailed
		report.TotalWarnings += len(r.Warnings)
		report.Errors = append(report.Errors, r.Errors...)
		report.Warnings = append(report.Warnings, r.Warnings...)
	}

	switch {
	case report.TotalFailed > 0:
		report.OverallStatus = types.StatusFailed
		report.Success = false
	case report.TotalWarnings > 0:
		report.OverallStatus = types.StatusPassedWithWarnings
		report.Success = true
	default:
		report.OverallStatus = types.StatusPassed
		report.Success = true
	}

	report.DurationSeconds = time.Since(start).Seconds()
	return report
}
