package validator

import (
	"fmt"

	"github.com/cuemby/districtmig/pkg/types"
	"github.com/cuemby/districtmig/pkg/validator/predicate"
)

// businessRules evaluates each rule's predicate against every row of its
// named table. A rule whose table was never staged is silently skipped,
// matching validate_integrity.py's behavior of skipping rules whose
// dataset is absent rather than failing the run over it. Rows the
// predicate cannot evaluate (a column the rule never declared) count as
// failures rather than passes, since a rule that cannot be checked is not
// a rule that was satisfied.
func businessRules(datasets []Dataset, rules []types.BusinessRule) types.FamilyResult {
	var result types.FamilyResult

	for _, rule := range rules {
		d, ok := findDataset(datasets, rule.Store, rule.Table)
		if !ok {
			continue
		}
		result.ChecksRun++

		p, err := predicate.Compile(rule.Predicate)
		if err != nil {
			result.ChecksFailed++
			result.Errors = append(result.Errors, types.Finding{
				Check:    "business_rule",
				Table:    d.Table,
				Rule:     rule.Name,
				Message:  fmt.Sprintf("rule %q failed to compile: %v", rule.Name, err),
				Severity: types.SeverityError,
			})
			continue
		}

		failed := 0
		for i := 0; i < int(d.Data.RowCount); i++ {
			ok, err := p.Eval(d.Data.Row(i))
			if err != nil || !ok {
				failed++
			}
		}

		if failed == 0 {
			result.ChecksPassed++
			continue
		}

		finding := types.Finding{
			Check:    "business_rule",
			Table:    d.Table,
			Rule:     rule.Name,
			Message:  fmt.Sprintf("%d of %d rows violate rule %q (%s)", failed, d.Data.RowCount, rule.Name, rule.Predicate),
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

	return result
}
