package anonymizer

import (
	"fmt"
	"regexp"

	"github.com/cuemby/districtmig/pkg/types"
)

// compiledRule pairs a rule with its case-insensitive column-name
// matcher, compiled once per anonymization run.
type compiledRule struct {
	rule    types.AnonymizationRule
	pattern *regexp.Regexp
}

// compileRules compiles every rule's FieldPattern once, in declaration
// order, so binding stays first-match.
func compileRules(ruleset *types.AnonymizationRuleSet) ([]compiledRule, error) {
	compiled := make([]compiledRule, 0, len(ruleset.Rules))
	for _, r := range ruleset.Rules {
		pattern, err := regexp.Compile("(?i)" + r.FieldPattern)
		if err != nil {
			return nil, fmt.Errorf("anonymizer: compiling rule %q pattern %q: %w", r.Name, r.FieldPattern, err)
		}
		compiled = append(compiled, compiledRule{rule: r, pattern: pattern})
	}
	return compiled, nil
}

// bindColumns returns, for each column, the first compiled rule whose
// pattern matches the column name, or nil for implicit passthrough.
func bindColumns(columns []string, rules []compiledRule) map[string]*types.AnonymizationRule {
	bindings := make(map[string]*types.AnonymizationRule, len(columns))
	for _, name := range columns {
		for _, cr := range rules {
			if cr.pattern.MatchString(name) {
				rule := cr.rule
				bindings[name] = &rule
				break
			}
		}
	}
	return bindings
}
