package anonymizer

import (
	"fmt"
	"strings"

	"github.com/cuemby/districtmig/pkg/types"
)

const minSyntheticNameLength = 3

// scanForLeaks applies the family-specific sentinel check to each
// column's sampled anonymized output, returning a human-readable entry
// per flagged value. Findings are reported but never mutate output.
func scanForLeaks(bindings map[string]*types.AnonymizationRule, samples map[string][]any) []string {
	var leaks []string
	for name, rule := range bindings {
		if rule == nil || rule.Strategy == types.StrategyPassthrough {
			continue
		}
		switch {
		case strings.Contains(strings.ToLower(name), "email"):
			for _, v := range samples[name] {
				if s, ok := v.(string); ok && !strings.HasSuffix(s, "@"+syntheticEmailDomain) {
					leaks = append(leaks, fmt.Sprintf("%s: value %q does not carry the synthetic domain suffix", name, s))
				}
			}
		case strings.Contains(strings.ToLower(name), "name"):
			for _, v := range samples[name] {
				if s, ok := v.(string); ok && len(s) < minSyntheticNameLength {
					leaks = append(leaks, fmt.Sprintf("%s: value %q is suspiciously short for a synthetic name", name, s))
				}
			}
		}
	}
	return leaks
}
