package report

import (
	"fmt"
	"strings"

	"github.com/cuemby/districtmig/pkg/types"
)

// formatDuration mirrors generate-report.py's format_duration: seconds
// under a minute, minutes under an hour, hours beyond that.
func formatDuration(seconds float64) string {
	switch {
	case seconds < 60:
		return fmt.Sprintf("%.1f seconds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%.1f minutes", seconds/60)
	default:
		return fmt.Sprintf("%.1f hours", seconds/3600)
	}
}

// Render builds the Markdown report body for manifest, in the same
// section order as generate_report(): executive summary, phase
// breakdown, warnings, errors, recommendations, artifacts.
func Render(manifest types.RunManifest) string {
	var b strings.Builder
	writeExecutiveSummary(&b, manifest)
	writePhaseBreakdown(&b, manifest)
	writeWarnings(&b, manifest)
	writeErrors(&b, manifest)
	writeRecommendations(&b, manifest)
	writeArtifacts(&b, manifest)
	return b.String()
}

func totalRecordsExtracted(manifest types.RunManifest) int64 {
	var total int64
	for _, em := range manifest.Extraction {
		total += em.TotalRecords
	}
	return total
}

func totalRowsLoaded(manifest types.RunManifest) int64 {
	var total int64
	for _, lm := range manifest.Loads {
		total += lm.TotalRows
	}
	return total
}

func totalDuration(manifest types.RunManifest) float64 {
	if manifest.FinishedAt.IsZero() || manifest.StartedAt.IsZero() {
		return 0
	}
	return manifest.FinishedAt.Sub(manifest.StartedAt).Seconds()
}

func writeExecutiveSummary(b *strings.Builder, m types.RunManifest) {
	statusEmoji := "✅"
	overallStatus := "SUCCESS"
	if !m.Success {
		statusEmoji = "⛔"
		overallStatus = "FAILED"
	}

	fmt.Fprintf(b, "# Migration Report: %s\n\n", m.DistrictID)
	fmt.Fprintf(b, "**Run ID:** %s\n", m.RunID)
	fmt.Fprintf(b, "**Status:** %s %s\n", statusEmoji, overallStatus)
	fmt.Fprintf(b, "**Duration:** %s\n", formatDuration(totalDuration(m)))
	fmt.Fprintf(b, "**Timestamp:** %s - %s\n\n", m.StartedAt.Format("2006-01-02T15:04:05Z07:00"), m.FinishedAt.Format("2006-01-02T15:04:05Z07:00"))
	b.WriteString("## Executive Summary\n\n")

	if m.Success {
		fmt.Fprintf(b, "Successfully migrated district %q to the target environment.\n\n", m.DistrictID)
	} else {
		fmt.Fprintf(b, "Migration FAILED for district %q at the %s phase.\n\n", m.DistrictID, m.FailedPhase)
	}

	fieldsAnonymized := 0
	if m.Anonymization != nil {
		fieldsAnonymized = m.Anonymization.TotalFieldsAnonymized
	}
	validationStatus := "UNKNOWN"
	validationWarnings := 0
	if m.Validation != nil {
		validationStatus = string(m.Validation.OverallStatus)
		validationWarnings = m.Validation.TotalWarnings
	}

	fmt.Fprintf(b, "- **Records Extracted:** %d\n", totalRecordsExtracted(m))
	fmt.Fprintf(b, "- **PII Fields Anonymized:** %d\n", fieldsAnonymized)
	fmt.Fprintf(b, "- **Validation Status:** %s (%d warnings)\n", validationStatus, validationWarnings)
	fmt.Fprintf(b, "- **Records Loaded:** %d\n\n", totalRowsLoaded(m))

	if m.Success {
		b.WriteString("Target environment is ready for testing.\n\n")
	} else {
		errPhase := lastPhaseError(m)
		fmt.Fprintf(b, "**Error:** %s\n\n", errPhase)
	}
}

func lastPhaseError(m types.RunManifest) string {
	for i := len(m.Phases) - 1; i >= 0; i-- {
		if !m.Phases[i].Success && m.Phases[i].Error != "" {
			return m.Phases[i].Error
		}
	}
	return "See phase details below"
}

func writePhaseBreakdown(b *strings.Builder, m types.RunManifest) {
	b.WriteString("## Phase Breakdown\n\n")

	var extractDuration, anonDuration, validateDuration, loadDuration float64
	for _, em := range m.Extraction {
		extractDuration += em.DurationSeconds
	}
	if m.Anonymization != nil {
		anonDuration = m.Anonymization.DurationSeconds
	}
	if m.Validation != nil {
		validateDuration = m.Validation.DurationSeconds
	}
	for _, lm := range m.Loads {
		loadDuration += lm.DurationSeconds
	}

	fmt.Fprintf(b, "### Phase: Extraction (%s)\n\n", formatDuration(extractDuration))
	fmt.Fprintf(b, "- Connected to %d data stores\n", len(m.Extraction))
	tablesExtracted := 0
	for _, em := range m.Extraction {
		tablesExtracted += len(em.TablesExtracted)
	}
	fmt.Fprintf(b, "- Extracted %d tables\n", tablesExtracted)
	fmt.Fprintf(b, "- Total records: %d\n\n", totalRecordsExtracted(m))

	fmt.Fprintf(b, "### Phase: Anonymization (%s)\n\n", formatDuration(anonDuration))
	if m.Anonymization != nil {
		fmt.Fprintf(b, "- Anonymized %d fields\n", m.Anonymization.TotalFieldsAnonymized)
		fmt.Fprintf(b, "- Processed %d records\n", m.Anonymization.TotalRecords)
		fmt.Fprintf(b, "- PII leak check: %s\n\n", m.Anonymization.PIILeakCheck)
	} else {
		b.WriteString("- Skipped\n\n")
	}

	fmt.Fprintf(b, "### Phase: Validation (%s)\n\n", formatDuration(validateDuration))
	if m.Validation != nil {
		fmt.Fprintf(b, "- Ran %d validation checks\n", m.Validation.TotalChecks)
		fmt.Fprintf(b, "- Status: %s\n", m.Validation.OverallStatus)
		fmt.Fprintf(b, "- Passed: %d\n", m.Validation.TotalPassed)
		fmt.Fprintf(b, "- Failed: %d\n", m.Validation.TotalFailed)
		fmt.Fprintf(b, "- Warnings: %d\n\n", m.Validation.TotalWarnings)
	} else {
		b.WriteString("- Skipped\n\n")
	}

	fmt.Fprintf(b, "### Phase: Loading (%s)\n\n", formatDuration(loadDuration))
	fmt.Fprintf(b, "- Loaded to %d target data stores\n", len(m.Loads))
	tablesLoaded := 0
	for _, lm := range m.Loads {
		tablesLoaded += len(lm.TablesLoaded)
	}
	fmt.Fprintf(b, "- Tables loaded: %d\n", tablesLoaded)
	fmt.Fprintf(b, "- Total rows: %d\n\n", totalRowsLoaded(m))
}

func writeWarnings(b *strings.Builder, m types.RunManifest) {
	if m.Validation == nil || len(m.Validation.Warnings) == 0 {
		return
	}
	warnings := m.Validation.Warnings

	b.WriteString("## Warnings\n\n")
	limit := len(warnings)
	if limit > 10 {
		limit = 10
	}
	for i, w := range warnings[:limit] {
		rule := w.Rule
		if rule == "" {
			rule = w.Check
		}
		fmt.Fprintf(b, "%d. **%s**: %s\n", i+1, rule, w.Message)
		fmt.Fprintf(b, "   - Table: %s\n", orNA(w.Table))
		fmt.Fprintf(b, "   - Severity: %s\n\n", w.Severity)
	}
	if len(warnings) > 10 {
		fmt.Fprintf(b, "... and %d more warnings (see validation report for details)\n\n", len(warnings)-10)
	}
}

func writeErrors(b *strings.Builder, m types.RunManifest) {
	if m.Validation == nil || len(m.Validation.Errors) == 0 {
		return
	}

	b.WriteString("## Errors\n\n")
	for i, e := range m.Validation.Errors {
		rule := e.Rule
		if rule == "" {
			rule = e.Check
		}
		fmt.Fprintf(b, "%d. **%s**: %s\n", i+1, rule, e.Message)
		fmt.Fprintf(b, "   - Table: %s\n", orNA(e.Table))
		fmt.Fprintf(b, "   - Severity: %s\n\n", e.Severity)
	}
}

func writeRecommendations(b *strings.Builder, m types.RunManifest) {
	b.WriteString("## Recommendations\n\n")

	if m.Success {
		b.WriteString("1. ✅ Target environment is ready for QA testing\n")
		n := 2
		if m.Validation != nil && m.Validation.TotalWarnings > 0 {
			fmt.Fprintf(b, "%d. Review the %d warnings above (non-blocking)\n", n, m.Validation.TotalWarnings)
			n++
		}
		fmt.Fprintf(b, "%d. Run validation-only mode against run %s for post-load verification\n", n, m.RunID)
		n++
		fmt.Fprintf(b, "%d. Begin QA test plan execution\n", n)
	} else {
		b.WriteString("1. ⛔ Migration FAILED - do NOT proceed to testing\n")
		b.WriteString("2. Review errors above and fix root causes\n")
		if m.NextAction == "rollback" {
			fmt.Fprintf(b, "3. Run rollback for run %s to clean up partial data\n", m.RunID)
		} else {
			fmt.Fprintf(b, "3. Suggested next action: %s\n", orNA(m.NextAction))
		}
		b.WriteString("4. Re-run migration after fixes\n")
	}
	b.WriteString("\n")
}

func writeArtifacts(b *strings.Builder, m types.RunManifest) {
	fmt.Fprintf(b, "## Artifacts\n\n")
	fmt.Fprintf(b, "- **Extracted Data:** `data/extractions/%s/`\n", m.RunID)
	fmt.Fprintf(b, "- **Anonymized Data:** `data/anonymized/%s/`\n", m.RunID)
	fmt.Fprintf(b, "- **Validation Report:** `data/anonymized/%s/validation-report.json`\n", m.RunID)
	fmt.Fprintf(b, "- **Run Manifest:** `reports/%s/%s.json`\n", m.RunID, m.RunID)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
