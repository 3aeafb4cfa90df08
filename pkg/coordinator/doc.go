// Package coordinator sequences the extract, anonymize, validate, load,
// and report phases for one migration run: it generates a run_id, lays
// out the run-scoped directory tree, drives pkg/extractor, pkg/anonymizer,
// pkg/validator, pkg/loader, and pkg/report in turn, and aggregates every
// phase's manifest into a types.RunManifest. Grounded on
// original_source/scripts/github/trigger-migration.py's phase sequencing,
// directory layout, and dry-run/validation-only gating, and on
// original_source/scripts/district-analyzer.py's pre-flight row-count
// estimate. The coordinator itself stays thin, per §4.7: it owns no
// store connections and no anonymization/validation logic, only phase
// order, manifest bookkeeping, and cancellation propagation.
package coordinator
