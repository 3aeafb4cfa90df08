// Package report renders a types.RunManifest into the dual JSON and
// Markdown artifacts the coordinator's final phase writes to disk.
// Grounded on original_source/scripts/generate-report.py: the same
// executive-summary / phase-breakdown / warnings / errors /
// recommendations / artifacts section order, and the same
// seconds-under-a-minute / minutes-under-an-hour / hours duration
// formatting.
package report
