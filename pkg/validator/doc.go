// Package validator runs the five post-anonymization check families —
// schema null survey, referential integrity, business rules,
// completeness, and data quality — against staged datasets, producing
// the aggregate report described by the loader's go/no-go gate.
// Grounded on original_source/scripts/validators/validate_integrity.py,
// generalized from its pandas DataFrame scans to columnar.Table rows
// and its naive eval()-avoiding business-rule stub to a real compiled
// predicate language (pkg/validator/predicate).
package validator
