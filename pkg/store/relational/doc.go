// Package relational implements store.Relational over PostgreSQL using
// pgx/v5 for connectivity and squirrel for parameterized query building,
// the way the original extraction/loading scripts built f-string SQL but
// with placeholders instead of interpolation.
package relational
