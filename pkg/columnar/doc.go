// Package columnar implements the on-disk staging format shared by every
// stage of the pipeline: one file per table, a JSON column directory
// followed by one independently zstd-compressed block per column. Every
// stage that reads or writes staged data goes through Writer/Reader so the
// layout only needs to agree with itself, per-run.
//
// Column values round-trip through Go's encoding/json: integers and floats
// as JSON numbers, booleans as JSON bools, strings as JSON strings,
// timestamps/dates as RFC3339/"2006-01-02" strings, and binary as
// base64 (json.Marshal's native []byte encoding). A null cell is a JSON
// null regardless of column type.
package columnar
