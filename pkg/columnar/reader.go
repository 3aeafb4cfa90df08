package columnar

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// Table is a fully materialized staged table: column order/types plus
// one value slice per column, each the same length (RowCount).
type Table struct {
	Columns  []ColumnDef
	RowCount int64
	values   map[string][]any
}

// Column returns the decoded values of the named column, or nil if the
// column is not present.
func (t *Table) Column(name string) []any { return t.values[name] }

// Row reassembles row i as a name->value map.
func (t *Table) Row(i int) map[string]any {
	row := make(map[string]any, len(t.Columns))
	for _, c := range t.Columns {
		row[c.Name] = t.values[c.Name][i]
	}
	return row
}

// Rows iterates every row in order, calling fn with a fresh map each
// time.
func (t *Table) Rows(fn func(row map[string]any) error) error {
	for i := 0; i < int(t.RowCount); i++ {
		if err := fn(t.Row(i)); err != nil {
			return err
		}
	}
	return nil
}

// ReadFile decodes a full staging file written by Writer.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("columnar: opening %s: %w", path, err)
	}
	defer f.Close()
	t, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("columnar: reading %s: %w", path, err)
	}
	return t, nil
}

func read(in io.Reader) (*Table, error) {
	var gotMagic [6]byte
	if _, err := io.ReadFull(in, gotMagic[:]); err != nil {
		return nil, fmt.Errorf("reading magic: %w", err)
	}
	if gotMagic != magic {
		return nil, fmt.Errorf("not a districtmig columnar file (bad magic %q)", gotMagic)
	}

	hdrBytes, err := readLengthPrefixed(in)
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	var hdr header
	if err := json.Unmarshal(hdrBytes, &hdr); err != nil {
		return nil, fmt.Errorf("decoding header: %w", err)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("constructing zstd decoder: %w", err)
	}
	defer dec.Close()

	t := &Table{
		Columns:  hdr.Columns,
		RowCount: hdr.RowCount,
		values:   make(map[string][]any, len(hdr.Columns)),
	}

	for _, col := range hdr.Columns {
		compressed, err := readLengthPrefixed(in)
		if err != nil {
			return nil, fmt.Errorf("reading column %q: %w", col.Name, err)
		}
		raw, err := dec.DecodeAll(compressed, nil)
		if err != nil {
			return nil, fmt.Errorf("decompressing column %q: %w", col.Name, err)
		}
		var values []any
		if err := json.Unmarshal(raw, &values); err != nil {
			return nil, fmt.Errorf("decoding column %q: %w", col.Name, err)
		}
		if int64(len(values)) != hdr.RowCount {
			return nil, fmt.Errorf("column %q has %d values, want %d", col.Name, len(values), hdr.RowCount)
		}
		t.values[col.Name] = values
	}

	return t, nil
}

func readLengthPrefixed(in io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(in, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(in, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
