package columnar

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// magic identifies a districtmig columnar staging file.
var magic = [6]byte{'D', 'M', 'C', 'F', '1', '\n'}

// Writer accumulates rows in memory and flushes one independently
// compressed block per column. Staged tables are bounded by a single
// run's extraction scope, so buffering a table in memory before flush
// keeps the writer simple; very large tables should be chunked by the
// caller across multiple staged files if needed.
type Writer struct {
	columns []ColumnDef
	index   map[string]int
	rows    [][]any
}

// NewWriter creates a Writer for the given column order and types.
func NewWriter(columns []ColumnDef) *Writer {
	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		idx[c.Name] = i
	}
	return &Writer{columns: columns, index: idx}
}

// AppendRow adds one row, keyed by column name. Columns absent from the
// map are written as null.
func (w *Writer) AppendRow(row map[string]any) {
	values := make([]any, len(w.columns))
	for name, i := range w.index {
		if v, ok := row[name]; ok {
			values[i] = v
		}
	}
	w.rows = append(w.rows, values)
}

// RowCount returns the number of rows appended so far.
func (w *Writer) RowCount() int { return len(w.rows) }

// WriteFile encodes the accumulated rows to path, compressing each
// column independently.
func (w *Writer) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("columnar: creating %s: %w", path, err)
	}
	defer f.Close()
	return w.write(f)
}

func (w *Writer) write(out io.Writer) error {
	if _, err := out.Write(magic[:]); err != nil {
		return fmt.Errorf("columnar: writing magic: %w", err)
	}

	hdr := header{Columns: w.columns, RowCount: int64(len(w.rows))}
	hdrBytes, err := json.Marshal(hdr)
	if err != nil {
		return fmt.Errorf("columnar: encoding header: %w", err)
	}
	if err := writeLengthPrefixed(out, hdrBytes); err != nil {
		return fmt.Errorf("columnar: writing header: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("columnar: constructing zstd encoder: %w", err)
	}
	defer enc.Close()

	for i, col := range w.columns {
		values := make([]any, len(w.rows))
		for r, row := range w.rows {
			values[r] = row[i]
		}
		raw, err := json.Marshal(values)
		if err != nil {
			return fmt.Errorf("columnar: encoding column %q: %w", col.Name, err)
		}
		compressed := enc.EncodeAll(raw, nil)
		if err := writeLengthPrefixed(out, compressed); err != nil {
			return fmt.Errorf("columnar: writing column %q: %w", col.Name, err)
		}
	}
	return nil
}

func writeLengthPrefixed(out io.Writer, data []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := out.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := out.Write(data)
	return err
}
