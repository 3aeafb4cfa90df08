package columnar

// ColumnType is a logical column type that must round-trip through the
// staging format.
type ColumnType string

const (
	TypeInteger   ColumnType = "integer"
	TypeFloat     ColumnType = "float"
	TypeBoolean   ColumnType = "boolean"
	TypeString    ColumnType = "string"
	TypeTimestamp ColumnType = "timestamp"
	TypeDate      ColumnType = "date"
	TypeBinary    ColumnType = "binary"
)

// ColumnDef names one column of a staged table and its logical type.
type ColumnDef struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// header is the JSON directory written at the front of every staging
// file: column order/types and the row count, so a reader knows the
// column layout up front and can check each decoded column's value count
// against the row count.
type header struct {
	Columns  []ColumnDef `json:"columns"`
	RowCount int64       `json:"row_count"`
}

// TimestampLayout is the string layout used to encode TypeTimestamp
// values; TypeDate values use DateLayout.
const (
	TimestampLayout = "2006-01-02T15:04:05.999999999Z07:00"
	DateLayout      = "2006-01-02"
)
