package extractor

import (
	"strings"

	"github.com/cuemby/districtmig/pkg/columnar"
	"github.com/cuemby/districtmig/pkg/types"
)

// columnarType maps a Postgres information_schema data_type onto the
// staging format's logical types. Anything unrecognized stages as a
// string, which round-trips safely through JSON for any value pgx
// itself would hand back as a Go string.
func columnarType(logicalType string) columnar.ColumnType {
	switch {
	case logicalType == "numeric", logicalType == "decimal",
		strings.Contains(logicalType, "double"), strings.Contains(logicalType, "real"), strings.Contains(logicalType, "float"):
		return columnar.TypeFloat
	case strings.Contains(logicalType, "int"):
		return columnar.TypeInteger
	case logicalType == "boolean":
		return columnar.TypeBoolean
	case strings.Contains(logicalType, "timestamp"):
		return columnar.TypeTimestamp
	case logicalType == "date":
		return columnar.TypeDate
	case logicalType == "bytea":
		return columnar.TypeBinary
	default:
		return columnar.TypeString
	}
}

func columnDefs(table types.TableSchema) []columnar.ColumnDef {
	defs := make([]columnar.ColumnDef, 0, len(table.Columns))
	for _, c := range table.Columns {
		defs = append(defs, columnar.ColumnDef{Name: c.Name, Type: columnarType(c.LogicalType)})
	}
	return defs
}

// localName strips this store's leading "store." segment off a
// qualified name, since a Relational adapter is already scoped to one
// store's connection and expects schema.table, not store.schema.table.
func localName(storeID, qualifiedName string) string {
	prefix := storeID + "."
	if strings.HasPrefix(qualifiedName, prefix) {
		return qualifiedName[len(prefix):]
	}
	return qualifiedName
}
