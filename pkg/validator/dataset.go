package validator

import (
	"fmt"
	"strings"

	"github.com/cuemby/districtmig/pkg/columnar"
)

// Dataset is one staged table loaded for validation.
type Dataset struct {
	Store string
	Table string // qualified name, "store.schema.table"
	Data  *columnar.Table
}

func (d Dataset) hasColumn(name string) bool {
	for _, c := range d.Data.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// localTableName returns the final "." segment of a qualified name, used
// both for the naive FK-target pluralization guess and for matching rule
// {store, table} pairs against staged datasets.
func localTableName(qualified string) string {
	idx := strings.LastIndex(qualified, ".")
	if idx < 0 {
		return qualified
	}
	return qualified[idx+1:]
}

func stringifyValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func findDataset(datasets []Dataset, store, table string) (Dataset, bool) {
	for _, d := range datasets {
		if d.Store == store && localTableName(d.Table) == table {
			return d, true
		}
	}
	return Dataset{}, false
}
