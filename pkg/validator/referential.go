package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cuemby/districtmig/pkg/types"
)

// referentialIntegrity checks every "*_id" column (other than "id" itself)
// against the primary-key set of the table it is believed to reference.
// The reference target is resolved from an explicit foreign key in tables
// when one is declared for that column; otherwise it falls back to
// validate_integrity.py's naive pluralization heuristic ("student_id" ->
// any staged table whose name contains "students"). A column whose target
// cannot be resolved, or whose resolved target was never staged, counts as
// a pass: it is not this family's job to police the schema shape.
func referentialIntegrity(datasets []Dataset, tables []types.TableSchema) types.FamilyResult {
	var result types.FamilyResult

	pks := make(map[string]map[string]struct{}, len(datasets))
	for _, d := range datasets {
		if !d.hasColumn("id") {
			continue
		}
		set := make(map[string]struct{})
		for _, v := range d.Data.Column("id") {
			if v != nil {
				set[stringifyValue(v)] = struct{}{}
			}
		}
		pks[d.Table] = set
	}

	explicit := make(map[string]map[string]string)
	for _, t := range tables {
		for _, fk := range t.ForeignKeys {
			if len(fk.FromColumns) == 0 {
				continue
			}
			if explicit[t.QualifiedName] == nil {
				explicit[t.QualifiedName] = make(map[string]string)
			}
			explicit[t.QualifiedName][fk.FromColumns[0]] = fk.ToTableQualifiedName
		}
	}

	for _, d := range datasets {
		for _, col := range d.Data.Columns {
			if col.Name == "id" || !strings.HasSuffix(col.Name, "_id") {
				continue
			}
			result.ChecksRun++

			target := explicit[d.Table][col.Name]
			if target == "" {
				guess := strings.TrimSuffix(col.Name, "_id") + "s"
				for key := range pks {
					if strings.Contains(localTableName(key), guess) {
						target = key
						break
					}
				}
			}

			targetPKs, known := pks[target]
			if target == "" || !known {
				result.ChecksPassed++
				continue
			}

			orphaned := make(map[string]struct{})
			for _, v := range d.Data.Column(col.Name) {
				if v == nil {
					continue
				}
				id := stringifyValue(v)
				if _, found := targetPKs[id]; !found {
					orphaned[id] = struct{}{}
				}
			}

			if len(orphaned) == 0 {
				result.ChecksPassed++
				continue
			}
			result.ChecksFailed++
			sample := make([]string, 0, len(orphaned))
			for id := range orphaned {
				sample = append(sample, id)
			}
			sort.Strings(sample)
			if len(sample) > 5 {
				sample = sample[:5]
			}
			result.Errors = append(result.Errors, types.Finding{
				Check:           "referential_integrity",
				Table:           d.Table,
				Column:          col.Name,
				ReferencedTable: target,
				Message:         fmt.Sprintf("%d orphaned values in %s not found in %s", len(orphaned), col.Name, target),
				Severity:        types.SeverityError,
				SampleOrphaned:  sample,
			})
		}
	}

	return result
}
