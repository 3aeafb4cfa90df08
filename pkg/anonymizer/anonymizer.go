package anonymizer

import (
	"github.com/cuemby/districtmig/pkg/columnar"
	"github.com/cuemby/districtmig/pkg/consistency"
	"github.com/cuemby/districtmig/pkg/metrics"
	"github.com/cuemby/districtmig/pkg/migerr"
	"github.com/cuemby/districtmig/pkg/types"
)

// Engine anonymizes staged columnar files against one compiled rule
// set, sharing a single consistency map across every file in a run so
// a value repeated in two different tables still maps identically.
type Engine struct {
	Rules []compiledRule
	Map   *consistency.Map
	Salt  string
}

// NewEngine compiles ruleset once for reuse across every staged file
// in the anonymization phase.
func NewEngine(ruleset *types.AnonymizationRuleSet, cmap *consistency.Map, salt string) (*Engine, error) {
	compiled, err := compileRules(ruleset)
	if err != nil {
		return nil, err
	}
	return &Engine{Rules: compiled, Map: cmap, Salt: salt}, nil
}

// ProcessFile reads a staged columnar table, anonymizes it column by
// column, and writes the result to outPath. It returns the per-file
// report described in §4.4; Success is false iff a leak was detected.
func (e *Engine) ProcessFile(storeID, table, inPath, outPath string) (types.AnonymizationFileResult, error) {
	staged, err := columnar.ReadFile(inPath)
	if err != nil {
		return types.AnonymizationFileResult{File: outPath, Error: err.Error()}, &migerr.Data{Table: table, Err: err}
	}

	columnNames := make([]string, len(staged.Columns))
	for i, c := range staged.Columns {
		columnNames[i] = c.Name
	}
	bindings := bindColumns(columnNames, e.Rules)

	outDefs := make([]columnar.ColumnDef, len(staged.Columns))
	for i, c := range staged.Columns {
		outDefs[i] = c
		if rule := bindings[c.Name]; rule != nil && rule.Strategy != types.StrategyPassthrough {
			outDefs[i].Type = columnar.TypeString
		}
	}
	writer := columnar.NewWriter(outDefs)

	result := types.AnonymizationFileResult{
		File:         outPath,
		Records:      staged.RowCount,
		Columns:      len(staged.Columns),
		FieldsByRule: map[string][]string{},
		Success:      true,
	}
	for name, rule := range bindings {
		if rule.Strategy == types.StrategyPassthrough {
			continue
		}
		result.AnonymizedFields = append(result.AnonymizedFields, name)
		result.FieldsByRule[rule.Name] = append(result.FieldsByRule[rule.Name], name)
		metrics.FieldsAnonymized.WithLabelValues(string(rule.Strategy)).Inc()
	}

	const leakSampleSize = 10
	samples := make(map[string][]any, len(bindings))

	for i := 0; i < int(staged.RowCount); i++ {
		row := staged.Row(i)
		out := make(map[string]any, len(row))
		for name, value := range row {
			rule := bindings[name]
			if rule == nil {
				out[name] = value
				continue
			}
			transformed, err := e.transform(*rule, value)
			if err != nil {
				return result, &migerr.Data{Table: table, Err: err}
			}
			out[name] = transformed
			if rule.Strategy != types.StrategyPassthrough && transformed != nil && len(samples[name]) < leakSampleSize {
				samples[name] = append(samples[name], transformed)
			}
		}
		writer.AppendRow(out)
	}

	if err := writer.WriteFile(outPath); err != nil {
		return result, &migerr.Data{Table: table, Err: err}
	}

	leaks := scanForLeaks(bindings, samples)
	if len(leaks) > 0 {
		result.PIILeaks = leaks
		result.Success = false
	}

	metrics.RowsAnonymized.WithLabelValues(storeID, table).Add(float64(staged.RowCount))
	return result, nil
}

// transform applies rule's strategy to one cell, preserving
// null-in-null-out and resolving deterministic strategies through the
// shared consistency map.
func (e *Engine) transform(rule types.AnonymizationRule, value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	switch rule.Strategy {
	case types.StrategyPassthrough:
		return value, nil

	case types.StrategyNull:
		return nil, nil

	case types.StrategyHash:
		algo := rule.HashAlgo
		if algo == "" {
			algo = types.HashSHA256
		}
		if e.Salt == "" {
			return nil, &migerr.Config{Msg: "anonymization salt required for hash strategy"}
		}
		original := stringify(value)
		return e.Map.ResolveOrAssign(rule.Name, original, func() (string, error) {
			return hashValue(original, e.Salt, algo), nil
		})

	case types.StrategyToken:
		original := stringify(value)
		return e.Map.ResolveOrAssign(rule.Name, original, func() (string, error) {
			return e.Map.NextToken(rule.Name), nil
		})

	case types.StrategySynthetic:
		original := stringify(value)
		return e.Map.ResolveOrAssign(rule.Name, original, func() (string, error) {
			return synthesize(rule), nil
		})

	default:
		return value, nil
	}
}

