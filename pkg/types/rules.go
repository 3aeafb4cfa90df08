package types

// RuleStrategy names an anonymization strategy. The first rule whose
// FieldPattern matches a column governs that column; unmatched columns
// are implicitly Passthrough.
type RuleStrategy string

const (
	StrategySynthetic   RuleStrategy = "synthetic"
	StrategyHash        RuleStrategy = "hash"
	StrategyToken       RuleStrategy = "token"
	StrategyNull        RuleStrategy = "null"
	StrategyPassthrough RuleStrategy = "passthrough"
)

// HashAlgorithm names a supported digest for the hash strategy.
type HashAlgorithm string

const (
	HashSHA256 HashAlgorithm = "sha256"
	HashSHA512 HashAlgorithm = "sha512"
)

// AnonymizationRule is one entry of the ordered rule list that governs
// column-to-strategy binding. Parameters carries strategy-specific
// options (faker shape, min/max age, hash algorithm).
type AnonymizationRule struct {
	Name         string            `yaml:"name" json:"name"`
	FieldPattern string            `yaml:"field_pattern" json:"field_pattern"`
	Strategy     RuleStrategy      `yaml:"strategy" json:"strategy"`
	FakerType    string            `yaml:"faker_type,omitempty" json:"faker_type,omitempty"`
	HashAlgo     HashAlgorithm     `yaml:"hash_algorithm,omitempty" json:"hash_algorithm,omitempty"`
	MinAge       int               `yaml:"minimum_age,omitempty" json:"minimum_age,omitempty"`
	MaxAge       int               `yaml:"maximum_age,omitempty" json:"maximum_age,omitempty"`
	Parameters   map[string]string `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// AnonymizationRuleSet is the top-level shape of the rules YAML file.
type AnonymizationRuleSet struct {
	Rules []AnonymizationRule `yaml:"rules" json:"rules"`
}

// Severity drives whether a failed check contributes to errors or
// warnings.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

// BusinessRule is a predicate evaluated per row of one table.
type BusinessRule struct {
	Name        string   `yaml:"name" json:"name"`
	Store       string   `yaml:"store" json:"store"`
	Table       string   `yaml:"table" json:"table"`
	Predicate   string   `yaml:"predicate" json:"predicate"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Severity    Severity `yaml:"severity" json:"severity"`
}

// CompletenessRule lists fields a table must carry, non-null.
type CompletenessRule struct {
	Name           string   `yaml:"name" json:"name"`
	Store          string   `yaml:"store" json:"store"`
	Table          string   `yaml:"table" json:"table"`
	RequiredFields []string `yaml:"required_fields" json:"required_fields"`
	Severity       Severity `yaml:"severity" json:"severity"`
}

// DataQualityRule enables the duplicate/negative-id checks for a table;
// an empty Table applies the check to every staged file with an id column.
type DataQualityRule struct {
	Name  string `yaml:"name" json:"name"`
	Store string `yaml:"store,omitempty" json:"store,omitempty"`
	Table string `yaml:"table,omitempty" json:"table,omitempty"`
}

// ValidationRuleSet is the top-level shape of the validation rules YAML
// file, grouped by family.
type ValidationRuleSet struct {
	BusinessRules     []BusinessRule     `yaml:"business_rules" json:"business_rules"`
	CompletenessRules []CompletenessRule `yaml:"completeness_rules" json:"completeness_rules"`
	DataQualityRules  []DataQualityRule  `yaml:"data_quality_rules" json:"data_quality_rules"`
}
