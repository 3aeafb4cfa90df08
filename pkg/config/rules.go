package config

import (
	"fmt"
	"os"

	"github.com/cuemby/districtmig/pkg/migerr"
	"github.com/cuemby/districtmig/pkg/types"
	"gopkg.in/yaml.v3"
)

// LoadAnonymizationRules reads an ordered anonymization rule list from a
// YAML file. Rule order is preserved exactly as it appears on disk, since
// column binding is first-match.
func LoadAnonymizationRules(path string) (*types.AnonymizationRuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &migerr.Config{Msg: fmt.Sprintf("reading anonymization rules file %s", path), Err: err}
	}

	var set types.AnonymizationRuleSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, &migerr.Config{Msg: fmt.Sprintf("parsing anonymization rules file %s", path), Err: err}
	}
	return &set, nil
}

// LoadValidationRules reads the business/completeness/data-quality rule
// groups from a YAML file.
func LoadValidationRules(path string) (*types.ValidationRuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &migerr.Config{Msg: fmt.Sprintf("reading validation rules file %s", path), Err: err}
	}

	var set types.ValidationRuleSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, &migerr.Config{Msg: fmt.Sprintf("parsing validation rules file %s", path), Err: err}
	}
	return &set, nil
}
