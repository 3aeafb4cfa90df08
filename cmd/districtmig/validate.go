package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/districtmig/pkg/columnar"
	"github.com/cuemby/districtmig/pkg/config"
	"github.com/cuemby/districtmig/pkg/coordinator"
	"github.com/cuemby/districtmig/pkg/migerr"
	"github.com/cuemby/districtmig/pkg/types"
	"github.com/cuemby/districtmig/pkg/validator"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run the five validation check families against a run's anonymized files",
		RunE:  runValidate,
	}
	addRequestFileFlag(cmd)
	return cmd
}

func runValidate(cmd *cobra.Command, _ []string) error {
	var req pipelineRequest
	if err := readRequest(cmd, &req); err != nil {
		return err
	}
	if req.RunID == "" {
		return fmt.Errorf("validate requires run_id")
	}
	if len(req.AnonymizedFiles) == 0 {
		return fmt.Errorf("validate requires anonymized_files (the anonymize subcommand's response)")
	}

	validationRules := emptyValidationRuleSet()
	if req.ValidationRulesFile != "" {
		var err error
		validationRules, err = config.LoadValidationRules(req.ValidationRulesFile)
		if err != nil {
			return err
		}
	}

	paths := coordinator.PathsFor(req.BaseDir, req.RunID)

	datasets := make([]validator.Dataset, 0, len(req.AnonymizedFiles))
	for _, f := range req.AnonymizedFiles {
		table, readErr := columnar.ReadFile(f.Path)
		if readErr != nil {
			return &migerr.Data{Table: f.Table, Err: readErr}
		}
		datasets = append(datasets, validator.Dataset{Store: f.Store, Table: f.Table, Data: table})
	}

	v := &validator.Validator{Datasets: datasets, Tables: req.Tables, Rules: validationRules, DataDir: paths.AnonymizedDir}
	result := v.Run()
	if err := writeResponse(cmd, result); err != nil {
		return err
	}
	if result.OverallStatus == types.StatusFailed && !req.Mode.ValidationOnly {
		return &migerr.Validation{Failed: result.TotalFailed}
	}
	return nil
}
