package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/districtmig/pkg/config"
	"github.com/cuemby/districtmig/pkg/consistency"
	"github.com/cuemby/districtmig/pkg/coordinator"
	"github.com/cuemby/districtmig/pkg/schema"
	"github.com/cuemby/districtmig/pkg/types"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drive the full extract -> anonymize -> validate -> load -> report pipeline for one district",
		RunE:  runRunCmd,
	}
	addRequestFileFlag(cmd)
	addMetricsAddrFlag(cmd)
	return cmd
}

func runRunCmd(cmd *cobra.Command, _ []string) error {
	serveMetrics(cmd)

	var req pipelineRequest
	if err := readRequest(cmd, &req); err != nil {
		return err
	}
	if req.DistrictID == "" {
		return fmt.Errorf("run requires district_id")
	}

	ctx := cmd.Context()
	requireSalt := !req.Mode.ExtractionSkip
	cfg, err := config.Load(config.Role(req.Stores.Role), req.Stores.Relational, requireSalt)
	if err != nil {
		return err
	}
	conns, err := connectStores(ctx, cfg, req.Stores)
	if err != nil {
		return err
	}
	defer conns.close(ctx)

	var tables []types.TableSchema
	var orderByStore map[string][]string
	if len(req.Tables) > 0 {
		tables = req.Tables
		orderByStore = schema.Analyze(tables).ExtractionByStore
	} else {
		tables, orderByStore, err = introspectSchema(ctx, conns.relational)
		if err != nil {
			return err
		}
	}

	var anonymizationRules = emptyAnonymizationRuleSet()
	if req.AnonymizationRulesFile != "" {
		anonymizationRules, err = config.LoadAnonymizationRules(req.AnonymizationRulesFile)
		if err != nil {
			return err
		}
	}

	validationRules := emptyValidationRuleSet()
	if req.ValidationRulesFile != "" {
		validationRules, err = config.LoadValidationRules(req.ValidationRulesFile)
		if err != nil {
			return err
		}
	}

	cmap := consistency.New()
	if req.ConsistencyMapPath != "" {
		cmap, err = consistency.Load(req.ConsistencyMapPath)
		if err != nil {
			return err
		}
	}

	runReq := coordinator.RunRequest{
		RunID:               req.RunID,
		DistrictID:          req.DistrictID,
		Filter:              req.Filter,
		Tables:              tables,
		StoreOrder:          req.Stores.Relational,
		OrderByStore:        orderByStore,
		Stores:              coordinator.StoreSet{Relational: conns.relational, Graph: conns.graphTgt},
		AnonymizationRules:  anonymizationRules,
		ValidationRules:     validationRules,
		ConsistencyMap:      cmap,
		ConsistencyMapPath:  req.ConsistencyMapPath,
		Salt:                cfg.Salt,
		Strategy:            req.loadStrategy(),
		BaseDir:             req.BaseDir,
		Mode:                req.Mode.toMode(),
	}

	c := coordinator.New()
	manifest, runErr := c.Run(ctx, runReq)
	if respErr := writeResponse(cmd, manifest); respErr != nil {
		return respErr
	}
	return runErr
}
