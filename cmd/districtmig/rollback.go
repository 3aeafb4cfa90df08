package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/districtmig/pkg/config"
	"github.com/cuemby/districtmig/pkg/coordinator"
	"github.com/cuemby/districtmig/pkg/schema"
	"github.com/cuemby/districtmig/pkg/types"
)

func newRollbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Undo a run's load phase, deleting by tenant in reverse store order",
		RunE:  runRollback,
	}
	addRequestFileFlag(cmd)
	return cmd
}

func runRollback(cmd *cobra.Command, _ []string) error {
	var req pipelineRequest
	if err := readRequest(cmd, &req); err != nil {
		return err
	}
	if req.RunID == "" {
		return fmt.Errorf("rollback requires run_id")
	}

	ctx := cmd.Context()
	cfg, err := config.Load(config.Role(req.Stores.Role), req.Stores.Relational, false)
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

	runReq := coordinator.RunRequest{
		RunID:        req.RunID,
		DistrictID:   req.DistrictID,
		Filter:       req.Filter,
		Tables:       tables,
		StoreOrder:   req.Stores.Relational,
		OrderByStore: orderByStore,
		Stores:       coordinator.StoreSet{Relational: conns.relational, Graph: conns.graphTgt},
		Strategy:     req.loadStrategy(),
		BaseDir:      req.BaseDir,
	}

	c := coordinator.New()
	manifest, err := c.Rollback(ctx, runReq)
	if respErr := writeResponse(cmd, manifest); respErr != nil {
		return respErr
	}
	return err
}
