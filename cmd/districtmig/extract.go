package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuemby/districtmig/pkg/config"
	"github.com/cuemby/districtmig/pkg/coordinator"
	"github.com/cuemby/districtmig/pkg/extractor"
	"github.com/cuemby/districtmig/pkg/types"
)

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract one district's rows from every named store into staging files",
		RunE:  runExtract,
	}
	addRequestFileFlag(cmd)
	return cmd
}

func runExtract(cmd *cobra.Command, _ []string) error {
	var req pipelineRequest
	if err := readRequest(cmd, &req); err != nil {
		return err
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

	tables, orderByStore, err := introspectSchema(ctx, conns.relational)
	if err != nil {
		return err
	}

	runID := req.RunID
	if runID == "" {
		runID = coordinator.NextRunID(time.Now())
	}
	paths := coordinator.PathsFor(req.BaseDir, runID)
	if err := paths.MkdirAll(); err != nil {
		return fmt.Errorf("creating run directories: %w", err)
	}

	resp := extractResponse{RunID: runID, Tables: tables}
	for _, storeID := range req.Stores.Relational {
		ex := &extractor.Extractor{StoreID: storeID, Relational: conns.relational[storeID], OutputDir: paths.ExtractionDir}
		em, runErr := ex.Run(ctx, tables, orderByStore[storeID], req.Filter, nil)
		resp.Manifests = append(resp.Manifests, em)
		if runErr != nil {
			_ = writeResponse(cmd, resp)
			return runErr
		}
	}

	if conns.graphTgt != nil {
		ex := &extractor.Extractor{StoreID: "sp", Graph: conns.graphTgt.Store, OutputDir: paths.ExtractionDir}
		gspec := &extractor.GraphSpec{
			RootLabel:   conns.graphTgt.RootLabel,
			KeyProperty: conns.graphTgt.KeyProperty,
			MaxDepth:    conns.graphTgt.MaxDepth,
		}
		em, runErr := ex.Run(ctx, nil, nil, req.Filter, gspec)
		resp.Manifests = append(resp.Manifests, em)
		if runErr != nil {
			_ = writeResponse(cmd, resp)
			return runErr
		}
	}

	return writeResponse(cmd, resp)
}

// extractResponse is the extract subcommand's stdout payload: the
// run_id the staging files landed under (generated when the request
// didn't supply one), one manifest per store touched, and the table
// catalog introspection resolved, so later phases don't need to
// re-introspect.
type extractResponse struct {
	RunID     string                     `json:"run_id"`
	Manifests []types.ExtractionManifest `json:"manifests"`
	Tables    []types.TableSchema        `json:"tables"`
}
