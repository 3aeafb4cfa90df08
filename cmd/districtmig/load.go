package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cuemby/districtmig/pkg/config"
	"github.com/cuemby/districtmig/pkg/loader"
	"github.com/cuemby/districtmig/pkg/schema"
	"github.com/cuemby/districtmig/pkg/types"
)

func newLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load a run's anonymized files into their target stores",
		RunE:  runLoad,
	}
	addRequestFileFlag(cmd)
	return cmd
}

func runLoad(cmd *cobra.Command, _ []string) error {
	var req pipelineRequest
	if err := readRequest(cmd, &req); err != nil {
		return err
	}
	if req.RunID == "" {
		return fmt.Errorf("load requires run_id")
	}
	if len(req.Tables) == 0 {
		return fmt.Errorf("load requires tables (the extract subcommand's response)")
	}
	if len(req.AnonymizedFiles) == 0 {
		return fmt.Errorf("load requires anonymized_files (the anonymize subcommand's response)")
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

	anonymizedDirByStore := groupLoadInputs(req)
	orderByStore := schema.Analyze(req.Tables).ExtractionByStore

	var manifests []types.LoadManifest
	for _, storeID := range req.Stores.Relational {
		inputDir, ok := anonymizedDirByStore[storeID]
		if !ok {
			continue
		}
		l := &loader.Loader{StoreID: storeID, Relational: conns.relational[storeID], Strategy: req.loadStrategy(), InputDir: inputDir}
		lm, runErr := l.Run(ctx, req.Tables, orderByStore[storeID], req.Filter, nil)
		manifests = append(manifests, lm)
		if runErr != nil {
			_ = writeResponse(cmd, manifests)
			return runErr
		}
	}

	if conns.graphTgt != nil {
		l := &loader.Loader{StoreID: "sp", Graph: conns.graphTgt.Store, Strategy: req.loadStrategy(), InputDir: anonymizedDirByStore["sp"]}
		gspec := &loader.GraphSpec{RootLabel: conns.graphTgt.RootLabel, KeyProperty: conns.graphTgt.KeyProperty, MaxDepth: conns.graphTgt.MaxDepth}
		lm, runErr := l.Run(ctx, nil, nil, req.Filter, gspec)
		manifests = append(manifests, lm)
		if runErr != nil {
			_ = writeResponse(cmd, manifests)
			return runErr
		}
	}

	return writeResponse(cmd, manifests)
}

// groupLoadInputs derives, for each store, the single directory its
// anonymized files live in. The loader reads a whole directory per
// store (one file per table within it), not individual file paths.
func groupLoadInputs(req pipelineRequest) map[string]string {
	dirByStore := map[string]string{}
	for _, f := range req.AnonymizedFiles {
		if _, ok := dirByStore[f.Store]; !ok {
			dirByStore[f.Store] = filepath.Dir(f.Path)
		}
	}
	return dirByStore
}
