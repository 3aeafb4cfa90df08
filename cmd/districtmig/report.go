package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/districtmig/pkg/coordinator"
	"github.com/cuemby/districtmig/pkg/report"
	"github.com/cuemby/districtmig/pkg/types"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render a run's manifest into JSON and Markdown reports",
		RunE:  runReportCmd,
	}
	addRequestFileFlag(cmd)
	addMetricsAddrFlag(cmd)
	return cmd
}

// reportRequest is the report subcommand's stdin shape: the completed
// run manifest (normally the run subcommand's own stdout) and the base
// directory to render reports/<run_id>.{json,md} under.
type reportRequest struct {
	Manifest types.RunManifest `json:"manifest"`
	BaseDir  string            `json:"base_dir"`
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	serveMetrics(cmd)

	var req reportRequest
	if err := readRequest(cmd, &req); err != nil {
		return err
	}
	if req.Manifest.RunID == "" {
		return fmt.Errorf("report requires manifest.run_id")
	}

	paths := coordinator.PathsFor(req.BaseDir, req.Manifest.RunID)
	if err := paths.MkdirAll(); err != nil {
		return fmt.Errorf("creating run directories: %w", err)
	}

	if err := report.Write(req.Manifest, paths.ReportDir); err != nil {
		return err
	}

	return writeResponse(cmd, map[string]string{
		"report_dir": paths.ReportDir,
		"json":       paths.ReportDir + "/" + req.Manifest.RunID + ".json",
		"markdown":   paths.ReportDir + "/" + req.Manifest.RunID + ".md",
	})
}
