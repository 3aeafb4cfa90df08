package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuemby/districtmig/pkg/anonymizer"
	"github.com/cuemby/districtmig/pkg/config"
	"github.com/cuemby/districtmig/pkg/consistency"
	"github.com/cuemby/districtmig/pkg/coordinator"
	"github.com/cuemby/districtmig/pkg/migerr"
	"github.com/cuemby/districtmig/pkg/types"
)

func newAnonymizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "anonymize",
		Short: "Anonymize a run's staged extraction files into the anonymized directory",
		RunE:  runAnonymize,
	}
	addRequestFileFlag(cmd)
	return cmd
}

// anonymizeResponse is the anonymize subcommand's stdout payload: the
// full phase report plus a store/table-keyed index of the files it
// wrote, ready to feed straight into validate's or load's request.
type anonymizeResponse struct {
	Report types.AnonymizationReport `json:"report"`
	Files  []stagedFileRef           `json:"anonymized_files"`
}

func runAnonymize(cmd *cobra.Command, _ []string) error {
	var req pipelineRequest
	if err := readRequest(cmd, &req); err != nil {
		return err
	}
	if req.RunID == "" {
		return fmt.Errorf("anonymize requires run_id (the run whose extraction staging files to anonymize)")
	}

	cfg, err := config.Load(config.Role(req.Stores.Role), nil, true)
	if err != nil {
		return err
	}

	cmap := consistency.New()
	if req.ConsistencyMapPath != "" {
		cmap, err = consistency.Load(req.ConsistencyMapPath)
		if err != nil {
			return err
		}
	}

	rules := emptyAnonymizationRuleSet()
	if req.AnonymizationRulesFile != "" {
		rules, err = config.LoadAnonymizationRules(req.AnonymizationRulesFile)
		if err != nil {
			return err
		}
	}

	engine, err := anonymizer.NewEngine(rules, cmap, cfg.Salt)
	if err != nil {
		return &migerr.Config{Msg: "compiling anonymization rules", Err: err}
	}

	paths := coordinator.PathsFor(req.BaseDir, req.RunID)
	if err := paths.MkdirAll(); err != nil {
		return fmt.Errorf("creating run directories: %w", err)
	}

	resp := anonymizeResponse{Report: types.AnonymizationReport{
		RunTimestamp: time.Now(),
		InputDir:     paths.ExtractionDir,
		OutputDir:    paths.AnonymizedDir,
		Success:      true,
		PIILeakCheck: "PASSED",
	}}
	report := &resp.Report

	for _, em := range req.ExtractionManifests {
		for _, t := range em.TablesExtracted {
			if t.Skipped || t.Error != "" || t.File == "" {
				continue
			}

			outPath := filepath.Join(paths.AnonymizedDir, filepath.Base(t.File))
			result, procErr := engine.ProcessFile(em.Store, t.Table, t.File, outPath)
			report.FilesProcessed = append(report.FilesProcessed, result)
			report.TotalRecords += result.Records
			report.TotalFieldsAnonymized += len(result.AnonymizedFields)
			if procErr != nil {
				report.Success = false
				report.Errors = append(report.Errors, procErr.Error())
				report.DurationSeconds = time.Since(report.RunTimestamp).Seconds()
				_ = writeResponse(cmd, resp)
				return procErr
			}
			if len(result.PIILeaks) > 0 {
				report.PIILeakCheck = "FAILED"
				report.Success = false
				report.PIILeaksDetected = append(report.PIILeaksDetected, result.PIILeaks...)
				report.DurationSeconds = time.Since(report.RunTimestamp).Seconds()
				leakErr := &migerr.Leak{Column: t.Table, Sample: joinSamples(result.PIILeaks)}
				_ = writeResponse(cmd, resp)
				return leakErr
			}
			resp.Files = append(resp.Files, stagedFileRef{Store: em.Store, Table: t.Table, Path: outPath})
		}
	}

	if req.ConsistencyMapPath != "" {
		if err := cmap.Save(req.ConsistencyMapPath); err != nil {
			return &migerr.Data{Table: "consistency_map", Err: err}
		}
	}

	report.DurationSeconds = time.Since(report.RunTimestamp).Seconds()
	return writeResponse(cmd, resp)
}

func joinSamples(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += "; "
		}
		out += s
	}
	return out
}
