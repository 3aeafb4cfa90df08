package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cuemby/districtmig/pkg/log"
	"github.com/cuemby/districtmig/pkg/types"
)

// Write renders manifest as both "<run_id>.md" and "<run_id>.json" under
// dir, matching generate_report()'s dual-output behavior.
func Write(manifest types.RunManifest, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("report: creating %s: %w", dir, err)
	}

	mdPath := filepath.Join(dir, manifest.RunID+".md")
	if err := os.WriteFile(mdPath, []byte(Render(manifest)), 0o644); err != nil {
		return fmt.Errorf("report: writing %s: %w", mdPath, err)
	}
	log.WithRunID(manifest.RunID).Info().Str("path", mdPath).Msg("Generated Markdown report")

	jsonPath := filepath.Join(dir, manifest.RunID+".json")
	body, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshaling manifest: %w", err)
	}
	if err := os.WriteFile(jsonPath, body, 0o644); err != nil {
		return fmt.Errorf("report: writing %s: %w", jsonPath, err)
	}
	log.WithRunID(manifest.RunID).Info().Str("path", jsonPath).Msg("Generated JSON report")

	return nil
}
