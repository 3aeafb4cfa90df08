package coordinator

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"
)

var runSeq uint32

// NextRunID formats a run identifier mig-YYYYMMDD-HHMMSS-NNN, the scheme
// trigger-migration.py hardcodes as "-001". NNN is a process-wide
// sequence number taken modulo 1000 instead, so two runs started within
// the same wall-clock second still get distinct ids.
func NextRunID(now time.Time) string {
	n := atomic.AddUint32(&runSeq, 1)
	return fmt.Sprintf("mig-%s-%03d", now.Format("20060102-150405"), n%1000)
}

// Paths is the run-scoped directory layout trigger-migration.py creates
// before dispatching any phase: one directory per phase's artifacts,
// keyed by run_id under baseDir.
type Paths struct {
	ExtractionDir string
	AnonymizedDir string
	ValidationDir string
	ReportDir     string
}

// PathsFor derives the four run-scoped directories for runID under
// baseDir.
func PathsFor(baseDir, runID string) Paths {
	return Paths{
		ExtractionDir: filepath.Join(baseDir, "data", "extractions", runID),
		AnonymizedDir: filepath.Join(baseDir, "data", "anonymized", runID),
		ValidationDir: filepath.Join(baseDir, "data", "validations", runID),
		ReportDir:     filepath.Join(baseDir, "reports", runID),
	}
}

// MkdirAll creates every directory in p, matching exist_ok=True
// semantics.
func (p Paths) MkdirAll() error {
	for _, dir := range []string{p.ExtractionDir, p.AnonymizedDir, p.ValidationDir, p.ReportDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
