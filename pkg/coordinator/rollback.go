package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/cuemby/districtmig/pkg/loader"
	"github.com/cuemby/districtmig/pkg/log"
	"github.com/cuemby/districtmig/pkg/metrics"
	"github.com/cuemby/districtmig/pkg/types"
)

// Rollback undoes a run's load phase, deleting by tenant from every
// target store the run wrote to. Per §5(b), stores are undone in the
// reverse of their load order to minimize FK failures when stores
// cross-reference each other by id; the graph store, loaded last, is
// rolled back first.
func (c *Coordinator) Rollback(ctx context.Context, req RunRequest) (types.RunManifest, error) {
	runID := req.RunID
	if runID == "" {
		return types.RunManifest{}, fmt.Errorf("coordinator: rollback requires a run_id")
	}

	logger := log.WithRunID(runID)
	manifest := types.RunManifest{RunID: runID, DistrictID: req.DistrictID, StartedAt: time.Now()}
	logger.Info().Msg("Rolling back run")

	timer := metrics.NewTimer()
	var failed error

	if gt := req.Stores.Graph; gt != nil {
		l := &loader.Loader{StoreID: "sp", Graph: gt.Store, Strategy: req.Strategy}
		gspec := &loader.GraphSpec{RootLabel: gt.RootLabel, KeyProperty: gt.KeyProperty, MaxDepth: gt.MaxDepth}
		lm, err := l.Rollback(ctx, nil, nil, req.Filter, gspec)
		manifest.Loads = append(manifest.Loads, lm)
		if err != nil {
			failed = err
		}
	}

	order := req.storeOrder()
	for i := len(order) - 1; i >= 0; i-- {
		if failed != nil {
			break
		}
		if err := ctx.Err(); err != nil {
			failed = err
			break
		}

		storeID := order[i]
		rel := req.Stores.Relational[storeID]
		l := &loader.Loader{StoreID: storeID, Relational: rel, Strategy: req.Strategy}
		lm, err := l.Rollback(ctx, req.Tables, req.OrderByStore[storeID], req.Filter, nil)
		manifest.Loads = append(manifest.Loads, lm)
		for _, t := range lm.TablesLoaded {
			if t.Success {
				metrics.RowsRolledBack.WithLabelValues(storeID, t.Table).Add(float64(t.RowsLoaded))
			}
		}
		if err != nil {
			failed = err
		}
	}

	timer.ObserveDurationVec(metrics.PhaseDuration, "rollback")
	manifest.FinishedAt = manifest.StartedAt.Add(timer.Duration())

	if failed != nil {
		manifest.Success = false
		manifest.FailedPhase = types.PhaseLoad
		manifest.NextAction = "manual"
		manifest.Phases = append(manifest.Phases, phaseResult(types.PhaseLoad, failed))
		logger.Error().Err(failed).Msg("Rollback failed")
		return manifest, failed
	}

	manifest.Success = true
	manifest.Phases = append(manifest.Phases, types.PhaseResult{Phase: types.PhaseLoad, Success: true})
	logger.Info().Msg("Rollback complete")
	return manifest, nil
}
