package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cuemby/districtmig/pkg/config"
	"github.com/cuemby/districtmig/pkg/coordinator"
	"github.com/cuemby/districtmig/pkg/schema"
	"github.com/cuemby/districtmig/pkg/store"
	"github.com/cuemby/districtmig/pkg/store/graph"
	"github.com/cuemby/districtmig/pkg/store/relational"
	"github.com/cuemby/districtmig/pkg/types"
)

// storesConfig names which stores a request touches and, for the
// relational ones, the environment role their credentials load from.
type storesConfig struct {
	Role       string       `json:"role"`
	Relational []string     `json:"relational_stores"`
	Graph      *graphConfig `json:"graph,omitempty"`
}

// graphConfig mirrors coordinator.GraphTarget's traversal parameters,
// minus the already-connected adapter.
type graphConfig struct {
	RootLabel   string `json:"root_label"`
	KeyProperty string `json:"key_property"`
	MaxDepth    int    `json:"max_depth"`
}

// stagedFileRef names one table's staged file on disk along with the
// store/table it belongs to, carried between subcommands in request/
// response JSON so a later phase never has to re-derive a qualified
// name from a sanitized file name.
type stagedFileRef struct {
	Store string `json:"store"`
	Table string `json:"table"`
	Path  string `json:"path"`
}

// modeConfig is the JSON rendering of coordinator.Mode.
type modeConfig struct {
	ValidationOnly bool `json:"validation_only,omitempty"`
	ExtractionSkip bool `json:"extraction_skip,omitempty"`
	LoadSkip       bool `json:"load_skip,omitempty"`
}

func (m modeConfig) toMode() coordinator.Mode {
	return coordinator.Mode{ValidationOnly: m.ValidationOnly, ExtractionSkip: m.ExtractionSkip, LoadSkip: m.LoadSkip}
}

// pipelineRequest is the common request shape every phase subcommand
// and run/rollback unmarshal from stdin (or --request-file). Individual
// subcommands ignore the fields they have no use for.
type pipelineRequest struct {
	RunID                  string             `json:"run_id,omitempty"`
	DistrictID             string             `json:"district_id"`
	Filter                 types.TenantFilter `json:"filter"`
	Stores                 storesConfig       `json:"stores"`
	AnonymizationRulesFile string             `json:"anonymization_rules_file,omitempty"`
	ValidationRulesFile    string             `json:"validation_rules_file,omitempty"`
	ConsistencyMapPath     string             `json:"consistency_map_path,omitempty"`
	LoadStrategy           string             `json:"load_strategy,omitempty"`
	BaseDir                string             `json:"base_dir"`
	Mode                   modeConfig         `json:"mode,omitempty"`

	// Tables is the table catalog extract introspected and resolved via
	// pkg/schema; carried forward into validate's referential-integrity
	// family so it never needs its own store connections.
	Tables []types.TableSchema `json:"tables,omitempty"`
	// ExtractionManifests carries the extract subcommand's response
	// forward into anonymize: which tables landed where on disk.
	ExtractionManifests []types.ExtractionManifest `json:"extraction_manifests,omitempty"`
	// AnonymizedFiles carries the anonymize subcommand's response
	// forward into validate and load: which anonymized file belongs to
	// which store/table.
	AnonymizedFiles []stagedFileRef `json:"anonymized_files,omitempty"`
}

func emptyAnonymizationRuleSet() *types.AnonymizationRuleSet { return &types.AnonymizationRuleSet{} }

func emptyValidationRuleSet() *types.ValidationRuleSet { return &types.ValidationRuleSet{} }

func (r pipelineRequest) loadStrategy() types.LoadStrategy {
	switch types.LoadStrategy(r.LoadStrategy) {
	case types.LoadUpsert:
		return types.LoadUpsert
	case types.LoadMerge:
		return types.LoadMerge
	default:
		return types.LoadInsert
	}
}

func addRequestFileFlag(cmd *cobra.Command) {
	cmd.Flags().String("request-file", "", "Path to a JSON request file (default: read from stdin)")
}

func readRequest(cmd *cobra.Command, v any) error {
	path, _ := cmd.Flags().GetString("request-file")
	var data []byte
	var err error
	if path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("reading request: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing request: %w", err)
	}
	return nil
}

func writeResponse(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// connectedStores is every adapter a request's storesConfig resolved to,
// plus the function that closes all of them.
type connectedStores struct {
	relational map[string]store.Relational
	graphTgt   *coordinator.GraphTarget
}

func (c connectedStores) close(ctx context.Context) {
	for _, rel := range c.relational {
		rel.Close()
	}
	if c.graphTgt != nil {
		_ = c.graphTgt.Store.Close(ctx)
	}
}

// connectStores opens every relational store named in sc, plus the
// graph store when sc.Graph is set, using credentials already loaded
// into cfg by config.Load.
func connectStores(ctx context.Context, cfg *config.Store, sc storesConfig) (connectedStores, error) {
	out := connectedStores{relational: make(map[string]store.Relational, len(sc.Relational))}
	for _, storeID := range sc.Relational {
		creds, ok := cfg.Relational[storeID]
		if !ok {
			return out, fmt.Errorf("no credentials loaded for store %q", storeID)
		}
		rel, err := relational.Connect(ctx, storeID, creds.DSN(), "")
		if err != nil {
			out.close(ctx)
			return out, err
		}
		out.relational[storeID] = rel
	}

	if sc.Graph != nil {
		g, err := graph.Connect(ctx, "sp", cfg.Graph.URI, cfg.Graph.User, cfg.Graph.Password)
		if err != nil {
			out.close(ctx)
			return out, err
		}
		out.graphTgt = &coordinator.GraphTarget{
			Store:       g,
			RootLabel:   sc.Graph.RootLabel,
			KeyProperty: sc.Graph.KeyProperty,
			MaxDepth:    sc.Graph.MaxDepth,
		}
	}

	return out, nil
}

// introspectSchema introspects every connected relational store and
// folds the combined table list through pkg/schema's dependency
// analysis, yielding both the full table catalog and each store's
// parent-first load/extraction order.
func introspectSchema(ctx context.Context, rels map[string]store.Relational) ([]types.TableSchema, map[string][]string, error) {
	var tables []types.TableSchema
	for _, rel := range rels {
		ts, err := rel.Introspect(ctx)
		if err != nil {
			return nil, nil, err
		}
		tables = append(tables, ts...)
	}
	analysis := schema.Analyze(tables)
	return tables, analysis.ExtractionByStore, nil
}
