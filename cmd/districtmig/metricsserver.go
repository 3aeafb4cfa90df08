package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/cuemby/districtmig/pkg/log"
	"github.com/cuemby/districtmig/pkg/metrics"
)

// serveMetrics starts the Prometheus /metrics endpoint in the
// background for the report and run commands, matching cmd/warren's
// metrics-server-in-a-goroutine idiom.
func serveMetrics(cmd *cobra.Command) {
	addr, _ := cmd.Flags().GetString("metrics-addr")
	if addr == "" {
		return
	}
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Errorf("metrics server stopped", err)
		}
	}()
}

func addMetricsAddrFlag(cmd *cobra.Command) {
	cmd.Flags().String("metrics-addr", "", "Address to serve /metrics on (disabled when empty)")
}
