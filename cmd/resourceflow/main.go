// Command resourceflow is a diagnostic CLI for the resource-flow solver: it
// builds a sample processor snapshot, runs it through pkg/solver, and prints
// the resulting per-inventory rates and per-converter utilizations. It is
// not a server — resourceflow is a library call embedded in a host
// simulation, not an RPC endpoint — but it wires the same logging,
// telemetry, and metrics stack the host application would, so a single run
// exercises the full ambient stack end to end.
package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"resourceflow/pkg/domain"
	"resourceflow/pkg/logger"
	"resourceflow/pkg/metrics"
	"resourceflow/pkg/solver"
	"resourceflow/pkg/telemetry"
)

func main() {
	logger.InitWithConfig(logger.Config{
		Level:  envOr("RESOURCEFLOW_LOG_LEVEL", "info"),
		Format: envOr("RESOURCEFLOW_LOG_FORMAT", "json"),
		Output: envOr("RESOURCEFLOW_LOG_OUTPUT", "stdout"),
	})

	ctx := context.Background()

	tracingEnabled := os.Getenv("RESOURCEFLOW_TRACING_ENABLED") == "true"
	if tracingEnabled {
		tp, err := telemetry.Init(ctx, telemetry.Config{
			Enabled:     true,
			Endpoint:    envOr("RESOURCEFLOW_TRACING_ENDPOINT", "localhost:4317"),
			ServiceName: "resourceflow",
			Version:     "dev",
			Environment: envOr("RESOURCEFLOW_ENVIRONMENT", "development"),
			SampleRate:  1.0,
		})
		if err != nil {
			logger.Log.Warn("failed to init telemetry", "error", err)
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tp.Shutdown(shutdownCtx); err != nil {
					logger.Log.Warn("failed to shutdown telemetry", "error", err)
				}
			}()
		}
	}

	metrics.InitMetrics("resourceflow", "solver")
	if os.Getenv("RESOURCEFLOW_METRICS_ENABLED") == "true" {
		go func() {
			if err := metrics.StartMetricsServer(9090); err != nil {
				logger.Log.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	snapshot := sampleSnapshot()

	solution, diag, err := solver.ComputeRates(ctx, snapshot)
	if err != nil {
		logger.Fatal("solve failed", "error", err)
	}

	logger.Info("solve succeeded",
		"solve_id", diag.SolveID,
		"logical_inventories", diag.LogicalInventories,
		"logical_converters", diag.LogicalConverters,
		"duration", diag.Duration,
	)

	out := json.NewEncoder(os.Stdout)
	out.SetIndent("", "  ")
	_ = out.Encode(solution)
}

// sampleSnapshot models a solar array charging a half-full battery: a
// single converter, no competing demands, demonstrating the flat-out
// no-shortage case.
func sampleSnapshot() *domain.ProcessorSnapshot {
	return &domain.ProcessorSnapshot{
		Inventories: []domain.Inventory{
			{ID: 0, Resource: "EC", Amount: 50, MaxAmount: 100},
		},
		Converters: []domain.Converter{
			{
				ID:       0,
				Priority: 0,
				Outputs:  map[string]domain.OutputRate{"EC": {Resource: "EC", Rate: 1.0}},
				Push:     map[int]struct{}{0: {}},
			},
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
