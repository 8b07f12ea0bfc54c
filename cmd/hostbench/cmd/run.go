package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/psantana5/hostbench/internal/host"
	"github.com/psantana5/hostbench/internal/report"
	"github.com/psantana5/hostbench/internal/script"
	"github.com/psantana5/hostbench/internal/tracing"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the benchmark script once",
	Long: `Run registers exportBench and jsEventHandler, calls bench_1 and bench_2
directly, then times each once. With the default plain output each timed
call prints one line holding its duration in milliseconds.

Example:
  hostbench run
  hostbench run --labels
  hostbench run -o table --resources wasmbench,mapmanager`,
	Args: cobra.NoArgs,
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// runReport is the structured form of one run
type runReport struct {
	RunID   string          `json:"run_id" yaml:"run_id"`
	Results []report.Result `json:"results" yaml:"results"`
}

func runScript(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	provider, err := tracing.InitTracer(ctx, tracingConfig(cfg), logger)
	if err != nil {
		return err
	}
	defer shutdownTracer(provider)

	rt := host.NewRuntime(cfg.Resource, cfg.Resources...)
	metrics := report.NewMetrics()

	out := cmd.OutOrStdout()
	lines := io.Discard
	if cfg.Output == report.FormatPlain {
		lines = out
	}

	sc := script.New(rt, script.Options{
		Out:     lines,
		Labels:  cfg.Labels,
		Logger:  logger,
		Metrics: metrics,
		Tracer:  provider.Tracer(),
	})

	results, err := sc.Run(ctx)
	if err != nil {
		return fmt.Errorf("run %s: %w", sc.RunID(), err)
	}

	if err := writeRun(out, cfg.Output, runReport{RunID: sc.RunID(), Results: results}); err != nil {
		return err
	}

	if cfg.Metrics {
		return metrics.WriteText(cmd.ErrOrStderr())
	}
	return nil
}

func writeRun(w io.Writer, format string, r runReport) error {
	switch format {
	case report.FormatJSON:
		return report.WriteJSON(w, r)
	case report.FormatYAML:
		return report.WriteYAML(w, r)
	case report.FormatTable:
		return report.WriteResultsTable(w, r.Results)
	default:
		// plain lines were printed by the observers as they fired
		return nil
	}
}

func shutdownTracer(p *tracing.Provider) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = p.Shutdown(ctx)
}
