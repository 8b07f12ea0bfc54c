package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/psantana5/hostbench/internal/host"
	"github.com/psantana5/hostbench/internal/report"
	"github.com/psantana5/hostbench/internal/script"
	"github.com/psantana5/hostbench/internal/tracing"
)

var suiteCmd = &cobra.Command{
	Use:   "suite",
	Short: "Run calibrated benchmarks for natives, exports and event handlers",
	Long: `Suite repeats every benchmark until one batch takes at least --target
and reports the mean time per operation:

  invoking::get_num_resources
  invoking::cancel_event
  exports::exportBench
  event_handler::jsEventHandler (long)
  event_handler::jsEventHandler (short)

Example:
  hostbench suite
  hostbench suite --target 250ms --payload-size 1024 -o table`,
	Args: cobra.NoArgs,
	RunE: runSuite,
}

func init() {
	rootCmd.AddCommand(suiteCmd)

	suiteCmd.Flags().Duration("target", 0, "minimum batch time per benchmark (default from config, 1s)")
	suiteCmd.Flags().Int("payload-size", 0, "bytes in the long event payload (default from config, 4096)")
	bindFlag("suite.target", suiteCmd.Flags().Lookup("target"))
	bindFlag("suite.payload_size", suiteCmd.Flags().Lookup("payload-size"))
}

// suiteReport is the structured form of one suite run
type suiteReport struct {
	Environment *report.Environment `json:"environment" yaml:"environment"`
	Samples     []report.Sample     `json:"samples" yaml:"samples"`
}

func runSuite(cmd *cobra.Command, args []string) error {
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

	env, err := report.CollectEnvironment()
	if err != nil {
		logger.Warn("Environment snapshot incomplete", map[string]interface{}{"error": err.Error()})
	}

	rt := host.NewRuntime(cfg.Resource, cfg.Resources...)
	metrics := report.NewMetrics()

	samples, err := script.RunSuite(ctx, rt, script.Options{
		Logger:  logger,
		Metrics: metrics,
		Tracer:  provider.Tracer(),
	}, script.SuiteOptions{
		Target:      cfg.Suite.Target,
		PayloadSize: cfg.Suite.PayloadSize,
	})
	if err != nil {
		return fmt.Errorf("suite: %w", err)
	}

	out := cmd.OutOrStdout()
	if err := writeSuite(out, cfg.Output, suiteReport{Environment: env, Samples: samples}); err != nil {
		return err
	}

	if cfg.Metrics {
		return metrics.WriteText(cmd.ErrOrStderr())
	}
	return nil
}

func writeSuite(w io.Writer, format string, r suiteReport) error {
	switch format {
	case report.FormatJSON:
		return report.WriteJSON(w, r)
	case report.FormatYAML:
		return report.WriteYAML(w, r)
	case report.FormatTable:
		if err := report.WriteEnvironmentTable(w, r.Environment); err != nil {
			return err
		}
		return report.WriteSamplesTable(w, r.Samples)
	default:
		fmt.Fprintf(w, "%s, %d threads\n", r.Environment.CPUModel, r.Environment.CPUThreads)
		for _, s := range r.Samples {
			fmt.Fprintf(w, "%-52s %12s (%d iterations)\n", s.Name, report.FormatNs(s.NsPerOp), s.Iterations)
		}
		return nil
	}
}
