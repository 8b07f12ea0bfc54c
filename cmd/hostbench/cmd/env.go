package cmd

import (
	"github.com/spf13/cobra"

	"github.com/psantana5/hostbench/internal/report"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Show the machine benchmarks run on",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}

		env, err := report.CollectEnvironment()
		if err != nil {
			logger.Warn("Environment snapshot incomplete", map[string]interface{}{"error": err.Error()})
		}

		out := cmd.OutOrStdout()
		switch cfg.Output {
		case report.FormatJSON:
			return report.WriteJSON(out, env)
		case report.FormatYAML:
			return report.WriteYAML(out, env)
		default:
			return report.WriteEnvironmentTable(out, env)
		}
	},
}

func init() {
	rootCmd.AddCommand(envCmd)
}
