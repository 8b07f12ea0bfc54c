package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psantana5/hostbench/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// resetState puts the package-level command tree and viper back to their
// initial state so one Execute cannot leak flags or config into the next
func resetState(t *testing.T) {
	t.Helper()
	cfgFile = ""
	viper.Reset()
	config.SetDefaults(viper.GetViper())
	for key, flag := range boundFlags {
		require.NoError(t, viper.BindPFlag(key, flag))
	}
	resetFlags(t, rootCmd)
}

func resetFlags(t *testing.T, c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			require.NoError(t, sv.Replace(nil))
		} else {
			require.NoError(t, f.Value.Set(f.DefValue))
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(t, sub)
	}
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetState(t)
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		resetState(t)
	})
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRunPrintsTwoDurations(t *testing.T) {
	cfg := writeConfig(t, "log_level: error\n")

	stdout, _, err := execute(t, "run", "--config", cfg)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		ms, err := strconv.ParseFloat(line, 64)
		require.NoError(t, err, "line %q", line)
		assert.GreaterOrEqual(t, ms, 0.0)
	}
}

func TestConfigShowReflectsFile(t *testing.T) {
	cfg := writeConfig(t, "resource: wasmbench\nserve:\n  rps: 2\n")

	stdout, _, err := execute(t, "config", "show", "--config", cfg)
	require.NoError(t, err)

	assert.Contains(t, stdout, "resource: wasmbench")
	assert.Contains(t, stdout, "rps: 2")
	assert.Contains(t, stdout, "output: plain")
}

func TestMissingExplicitConfigFails(t *testing.T) {
	_, _, err := execute(t, "run", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestFlagsDoNotLeakBetweenExecutions(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := writeConfig(t, "log_level: error\nresource: wasmbench\n")

	stdout, _, err := execute(t, "run", "--config", cfg, "--labels")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "bench_1: "))

	// Neither --labels nor --config carries over
	stdout, _, err = execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "labels: false")
	assert.Contains(t, stdout, "resource: jsbench")
	assert.Empty(t, cfgFile)
}
