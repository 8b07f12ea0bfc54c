package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/psantana5/hostbench/internal/config"
	"github.com/psantana5/hostbench/internal/logging"
	"github.com/psantana5/hostbench/internal/tracing"
)

var (
	cfgFile string
	version = "dev"

	// viper key -> flag, kept so bindings can be restored after viper.Reset
	boundFlags = map[string]*pflag.Flag{}
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "hostbench",
	Short: "Micro-benchmarks for hosted script capabilities",
	Long: `hostbench runs a benchmark script against a scripting host: it registers
an export and an event handler, calls bench_1 (GetNumResources) and
bench_2 (CancelEvent) directly, then times each once and prints the
measured duration in milliseconds.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and runs it
func Execute(v string) error {
	version = v
	rootCmd.Version = v
	return rootCmd.Execute()
}

func init() {
	config.SetDefaults(viper.GetViper())

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.hostbench/config.yaml)")
	flags.StringP("output", "o", "plain", "output format: plain, json, yaml or table")
	flags.Bool("labels", false, "prefix each printed duration with its benchmark label")
	flags.Bool("metrics", false, "dump Prometheus metrics to stderr after the run")
	flags.String("log-level", "warn", "log level: debug, info, warn, error")
	flags.Bool("log-json", false, "emit JSON log lines")
	flags.String("resource", "jsbench", "name of the resource the script runs as")
	flags.StringSlice("resources", nil, "other resources started in the host")
	flags.Bool("tracing", false, "export a span per timed invocation over OTLP/HTTP")
	flags.String("tracing-endpoint", "localhost:4318", "OTLP/HTTP endpoint")

	bindFlag("output", flags.Lookup("output"))
	bindFlag("labels", flags.Lookup("labels"))
	bindFlag("metrics", flags.Lookup("metrics"))
	bindFlag("log_level", flags.Lookup("log-level"))
	bindFlag("log_json", flags.Lookup("log-json"))
	bindFlag("resource", flags.Lookup("resource"))
	bindFlag("resources", flags.Lookup("resources"))
	bindFlag("tracing.enabled", flags.Lookup("tracing"))
	bindFlag("tracing.endpoint", flags.Lookup("tracing-endpoint"))
}

// initConfig reads in config file and ENV variables if set
func initConfig() error {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".hostbench"))
		}
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("HOSTBENCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// A missing default config is fine, an explicit one must exist
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// setup resolves configuration and builds the logger for a command
func setup() (*config.Config, *logging.Logger, error) {
	if err := initConfig(); err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogJSON)
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug("Config loaded", map[string]interface{}{"file": used})
	}
	return cfg, logger, nil
}

func tracingConfig(cfg *config.Config) tracing.Config {
	return tracing.Config{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
		OTLPEndpoint:   cfg.Tracing.Endpoint,
		Enabled:        cfg.Tracing.Enabled,
	}
}

func bindFlag(key string, flag *pflag.Flag) {
	boundFlags[key] = flag
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", key, err))
	}
}
