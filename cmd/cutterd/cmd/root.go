// Package cmd implements the cutterd CLI commands.
package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/finnhorvath/cutterd/internal/config"
	"github.com/finnhorvath/cutterd/internal/observability"
	"github.com/finnhorvath/cutterd/internal/version"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "cutterd",
	Short:   "Cut a media file against a list of time ranges to keep",
	Version: version.Short(),
	Long: `cutterd keeps a list of time ranges from an MPEG-TS input, drops
everything outside them, re-times the kept packets onto a continuous,
gap-free timeline, and writes the result to an MPEG-TS output.

It runs the cut as a four-stage concurrent pipeline (demux, video cut, audio
cut, mux) connected by bounded queues, so a cut never has to hold the whole
input in memory.`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return initConfigAndLogging()
	},
}

var loadedConfig *config.Config

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format override (json, text)")

	mustBindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	mustBindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfigAndLogging() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = strings.ToLower(logLevel)
	}
	if logFormat != "" {
		cfg.Logging.Format = strings.ToLower(logFormat)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating configuration overrides: %w", err)
	}

	logger := observability.NewLogger(cfg.Logging)
	slog.SetDefault(logger)

	loadedConfig = cfg
	return nil
}

// mustBindPFlag binds a viper key to a cobra flag and panics if binding fails.
func mustBindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("failed to bind flag %q to key %q: %v", flag.Name, key, err))
	}
}
