// Package cli implements the jvmcov command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	rootCmd = &cobra.Command{
		Use:           "jvmcov",
		Short:         "Inspect, merge and analyze JVM execution data files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	logLevel   string
	configPath string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&logLevel,
		"log-level",
		"l",
		"",
		"log level, one of ('debug', 'info', 'warn', 'error')",
	)
	rootCmd.PersistentFlags().StringVarP(
		&configPath,
		"config",
		"c",
		"",
		"path to YAML config file",
	)
}

// setup loads the config and builds the logger. The --log-level flag
// overrides the config value.
func setup() (*zap.Logger, *Config, error) {
	conf, err := ParseConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		conf.LogLevel = logLevel
	}

	logger, err := newLogger(conf.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, conf, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
