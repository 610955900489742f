package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trainerpass/guardian/pkg/cli"
	"trainerpass/guardian/pkg/config"
	"trainerpass/guardian/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "guardian",
	Short: "Guardian - content moderation for user-generated text",
	Long: `Guardian scans user-submitted text (profile bios, trade notes, chat) for
self-harm, threats, hate speech, slurs, profanity, sexual content and shared
phone numbers.

It can run as an HTTP service that records violations and tracks repeat
offenders, or scan text offline from the command line.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig returns the global configuration, loading it on first use. A
// missing file is tolerated unless --config was given explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if cfg := config.GetConfig(); cfg != nil {
		return cfg, nil
	}
	allowMissing := !cmd.Flags().Changed("config")
	if err := config.Initialize(cfgFile, allowMissing); err != nil {
		return nil, cli.NewConfigError(cfgFile, err.Error())
	}
	return config.GetConfig(), nil
}

// setupLogging installs the redacting logger as the slog default.
func setupLogging(cfg config.LoggingConfig) error {
	logCfg := logging.FromConfig(cfg)
	if verbose {
		logCfg.Level = "debug"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	logger.SetDefault()
	return nil
}
