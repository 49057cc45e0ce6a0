package main

import (
	"fmt"

	"github.com/jzx17/pagecheck/internal/config"
	"github.com/jzx17/pagecheck/internal/logging"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	logFormat  string

	// cfg is loaded before any subcommand runs
	cfg = config.DefaultConfig()
)

var rootCmd = &cobra.Command{
	Use:   "pagecheck",
	Short: "Visual regression checks for browser tests",
	Long: `pagecheck compares browser captures against approved baseline images,
manages the baseline store and runs single visual checkpoints against live pages.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		level, format := cfg.Logging.Level, cfg.Logging.Format
		if cmd.Flags().Changed("log-level") {
			level = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			format = logFormat
		}
		logging.Setup(level, format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", fmt.Sprintf("Config file (default $%s or ./%s)", config.EnvConfigPath, config.DefaultConfigFile))
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
}
