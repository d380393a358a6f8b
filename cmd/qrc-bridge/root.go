// cmd/qrc-bridge/root.go
package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tamzrod/qrc-bridge/internal/config"
	"github.com/tamzrod/qrc-bridge/internal/logging"
)

// commandContext carries the persistent flags to every subcommand.
type commandContext struct {
	configPath string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "qrc-bridge",
		Short:         "Persistent session manager for a redundant pair of QRC cores",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configPath, "config", "c", "bridge.yaml", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&ctx.logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newValidateCommand(ctx))
	rootCmd.AddCommand(newSendCommand(ctx))
	rootCmd.AddCommand(newSetCommand(ctx))

	return rootCmd
}

// load reads, validates and normalizes the configured file.
func (c *commandContext) load() (*config.Config, error) {
	cfg, err := config.LoadValid(c.configPath)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", c.configPath, err)
	}
	return cfg, nil
}

// logger builds the process logger from config, honouring --log-level.
func (c *commandContext) logger(cfg *config.Config) (*slog.Logger, error) {
	level := cfg.Bridge.Log.Level
	if c.logLevel != "" {
		level = c.logLevel
	}
	return logging.New(logging.Options{Level: level, Format: cfg.Bridge.Log.Format})
}
