// Package cmdutil holds the plumbing shared by the cake commands: flag
// registration, config resolution and engine construction.
package cmdutil

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/cake/pkg/config"
	"github.com/papercomputeco/cake/pkg/engine"
	"github.com/papercomputeco/cake/pkg/logger"
)

var uintFlags = map[string]bool{
	config.FlagEmbeddingDims: true,
	config.FlagHistoryWindow: true,
	config.FlagTopK:          true,
}

// AddFlags registers every flag of the given sets on cmd. Values are read
// back through LoadConfig, which layers them over the environment, the
// config file and the defaults.
func AddFlags(cmd *cobra.Command, sets ...config.FlagSet) {
	for _, fs := range sets {
		for _, key := range fs.Keys() {
			if uintFlags[key] {
				config.AddUintFlag(cmd, fs, key, new(uint))
				continue
			}
			config.AddStringFlag(cmd, fs, key, new(string))
		}
	}
}

// LoadConfig resolves the effective configuration for cmd.
func LoadConfig(cmd *cobra.Command, sets ...config.FlagSet) (*config.Config, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	for _, fs := range sets {
		config.BindRegisteredFlags(v, cmd, fs, fs.Keys())
	}

	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// NewLogger builds the CLI logger. Logs go to stderr so command output
// stays pipeable.
func NewLogger(cmd *cobra.Command) *slog.Logger {
	debug, _ := cmd.Flags().GetBool("debug")
	return logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(true),
		logger.WithWriter(os.Stderr),
	)
}

// OpenEngine loads the configuration for cmd and opens the knowledge base.
// withModel also builds the language model and its dependents.
func OpenEngine(ctx context.Context, cmd *cobra.Command, log *slog.Logger, withModel bool, sets ...config.FlagSet) (*engine.Engine, error) {
	cfg, err := LoadConfig(cmd, sets...)
	if err != nil {
		return nil, err
	}

	configDir, _ := cmd.Flags().GetString("config-dir")
	return engine.Open(ctx, engine.Options{
		Config:    cfg,
		ConfigDir: configDir,
		WithModel: withModel,
		Logger:    log,
	})
}
