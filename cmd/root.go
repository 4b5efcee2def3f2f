// Package cmd provides the semhash command-line interface.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/adalundhe/semhash/core/config"
	"github.com/adalundhe/semhash/core/storage"
)

var (
	rootConfigPath string
	rootVerbose    bool

	// configManager is populated by the root pre-run hook.
	configManager *config.Manager

	// logLevel backs the default slog handler so reloads can change it.
	logLevel slog.LevelVar
)

var rootCmd = &cobra.Command{
	Use:   "semhash",
	Short: "semhash - hashed n-gram text vectors and similarity search",
	Long: `semhash turns text into 256-dimensional hashed character 4-gram vectors,
compares them with cosine similarity, and ranks documents with TF-IDF,
semantic-hash, or hybrid scoring.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config", "", "Path to an additional YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "Enable debug logging")
}

func Execute() error {
	return rootCmd.Execute()
}

// loadConfig resolves layered configuration and installs the default logger.
func loadConfig(cmd *cobra.Command, _ []string) error {
	m := config.NewManager(storage.ResolveDirs())
	if rootConfigPath != "" {
		m.WithFile(rootConfigPath)
	}
	if err := m.Load(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	configManager = m

	applyLogLevel(m.Get())
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: &logLevel})))
	return nil
}

// applyLogLevel sets the handler level from cfg; --verbose wins.
func applyLogLevel(cfg *config.Config) {
	if rootVerbose {
		logLevel.Set(slog.LevelDebug)
		return
	}
	level, _ := cfg.Log.SlogLevel()
	logLevel.Set(level)
}

// currentConfig returns the loaded config, or defaults when the pre-run
// hook has not run (as in unit tests calling run functions directly).
func currentConfig() *config.Config {
	if configManager == nil {
		return config.DefaultConfig()
	}
	return configManager.Get()
}
