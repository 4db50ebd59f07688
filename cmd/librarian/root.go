package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/librarian/internal/config"
	logpkg "github.com/kailas-cloud/librarian/internal/logger"
	"github.com/kailas-cloud/librarian/internal/version"
)

// runtimeEnv carries what every subcommand needs after PersistentPreRunE.
type runtimeEnv struct {
	env    string
	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	var (
		env     string
		cfgFile string
		rt      runtimeEnv
	)

	root := &cobra.Command{
		Use:   "librarian",
		Short: "Smart Librarian - book recommendations over a vector-indexed catalog",
		Long: `Librarian indexes a markdown book catalog into a Redis/Valkey vector index
and serves recommendations, text-to-speech and speech-to-text over HTTP.

Example usage:
  librarian serve                 # ingest the catalog, then serve HTTP
  librarian ingest --recreate     # rebuild the index from scratch`,
		Version:      fmt.Sprintf("%s (commit %s, built %s)", version.Version, version.Commit, version.Date),
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			var err error
			if cfgFile != "" {
				rt.cfg, err = config.LoadFile(cfgFile)
			} else {
				rt.cfg, err = config.Load(env)
			}
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			rt.logger, err = logpkg.NewLogger(env, rt.cfg.Logging.Level)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			rt.env = env
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if rt.logger != nil {
				_ = rt.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&env, "env", config.GetEnv(), "environment name, selects config/<env>.yaml")
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (overrides --env lookup)")

	root.AddCommand(newServeCmd(&rt), newIngestCmd(&rt))
	return root
}
