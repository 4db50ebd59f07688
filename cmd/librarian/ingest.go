package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	ingestuc "github.com/kailas-cloud/librarian/internal/usecase/ingest"
)

func newIngestCmd(rt *runtimeEnv) *cobra.Command {
	var (
		catalogPath string
		summaryPath string
		recreate    bool
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load the catalog into the vector index and exit",
		Long: `Parse the markdown catalog, embed every book and write it to the index.
Re-running overwrites entries in place; --recreate drops the index first.

Examples:
  librarian ingest
  librarian ingest --catalog data/book_summaries.md --recreate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger := rt.cfg, rt.logger
			if catalogPath == "" {
				catalogPath = cfg.Catalog.DataPath
			}
			if summaryPath == "" {
				summaryPath = cfg.Catalog.FullSummaryPath
			}

			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.ingest.Run(cmd.Context(), ingestuc.Options{
				CatalogPath: catalogPath,
				SummaryPath: summaryPath,
				Recreate:    recreate,
			})
			if err != nil {
				return fmt.Errorf("ingest catalog: %w", err)
			}

			logger.Info("Ingestion finished",
				zap.Int("books", res.Books),
				zap.Int("summaries", res.Summaries),
				zap.Bool("index_created", res.Created),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog markdown file (default from config)")
	cmd.Flags().StringVar(&summaryPath, "summaries", "", "full summary JSON file (default from config)")
	cmd.Flags().BoolVar(&recreate, "recreate", false, "drop the index and its entries before ingesting")
	return cmd
}
