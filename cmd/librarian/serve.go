package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/librarian/internal/config"
	"github.com/kailas-cloud/librarian/internal/metrics"
	chiTransport "github.com/kailas-cloud/librarian/internal/transport/chi"
	ingestuc "github.com/kailas-cloud/librarian/internal/usecase/ingest"
	"github.com/kailas-cloud/librarian/internal/version"
)

func newServeCmd(rt *runtimeEnv) *cobra.Command {
	var skipIngest bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Ingest the catalog and serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), rt, skipIngest)
		},
	}
	cmd.Flags().BoolVar(&skipIngest, "skip-ingest", false, "serve the existing index without ingesting")
	return cmd
}

func runServe(ctx context.Context, rt *runtimeEnv, skipIngest bool) error {
	cfg, logger := rt.cfg, rt.logger

	logger.Info("Starting librarian API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", rt.env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Duration("request_timeout", cfg.RequestTimeout()),
		zap.String("catalog", cfg.Catalog.DataPath),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	// Ingestion finishes before the listener starts.
	if cfg.IngestOnStart() && !skipIngest {
		if _, err := a.ingest.Run(ctx, ingestuc.Options{
			CatalogPath: cfg.Catalog.DataPath,
			SummaryPath: cfg.Catalog.FullSummaryPath,
		}); err != nil {
			return fmt.Errorf("ingest catalog: %w", err)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      newRouter(cfg, chiTransport.NewServer(a.recommend, a.speech, a.health, logger), logger),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// newRouter builds the middleware stack and mounts the API.
// Upstream calls share the request deadline, which ends before the write timeout.
func newRouter(cfg config.Config, api *chiTransport.Server, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(corsMiddleware(cfg.HTTP.CORSOrigins))
	r.Use(chiMiddleware.Timeout(cfg.RequestTimeout()))
	r.Use(metrics.Middleware())

	api.Register(r)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// corsMiddleware allows the configured browser origins with credentials.
func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
